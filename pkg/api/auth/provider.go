package auth

import (
	"errors"
	"fmt"
)

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(cfg *Config, writeError ErrorWriter) (Provider, error) {
	roles := NewRoles(cfg.ParseAdminUsers())

	switch cfg.Provider {
	case ProviderKey, "":
		keys, err := cfg.ParseAPIKeys()
		if err != nil {
			return nil, fmt.Errorf("parse api keys: %w", err)
		}
		return NewKeyAuthProvider(keys, roles, writeError), nil
	case ProviderClerk:
		if cfg.ClerkSecretKey == "" {
			return nil, errors.New("clerk provider requires CLERK_SECRET_KEY")
		}
		return NewClerkAuthProviderWithSDK(cfg.ClerkSecretKey, roles, writeError), nil
	default:
		return nil, fmt.Errorf("unknown auth provider: %s", cfg.Provider)
	}
}
