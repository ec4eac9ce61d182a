package auth

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	ProviderKey   = "key"
	ProviderClerk = "clerk"
)

type Config struct {
	Provider string `env:"AUTH_PROVIDER,default=key" validate:"oneof=key clerk"`
	// APIKeys is a JSON or comma-separated key=value pairs string containing key-to-userID mapping
	// Example: {"key1":"user1","key2":"user2"} or "key1=user1,key2=user2"
	APIKeys string `env:"AUTH_API_KEYS,default={}"`
	// AdminUsers lists the user IDs allowed to manage settings, comma separated.
	AdminUsers  string        `env:"AUTH_ADMIN_USERS"`
	NonceSecret string        `env:"AUTH_NONCE_SECRET,required" validate:"min=16"`
	NonceTTL    time.Duration `env:"AUTH_NONCE_TTL,default=12h" validate:"gt=0"`
	// ClerkSecretKey is only read when Provider is "clerk".
	ClerkSecretKey string `env:"CLERK_SECRET_KEY"`
}

// ParseAPIKeys parses the JSON string into a map[string]string
func (c *Config) ParseAPIKeys() (map[string]string, error) {
	if c.APIKeys == "" || c.APIKeys == "{}" {
		return make(map[string]string), nil
	}

	var keyMap map[string]string
	if err := json.Unmarshal([]byte(c.APIKeys), &keyMap); err != nil {
		return c.parseKeyValuePairs()
	}

	return keyMap, nil
}

func (c *Config) ParseAdminUsers() []string {
	var out []string
	for id := range strings.SplitSeq(c.AdminUsers, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (c *Config) parseKeyValuePairs() (map[string]string, error) {
	keyMap := make(map[string]string)

	if c.APIKeys == "" {
		return keyMap, nil
	}

	for pair := range strings.SplitSeq(c.APIKeys, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid key-value pair: %s", pair)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if key == "" || value == "" {
			return nil, fmt.Errorf("empty key or value in pair: %s", pair)
		}

		keyMap[key] = value
	}

	return keyMap, nil
}
