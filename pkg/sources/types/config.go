package types

// ProviderConfig holds credentials supplied through the environment.
// Non-empty values take precedence over credentials saved through the settings form.
type ProviderConfig struct {
	PexelsAPIKey  string `env:"PEXELS_API_KEY,default="`
	PexelsBaseURL string `env:"PEXELS_BASE_URL,default=https://api.pexels.com/" validate:"required,url"`
	PexelsPerPage int    `env:"PEXELS_PER_PAGE,default=30" validate:"gte=1,lte=80"`

	GoogleDriveClientID     string `env:"GOOGLE_DRIVE_CLIENT_ID,default="`
	GoogleDriveAPIKey       string `env:"GOOGLE_DRIVE_API_KEY,default="`
	GoogleDriveClientSecret string `env:"GOOGLE_DRIVE_CLIENT_SECRET,default="`
	GoogleDriveRedirectURL  string `env:"GOOGLE_DRIVE_REDIRECT_URL,default=postmessage"`
	GoogleDriveAPIBaseURL   string `env:"GOOGLE_DRIVE_API_BASE_URL,default=https://www.googleapis.com/drive/v3/" validate:"required,url"`
}

// Credentials resolves a named credential at call time so that
// settings saved while the process runs are picked up.
type Credentials interface {
	Get(key string) string
}

// StaticCredentials is a fixed credential map.
type StaticCredentials map[string]string

func (c StaticCredentials) Get(key string) string {
	return c[key]
}
