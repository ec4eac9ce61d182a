package download

import "time"

type Config struct {
	Dir          string        `env:"UPLOADS_DIR,default=./uploads" validate:"required"`
	Timeout      time.Duration `env:"DOWNLOAD_TIMEOUT,default=60s" validate:"gt=0"`
	MaxRedirects int           `env:"DOWNLOAD_MAX_REDIRECTS,default=5" validate:"gte=0"`
	// AllowPrivateNetworks permits downloads from loopback and private addresses.
	AllowPrivateNetworks bool `env:"DOWNLOAD_ALLOW_PRIVATE_NETWORKS,default=false"`
}
