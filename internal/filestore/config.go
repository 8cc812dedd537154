package filestore

import (
	"fmt"

	"github.com/david-delgrosso/django-er-diagram/internal/errs"
)

// Provider identifies the output storage backend.
type Provider string

const (
	ProviderLocal Provider = "local"
	ProviderMinIO Provider = "minio"
)

// Config holds all settings needed to open an output store.
type Config struct {
	// Provider is the storage backend (ProviderLocal or ProviderMinIO).
	Provider Provider

	// Root is the directory object keys are resolved against.
	// Local only; normally the project root.
	Root string

	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string

	// AccessKey is the access key ID (MinIO / S3 style).
	AccessKey string

	// SecretKey is the secret access key.
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends (e.g. AWS S3).
	// Leave empty for MinIO.
	Region string

	// Bucket receives the generated pages. Created when missing.
	Bucket string

	// Prefix is prepended to every object key, e.g. "erd/".
	Prefix string
}

// DefaultConfig returns a config that writes next to the sources under root.
func DefaultConfig(root string) *Config {
	return &Config{
		Provider: ProviderLocal,
		Root:     root,
	}
}

// Validate checks that the settings the chosen provider needs are present.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.Root == "" {
			return errs.New(errs.ErrKindConfig, "local store needs a root directory")
		}
	case ProviderMinIO:
		if c.Endpoint == "" || c.Bucket == "" {
			return errs.New(errs.ErrKindConfig, "minio store needs an endpoint and a bucket")
		}
	default:
		return errs.New(errs.ErrKindConfig, fmt.Sprintf("unsupported store %q (want local or minio)", c.Provider))
	}
	return nil
}
