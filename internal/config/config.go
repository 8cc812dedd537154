// Package config loads erdiagram settings from .erdiagram.yaml, ERDIAGRAM_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/david-delgrosso/django-er-diagram/internal/database"
	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/export"
	"github.com/david-delgrosso/django-er-diagram/internal/filestore"
	"github.com/david-delgrosso/django-er-diagram/internal/generate"
	"github.com/david-delgrosso/django-er-diagram/internal/logger"
	"github.com/david-delgrosso/django-er-diagram/internal/metadata/catalog"
	"github.com/david-delgrosso/django-er-diagram/internal/metadata/manifest"
)

// FileName is the config file looked up in the working directory.
const FileName = ".erdiagram"

// EnvPrefix prefixes every environment variable, e.g. ERDIAGRAM_OUTPUT.
const EnvPrefix = "ERDIAGRAM"

// Metadata provider kinds.
const (
	ProviderManifest = "manifest"
	ProviderCatalog  = "catalog"
)

// Config holds all runtime configuration for one invocation.
type Config struct {
	Only            []string       `mapstructure:"only"`
	Ignore          []string       `mapstructure:"ignore"`
	Output          string         `mapstructure:"output"`
	OutputDirectory string         `mapstructure:"output_directory"`
	ProjectRoot     string         `mapstructure:"project_root"`
	ProjectName     string         `mapstructure:"project_name"`
	Types           TypesConfig    `mapstructure:"types"`
	Provider        ProviderConfig `mapstructure:"provider"`
	Store           StoreConfig    `mapstructure:"store"`
	Log             LogConfig      `mapstructure:"log"`
	Serve           ServeConfig    `mapstructure:"serve"`
}

// TypesConfig extends the recognised field types.
type TypesConfig struct {
	Extra []string `mapstructure:"extra"`
}

// ProviderConfig selects where model metadata comes from.
type ProviderConfig struct {
	Kind     string        `mapstructure:"kind"`
	Manifest string        `mapstructure:"manifest"`
	Catalog  CatalogConfig `mapstructure:"catalog"`
}

// CatalogConfig points at the catalog table of the application database.
type CatalogConfig struct {
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	Table          string        `mapstructure:"table"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// StoreConfig selects where pages are written.
type StoreConfig struct {
	Kind  string      `mapstructure:"kind"`
	MinIO MinIOConfig `mapstructure:"minio"`
}

// MinIOConfig holds object store settings.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// New returns a viper instance with defaults and environment lookup set
// up. Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("only", []string{})
	v.SetDefault("ignore", []string{})
	v.SetDefault("output", string(export.FormatHTML))
	v.SetDefault("output_directory", "docs")
	v.SetDefault("project_root", ".")
	v.SetDefault("project_name", "")
	v.SetDefault("types.extra", []string{})

	v.SetDefault("provider.kind", ProviderManifest)
	v.SetDefault("provider.manifest", "")
	v.SetDefault("provider.catalog.driver", string(database.DriverPostgres))
	v.SetDefault("provider.catalog.dsn", "")
	v.SetDefault("provider.catalog.table", catalog.DefaultTable)
	v.SetDefault("provider.catalog.connect_timeout", 10*time.Second)

	v.SetDefault("store.kind", string(filestore.ProviderLocal))
	v.SetDefault("store.minio.endpoint", "")
	v.SetDefault("store.minio.access_key", "")
	v.SetDefault("store.minio.secret_key", "")
	v.SetDefault("store.minio.use_ssl", false)
	v.SetDefault("store.minio.region", "")
	v.SetDefault("store.minio.bucket", "")
	v.SetDefault("store.minio.prefix", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("serve.addr", "127.0.0.1:8000")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file into v and decodes the result. An explicit
// file must exist; the default .erdiagram.yaml is optional.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errs.Wrap(errs.ErrKindConfig, "failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, "failed to decode config", err)
	}
	return &cfg, nil
}

// Validate reports settings that would make a run fail part way.
func (c *Config) Validate() error {
	if _, err := export.ParseFormat(c.Output); err != nil {
		return err
	}
	if !logger.ValidLevel(c.Log.Level) {
		return errs.Newf(errs.ErrKindConfig, "invalid log level %q", c.Log.Level)
	}
	if !logger.ValidFormat(c.Log.Format) {
		return errs.Newf(errs.ErrKindConfig, "invalid log format %q", c.Log.Format)
	}

	switch c.Provider.Kind {
	case ProviderManifest:
	case ProviderCatalog:
		if err := c.DatabaseConfig().Validate(); err != nil {
			return err
		}
	default:
		return errs.Newf(errs.ErrKindConfig, "unsupported provider %q (want %s or %s)",
			c.Provider.Kind, ProviderManifest, ProviderCatalog)
	}

	return c.StoreConfig().Validate()
}

// GenerateOptions returns the options of a generate-diagrams run.
func (c *Config) GenerateOptions() generate.Options {
	return generate.Options{
		Only:        c.Only,
		Ignore:      c.Ignore,
		Format:      export.Format(strings.ToLower(strings.TrimSpace(c.Output))),
		OutputDir:   c.OutputDirectory,
		ProjectRoot: c.ProjectRoot,
		ProjectName: c.ProjectName,
		ExtraTypes:  c.Types.Extra,
	}
}

// ManifestPath returns the configured manifest, defaulting to
// erd_manifest.yaml in the project root.
func (c *Config) ManifestPath() string {
	if c.Provider.Manifest != "" {
		return c.Provider.Manifest
	}
	return filepath.Join(c.ProjectRoot, manifest.DefaultFilename)
}

// DatabaseConfig returns the catalog connection settings.
func (c *Config) DatabaseConfig() *database.Config {
	cfg := database.DefaultConfig(database.Driver(c.Provider.Catalog.Driver), c.Provider.Catalog.DSN)
	if c.Provider.Catalog.ConnectTimeout > 0 {
		cfg.ConnectTimeout = c.Provider.Catalog.ConnectTimeout
	}
	return cfg
}

// StoreConfig returns the output store settings.
func (c *Config) StoreConfig() *filestore.Config {
	return &filestore.Config{
		Provider:  filestore.Provider(c.Store.Kind),
		Root:      c.ProjectRoot,
		Endpoint:  c.Store.MinIO.Endpoint,
		AccessKey: c.Store.MinIO.AccessKey,
		SecretKey: c.Store.MinIO.SecretKey,
		UseSSL:    c.Store.MinIO.UseSSL,
		Region:    c.Store.MinIO.Region,
		Bucket:    c.Store.MinIO.Bucket,
		Prefix:    c.Store.MinIO.Prefix,
	}
}

// LoggerConfig returns the logger settings.
func (c *Config) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = c.Log.Format
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf("provider=%s store=%s output=%s root=%s", c.Provider.Kind, c.Store.Kind, c.Output, c.ProjectRoot)
}
