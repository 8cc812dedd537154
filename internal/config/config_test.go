package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david-delgrosso/django-er-diagram/internal/database"
	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/export"
	"github.com/david-delgrosso/django-er-diagram/internal/filestore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "erdiagram.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "html", cfg.Output)
	assert.Equal(t, "docs", cfg.OutputDirectory)
	assert.Equal(t, ".", cfg.ProjectRoot)
	assert.Equal(t, ProviderManifest, cfg.Provider.Kind)
	assert.Equal(t, "erd_catalog", cfg.Provider.Catalog.Table)
	assert.Equal(t, "local", cfg.Store.Kind)
	assert.Equal(t, "127.0.0.1:8000", cfg.Serve.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
only: [library, tags]
output: md
output_directory: diagrams
project_name: Bookshop
types:
  extra: [PointField]
provider:
  kind: catalog
  catalog:
    driver: mysql
    dsn: "app:secret@tcp(db:3306)/app"
    connect_timeout: 3s
store:
  kind: minio
  minio:
    endpoint: "minio:9000"
    bucket: erd
    prefix: bookshop
log:
  level: debug
  format: json
`)

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"library", "tags"}, cfg.Only)

	opts := cfg.GenerateOptions()
	assert.Equal(t, export.FormatMarkdown, opts.Format)
	assert.Equal(t, "diagrams", opts.OutputDir)
	assert.Equal(t, "Bookshop", opts.ProjectName)
	assert.Equal(t, []string{"PointField"}, opts.ExtraTypes)

	db := cfg.DatabaseConfig()
	assert.Equal(t, database.DriverMySQL, db.Driver)
	assert.Equal(t, "app:secret@tcp(db:3306)/app", db.DSN)
	assert.Equal(t, 3*time.Second, db.ConnectTimeout)

	store := cfg.StoreConfig()
	assert.Equal(t, filestore.ProviderMinIO, store.Provider)
	assert.Equal(t, "minio:9000", store.Endpoint)
	assert.Equal(t, "erd", store.Bucket)
	assert.Equal(t, "bookshop", store.Prefix)

	lc := cfg.LoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ERDIAGRAM_OUTPUT", "md")
	t.Setenv("ERDIAGRAM_IGNORE", "admin,auth")
	t.Setenv("ERDIAGRAM_STORE_MINIO_BUCKET", "from-env")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "md", cfg.Output)
	assert.Equal(t, []string{"admin", "auth"}, cfg.Ignore)
	assert.Equal(t, "from-env", cfg.Store.MinIO.Bucket)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(New(), writeConfig(t, "{}"))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad output", func(c *Config) { c.Output = "pdf" }, "pdf"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "loud"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "xml"},
		{"bad provider", func(c *Config) { c.Provider.Kind = "orm" }, "orm"},
		{"catalog without dsn", func(c *Config) { c.Provider.Kind = ProviderCatalog }, "DSN"},
		{"bad store", func(c *Config) { c.Store.Kind = "s3" }, "s3"},
		{"minio without bucket", func(c *Config) { c.Store.Kind = "minio"; c.Store.MinIO.Endpoint = "x:9000" }, "bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errs.IsConfig(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ManifestPath(t *testing.T) {
	cfg := &Config{ProjectRoot: "/srv/project"}
	assert.Equal(t, filepath.Join("/srv/project", "erd_manifest.yaml"), cfg.ManifestPath())

	cfg.Provider.Manifest = "meta/models.toml"
	assert.Equal(t, "meta/models.toml", cfg.ManifestPath())
}
