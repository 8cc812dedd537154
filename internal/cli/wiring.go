package cli

import (
	"context"

	"github.com/david-delgrosso/django-er-diagram/internal/config"
	"github.com/david-delgrosso/django-er-diagram/internal/filestore"
	"github.com/david-delgrosso/django-er-diagram/internal/filestore/local"
	"github.com/david-delgrosso/django-er-diagram/internal/filestore/minio"
	"github.com/david-delgrosso/django-er-diagram/internal/metadata"
	"github.com/david-delgrosso/django-er-diagram/internal/metadata/catalog"
	"github.com/david-delgrosso/django-er-diagram/internal/metadata/manifest"
)

// openProvider returns the metadata provider selected by cfg.
func openProvider(ctx context.Context, cfg *config.Config) (metadata.Provider, error) {
	if cfg.Provider.Kind != config.ProviderCatalog {
		return manifest.New(cfg.ManifestPath()), nil
	}

	db, err := catalog.Open(ctx, cfg.DatabaseConfig())
	if err != nil {
		return nil, err
	}
	p, err := catalog.New(db, cfg.Provider.Catalog.Table, cfg.ProjectRoot)
	if err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// openStore returns the output store selected by cfg.
func openStore(ctx context.Context, cfg *config.Config) (filestore.Store, error) {
	sc := cfg.StoreConfig()
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	switch sc.Provider {
	case filestore.ProviderMinIO:
		d, err := minio.New(ctx, sc)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		d, err := local.New(sc)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}
