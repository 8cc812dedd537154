// Package catalog provides a metadata.Provider that reads the model
// registry an application publishes into a database table, one row per
// field.
//
//	CREATE TABLE erd_catalog (
//	    module          VARCHAR(255) NOT NULL,
//	    module_label    VARCHAR(255),
//	    module_path     VARCHAR(1024),
//	    module_position INT NOT NULL,
//	    model           VARCHAR(255),      -- NULL: module without models
//	    model_position  INT,
//	    field           VARCHAR(255),      -- NULL: model without fields
//	    field_position  INT,
//	    type            VARCHAR(255),
//	    relation        VARCHAR(32),
//	    related_model   VARCHAR(255),
//	    primary_key     BOOLEAN NOT NULL DEFAULT FALSE,
//	    nullable        BOOLEAN NOT NULL DEFAULT FALSE,
//	    blank           BOOLEAN NOT NULL DEFAULT FALSE,
//	    generic         BOOLEAN NOT NULL DEFAULT FALSE
//	);
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/david-delgrosso/django-er-diagram/internal/database"
	"github.com/david-delgrosso/django-er-diagram/internal/database/mysql"
	"github.com/david-delgrosso/django-er-diagram/internal/database/postgres"
	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/metadata"
)

// DefaultTable is the catalog table read when none is configured.
const DefaultTable = "erd_catalog"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Open connects to the database described by cfg using the matching driver.
func Open(ctx context.Context, cfg *database.Config) (database.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case database.DriverPostgres:
		d, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		d, err := mysql.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

// Provider reads modules from a catalog table through database.DB.
type Provider struct {
	db    database.DB
	table string
	base  string
}

// New returns a Provider reading table from db. Relative module paths
// are resolved against base. The Provider owns db and closes it in Close.
func New(db database.DB, table, base string) (*Provider, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identRe.MatchString(table) {
		return nil, errs.Newf(errs.ErrKindConfig, "catalog table %q is not a plain identifier", table)
	}
	return &Provider{db: db, table: table, base: base}, nil
}

// Table returns the catalog table name.
func (p *Provider) Table() string {
	return p.table
}

// Modules reads the whole catalog and folds its rows into modules,
// preserving the published positions.
func (p *Provider) Modules(ctx context.Context) ([]metadata.Module, error) {
	ok, err := p.db.TableExists(ctx, p.table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "catalog table %s does not exist", p.table)
	}

	rows, err := p.db.Query(ctx, p.selectSQL())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	f := newFolder(p.base)
	for rows.Next() {
		var r row
		if err := rows.Scan(
			&r.module, &r.moduleLabel, &r.modulePath,
			&r.model, &r.field, &r.typ,
			&r.relation, &r.relatedModel,
			&r.primaryKey, &r.nullable, &r.blank, &r.generic,
		); err != nil {
			return nil, err
		}
		if err := f.add(r); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return f.modules, nil
}

// Close releases the database connection pool.
func (p *Provider) Close() error {
	p.db.Close()
	return nil
}

func (p *Provider) selectSQL() string {
	return fmt.Sprintf(`
		SELECT module, module_label, module_path,
		       model, field, type,
		       relation, related_model,
		       primary_key, nullable, blank, generic
		FROM %s
		ORDER BY module_position, model_position, field_position`, p.table)
}

// row is one catalog record.
type row struct {
	module       string
	moduleLabel  sql.NullString
	modulePath   sql.NullString
	model        sql.NullString
	field        sql.NullString
	typ          sql.NullString
	relation     sql.NullString
	relatedModel sql.NullString
	primaryKey   bool
	nullable     bool
	blank        bool
	generic      bool
}

// folder groups ordered rows into modules and models. Rows of one module
// or model need not be contiguous.
type folder struct {
	base    string
	modules []metadata.Module
	modIdx  map[string]int
	modelIx map[[2]string]int
}

func newFolder(base string) *folder {
	return &folder{
		base:    base,
		modIdx:  make(map[string]int),
		modelIx: make(map[[2]string]int),
	}
}

func (f *folder) add(r row) error {
	if r.module == "" {
		return errs.New(errs.ErrKindInvalidInput, "catalog row without a module name")
	}

	mi, ok := f.modIdx[r.module]
	if !ok {
		mi = len(f.modules)
		f.modIdx[r.module] = mi
		f.modules = append(f.modules, metadata.Module{
			Name:  r.module,
			Label: r.moduleLabel.String,
			Path:  metadata.ResolvePath(f.base, r.module, r.modulePath.String),
		})
	}
	if !r.model.Valid || r.model.String == "" {
		return nil
	}

	mod := &f.modules[mi]
	key := [2]string{r.module, r.model.String}
	idx, ok := f.modelIx[key]
	if !ok {
		idx = len(mod.Models)
		f.modelIx[key] = idx
		mod.Models = append(mod.Models, metadata.Model{Name: r.model.String})
	}
	if !r.field.Valid || r.field.String == "" {
		return nil
	}

	rel, err := metadata.ParseRelation(r.relation.String)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput,
			fmt.Sprintf("module %s, model %s, field %s", r.module, r.model.String, r.field.String), err)
	}

	model := &mod.Models[idx]
	model.Fields = append(model.Fields, metadata.Field{
		Name:         r.field.String,
		Type:         r.typ.String,
		Relation:     rel,
		RelatedModel: r.relatedModel.String,
		PrimaryKey:   r.primaryKey,
		Null:         r.nullable,
		Blank:        r.blank,
		Generic:      r.generic,
	})
	return nil
}
