// Package metadata describes the model metadata an application exposes
// and the Provider contract every metadata source implements.
//
// Providers hand back modules in declaration order; nothing downstream
// reorders modules or models, so the order a provider chooses is the
// order models appear in a rendered diagram.
package metadata

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Relation is the declared cardinality of a field, seen from the model
// that owns the field.
type Relation string

const (
	RelationNone       Relation = ""
	RelationOneToOne   Relation = "one_to_one"
	RelationOneToMany  Relation = "one_to_many" // reverse side of a foreign key
	RelationManyToOne  Relation = "many_to_one" // the foreign key itself
	RelationManyToMany Relation = "many_to_many"
)

// ParseRelation converts the textual form used by manifests and the
// catalog table into a Relation.
func ParseRelation(s string) (Relation, error) {
	switch r := Relation(s); r {
	case RelationNone, RelationOneToOne, RelationOneToMany, RelationManyToOne, RelationManyToMany:
		return r, nil
	default:
		return RelationNone, fmt.Errorf("unknown relation %q", s)
	}
}

// Field is a raw field description as reported by the framework.
type Field struct {
	Name string
	// Type is the framework's internal type name (e.g. "CharField").
	Type         string
	Relation     Relation
	RelatedModel string
	PrimaryKey   bool
	Null         bool
	// Blank marks a field that is not required for input.
	Blank bool
	// Generic marks a polymorphic relation without a fixed target model.
	Generic bool
}

// IsRelation reports whether the field references another model.
func (f Field) IsRelation() bool {
	return f.Relation != RelationNone
}

// Model is one data-model class and its fields in declaration order.
type Model struct {
	Name   string
	Fields []Field
}

// Module is a self-contained group of models, e.g. one installed app.
type Module struct {
	// Name is the fully qualified module name ("shop.catalog").
	Name string
	// Label is the short name ("catalog"). Empty means Name.
	Label string
	// Path is the module's directory on disk.
	Path   string
	Models []Model
}

// DisplayLabel returns Label, falling back to Name.
func (m Module) DisplayLabel() string {
	if m.Label != "" {
		return m.Label
	}
	return m.Name
}

// Provider yields the modules of an application together with their models.
type Provider interface {
	// Modules returns every module the application declares.
	Modules(ctx context.Context) ([]Module, error)

	// Close releases any held resources (connections, file handles).
	Close() error
}

// ResolvePath returns the directory of module name. An empty path falls
// back to the dotted name turned into a path; relative paths are joined
// to base.
func ResolvePath(base, name, path string) string {
	if path == "" {
		path = strings.ReplaceAll(name, ".", string(filepath.Separator))
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	return filepath.Clean(path)
}
