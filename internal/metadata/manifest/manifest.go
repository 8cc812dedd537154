// Package manifest provides a metadata.Provider backed by a manifest file
// the application dumps from its ORM registry.
//
// The file format is chosen by extension: .yaml/.yml, .json or .toml.
//
//	modules:
//	  - name: library
//	    path: library            # relative to the manifest's directory
//	    models:
//	      - name: Book
//	        fields:
//	          - {name: id, type: AutoField, primary_key: true}
//	          - {name: author, type: ForeignKey, relation: many_to_one, related_model: Author}
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v3"

	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/metadata"
)

// DefaultFilename is looked up in the project root when no path is configured.
const DefaultFilename = "erd_manifest.yaml"

type document struct {
	Modules []moduleEntry `yaml:"modules" json:"modules" toml:"modules"`
}

type moduleEntry struct {
	Name   string       `yaml:"name" json:"name" toml:"name"`
	Label  string       `yaml:"label" json:"label" toml:"label"`
	Path   string       `yaml:"path" json:"path" toml:"path"`
	Models []modelEntry `yaml:"models" json:"models" toml:"models"`
}

type modelEntry struct {
	Name   string       `yaml:"name" json:"name" toml:"name"`
	Fields []fieldEntry `yaml:"fields" json:"fields" toml:"fields"`
}

type fieldEntry struct {
	Name         string `yaml:"name" json:"name" toml:"name"`
	Type         string `yaml:"type" json:"type" toml:"type"`
	Relation     string `yaml:"relation" json:"relation" toml:"relation"`
	RelatedModel string `yaml:"related_model" json:"related_model" toml:"related_model"`
	PrimaryKey   bool   `yaml:"primary_key" json:"primary_key" toml:"primary_key"`
	Null         bool   `yaml:"nullable" json:"nullable" toml:"nullable"`
	Blank        bool   `yaml:"blank" json:"blank" toml:"blank"`
	Generic      bool   `yaml:"generic" json:"generic" toml:"generic"`
}

// Provider reads modules from a manifest file on every call to Modules.
type Provider struct {
	path string
}

// New returns a Provider for the manifest at path.
func New(path string) *Provider {
	return &Provider{path: path}
}

// Path returns the manifest location.
func (p *Provider) Path() string {
	return p.path
}

// Modules decodes the manifest and returns its modules in file order.
func (p *Provider) Modules(ctx context.Context) ([]metadata.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindTimeout, "manifest load cancelled", err)
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("manifest %s not found", p.path), err)
		}
		if os.IsPermission(err) {
			return nil, errs.Wrap(errs.ErrKindPermissionDenied, fmt.Sprintf("cannot read manifest %s", p.path), err)
		}
		return nil, errs.Wrap(errs.ErrKindIO, fmt.Sprintf("cannot read manifest %s", p.path), err)
	}

	doc, err := decode(p.path, data)
	if err != nil {
		return nil, err
	}

	base, err := filepath.Abs(filepath.Dir(p.path))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "cannot resolve manifest directory", err)
	}
	return doc.toModules(base)
}

// Close is a no-op; the file is not held open between calls.
func (p *Provider) Close() error {
	return nil
}

func decode(path string, data []byte) (*document, error) {
	var doc document
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported manifest extension %q", ext)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("cannot decode manifest %s", path), err)
	}
	return &doc, nil
}

func (d *document) toModules(base string) ([]metadata.Module, error) {
	modules := make([]metadata.Module, 0, len(d.Modules))
	for i, me := range d.Modules {
		if me.Name == "" {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "module #%d has no name", i+1)
		}

		mod := metadata.Module{
			Name:   me.Name,
			Label:  me.Label,
			Path:   metadata.ResolvePath(base, me.Name, me.Path),
			Models: make([]metadata.Model, 0, len(me.Models)),
		}

		for _, mo := range me.Models {
			if mo.Name == "" {
				return nil, errs.Newf(errs.ErrKindInvalidInput, "module %s: model without a name", me.Name)
			}
			model := metadata.Model{Name: mo.Name, Fields: make([]metadata.Field, 0, len(mo.Fields))}
			for _, fe := range mo.Fields {
				field, err := fe.toField()
				if err != nil {
					return nil, errs.Wrap(errs.ErrKindInvalidInput,
						fmt.Sprintf("module %s, model %s", me.Name, mo.Name), err)
				}
				model.Fields = append(model.Fields, field)
			}
			mod.Models = append(mod.Models, model)
		}
		modules = append(modules, mod)
	}
	return modules, nil
}

func (fe fieldEntry) toField() (metadata.Field, error) {
	if fe.Name == "" {
		return metadata.Field{}, fmt.Errorf("field without a name")
	}
	rel, err := metadata.ParseRelation(fe.Relation)
	if err != nil {
		return metadata.Field{}, fmt.Errorf("field %s: %w", fe.Name, err)
	}
	return metadata.Field{
		Name:         fe.Name,
		Type:         fe.Type,
		Relation:     rel,
		RelatedModel: fe.RelatedModel,
		PrimaryKey:   fe.PrimaryKey,
		Null:         fe.Null,
		Blank:        fe.Blank,
		Generic:      fe.Generic,
	}, nil
}
