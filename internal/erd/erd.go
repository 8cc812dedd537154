// Package erd turns model metadata into a Mermaid erDiagram document.
//
// The pipeline per module is: classify each raw field, build the relation
// tree across all models, sort every model's fields, render. Build runs
// the whole pipeline; the individual steps are exported for callers that
// already hold classified fields.
package erd

import (
	"fmt"

	"github.com/david-delgrosso/django-er-diagram/internal/metadata"
)

// Cardinality is the relation bucket an edge belongs to.
type Cardinality int

const (
	// None marks a field that does not contribute an edge (plain
	// attributes and the reverse side of a foreign key).
	None Cardinality = iota
	OneToOne
	OneToMany
	ManyToMany
)

func (c Cardinality) String() string {
	switch c {
	case OneToOne:
		return "one_to_one"
	case OneToMany:
		return "one_to_many"
	case ManyToMany:
		return "many_to_many"
	default:
		return "none"
	}
}

// Field is a classified field, ready for sorting and rendering.
type Field struct {
	Name         string
	Type         string
	IsRelation   bool
	IsPrimaryKey bool
	IsOptional   bool

	// Related and Cardinality are only set for fields that feed the
	// relation tree.
	Related     string
	Cardinality Cardinality
}

// Model is a model record: a name and its fields.
type Model struct {
	Name   string
	Fields []Field
}

// Edge is one relationship line of the diagram. To is the model that
// declared the field, From the model it points at.
type Edge struct {
	From         string
	To           string
	FromOptional bool
	ToOptional   bool
	Cardinality  Cardinality
}

// Warning reports a field that could not be fully represented.
type Warning struct {
	Module string
	Model  string
	Field  string
	Type   string
	Reason string

	// Dropped is set when the field was left out of the diagram.
	Dropped bool
}

func (w Warning) String() string {
	return fmt.Sprintf("%s.%s.%s: %s", w.Module, w.Model, w.Field, w.Reason)
}

// Diagram is the in-memory form of one module's ER diagram.
type Diagram struct {
	Module    string
	Models    []Model
	Relations *RelationTree
	Warnings  []Warning
}

// Render returns the Mermaid source of the diagram.
func (d *Diagram) Render() string {
	return Render(d.Models, d.Relations)
}

// Build classifies, links, sorts and collects everything needed to render
// mod. Models keep their declaration order.
func Build(mod metadata.Module, c *Classifier) *Diagram {
	d := &Diagram{Module: mod.Name}

	for _, m := range mod.Models {
		fields, warnings := c.ClassifyModel(m)
		for i := range warnings {
			warnings[i].Module = mod.Name
		}
		d.Warnings = append(d.Warnings, warnings...)
		d.Models = append(d.Models, Model{Name: m.Name, Fields: fields})
	}

	// Relations follow declaration order, so link before sorting.
	d.Relations = BuildRelationTree(d.Models)
	for i := range d.Models {
		SortFields(d.Models[i].Fields)
	}
	return d
}
