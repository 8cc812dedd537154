package erd

import (
	"fmt"

	"github.com/david-delgrosso/django-er-diagram/internal/metadata"
)

// GenericRelationType is the type tag given to polymorphic relations.
const GenericRelationType = "GenericForeignKey"

// defaultTypes are the field types the classifier recognises out of the box.
var defaultTypes = []string{
	"AutoField",
	"BigAutoField",
	"BigIntegerField",
	"BinaryField",
	"BooleanField",
	"CharField",
	"DateField",
	"DateTimeField",
	"DecimalField",
	"DurationField",
	"EmailField",
	"FileField",
	"FilePathField",
	"FloatField",
	"ForeignKey",
	"GenericIPAddressField",
	"ImageField",
	"IntegerField",
	"JSONField",
	"ManyToManyField",
	"OneToOneField",
	"PositiveBigIntegerField",
	"PositiveIntegerField",
	"PositiveSmallIntegerField",
	"SlugField",
	"SmallAutoField",
	"SmallIntegerField",
	"TextField",
	"TimeField",
	"URLField",
	"UUIDField",
}

// Classifier maps raw field metadata to Fields.
type Classifier struct {
	known map[string]struct{}
}

// NewClassifier returns a Classifier that recognises the built-in field
// types plus extra.
func NewClassifier(extra ...string) *Classifier {
	c := &Classifier{known: make(map[string]struct{}, len(defaultTypes)+len(extra))}
	for _, t := range defaultTypes {
		c.known[t] = struct{}{}
	}
	for _, t := range extra {
		if t != "" {
			c.known[t] = struct{}{}
		}
	}
	return c
}

// Known reports whether typ is a recognised type tag.
func (c *Classifier) Known(typ string) bool {
	_, ok := c.known[typ]
	return ok
}

// Classify converts one raw field of model. When the returned Warning has
// Dropped set the Field is meaningless and must not be rendered.
func (c *Classifier) Classify(model string, f metadata.Field) (Field, *Warning) {
	if f.Generic {
		// No single target model, so no edge.
		return Field{Name: f.Name, Type: GenericRelationType}, nil
	}

	if !c.Known(f.Type) {
		return Field{}, &Warning{
			Model:   model,
			Field:   f.Name,
			Type:    f.Type,
			Reason:  fmt.Sprintf("unrecognized field type %q", f.Type),
			Dropped: true,
		}
	}

	field := Field{
		Name:         f.Name,
		Type:         f.Type,
		IsRelation:   f.IsRelation(),
		IsPrimaryKey: f.PrimaryKey,
		IsOptional:   f.Null || f.Blank,
	}
	if !field.IsRelation {
		return field, nil
	}

	if f.RelatedModel == "" {
		// Still listed as a relation field, just not linked.
		return field, &Warning{
			Model:  model,
			Field:  f.Name,
			Type:   f.Type,
			Reason: "relation without a related model is not linked",
		}
	}
	field.Related = f.RelatedModel
	field.Cardinality = bucketOf(f.Relation)
	return field, nil
}

// ClassifyModel classifies every field of m in declaration order and
// drops the ones that cannot be rendered.
func (c *Classifier) ClassifyModel(m metadata.Model) ([]Field, []Warning) {
	fields := make([]Field, 0, len(m.Fields))
	var warnings []Warning

	for _, raw := range m.Fields {
		f, w := c.Classify(m.Name, raw)
		if w != nil {
			warnings = append(warnings, *w)
			if w.Dropped {
				continue
			}
		}
		fields = append(fields, f)
	}
	return fields, warnings
}

// bucketOf picks the edge bucket for a relation. One-to-one is checked
// first because a one-to-one field is also a single-valued reference.
// The reverse side of a foreign key has no bucket of its own: the
// foreign key field already produces the edge.
func bucketOf(r metadata.Relation) Cardinality {
	switch r {
	case metadata.RelationOneToOne:
		return OneToOne
	case metadata.RelationManyToMany:
		return ManyToMany
	case metadata.RelationManyToOne:
		return OneToMany
	default:
		return None
	}
}
