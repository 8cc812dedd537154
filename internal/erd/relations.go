package erd

// emitOrder is the order buckets are rendered in.
var emitOrder = []Cardinality{ManyToMany, OneToMany, OneToOne}

type pairKey struct {
	owner   string // model that declares the field
	related string
}

// bucket keeps edges keyed by model pair, in insertion order.
type bucket struct {
	index map[pairKey]int
	edges []Edge
}

// RelationTree holds the deduplicated edges of a module, one bucket per
// cardinality.
type RelationTree struct {
	buckets map[Cardinality]*bucket
}

// NewRelationTree returns an empty tree.
func NewRelationTree() *RelationTree {
	t := &RelationTree{buckets: make(map[Cardinality]*bucket, len(emitOrder))}
	for _, c := range emitOrder {
		t.buckets[c] = &bucket{index: make(map[pairKey]int)}
	}
	return t
}

// BuildRelationTree links the relation fields of models, visiting models
// and their fields in the order given.
func BuildRelationTree(models []Model) *RelationTree {
	t := NewRelationTree()
	for _, m := range models {
		for _, f := range m.Fields {
			t.Add(m.Name, f)
		}
	}
	return t
}

// Add records the relation declared by field f on model owner.
//
// When the related model already declared the other side of this
// relationship, the existing edge only learns the optionality of its From
// side. Otherwise a new edge From the related model To owner is inserted,
// unless owner already has an edge to the same model in this bucket; a
// second relation between the same pair is absorbed into the first.
func (t *RelationTree) Add(owner string, f Field) {
	b, ok := t.buckets[f.Cardinality]
	if !ok {
		return
	}

	forward := pairKey{owner: owner, related: f.Related}
	reverse := pairKey{owner: f.Related, related: owner}

	if i, ok := b.index[reverse]; ok {
		b.edges[i].FromOptional = f.IsOptional
		return
	}
	if _, ok := b.index[forward]; ok {
		return
	}

	b.index[forward] = len(b.edges)
	b.edges = append(b.edges, Edge{
		From:         f.Related,
		To:           owner,
		FromOptional: false,
		ToOptional:   f.IsOptional,
		Cardinality:  f.Cardinality,
	})
}

// Edges returns the edges of one bucket in insertion order.
func (t *RelationTree) Edges(c Cardinality) []Edge {
	b, ok := t.buckets[c]
	if !ok {
		return nil
	}
	out := make([]Edge, len(b.edges))
	copy(out, b.edges)
	return out
}

// All returns every edge in render order.
func (t *RelationTree) All() []Edge {
	var out []Edge
	for _, c := range emitOrder {
		out = append(out, t.buckets[c].edges...)
	}
	return out
}

// Len returns the total number of edges.
func (t *RelationTree) Len() int {
	n := 0
	for _, b := range t.buckets {
		n += len(b.edges)
	}
	return n
}
