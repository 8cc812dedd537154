package erd

import (
	"fmt"
	"strings"
)

const (
	// RootKeyword opens every diagram document.
	RootKeyword = "erDiagram"
	// RelationLabel is printed after every relationship line.
	RelationLabel = "has"

	indent = "    "
)

// connectors holds the outer connector symbol of each side of a line.
type connectors struct {
	from, to string
}

var connectorsOf = map[Cardinality]connectors{
	ManyToMany: {from: "}", to: "{"},
	OneToOne:   {from: "|", to: "|"},
	OneToMany:  {from: "|", to: "{"},
}

// Render writes models, in the order given, followed by the relation
// lines of tree bucket by bucket.
func Render(models []Model, tree *RelationTree) string {
	var sb strings.Builder

	sb.WriteString(RootKeyword)
	sb.WriteString("\n")

	for _, m := range models {
		fmt.Fprintf(&sb, "%s%s {\n", indent, m.Name)
		for _, f := range m.Fields {
			fmt.Fprintf(&sb, "%s%s%s %s\n", indent, indent, f.Name, f.Type)
		}
		fmt.Fprintf(&sb, "%s}\n", indent)
	}

	if tree != nil {
		for _, e := range tree.All() {
			fmt.Fprintf(&sb, "%s%s\n", indent, RelationLine(e))
		}
	}
	return sb.String()
}

// RelationLine formats a single edge, e.g. "Author ||--|{ Book : has".
func RelationLine(e Edge) string {
	c := connectorsOf[e.Cardinality]
	left := c.from + optionalMarker(e.FromOptional)
	right := optionalMarker(e.ToOptional) + c.to
	return fmt.Sprintf("%s %s--%s %s : %s", e.From, left, right, e.To, RelationLabel)
}

func optionalMarker(optional bool) string {
	if optional {
		return "o"
	}
	return "|"
}
