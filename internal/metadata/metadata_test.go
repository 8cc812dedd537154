package metadata

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelation(t *testing.T) {
	for _, s := range []string{"", "one_to_one", "one_to_many", "many_to_one", "many_to_many"} {
		r, err := ParseRelation(s)
		require.NoError(t, err)
		assert.Equal(t, Relation(s), r)
	}

	_, err := ParseRelation("belongs_to")
	assert.EqualError(t, err, `unknown relation "belongs_to"`)
}

func TestField_IsRelation(t *testing.T) {
	assert.False(t, Field{Name: "title", Type: "CharField"}.IsRelation())
	assert.True(t, Field{Name: "author", Relation: RelationManyToOne}.IsRelation())
	assert.True(t, Field{Name: "books", Relation: RelationOneToMany}.IsRelation())
}

func TestModule_DisplayLabel(t *testing.T) {
	assert.Equal(t, "catalog", Module{Name: "shop.catalog", Label: "catalog"}.DisplayLabel())
	assert.Equal(t, "library", Module{Name: "library"}.DisplayLabel())
}

func TestResolvePath(t *testing.T) {
	base := filepath.FromSlash("/srv/project")

	assert.Equal(t, filepath.Join(base, "shop", "catalog"), ResolvePath(base, "shop.catalog", ""))
	assert.Equal(t, filepath.Join(base, "apps", "tags"), ResolvePath(base, "tags", "apps/tags/"))
	assert.Equal(t, filepath.FromSlash("/opt/lib/pkg"), ResolvePath(base, "pkg", filepath.FromSlash("/opt/lib/pkg")))
}
