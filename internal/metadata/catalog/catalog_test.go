package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david-delgrosso/django-er-diagram/internal/database"
	"github.com/david-delgrosso/django-er-diagram/internal/database/mysql"
	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/metadata"
)

var columns = []string{
	"module", "module_label", "module_path",
	"model", "field", "type",
	"relation", "related_model",
	"primary_key", "nullable", "blank", "generic",
}

func newProvider(t *testing.T, table string) (*Provider, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	p, err := New(mysql.NewFromDB(db), table, "/srv/project")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p, mock
}

func expectTable(mock sqlmock.Sqlmock, table string, exists bool) {
	rows := sqlmock.NewRows([]string{"1"})
	if exists {
		rows.AddRow(1)
	}
	mock.ExpectQuery("information_schema.tables").WithArgs(table).WillReturnRows(rows)
}

func TestProvider_Modules(t *testing.T) {
	p, mock := newProvider(t, "")
	expectTable(mock, DefaultTable, true)

	mock.ExpectQuery("SELECT module, module_label, module_path.*FROM erd_catalog.*ORDER BY module_position, model_position, field_position").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("library", nil, nil, "Author", "id", "AutoField", nil, nil, true, false, false, false).
			AddRow("library", nil, nil, "Author", "name", "CharField", "", nil, false, false, false, false).
			AddRow("library", nil, nil, "Book", "author", "ForeignKey", "many_to_one", "Author", false, false, false, false).
			AddRow("library", nil, nil, "Book", "reader", "ManyToManyField", "many_to_many", "Reader", false, true, true, false).
			AddRow("shop.tags", "tags", "apps/tags", "Tag", nil, nil, nil, nil, false, false, false, false).
			AddRow("shop.tags", "tags", "apps/tags", "TaggedItem", "content_object", nil, nil, nil, false, false, false, true).
			AddRow("empty", nil, nil, nil, nil, nil, nil, nil, false, false, false, false))

	mods, err := p.Modules(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, mods, 3)

	lib := mods[0]
	assert.Equal(t, "library", lib.Name)
	assert.Equal(t, "library", lib.DisplayLabel())
	assert.Equal(t, filepath.Join("/srv/project", "library"), lib.Path)
	require.Len(t, lib.Models, 2)
	assert.Equal(t, "Author", lib.Models[0].Name)
	assert.Equal(t, []metadata.Field{
		{Name: "id", Type: "AutoField", PrimaryKey: true},
		{Name: "name", Type: "CharField"},
	}, lib.Models[0].Fields)
	assert.Equal(t, []metadata.Field{
		{Name: "author", Type: "ForeignKey", Relation: metadata.RelationManyToOne, RelatedModel: "Author"},
		{Name: "reader", Type: "ManyToManyField", Relation: metadata.RelationManyToMany, RelatedModel: "Reader", Null: true, Blank: true},
	}, lib.Models[1].Fields)

	tags := mods[1]
	assert.Equal(t, "tags", tags.Label)
	assert.Equal(t, filepath.Join("/srv/project", "apps", "tags"), tags.Path)
	require.Len(t, tags.Models, 2)
	assert.Empty(t, tags.Models[0].Fields)
	assert.True(t, tags.Models[1].Fields[0].Generic)

	assert.Equal(t, "empty", mods[2].Name)
	assert.Empty(t, mods[2].Models)
}

func TestProvider_NonContiguousRows(t *testing.T) {
	p, mock := newProvider(t, "registry")
	expectTable(mock, "registry", true)
	mock.ExpectQuery("FROM registry").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("a", nil, nil, "M", "x", "CharField", nil, nil, false, false, false, false).
			AddRow("b", nil, nil, "N", "y", "CharField", nil, nil, false, false, false, false).
			AddRow("a", nil, nil, "M", "z", "CharField", nil, nil, false, false, false, false))

	mods, err := p.Modules(context.Background())
	require.NoError(t, err)
	require.Len(t, mods, 2)
	require.Len(t, mods[0].Models, 1)
	assert.Len(t, mods[0].Models[0].Fields, 2)
}

func TestProvider_MissingTable(t *testing.T) {
	p, mock := newProvider(t, "")
	expectTable(mock, DefaultTable, false)

	_, err := p.Modules(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.Contains(t, err.Error(), DefaultTable)
}

func TestProvider_BadRelation(t *testing.T) {
	p, mock := newProvider(t, "")
	expectTable(mock, DefaultTable, true)
	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("library", nil, nil, "Book", "author", "ForeignKey", "belongs_to", "Author", false, false, false, false))

	_, err := p.Modules(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "belongs_to")
}

func TestProvider_QueryError(t *testing.T) {
	p, mock := newProvider(t, "")
	expectTable(mock, DefaultTable, true)
	mock.ExpectQuery("SELECT").WillReturnError(context.DeadlineExceeded)

	_, err := p.Modules(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsTimeout(err))
}

func TestNew_RejectsTableName(t *testing.T) {
	for _, table := range []string{"erd catalog", "erd;DROP TABLE x", "1table", "public.erd_catalog"} {
		t.Run(table, func(t *testing.T) {
			_, err := New(nil, table, "")
			require.Error(t, err)
			assert.True(t, errs.IsConfig(err))
		})
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), &database.Config{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}
