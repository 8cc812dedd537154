package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/filestore"
)

func newDriver(t *testing.T) *Driver {
	t.Helper()
	d, err := New(filestore.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	return d
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filestore.DefaultConfig(filepath.Join(t.TempDir(), "missing")))
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestNew_RootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := New(filestore.DefaultConfig(file))
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestDriver_PutGetStat(t *testing.T) {
	d := newDriver(t)
	ctx := context.Background()
	defer d.Close()

	info, err := d.PutObject(ctx, "library/docs/erd.md", []byte("```mermaid\nerDiagram\n```\n"), "")
	require.NoError(t, err)
	assert.Equal(t, "library/docs/erd.md", info.Key)
	assert.Equal(t, int64(25), info.Size)
	assert.Equal(t, "text/markdown; charset=utf-8", info.ContentType)

	data, err := os.ReadFile(filepath.Join(d.Root(), "library", "docs", "erd.md"))
	require.NoError(t, err)
	assert.Equal(t, "```mermaid\nerDiagram\n```\n", string(data))

	obj, err := d.GetObject(ctx, "library/docs/erd.md")
	require.NoError(t, err)
	defer obj.Close()
	body, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, data, body)
	assert.Equal(t, info.Size, obj.Info().Size)

	st, err := d.StatObject(ctx, "library/docs/../docs/erd.md")
	require.NoError(t, err)
	assert.Equal(t, "library/docs/erd.md", st.Key)
}

func TestDriver_PutOverwrites(t *testing.T) {
	d := newDriver(t)
	ctx := context.Background()

	_, err := d.PutObject(ctx, "erd_index.html", []byte("first version"), "text/html; charset=utf-8")
	require.NoError(t, err)
	info, err := d.PutObject(ctx, "erd_index.html", []byte("second"), "text/html; charset=utf-8")
	require.NoError(t, err)

	assert.Equal(t, int64(6), info.Size)
	assert.Equal(t, "text/html; charset=utf-8", info.ContentType)
}

func TestDriver_RejectsEscapingKeys(t *testing.T) {
	d := newDriver(t)
	ctx := context.Background()

	for _, key := range []string{"", "/etc/passwd", "../outside.md", "a/../../b.md", "."} {
		t.Run(key, func(t *testing.T) {
			_, err := d.PutObject(ctx, key, []byte("x"), "")
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err))
		})
	}
}

func TestDriver_GetMissing(t *testing.T) {
	d := newDriver(t)

	_, err := d.GetObject(context.Background(), "nope.html")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))

	require.NoError(t, os.Mkdir(filepath.Join(d.Root(), "dir"), 0o755))
	_, err = d.StatObject(context.Background(), "dir")
	assert.True(t, errs.IsNotFound(err))
}

func TestDriver_PutIntoFileParent(t *testing.T) {
	d := newDriver(t)
	ctx := context.Background()

	_, err := d.PutObject(ctx, "library", []byte("not a dir"), "")
	require.NoError(t, err)

	_, err = d.PutObject(ctx, "library/docs/erd.md", []byte("x"), "")
	require.Error(t, err)
	assert.True(t, errs.IsIO(err))
}

func TestDriver_PutCancelled(t *testing.T) {
	d := newDriver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.PutObject(ctx, "erd.md", []byte("x"), "")
	assert.True(t, errs.IsTimeout(err))
}
