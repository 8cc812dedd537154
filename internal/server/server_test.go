package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/export"
	"github.com/david-delgrosso/django-er-diagram/internal/filestore"
	"github.com/david-delgrosso/django-er-diagram/internal/filestore/local"
	"github.com/david-delgrosso/django-er-diagram/internal/logger"
)

func newServer(t *testing.T) (*Server, filestore.Store, *bytes.Buffer) {
	t.Helper()
	store, err := local.New(filestore.DefaultConfig(t.TempDir()))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.PutObject(ctx, export.IndexFilename, []byte("<h1>index</h1>"), "")
	require.NoError(t, err)
	_, err = store.PutObject(ctx, "library/docs/erd.html", []byte("<pre class=\"mermaid\">erDiagram</pre>"), "")
	require.NoError(t, err)
	_, err = store.PutObject(ctx, "library/docs/erd.md", []byte("```mermaid\nerDiagram\n```\n"), "")
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	log := logger.New(&logger.Config{Level: "info", Format: "json", Output: logs})
	return New(store, "docs", log), store, logs
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Index(t *testing.T) {
	s, _, logs := newServer(t)

	rec := get(t, s, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<h1>index</h1>", rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, logs.String(), `"path":"/"`)
	assert.Contains(t, logs.String(), `"status":200`)
}

func TestServer_Pages(t *testing.T) {
	s, _, _ := newServer(t)

	rec := get(t, s, "/library/docs/erd.html")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="mermaid"`)
	assert.NotEmpty(t, rec.Header().Get("Last-Modified"))

	rec = get(t, s, "/library/docs/erd.md")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestServer_NotFound(t *testing.T) {
	s, _, _ := newServer(t)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/shop/docs/erd.html").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/library/docs").Code)
}

func TestServer_OnlyServesPages(t *testing.T) {
	s, store, _ := newServer(t)

	ctx := context.Background()
	_, err := store.PutObject(ctx, ".erdiagram.yaml", []byte("store:\n  minio:\n    secret_key: hunter2\n"), "")
	require.NoError(t, err)
	_, err = store.PutObject(ctx, "library/settings.py", []byte("SECRET_KEY='x'\n"), "")
	require.NoError(t, err)
	_, err = store.PutObject(ctx, "library/other/erd.html", []byte("<p>stale</p>"), "")
	require.NoError(t, err)

	for _, path := range []string{
		"/.erdiagram.yaml",
		"/library/settings.py",
		"/library/other/erd.html",
		"/library/docs/../settings.py",
	} {
		rec := get(t, s, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.NotContains(t, rec.Body.String(), "SECRET", path)
		assert.NotContains(t, rec.Body.String(), "hunter2", path)
	}

	assert.Equal(t, http.StatusOK, get(t, s, "/erd_index.html").Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	s, _, _ := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/library/docs/erd.html", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		kind errs.ErrKind
		want int
	}{
		{errs.ErrKindNotFound, http.StatusNotFound},
		{errs.ErrKindInvalidInput, http.StatusBadRequest},
		{errs.ErrKindPermissionDenied, http.StatusForbidden},
		{errs.ErrKindTimeout, http.StatusGatewayTimeout},
		{errs.ErrKindConnectionFailed, http.StatusBadGateway},
		{errs.ErrKindIO, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(errs.New(tt.kind, "x")))
		})
	}
}

type panickingStore struct {
	filestore.Store
}

func (panickingStore) GetObject(context.Context, string) (filestore.Object, error) {
	panic("boom")
}

func TestServer_RecoversPanics(t *testing.T) {
	s := New(panickingStore{}, "docs", nil)

	rec := get(t, s, "/library/docs/erd.html")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	s, _, _ := newServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.ListenAndServe(ctx, "127.0.0.1:0"))
}
