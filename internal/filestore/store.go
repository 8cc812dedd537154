// Package filestore defines the interface generated pages are written
// through.
//
// Providers (local filesystem, MinIO/S3) implement the Store interface.
// Callers depend only on this package, never on a specific provider package.
//
// Usage:
//
//	store, err := local.New(filestore.DefaultConfig(projectRoot))
//	if err != nil { ... }
//	defer store.Close()
//
//	info, err := store.PutObject(ctx, "library/docs/erd.html", page, "text/html; charset=utf-8")
package filestore

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/david-delgrosso/django-er-diagram/internal/errs"
)

// Store is the single interface all output storage providers implement.
type Store interface {
	// Ping verifies the storage backend is reachable and writable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// PutObject stores content under key, replacing any previous object.
	PutObject(ctx context.Context, key string, content []byte, contentType string) (*ObjectInfo, error)

	// GetObject opens a streaming handle to the object at key.
	// The caller MUST call Object.Close() after reading.
	GetObject(ctx context.Context, key string) (Object, error)

	// StatObject returns metadata for the object at key without
	// downloading its content.
	StatObject(ctx context.Context, key string) (*ObjectInfo, error)
}

// CleanKey normalises a slash separated object key and rejects keys that
// are absolute or climb out of the store root.
func CleanKey(key string) (string, error) {
	if key == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "empty object key")
	}
	if strings.HasPrefix(key, "/") {
		return "", errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("object key %q is absolute", key))
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("object key %q escapes the store root", key))
	}
	return clean, nil
}
