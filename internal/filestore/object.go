package filestore

import (
	"io"
	"mime"
	"path"
	"time"
)

// ObjectInfo describes a single stored page.
type ObjectInfo struct {
	// Key is the full object path relative to the store root
	// (e.g. "library/docs/erd.html").
	Key string

	// Size is the byte size of the object. -1 if unknown.
	Size int64

	// ContentType is the MIME type (e.g. "text/html; charset=utf-8").
	ContentType string

	// ETag is the object's entity tag / hash, as returned by the backend.
	// Empty for backends that do not compute one.
	ETag string

	// LastModified is when the object was last written.
	LastModified time.Time
}

// Object is a streaming handle to an object's content.
// The caller MUST call Close() after reading to avoid resource leaks.
type Object interface {
	io.ReadCloser

	// Info returns the metadata for this object.
	Info() *ObjectInfo
}

// ContentTypeFor guesses a MIME type from the key's extension.
func ContentTypeFor(key string) string {
	switch ext := path.Ext(key); ext {
	case ".md":
		return "text/markdown; charset=utf-8"
	case "":
		return "application/octet-stream"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
		return "application/octet-stream"
	}
}
