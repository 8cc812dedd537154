// Package local provides a filesystem implementation of filestore.Store.
//
// Keys map onto paths below the configured root, so "library/docs/erd.md"
// lands next to the module's sources.
package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/filestore"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Driver writes objects as plain files below root.
type Driver struct {
	root string
}

// New returns a Driver rooted at cfg.Root. The root must already exist.
func New(cfg *filestore.Config) (*Driver, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "cannot resolve store root", err)
	}
	d := &Driver{root: root}
	if err := d.Ping(context.Background()); err != nil {
		return nil, err
	}
	return d, nil
}

// Root returns the absolute directory keys are resolved against.
func (d *Driver) Root() string {
	return d.root
}

// --- filestore.Store implementation ---

// Ping checks that the root is an existing directory.
func (d *Driver) Ping(_ context.Context) error {
	st, err := os.Stat(d.root)
	if err != nil {
		return mapError(err, "store root unavailable")
	}
	if !st.IsDir() {
		return errs.Newf(errs.ErrKindInvalidInput, "store root %s is not a directory", d.root)
	}
	return nil
}

// Close is a no-op; no handles are held between calls.
func (d *Driver) Close() error {
	return nil
}

// PutObject writes content to the file for key, creating parent
// directories as needed.
func (d *Driver) PutObject(ctx context.Context, key string, content []byte, contentType string) (*filestore.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindTimeout, "write cancelled", err)
	}
	p, key, err := d.resolve(key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(p), dirPerm); err != nil {
		return nil, errs.Wrap(errs.ErrKindIO, "failed to create output directory", err)
	}
	if err := os.WriteFile(p, content, filePerm); err != nil {
		return nil, errs.Wrap(errs.ErrKindIO, "failed to write "+key, err)
	}

	info, err := d.stat(p, key)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		info.ContentType = contentType
	}
	return info, nil
}

// GetObject opens the file for key.
func (d *Driver) GetObject(_ context.Context, key string) (filestore.Object, error) {
	p, key, err := d.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, mapError(err, "failed to open "+key)
	}
	info, err := d.stat(p, key)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &object{ReadCloser: f, info: info}, nil
}

// StatObject returns the file's metadata without reading it.
func (d *Driver) StatObject(_ context.Context, key string) (*filestore.ObjectInfo, error) {
	p, key, err := d.resolve(key)
	if err != nil {
		return nil, err
	}
	return d.stat(p, key)
}

// --- internal helpers ---

func (d *Driver) resolve(key string) (string, string, error) {
	key, err := filestore.CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(key)), key, nil
}

func (d *Driver) stat(p, key string) (*filestore.ObjectInfo, error) {
	st, err := os.Stat(p)
	if err != nil {
		return nil, mapError(err, "failed to stat "+key)
	}
	if st.IsDir() {
		return nil, errs.Newf(errs.ErrKindNotFound, "%s is a directory", key)
	}
	return &filestore.ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		ContentType:  filestore.ContentTypeFor(key),
		LastModified: st.ModTime(),
	}, nil
}

// mapError translates an os read error into a *errs.Error.
func mapError(err error, msg string) *errs.Error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	case errors.Is(err, fs.ErrPermission):
		return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
	default:
		return errs.Wrap(errs.ErrKindIO, msg, err)
	}
}

type object struct {
	io.ReadCloser
	info *filestore.ObjectInfo
}

func (o *object) Info() *filestore.ObjectInfo {
	return o.info
}
