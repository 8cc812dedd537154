// Package minio provides a MinIO implementation of filestore.Store.
//
// Usage:
//
//	cfg := &filestore.Config{
//	    Provider: filestore.ProviderMinIO,
//	    Endpoint: "localhost:9000", AccessKey: "minioadmin", SecretKey: "minioadmin",
//	    Bucket: "erd", Prefix: "myproject/",
//	}
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
package minio

import (
	"bytes"
	"context"
	"io"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/filestore"
)

// Driver is a MinIO implementation of filestore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
	bucket string
	prefix string
	region string
}

// New connects to MinIO using the provided Config and returns a Driver.
// The target bucket is created when it does not exist yet.
func New(ctx context.Context, cfg *filestore.Config) (*Driver, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	d := &Driver{
		client: client,
		bucket: cfg.Bucket,
		prefix: normalizePrefix(cfg.Prefix),
		region: cfg.Region,
	}

	if err := d.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// --- filestore.Store implementation ---

// Ping verifies the MinIO server is reachable and the bucket exists.
func (d *Driver) Ping(ctx context.Context) error {
	ok, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return mapError(err, "ping failed")
	}
	if !ok {
		return errs.Newf(errs.ErrKindNotFound, "bucket %s does not exist", d.bucket)
	}
	return nil
}

// Close is a no-op; the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// PutObject uploads content under the prefixed key.
func (d *Driver) PutObject(ctx context.Context, key string, content []byte, contentType string) (*filestore.ObjectInfo, error) {
	key, err := filestore.CleanKey(key)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = filestore.ContentTypeFor(key)
	}

	up, err := d.client.PutObject(ctx, d.bucket, d.objectName(key), bytes.NewReader(content), int64(len(content)),
		miniogo.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, mapWriteError(err, "failed to upload "+key)
	}

	return &filestore.ObjectInfo{
		Key:          key,
		Size:         up.Size,
		ContentType:  contentType,
		ETag:         up.ETag,
		LastModified: up.LastModified,
	}, nil
}

// GetObject opens a streaming handle to the object at key.
// The caller MUST call Object.Close() after reading.
func (d *Driver) GetObject(ctx context.Context, key string) (filestore.Object, error) {
	key, err := filestore.CleanKey(key)
	if err != nil {
		return nil, err
	}

	obj, err := d.client.GetObject(ctx, d.bucket, d.objectName(key), miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get object")
	}

	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, mapError(err, "failed to stat object after get")
	}

	return &object{
		ReadCloser: obj,
		info: &filestore.ObjectInfo{
			Key:          key,
			Size:         stat.Size,
			ContentType:  stat.ContentType,
			ETag:         stat.ETag,
			LastModified: stat.LastModified,
		},
	}, nil
}

// StatObject returns metadata for the object at key
// without downloading its content.
func (d *Driver) StatObject(ctx context.Context, key string) (*filestore.ObjectInfo, error) {
	key, err := filestore.CleanKey(key)
	if err != nil {
		return nil, err
	}

	stat, err := d.client.StatObject(ctx, d.bucket, d.objectName(key), miniogo.StatObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to stat object")
	}

	return &filestore.ObjectInfo{
		Key:          key,
		Size:         stat.Size,
		ContentType:  stat.ContentType,
		ETag:         stat.ETag,
		LastModified: stat.LastModified,
	}, nil
}

// --- internal helpers ---

func (d *Driver) ensureBucket(ctx context.Context) error {
	ok, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return mapError(err, "failed to check bucket")
	}
	if ok {
		return nil
	}
	if err := d.client.MakeBucket(ctx, d.bucket, miniogo.MakeBucketOptions{Region: d.region}); err != nil {
		return mapWriteError(err, "failed to create bucket "+d.bucket)
	}
	return nil
}

func (d *Driver) objectName(key string) string {
	return d.prefix + key
}

// normalizePrefix makes a non-empty prefix end in exactly one slash.
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// object wraps a MinIO GetObject response and exposes filestore.Object.
type object struct {
	io.ReadCloser
	info *filestore.ObjectInfo
}

func (o *object) Info() *filestore.ObjectInfo {
	return o.info
}
