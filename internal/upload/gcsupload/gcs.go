// Package gcsupload implements an Uploader publishing artifacts to a
// Google Cloud Storage bucket.
package gcsupload

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/discochess/streaklab/internal/upload"
)

// Compile-time checks that Uploader implements the upload interfaces.
var (
	_ upload.Uploader = (*Uploader)(nil)
	_ upload.Lister   = (*Uploader)(nil)
)

// Uploader publishes artifacts to a GCS bucket.
type Uploader struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// New creates a GCS uploader. The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Uploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	u := &Uploader{
		client: client,
		bucket: client.Bucket(bucketName),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithPrefix sets a key prefix for all uploads.
func WithPrefix(prefix string) Option {
	return func(u *Uploader) {
		u.prefix = strings.TrimSuffix(prefix, "/")
		if u.prefix != "" {
			u.prefix += "/"
		}
	}
}

// Upload writes the artifact to the bucket under prefix/name.
func (u *Uploader) Upload(ctx context.Context, name string, r io.Reader) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	obj := u.bucket.Object(u.prefix + name)
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing object %s: %w", name, err)
	}
	return nil
}

// List returns the names of objects under the prefix, sorted by the
// bucket's lexicographic iteration order.
func (u *Uploader) List(ctx context.Context) ([]string, error) {
	it := u.bucket.Objects(ctx, &storage.Query{Prefix: u.prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		names = append(names, strings.TrimPrefix(attrs.Name, u.prefix))
	}
	return names, nil
}

// Close releases resources.
func (u *Uploader) Close() error {
	return u.client.Close()
}
