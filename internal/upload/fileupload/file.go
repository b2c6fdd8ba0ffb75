// Package fileupload implements an Uploader writing to a local
// directory, the default destination for dashboard artifacts.
package fileupload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/discochess/streaklab/internal/codec"
	"github.com/discochess/streaklab/internal/codec/noopcodec"
	"github.com/discochess/streaklab/internal/upload"
)

// Compile-time checks that Uploader implements the upload interfaces.
var (
	_ upload.Uploader = (*Uploader)(nil)
	_ upload.Lister   = (*Uploader)(nil)
)

// Uploader writes artifacts into a directory.
type Uploader struct {
	dir   string
	codec codec.Codec
}

// New creates an Uploader rooted at dir, creating it if needed.
func New(dir string, opts ...Option) (*Uploader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	u := &Uploader{dir: dir, codec: noopcodec.New()}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithCodec compresses artifacts with c before writing.
func WithCodec(c codec.Codec) Option {
	return func(u *Uploader) { u.codec = c }
}

// Upload writes the artifact to dir/name atomically.
func (u *Uploader) Upload(ctx context.Context, name string, r io.Reader) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	path := filepath.Join(u.dir, u.artifactName(name))
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating artifact file: %w", err)
	}

	// Hide the file's Close from the codec so closing the compressor
	// never closes the file underneath us.
	compressor, err := u.codec.Writer(struct{ io.Writer }{f})
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("creating compressor: %w", err)
	}
	if _, err := io.Copy(compressor, r); err != nil {
		compressor.Close()
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err := compressor.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("closing compressor: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing artifact file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming artifact file: %w", err)
	}
	return nil
}

// List returns the names of artifacts in the directory, sorted.
func (u *Uploader) List(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	entries, err := os.ReadDir(u.dir)
	if err != nil {
		return nil, fmt.Errorf("reading upload directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Close releases resources.
func (u *Uploader) Close() error {
	return nil
}

func (u *Uploader) artifactName(name string) string {
	if ext := u.codec.Extension(); ext != "" {
		return name + "." + ext
	}
	return name
}
