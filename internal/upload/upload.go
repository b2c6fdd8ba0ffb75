// Package upload abstracts publishing pipeline artifacts (dashboard
// tables, plots) to a destination.
package upload

import (
	"context"
	"io"
)

// Uploader publishes a named artifact.
type Uploader interface {
	// Upload writes the contents of r under the given name.
	Upload(ctx context.Context, name string, r io.Reader) error

	// Close releases resources.
	Close() error
}

// Lister is implemented by destinations that can enumerate the
// artifacts they hold.
type Lister interface {
	// List returns the names of published artifacts, sorted.
	List(ctx context.Context) ([]string, error)
}
