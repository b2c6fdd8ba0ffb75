// Package checkpoint persists a batch progress cursor so long engine
// runs can resume after interruption.
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrNotFound is returned when no checkpoint file exists.
var ErrNotFound = errors.New("checkpoint: not found")

// Cursor tracks the last fully processed game ID at a file path.
type Cursor struct {
	path string
}

// New creates a cursor stored at path.
func New(path string) *Cursor {
	return &Cursor{path: path}
}

// Load returns the last processed game ID. ErrNotFound means no run has
// checkpointed yet.
func (c *Cursor) Load() (int, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("reading checkpoint: %w", err)
	}
	id, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parsing checkpoint %q: %w", string(data), err)
	}
	return id, nil
}

// Save records the last processed game ID. The write is atomic: a
// partially written checkpoint is never observed.
func (c *Cursor) Save(gameID int) error {
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(gameID)+"\n"), 0644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("renaming checkpoint: %w", err)
	}
	return nil
}

// Clear removes the checkpoint after a batch completes.
func (c *Cursor) Clear() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}
	return nil
}
