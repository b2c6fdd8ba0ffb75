package checkpoint

import (
	"path/filepath"
	"testing"
)

func TestCursorRoundTrip(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "checkpoint"))

	if _, err := c.Load(); err != ErrNotFound {
		t.Errorf("Load() on fresh cursor error = %v, want ErrNotFound", err)
	}

	if err := c.Save(42); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	id, err := c.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if id != 42 {
		t.Errorf("Load() = %d, want 42", id)
	}

	// Saving again overwrites.
	if err := c.Save(100); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if id, _ := c.Load(); id != 100 {
		t.Errorf("Load() after second save = %d, want 100", id)
	}
}

func TestCursorClear(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "checkpoint"))

	if err := c.Clear(); err != nil {
		t.Errorf("Clear() on missing file error = %v", err)
	}

	if err := c.Save(7); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := c.Load(); err != ErrNotFound {
		t.Errorf("Load() after Clear() error = %v, want ErrNotFound", err)
	}
}
