package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Manifest contains metadata about a built per-player dataset.
type Manifest struct {
	Version      int       `json:"version"`
	Player       string    `json:"player"`
	GameCount    int       `json:"game_count"`
	DroppedCount int       `json:"dropped_count"`
	Archives     []string  `json:"archives,omitempty"` // source months, "YYYY-MM"
	BuiltAt      time.Time `json:"built_at"`
}

// ManifestVersion is the current manifest format version.
const ManifestVersion = 1

const manifestFilename = "manifest.json"

// WriteManifest writes the manifest to the player's data directory.
func WriteManifest(dir string, m *Manifest) error {
	path := filepath.Join(dir, manifestFilename)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest from a player's data directory.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
