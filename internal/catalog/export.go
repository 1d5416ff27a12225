package catalog

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Snapshot is the exported form of the catalog
type Snapshot struct {
	Channels []Definition `json:"channels"`
	Count    int          `json:"count"`
	Stats    Stats        `json:"stats"`
}

// Snapshot captures the current catalog contents
func (m *Manager) Snapshot() Snapshot {
	defs := m.List()
	return Snapshot{
		Channels: defs,
		Count:    len(defs),
		Stats:    m.Stats(),
	}
}

// Export writes the catalog as indented JSON to path on fs, creating parent
// directories as needed.
func (m *Manager) Export(fs afero.Fs, path string) error {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Import reads a snapshot written by Export and registers every definition
// in it. Definitions already present with the same payload type are skipped.
func (m *Manager) Import(fs afero.Fs, path string) (int, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, def := range snap.Channels {
		if err := m.Register(def); err != nil {
			return i, err
		}
	}
	return len(snap.Channels), nil
}
