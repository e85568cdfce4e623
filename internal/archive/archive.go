// Package archive writes raw per-source payloads to a dated directory
// tree before they're parsed into core entities, so a schema-drift
// ParseError downstream can be replayed against the exact bytes a
// source returned. Plain filesystem writes — no ecosystem library in
// the pack addresses "write a JSON blob under a dated directory tree"
// better than os.WriteFile/os.MkdirAll.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store writes raw capture payloads under a root directory.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// Write saves payload under
// raw/<league>/<source>/<yyyy>/<ww>/<timestamp>.json and returns the
// path written.
func (s *Store) Write(league, source string, week int, capturedAt time.Time, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("archive: marshal payload: %w", err)
	}

	dir := filepath.Join(s.root, league, source, fmt.Sprintf("%04d", capturedAt.Year()), fmt.Sprintf("%02d", week))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("archive: create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d.json", capturedAt.UnixNano()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("archive: write %s: %w", path, err)
	}
	return path, nil
}

// Read loads a previously archived payload back for replay.
func (s *Store) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("archive: read %s: %w", path, err)
	}
	return data, nil
}
