package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/actionc/actionc/internal/server_actions"
)

// The manifest enumerates every action the build produced, keyed by source
// file, so the runtime dispatcher can map an incoming id back to the module
// that exports it without re-running the transform.

const Version = 1

type Entry struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type Manifest struct {
	Version int                `json:"version"`
	Files   map[string][]Entry `json:"files"`
}

// Build collects per-file action lists into a manifest. Files without
// actions are omitted; entry order within a file is declaration order.
func Build(actionsByPath map[string][]server_actions.Action) *Manifest {
	m := &Manifest{Version: Version, Files: map[string][]Entry{}}
	for path, actions := range actionsByPath {
		if len(actions) == 0 {
			continue
		}
		entries := make([]Entry, len(actions))
		for i, action := range actions {
			entries[i] = Entry{Name: action.Name, ID: action.ID}
		}
		m.Files[path] = entries
	}
	return m
}

// Paths returns the manifest's file paths in sorted order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Files))
	for path := range m.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Encode renders the manifest as pretty-printed JSON with a trailing
// newline. Map keys marshal in sorted order, so output is deterministic.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile writes the encoded manifest, creating parent directories.
func (m *Manifest) WriteFile(path string) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
