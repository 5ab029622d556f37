package document

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveSnapshot writes a document snapshot to the data directory with an
// atomic temp-then-rename so a crash never leaves a torn file.
func SaveSnapshot(dataDir string, snap Snapshot) error {
	dir := filepath.Join(dataDir, "documents")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	path := filepath.Join(dir, snap.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing document file: %w", err)
	}
	return nil
}

// LoadSnapshot reads a persisted document. The boolean reports whether a
// file existed.
func LoadSnapshot(dataDir, docID string) (Snapshot, bool, error) {
	path := filepath.Join(dataDir, "documents", docID+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("reading document: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decoding document: %w", err)
	}
	return snap, true, nil
}

// ListSnapshots returns the IDs of all persisted documents.
func ListSnapshots(dataDir string) ([]string, error) {
	dir := filepath.Join(dataDir, "documents")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, name[:len(name)-len(".json")])
	}
	return ids, nil
}
