package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuba6112/lesson-builder/internal/logging"
)

// Store persists conversations as one JSON file per document under the
// data directory.
type Store struct {
	dir string
}

// NewStore creates the conversation directory if needed.
func NewStore(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "conversations")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating conversation directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (st *Store) path(docID string) string {
	return filepath.Join(st.dir, docID+".json")
}

// Save writes the session's persistable turns atomically. Status turns are
// never written, so a reload shows only settled exchanges.
func (st *Store) Save(s *Session) error {
	turns := s.PersistableTurns()
	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding conversation: %w", err)
	}

	path := st.path(s.DocumentID())
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing conversation: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing conversation file: %w", err)
	}

	logging.Debug("conversation saved", "document", s.DocumentID(), "turns", len(turns))
	return nil
}

// Load returns the persisted turns for a document. A missing file is not
// an error: it yields an empty conversation.
func (st *Store) Load(docID string) ([]Turn, error) {
	data, err := os.ReadFile(st.path(docID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading conversation: %w", err)
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decoding conversation: %w", err)
	}
	return turns, nil
}

// Delete removes a document's persisted conversation.
func (st *Store) Delete(docID string) error {
	err := os.Remove(st.path(docID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
