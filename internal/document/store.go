package document

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cuba6112/lesson-builder/internal/logging"
)

// Snapshot is an immutable copy of the document for display and persistence.
type Snapshot struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Icon   string  `json:"icon"`
	Blocks []Block `json:"blocks"`
}

// Store is the document's single mutation point. The block collection has
// exactly one writer active at a time (the editor surface or the command
// executor, never both); the mutex only guarantees that snapshots observe a
// consistent state, it is not a concurrency license for writers.
type Store struct {
	mu     sync.RWMutex
	id     string
	title  string
	icon   string
	blocks []Block

	subMu       sync.Mutex
	subscribers []func(Snapshot)
}

// NewStore creates a document with one empty text block.
func NewStore(id, title string) *Store {
	if id == "" {
		id = uuid.NewString()
	}
	return &Store{
		id:     id,
		title:  title,
		blocks: []Block{emptyBlock()},
	}
}

// Restore creates a store from a previously captured snapshot. Blocks
// with an unknown type are dropped; an empty result is replaced by a
// single fresh block.
func Restore(snap Snapshot) *Store {
	blocks := make([]Block, 0, len(snap.Blocks))
	for _, b := range snap.Blocks {
		// Persisted files can be hand-edited or come from a newer
		// version; blocks outside the known type set are dropped.
		if !ValidBlockType(b.Type) {
			logging.Warn("dropping block with unknown type", "id", b.ID, "type", b.Type)
			continue
		}
		blocks = append(blocks, b)
	}
	if len(blocks) == 0 {
		blocks = []Block{emptyBlock()}
	}
	return &Store{
		id:     snap.ID,
		title:  snap.Title,
		icon:   snap.Icon,
		blocks: blocks,
	}
}

// Apply replaces the document's content with a snapshot in place,
// keeping the store's identity and subscribers. Used for undo and redo.
func (s *Store) Apply(snap Snapshot) {
	s.mu.Lock()
	blocks := make([]Block, len(snap.Blocks))
	copy(blocks, snap.Blocks)
	if len(blocks) == 0 {
		blocks = []Block{emptyBlock()}
	}
	s.title = snap.Title
	s.icon = snap.Icon
	s.blocks = blocks
	out := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(out)
}

// ID returns the document identity.
func (s *Store) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Title returns the document title.
func (s *Store) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title
}

// Icon returns the document icon.
func (s *Store) Icon() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.icon
}

// Len returns the number of blocks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

// Snapshot returns a consistent copy of the whole document.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	blocks := make([]Block, len(s.blocks))
	copy(blocks, s.blocks)
	return Snapshot{ID: s.id, Title: s.title, Icon: s.icon, Blocks: blocks}
}

// BlockAt returns the block at the given zero-based position.
func (s *Store) BlockAt(pos int) (Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pos < 0 || pos >= len(s.blocks) {
		return Block{}, false
	}
	return s.blocks[pos], true
}

// SetTitle sets the document title. Metadata only, never touches blocks.
func (s *Store) SetTitle(title string) {
	s.mu.Lock()
	s.title = title
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// SetIcon sets the document icon. Metadata only, never touches blocks.
func (s *Store) SetIcon(icon string) {
	s.mu.Lock()
	s.icon = icon
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// AddBlock inserts a block and returns its id. With afterID empty the block
// goes to the end; otherwise it goes immediately after the anchor, or to the
// end when the anchor is unknown. An empty block.ID gets a fresh one;
// callers may pass an explicit id to keep identity across undo/redo.
func (s *Store) AddBlock(block Block, afterID string) string {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}

	s.mu.Lock()
	pos := len(s.blocks)
	if afterID != "" {
		if i := s.indexLocked(afterID); i >= 0 {
			pos = i + 1
		}
	}
	s.blocks = append(s.blocks, Block{})
	copy(s.blocks[pos+1:], s.blocks[pos:])
	s.blocks[pos] = block
	snap := s.snapshotLocked()
	s.mu.Unlock()

	logging.Debug("block added", "id", block.ID, "type", block.Type, "pos", pos)
	s.notify(snap)
	return block.ID
}

// UpdateBlock sets one field of the identified block. An unknown id is a
// no-op, not an error: the model may reference a block the user deleted.
// Unknown field names are ignored the same way.
func (s *Store) UpdateBlock(id, field string, value any) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		logging.Debug("update for unknown block ignored", "id", id, "field", field)
		return
	}

	b := &s.blocks[i]
	switch field {
	case "content":
		if v, ok := value.(string); ok {
			b.Content = v
		}
	case "caption":
		if v, ok := value.(string); ok {
			b.Caption = v
		}
	case "language":
		if v, ok := value.(string); ok {
			b.Language = v
		}
	case "filename":
		if v, ok := value.(string); ok {
			b.Filename = v
		}
	case "options":
		if v, ok := value.([]string); ok {
			b.Options = v
		}
	case "correctIndex":
		if v, ok := value.(int); ok {
			b.CorrectIndex = v
		}
	case "showPreview":
		if v, ok := value.(bool); ok {
			b.ShowPreview = v
		}
	default:
		logging.Debug("update for unknown field ignored", "id", id, "field", field)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// DeleteBlock removes the identified block. Unknown ids are a no-op.
// Deleting the sole remaining block inserts one fresh empty block instead of
// leaving the document empty.
func (s *Store) DeleteBlock(id string) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}

	s.blocks = append(s.blocks[:i], s.blocks[i+1:]...)
	if len(s.blocks) == 0 {
		s.blocks = []Block{emptyBlock()}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	logging.Debug("block deleted", "id", id)
	s.notify(snap)
}

// MoveBlock repositions the identified block to the given index, clamped to
// the valid range. Identity is preserved across reordering.
func (s *Store) MoveBlock(id string, to int) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}

	if to < 0 {
		to = 0
	}
	if to >= len(s.blocks) {
		to = len(s.blocks) - 1
	}

	b := s.blocks[i]
	s.blocks = append(s.blocks[:i], s.blocks[i+1:]...)
	s.blocks = append(s.blocks, Block{})
	copy(s.blocks[to+1:], s.blocks[to:])
	s.blocks[to] = b
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Subscribe registers a callback invoked after every mutation with a fresh
// snapshot. Callbacks run synchronously on the mutating goroutine and must
// not call back into the store.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.subMu.Unlock()
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	subs := make([]func(Snapshot), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// indexLocked returns the position of the block with the given id, or -1.
func (s *Store) indexLocked(id string) int {
	for i := range s.blocks {
		if s.blocks[i].ID == id {
			return i
		}
	}
	return -1
}
