// Package document holds the lesson document: an ordered collection of
// content blocks plus document-level metadata. The store is the single
// mutation point for both the editor surface and the command executor.
package document

import "github.com/google/uuid"

// BlockType identifies what a block's content means.
type BlockType string

// The closed set of block types.
const (
	BlockText      BlockType = "text"
	BlockHeading   BlockType = "heading"
	BlockImage     BlockType = "image"
	BlockVideo     BlockType = "video"
	BlockQuiz      BlockType = "quiz"
	BlockMarkup    BlockType = "markup"
	BlockCode      BlockType = "code"
	BlockComponent BlockType = "component"
	BlockDiagram   BlockType = "diagram"
	BlockFormula   BlockType = "formula"
)

// ValidBlockType reports whether t is a member of the closed type set.
func ValidBlockType(t BlockType) bool {
	switch t {
	case BlockText, BlockHeading, BlockImage, BlockVideo, BlockQuiz,
		BlockMarkup, BlockCode, BlockComponent, BlockDiagram, BlockFormula:
		return true
	}
	return false
}

// Block is one addressable content unit. ID is stable for the block's whole
// lifetime, across reorderings included.
type Block struct {
	ID      string    `json:"id"`
	Type    BlockType `json:"type"`
	Content string    `json:"content"`

	// Type-specific fields. Zero values mean "not applicable".
	Caption      string   `json:"caption,omitempty"`       // image, video
	Options      []string `json:"options,omitempty"`       // quiz
	CorrectIndex int      `json:"correctIndex,omitempty"`  // quiz
	Language     string   `json:"language,omitempty"`      // code
	Filename     string   `json:"filename,omitempty"`      // code
	ShowPreview  bool     `json:"showPreview,omitempty"`   // component, markup
}

// NewBlock creates a block of the given type with a fresh id.
func NewBlock(t BlockType, content string) Block {
	return Block{
		ID:      uuid.NewString(),
		Type:    t,
		Content: content,
	}
}

// emptyBlock is what replaces the last block when it is deleted: the
// document never drops to zero blocks.
func emptyBlock() Block {
	return NewBlock(BlockText, "")
}
