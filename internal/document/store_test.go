package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreStartsWithOneBlock(t *testing.T) {
	s := NewStore("", "Biology 101")
	assert.Equal(t, 1, s.Len())
	assert.NotEmpty(t, s.ID())
}

func TestAddBlockAppendAndAnchor(t *testing.T) {
	s := NewStore("doc-1", "")
	first, ok := s.BlockAt(0)
	require.True(t, ok)

	idA := s.AddBlock(NewBlock(BlockHeading, "Cells"), "")
	idB := s.AddBlock(NewBlock(BlockText, "Body"), "")
	require.Equal(t, 3, s.Len())

	// Insert between the heading and the body via the anchor id.
	idC := s.AddBlock(NewBlock(BlockImage, "cell.png"), idA)

	snap := s.Snapshot()
	got := make([]string, 0, len(snap.Blocks))
	for _, b := range snap.Blocks {
		got = append(got, b.ID)
	}
	assert.Equal(t, []string{first.ID, idA, idC, idB}, got)
}

func TestAddBlockUnknownAnchorAppends(t *testing.T) {
	s := NewStore("doc-1", "")
	id := s.AddBlock(NewBlock(BlockText, "tail"), "no-such-id")

	last, ok := s.BlockAt(s.Len() - 1)
	require.True(t, ok)
	assert.Equal(t, id, last.ID)
}

func TestUpdateBlock(t *testing.T) {
	s := NewStore("doc-1", "")
	id := s.AddBlock(NewBlock(BlockCode, "print(1)"), "")

	s.UpdateBlock(id, "content", "print(2)")
	s.UpdateBlock(id, "language", "python")
	s.UpdateBlock(id, "filename", "demo.py")

	snap := s.Snapshot()
	b := snap.Blocks[len(snap.Blocks)-1]
	assert.Equal(t, "print(2)", b.Content)
	assert.Equal(t, "python", b.Language)
	assert.Equal(t, "demo.py", b.Filename)
}

func TestUpdateBlockUnknownIDIsNoop(t *testing.T) {
	s := NewStore("doc-1", "")
	before := s.Snapshot()
	s.UpdateBlock("missing", "content", "x")
	assert.Equal(t, before.Blocks, s.Snapshot().Blocks)
}

func TestDeleteLastBlockReplacesWithFreshEmpty(t *testing.T) {
	s := NewStore("doc-1", "")
	only, ok := s.BlockAt(0)
	require.True(t, ok)

	s.DeleteBlock(only.ID)

	require.Equal(t, 1, s.Len())
	fresh, _ := s.BlockAt(0)
	assert.NotEqual(t, only.ID, fresh.ID)
	assert.Equal(t, BlockText, fresh.Type)
	assert.Empty(t, fresh.Content)
}

func TestDeleteBlockKeepsOrder(t *testing.T) {
	s := NewStore("doc-1", "")
	idA := s.AddBlock(NewBlock(BlockHeading, "A"), "")
	idB := s.AddBlock(NewBlock(BlockText, "B"), "")

	s.DeleteBlock(idA)

	snap := s.Snapshot()
	require.Len(t, snap.Blocks, 2)
	assert.Equal(t, idB, snap.Blocks[1].ID)
}

func TestMoveBlockPreservesIdentity(t *testing.T) {
	s := NewStore("doc-1", "")
	idA := s.AddBlock(NewBlock(BlockHeading, "A"), "")
	idB := s.AddBlock(NewBlock(BlockText, "B"), "")

	s.MoveBlock(idB, 0)

	first, _ := s.BlockAt(0)
	assert.Equal(t, idB, first.ID)
	assert.Equal(t, 3, s.Len())

	// Clamped out-of-range target.
	s.MoveBlock(idA, 99)
	last, _ := s.BlockAt(s.Len() - 1)
	assert.Equal(t, idA, last.ID)
}

func TestSubscribeSeesEveryMutation(t *testing.T) {
	s := NewStore("doc-1", "")
	var titles []string
	var blockCounts []int
	s.Subscribe(func(snap Snapshot) {
		titles = append(titles, snap.Title)
		blockCounts = append(blockCounts, len(snap.Blocks))
	})

	s.SetTitle("Cells")
	s.AddBlock(NewBlock(BlockText, "x"), "")

	require.Len(t, titles, 2)
	assert.Equal(t, "Cells", titles[1])
	assert.Equal(t, []int{1, 2}, blockCounts)
}

func TestRestoreEmptySnapshotGetsOneBlock(t *testing.T) {
	s := Restore(Snapshot{ID: "doc-9", Title: "Old"})
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "Old", s.Title())
}

func TestRestoreDropsUnknownBlockTypes(t *testing.T) {
	s := Restore(Snapshot{ID: "doc-10", Blocks: []Block{
		{ID: "a", Type: BlockHeading, Content: "Intro"},
		{ID: "b", Type: BlockType("hologram"), Content: "???"},
		{ID: "c", Type: BlockText, Content: "body"},
	}})

	require.Equal(t, 2, s.Len())
	blocks := s.Snapshot().Blocks
	assert.Equal(t, "a", blocks[0].ID)
	assert.Equal(t, "c", blocks[1].ID)
}

func TestRestoreAllBlocksInvalidGetsOneBlock(t *testing.T) {
	s := Restore(Snapshot{ID: "doc-11", Blocks: []Block{
		{ID: "b", Type: BlockType("hologram")},
	}})

	require.Equal(t, 1, s.Len())
	assert.Equal(t, BlockText, s.Snapshot().Blocks[0].Type)
}
