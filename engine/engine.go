// Package engine implements the structural edits of a page's block tree.
//
// Every operation is a pure function over a flat block collection: it never
// modifies its input and returns a new collection in a Result. Requests that
// reference unknown blocks or make no structural sense (indenting the first
// sibling, outdenting a root, dragging across sibling groups) return the
// input unchanged with Changed == false.
package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/skridlevsky/pagetree/types"
)

// IDGenerator produces new block identities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Result is the outcome of one operation.
type Result struct {
	// Blocks is the new flat collection.
	Blocks []types.Block
	// Focus is the block that should receive focus after the edit, or ""
	// when focus should not move.
	Focus string
	// Changed is false when the operation was a no-op.
	Changed bool
}

// Engine applies block mutations. It holds no per-page state; the zero
// value is not usable, call New.
type Engine struct {
	newID        IDGenerator
	now          Clock
	denseReindex bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator sets how new block ids are minted (default: UUIDv7).
func WithIDGenerator(gen IDGenerator) Option {
	return func(e *Engine) { e.newID = gen }
}

// WithClock sets the time source used for createdAt/updatedAt.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.now = c }
}

// WithDenseReindex makes Indent and Outdent renumber both the sibling group
// a block leaves and the one it joins. By default they only rewrite the
// parent reference and leave index values as they were.
func WithDenseReindex(on bool) Option {
	return func(e *Engine) { e.denseReindex = on }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Seed returns the default block of an empty page.
func (e *Engine) Seed(pageID string) types.Block {
	return e.newBlock(pageID, "", types.BlockParagraph, 0)
}

// EnsureSeed returns blocks, or a single seed paragraph when blocks is empty.
func (e *Engine) EnsureSeed(pageID string, blocks []types.Block) []types.Block {
	if len(blocks) > 0 {
		return blocks
	}
	return []types.Block{e.Seed(pageID)}
}

func (e *Engine) newBlock(pageID, parentID string, typ types.BlockType, index int) types.Block {
	now := e.now()
	return types.Block{
		ID:            e.newID(),
		PageID:        pageID,
		ParentBlockID: parentID,
		Type:          typ,
		Props:         map[string]any{},
		Index:         index,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
}

// touch marks a block as modified.
func (e *Engine) touch(b *types.Block) {
	b.UpdatedAt = e.now()
	b.Version++
}

// unchanged wraps the input as a no-op result.
func unchanged(blocks []types.Block) Result {
	return Result{Blocks: blocks}
}

// find returns the position of id in blocks, or -1.
func find(blocks []types.Block, id string) int {
	if id == "" {
		return -1
	}
	for i := range blocks {
		if blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// copyBlocks returns a shallow copy of the collection. Props maps stay
// shared; operations clone a block's props before changing them.
func copyBlocks(blocks []types.Block) []types.Block {
	out := make([]types.Block, len(blocks))
	copy(out, blocks)
	return out
}

// siblings returns the sibling group of parentID sorted by index. Ties keep
// collection order.
func siblings(blocks []types.Block, parentID string) []types.Block {
	var group []types.Block
	for _, b := range blocks {
		if b.ParentBlockID == parentID {
			group = append(group, b)
		}
	}
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].Index < group[j].Index
	})
	return group
}

// position returns where id sits in a sibling group, or -1.
func position(group []types.Block, id string) int {
	for i := range group {
		if group[i].ID == id {
			return i
		}
	}
	return -1
}

// renumber assigns indices 0..n-1 in group order.
func (e *Engine) renumber(group []types.Block) {
	for i := range group {
		if group[i].Index != i {
			group[i].Index = i
			e.touch(&group[i])
		}
	}
}

// replaceByID writes the updated blocks over their counterparts in blocks,
// keeping collection order.
func replaceByID(blocks []types.Block, updated []types.Block) []types.Block {
	byID := make(map[string]types.Block, len(updated))
	for _, b := range updated {
		byID[b.ID] = b
	}
	out := copyBlocks(blocks)
	for i := range out {
		if u, ok := byID[out[i].ID]; ok {
			out[i] = u
		}
	}
	return out
}
