package engine

import (
	"github.com/skridlevsky/pagetree/tree"
	"github.com/skridlevsky/pagetree/types"
)

// InsertAfter creates an empty block right after id in id's sibling group
// and renumbers that group. The new block is a todo when id is a todo and a
// paragraph otherwise. Focus moves to the new block.
func (e *Engine) InsertAfter(blocks []types.Block, id string) Result {
	i := find(blocks, id)
	if i == -1 {
		return unchanged(blocks)
	}
	typ := types.BlockParagraph
	if blocks[i].Type == types.BlockTodo {
		typ = types.BlockTodo
	}
	return e.insertAfter(blocks, blocks[i], typ)
}

func (e *Engine) insertAfter(blocks []types.Block, ref types.Block, typ types.BlockType) Result {
	group := siblings(blocks, ref.ParentBlockID)
	pos := position(group, ref.ID)
	nb := e.newBlock(ref.PageID, ref.ParentBlockID, typ, pos+1)

	spliced := make([]types.Block, 0, len(group)+1)
	spliced = append(spliced, group[:pos+1]...)
	spliced = append(spliced, nb)
	spliced = append(spliced, group[pos+1:]...)
	e.renumber(spliced)

	out := make([]types.Block, 0, len(blocks)+1)
	for _, b := range blocks {
		if b.ParentBlockID != ref.ParentBlockID {
			out = append(out, b)
		}
	}
	out = append(out, spliced...)

	return Result{Blocks: out, Focus: nb.ID, Changed: true}
}

// DeleteWithCascade removes id and all of its transitive descendants.
//
// The last block of a page is never removed: its content is cleared instead.
// When the cascade would empty the page, id itself survives with cleared
// content and only its descendants go. Sibling groups are not renumbered.
//
// Focus goes to the block preceding id in navigation order, or the one
// following it when id is first, unless that block is deleted too.
func (e *Engine) DeleteWithCascade(blocks []types.Block, id string) Result {
	i := find(blocks, id)
	if i == -1 {
		return unchanged(blocks)
	}
	if len(blocks) == 1 {
		return e.clearContent(blocks, i)
	}

	focus := deleteFocus(blocks, id)
	doomed := descendants(blocks, id)
	doomed[id] = true
	if doomed[focus] {
		focus = ""
	}

	if len(doomed) >= len(blocks) {
		survivor := blocks[i].Clone()
		if survivor.Content != "" {
			survivor.Content = ""
			e.touch(&survivor)
		}
		return Result{Blocks: []types.Block{survivor}, Changed: true}
	}

	out := make([]types.Block, 0, len(blocks)-len(doomed))
	for _, b := range blocks {
		if !doomed[b.ID] {
			out = append(out, b)
		}
	}
	return Result{Blocks: out, Focus: focus, Changed: true}
}

func (e *Engine) clearContent(blocks []types.Block, i int) Result {
	if blocks[i].Content == "" {
		return unchanged(blocks)
	}
	out := copyBlocks(blocks)
	out[i].Content = ""
	e.touch(&out[i])
	return Result{Blocks: out, Changed: true}
}

// deleteFocus picks the block to focus once id is gone.
func deleteFocus(blocks []types.Block, id string) string {
	order := tree.Order(blocks)
	for idx, cur := range order {
		if cur != id {
			continue
		}
		if idx > 0 {
			return order[idx-1]
		}
		if len(order) > 1 {
			return order[idx+1]
		}
		return ""
	}
	return ""
}

// descendants collects every block below id, following parent references.
func descendants(blocks []types.Block, id string) map[string]bool {
	children := make(map[string][]string)
	for _, b := range blocks {
		if b.ParentBlockID != "" {
			children[b.ParentBlockID] = append(children[b.ParentBlockID], b.ID)
		}
	}

	found := make(map[string]bool)
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if child == id || found[child] {
				continue
			}
			found[child] = true
			queue = append(queue, child)
		}
	}
	return found
}

// Indent nests id under its preceding sibling. The first sibling of a group
// cannot be indented.
func (e *Engine) Indent(blocks []types.Block, id string) Result {
	i := find(blocks, id)
	if i == -1 {
		return unchanged(blocks)
	}
	oldParent := blocks[i].ParentBlockID
	group := siblings(blocks, oldParent)
	pos := position(group, id)
	if pos <= 0 {
		return unchanged(blocks)
	}
	newParent := group[pos-1].ID

	out := copyBlocks(blocks)
	out[i].ParentBlockID = newParent
	e.touch(&out[i])

	if e.denseReindex {
		out = e.reindexAfterReparent(out, id, oldParent, newParent, "")
	}
	return Result{Blocks: out, Focus: id, Changed: true}
}

// Outdent moves id up one level: its new parent is its current parent's
// parent, or the root. A block whose parent cannot be found is promoted to
// the root.
func (e *Engine) Outdent(blocks []types.Block, id string) Result {
	i := find(blocks, id)
	if i == -1 || blocks[i].IsRoot() {
		return unchanged(blocks)
	}
	oldParent := blocks[i].ParentBlockID
	newParent := ""
	after := ""
	if p := find(blocks, oldParent); p != -1 {
		newParent = blocks[p].ParentBlockID
		after = oldParent
	}

	out := copyBlocks(blocks)
	out[i].ParentBlockID = newParent
	e.touch(&out[i])

	if e.denseReindex {
		out = e.reindexAfterReparent(out, id, oldParent, newParent, after)
	}
	return Result{Blocks: out, Focus: id, Changed: true}
}

// reindexAfterReparent renumbers the group id left and the group it joined.
// In the joined group id is placed right after the block named by after, or
// last when after is not a member.
func (e *Engine) reindexAfterReparent(blocks []types.Block, id, oldParent, newParent, after string) []types.Block {
	left := siblings(blocks, oldParent)
	e.renumber(left)

	var joined []types.Block
	var moved types.Block
	for _, b := range siblings(blocks, newParent) {
		if b.ID == id {
			moved = b
			continue
		}
		joined = append(joined, b)
	}
	at := position(joined, after) + 1
	if at == 0 {
		at = len(joined)
	}
	placed := make([]types.Block, 0, len(joined)+1)
	placed = append(placed, joined[:at]...)
	placed = append(placed, moved)
	placed = append(placed, joined[at:]...)
	e.renumber(placed)

	return replaceByID(blocks, append(left, placed...))
}

// Move reorders activeID to overID's position within their shared sibling
// group, then renumbers the group. Blocks with different parents are not
// reordered.
func (e *Engine) Move(blocks []types.Block, activeID, overID string) Result {
	if activeID == overID {
		return unchanged(blocks)
	}
	a, o := find(blocks, activeID), find(blocks, overID)
	if a == -1 || o == -1 {
		return unchanged(blocks)
	}
	parent := blocks[a].ParentBlockID
	if blocks[o].ParentBlockID != parent {
		return unchanged(blocks)
	}

	group := siblings(blocks, parent)
	from, to := position(group, activeID), position(group, overID)
	group = arrayMove(group, from, to)
	e.renumber(group)

	return Result{Blocks: replaceByID(blocks, group), Focus: activeID, Changed: true}
}

// arrayMove removes the element at from and reinserts it at to.
func arrayMove(group []types.Block, from, to int) []types.Block {
	out := make([]types.Block, 0, len(group))
	moved := group[from]
	out = append(out, group[:from]...)
	out = append(out, group[from+1:]...)

	tail := append([]types.Block{moved}, out[to:]...)
	return append(out[:to], tail...)
}

// AppendEmptyBlock adds a root paragraph after the last block of the
// collection, with that block's index plus one. No group is renumbered.
func (e *Engine) AppendEmptyBlock(blocks []types.Block, pageID string) Result {
	index := 0
	if len(blocks) > 0 {
		index = blocks[len(blocks)-1].Index + 1
	}
	nb := e.newBlock(pageID, "", types.BlockParagraph, index)

	out := make([]types.Block, 0, len(blocks)+1)
	out = append(out, blocks...)
	out = append(out, nb)
	return Result{Blocks: out, Focus: nb.ID, Changed: true}
}
