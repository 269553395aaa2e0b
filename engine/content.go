package engine

import (
	"maps"

	"github.com/skridlevsky/pagetree/parser"
	"github.com/skridlevsky/pagetree/types"
)

// update applies fn to a copy of block id. fn reports whether it changed
// anything; unchanged blocks are not touched.
func (e *Engine) update(blocks []types.Block, id string, fn func(b *types.Block) bool) Result {
	i := find(blocks, id)
	if i == -1 {
		return unchanged(blocks)
	}
	b := blocks[i].Clone()
	if !fn(&b) {
		return unchanged(blocks)
	}
	e.touch(&b)
	out := copyBlocks(blocks)
	out[i] = b
	return Result{Blocks: out, Changed: true}
}

// UpdateContent replaces the text of id.
func (e *Engine) UpdateContent(blocks []types.Block, id, text string) Result {
	return e.update(blocks, id, func(b *types.Block) bool {
		if b.Content == text {
			return false
		}
		b.Content = text
		return true
	})
}

// UpdateType changes the type of id, keeping content and props. Unknown
// types are ignored.
func (e *Engine) UpdateType(blocks []types.Block, id string, typ types.BlockType) Result {
	if !typ.Valid() {
		return unchanged(blocks)
	}
	return e.update(blocks, id, func(b *types.Block) bool {
		if b.Type == typ {
			return false
		}
		b.Type = typ
		return true
	})
}

// UpdateProps shallow-merges partial into the props of id.
func (e *Engine) UpdateProps(blocks []types.Block, id string, partial map[string]any) Result {
	if len(partial) == 0 {
		return unchanged(blocks)
	}
	return e.update(blocks, id, func(b *types.Block) bool {
		if b.Props == nil {
			b.Props = make(map[string]any, len(partial))
		}
		maps.Copy(b.Props, partial)
		return true
	})
}

// ToggleTodoChecked flips the "checked" prop of id. An absent or falsy
// value counts as unchecked.
func (e *Engine) ToggleTodoChecked(blocks []types.Block, id string) Result {
	return e.update(blocks, id, func(b *types.Block) bool {
		checked := b.Checked()
		if b.Props == nil {
			b.Props = map[string]any{}
		}
		b.Props["checked"] = !checked
		return true
	})
}

// ApplyCommand replaces id in place with an empty block of type typ,
// keeping its identity and position. Todo blocks start unchecked. Table
// blocks need a record table and go through ApplyTable instead.
func (e *Engine) ApplyCommand(blocks []types.Block, id string, typ types.BlockType) Result {
	if !typ.Valid() || typ == types.BlockTable {
		return unchanged(blocks)
	}
	res := e.update(blocks, id, func(b *types.Block) bool {
		b.Type = typ
		b.Content = ""
		b.Props = map[string]any{}
		if typ == types.BlockTodo {
			b.Props["checked"] = false
		}
		return true
	})
	if res.Changed {
		res.Focus = id
	}
	return res
}

// ApplyTable turns id into a table block pointing at tableID and inserts an
// empty paragraph right after it so writing can continue below the table.
// Focus moves to the new paragraph.
func (e *Engine) ApplyTable(blocks []types.Block, id, tableID string) Result {
	res := e.update(blocks, id, func(b *types.Block) bool {
		b.Type = types.BlockTable
		b.Content = tableID
		b.Props = map[string]any{}
		return true
	})
	if !res.Changed {
		return res
	}
	table := res.Blocks[find(res.Blocks, id)]
	return e.insertAfter(res.Blocks, table, types.BlockParagraph)
}

// ApplyLink completes the link being typed in id: everything from the last
// "[[" to the end of its content becomes a page link token followed by a
// space. Content without "[[" is left alone.
func (e *Engine) ApplyLink(blocks []types.Block, id, pageID, title string) Result {
	res := e.update(blocks, id, func(b *types.Block) bool {
		next, ok := parser.CompleteLink(b.Content, pageID, title)
		if !ok {
			return false
		}
		b.Content = next
		return true
	})
	if res.Changed {
		res.Focus = id
	}
	return res
}
