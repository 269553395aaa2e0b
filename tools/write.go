package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/engine"
	"github.com/skridlevsky/pagetree/session"
	"github.com/skridlevsky/pagetree/types"
)

// Write implements write MCP tools. Block edits go through the page's
// session, so they land in the working set at once and are saved on the
// debounce.
type Write struct {
	client   backend.Backend
	sessions *session.Manager
}

// NewWrite creates a new Write tool handler.
func NewWrite(c backend.Backend, sessions *session.Manager) *Write {
	return &Write{client: c, sessions: sessions}
}

// CreatePage creates a page with its seed paragraph.
func (w *Write) CreatePage(ctx context.Context, req *mcp.CallToolRequest, input types.CreatePageInput) (*mcp.CallToolResult, any, error) {
	s, err := w.sessions.CreatePage(ctx, types.Page{
		Title:    input.Title,
		Type:     types.PageType(input.Type),
		ParentID: input.ParentID,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("failed to create page '%s': %v", input.Title, err)), nil, nil
	}

	res, err := jsonTextResult(map[string]any{
		"created": true,
		"page":    s.Page(),
		"blocks":  s.Blocks(),
	})
	return res, nil, err
}

// RenamePage changes a page title.
func (w *Write) RenamePage(ctx context.Context, req *mcp.CallToolRequest, input types.RenamePageInput) (*mcp.CallToolResult, any, error) {
	if input.Title == "" {
		return errorResult("title is required"), nil, nil
	}
	page, err := w.sessions.UpdatePage(ctx, input.PageID, types.PageUpdate{Title: &input.Title})
	if err != nil {
		return errorResult(fmt.Sprintf("failed to rename page %s: %v", input.PageID, err)), nil, nil
	}
	res, err := jsonTextResult(page)
	return res, nil, err
}

// InsertBlockAfter adds a sibling right after a block, optionally with text.
func (w *Write) InsertBlockAfter(ctx context.Context, req *mcp.CallToolRequest, input types.InsertBlockAfterInput) (*mcp.CallToolResult, any, error) {
	s, errRes := openSession(ctx, w.sessions, input.PageID)
	if errRes != nil {
		return errRes, nil, nil
	}
	res, err := s.InsertAfter(input.BlockID)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to insert after %s: %v", input.BlockID, err)), nil, nil
	}
	return w.fill(s, res, input.Content)
}

// AppendBlock adds a root paragraph at the end of a page.
func (w *Write) AppendBlock(ctx context.Context, req *mcp.CallToolRequest, input types.AppendBlockInput) (*mcp.CallToolResult, any, error) {
	s, errRes := openSession(ctx, w.sessions, input.PageID)
	if errRes != nil {
		return errRes, nil, nil
	}
	res, err := s.Append()
	if err != nil {
		return errorResult(fmt.Sprintf("failed to append to %s: %v", input.PageID, err)), nil, nil
	}
	return w.fill(s, res, input.Content)
}

// fill sets the text of a freshly created block.
func (w *Write) fill(s *session.Session, res engine.Result, content string) (*mcp.CallToolResult, any, error) {
	if content == "" || res.Focus == "" {
		return editResult(s, res)
	}
	focus := res.Focus
	if _, err := s.UpdateContent(focus, content); err != nil {
		return errorResult(fmt.Sprintf("created block %s but failed to set content: %v", focus, err)), nil, nil
	}
	return editResult(s, engine.Result{Blocks: s.Blocks(), Focus: focus, Changed: true})
}

// UpdateBlock changes content, type and props of a block. Fields left out
// of the input are not touched.
func (w *Write) UpdateBlock(ctx context.Context, req *mcp.CallToolRequest, input types.UpdateBlockInput) (*mcp.CallToolResult, any, error) {
	s, errRes := openSession(ctx, w.sessions, input.PageID)
	if errRes != nil {
		return errRes, nil, nil
	}
	if input.Content == nil && input.Type == "" && len(input.Props) == 0 {
		return errorResult("nothing to update: set content, type or props"), nil, nil
	}

	var last engine.Result
	changed := false
	if input.Content != nil {
		res, err := s.UpdateContent(input.BlockID, *input.Content)
		if err != nil {
			return errorResult(fmt.Sprintf("failed to update %s: %v", input.BlockID, err)), nil, nil
		}
		last, changed = res, changed || res.Changed
	}
	if input.Type != "" {
		res, err := s.UpdateType(input.BlockID, types.BlockType(input.Type))
		if err != nil {
			return errorResult(fmt.Sprintf("failed to update %s: %v", input.BlockID, err)), nil, nil
		}
		last, changed = res, changed || res.Changed
	}
	if len(input.Props) > 0 {
		res, err := s.UpdateProps(input.BlockID, input.Props)
		if err != nil {
			return errorResult(fmt.Sprintf("failed to update %s: %v", input.BlockID, err)), nil, nil
		}
		last, changed = res, changed || res.Changed
	}

	last.Changed = changed
	return editResult(s, last)
}

// ToggleTodo flips the checked state of a todo block.
func (w *Write) ToggleTodo(ctx context.Context, req *mcp.CallToolRequest, input types.BlockRef) (*mcp.CallToolResult, any, error) {
	return w.blockOp(ctx, input, "toggle", (*session.Session).ToggleTodo)
}

// DeleteBlock removes a block and all of its descendants.
func (w *Write) DeleteBlock(ctx context.Context, req *mcp.CallToolRequest, input types.BlockRef) (*mcp.CallToolResult, any, error) {
	return w.blockOp(ctx, input, "delete", (*session.Session).Delete)
}

// IndentBlock nests a block under its preceding sibling.
func (w *Write) IndentBlock(ctx context.Context, req *mcp.CallToolRequest, input types.BlockRef) (*mcp.CallToolResult, any, error) {
	return w.blockOp(ctx, input, "indent", (*session.Session).Indent)
}

// OutdentBlock moves a block up one level.
func (w *Write) OutdentBlock(ctx context.Context, req *mcp.CallToolRequest, input types.BlockRef) (*mcp.CallToolResult, any, error) {
	return w.blockOp(ctx, input, "outdent", (*session.Session).Outdent)
}

func (w *Write) blockOp(ctx context.Context, input types.BlockRef, verb string, op func(*session.Session, string) (engine.Result, error)) (*mcp.CallToolResult, any, error) {
	s, errRes := openSession(ctx, w.sessions, input.PageID)
	if errRes != nil {
		return errRes, nil, nil
	}
	res, err := op(s, input.BlockID)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to %s %s: %v", verb, input.BlockID, err)), nil, nil
	}
	return editResult(s, res)
}

// MoveBlock moves a block to the position of a sibling.
func (w *Write) MoveBlock(ctx context.Context, req *mcp.CallToolRequest, input types.MoveBlockInput) (*mcp.CallToolResult, any, error) {
	s, errRes := openSession(ctx, w.sessions, input.PageID)
	if errRes != nil {
		return errRes, nil, nil
	}
	res, err := s.Move(input.BlockID, input.OverID)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to move %s: %v", input.BlockID, err)), nil, nil
	}
	if !res.Changed && input.BlockID != input.OverID {
		return errorResult(fmt.Sprintf("%s and %s are not siblings; move_block only reorders within one parent", input.BlockID, input.OverID)), nil, nil
	}
	return editResult(s, res)
}

// SlashCommand converts a block with a slash command.
func (w *Write) SlashCommand(ctx context.Context, req *mcp.CallToolRequest, input types.SlashCommandInput) (*mcp.CallToolResult, any, error) {
	s, errRes := openSession(ctx, w.sessions, input.PageID)
	if errRes != nil {
		return errRes, nil, nil
	}
	res, err := s.ApplyCommand(ctx, input.BlockID, input.Command)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to apply /%s to %s: %v", input.Command, input.BlockID, err)), nil, nil
	}
	return editResult(s, res)
}

// InsertPageLink appends a link to another page at the end of a block.
func (w *Write) InsertPageLink(ctx context.Context, req *mcp.CallToolRequest, input types.InsertPageLinkInput) (*mcp.CallToolResult, any, error) {
	s, errRes := openSession(ctx, w.sessions, input.PageID)
	if errRes != nil {
		return errRes, nil, nil
	}
	target, err := w.client.GetPage(ctx, input.TargetPageID)
	if err != nil {
		return errorResult(fmt.Sprintf("link target %s: %v", input.TargetPageID, err)), nil, nil
	}
	b, ok := s.Block(input.BlockID)
	if !ok {
		return errorResult(fmt.Sprintf("block %s not found on page %s", input.BlockID, input.PageID)), nil, nil
	}

	if _, err := s.UpdateContent(b.ID, b.Content+"[["); err != nil {
		return errorResult(fmt.Sprintf("failed to link from %s: %v", b.ID, err)), nil, nil
	}
	res, err := s.InsertLink(b.ID, *target)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to link from %s: %v", b.ID, err)), nil, nil
	}
	return editResult(s, res)
}

// SavePage writes every pending page snapshot now.
func (w *Write) SavePage(ctx context.Context, req *mcp.CallToolRequest, input types.SavePageInput) (*mcp.CallToolResult, any, error) {
	if err := w.sessions.Flush(ctx); err != nil {
		return errorResult(fmt.Sprintf("save failed: %v", err)), nil, nil
	}
	return textResult("All pending edits saved"), nil, nil
}
