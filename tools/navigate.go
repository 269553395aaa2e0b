package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/backlink"
	"github.com/skridlevsky/pagetree/session"
	"github.com/skridlevsky/pagetree/tree"
	"github.com/skridlevsky/pagetree/types"
)

// Navigate implements read-only MCP tools.
type Navigate struct {
	client    backend.Backend
	sessions  *session.Manager
	backlinks *backlink.Extractor
}

// NewNavigate creates a new Navigate tool handler.
func NewNavigate(c backend.Backend, sessions *session.Manager) *Navigate {
	return &Navigate{client: c, sessions: sessions, backlinks: backlink.New(c)}
}

// pageView is a page with its working blocks in both shapes.
type pageView struct {
	Page   types.Page    `json:"page"`
	Blocks []types.Block `json:"blocks"`
	Tree   []*tree.Node  `json:"tree"`
	Order  []string      `json:"order"`
}

// ListPages lists non-archived pages, newest sort order first.
func (n *Navigate) ListPages(ctx context.Context, req *mcp.CallToolRequest, input types.ListPagesInput) (*mcp.CallToolResult, any, error) {
	pages, err := n.client.ListPages(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to list pages: %v", err)), nil, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}
	q := strings.ToLower(input.Query)
	out := make([]types.Page, 0, min(limit, len(pages)))
	for _, p := range pages {
		if len(out) >= limit {
			break
		}
		if q == "" || strings.Contains(strings.ToLower(p.Title), q) {
			out = append(out, p)
		}
	}

	res, err := jsonTextResult(map[string]any{
		"count": len(out),
		"pages": out,
	})
	return res, nil, err
}

// GetPage returns the page's working block set as a flat list, a tree and
// navigation order. Unsaved edits are included.
func (n *Navigate) GetPage(ctx context.Context, req *mcp.CallToolRequest, input types.GetPageInput) (*mcp.CallToolResult, any, error) {
	s, errRes := openSession(ctx, n.sessions, input.PageID)
	if errRes != nil {
		return errRes, nil, nil
	}

	blocks := s.Blocks()
	res, err := jsonTextResult(pageView{
		Page:   s.Page(),
		Blocks: blocks,
		Tree:   tree.Build(blocks),
		Order:  tree.Order(blocks),
	})
	return res, nil, err
}

// GetBacklinks lists saved blocks on any page that link to the given page.
func (n *Navigate) GetBacklinks(ctx context.Context, req *mcp.CallToolRequest, input types.GetBacklinksInput) (*mcp.CallToolResult, any, error) {
	if input.PageID == "" {
		return errorResult("pageId is required"), nil, nil
	}
	links, err := n.backlinks.Find(ctx, input.PageID)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to find backlinks: %v", err)), nil, nil
	}

	type entry struct {
		types.Backlink
		Text string `json:"text"`
	}
	out := make([]entry, len(links))
	for i, l := range links {
		out[i] = entry{Backlink: l, Text: backlink.Render(l)}
	}

	res, err := jsonTextResult(map[string]any{
		"pageId":    input.PageID,
		"count":     len(out),
		"backlinks": out,
	})
	return res, nil, err
}

// Navigate returns the blocks before and after a block in reading order.
func (n *Navigate) Navigate(ctx context.Context, req *mcp.CallToolRequest, input types.NavigateInput) (*mcp.CallToolResult, any, error) {
	s, errRes := openSession(ctx, n.sessions, input.PageID)
	if errRes != nil {
		return errRes, nil, nil
	}
	if _, ok := s.Block(input.BlockID); !ok {
		return errorResult(fmt.Sprintf("block %s not found on page %s", input.BlockID, input.PageID)), nil, nil
	}

	res, err := jsonTextResult(map[string]string{
		"blockId": input.BlockID,
		"prev":    s.Prev(input.BlockID),
		"next":    s.Next(input.BlockID),
	})
	return res, nil, err
}
