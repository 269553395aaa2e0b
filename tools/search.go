package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/parser"
	"github.com/skridlevsky/pagetree/tree"
	"github.com/skridlevsky/pagetree/types"
)

// Search implements search and query MCP tools over saved blocks.
type Search struct {
	client backend.Backend
}

// NewSearch creates a new Search tool handler.
func NewSearch(c backend.Backend) *Search {
	return &Search{client: c}
}

// blockSummary is a block reduced to its id and readable text.
type blockSummary struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// blockHit is a matching block with where it sits on its page.
type blockHit struct {
	PageID      string          `json:"pageId"`
	PageTitle   string          `json:"pageTitle"`
	BlockID     string          `json:"blockId"`
	Type        types.BlockType `json:"type"`
	Content     string          `json:"content"`
	Text        string          `json:"text"`
	Props       map[string]any  `json:"props,omitempty"`
	ParentChain []blockSummary  `json:"parentChain,omitempty"`
	Siblings    []blockSummary  `json:"siblings,omitempty"`
}

// Search finds blocks whose text contains the query, case-insensitively.
// Link tokens match on their title, not their page id.
func (s *Search) Search(ctx context.Context, req *mcp.CallToolRequest, input types.SearchInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.Query) == "" {
		return errorResult("query is required"), nil, nil
	}
	q := strings.ToLower(input.Query)

	hits, err := s.walk(ctx, input.Limit, func(b types.Block) bool {
		return strings.Contains(strings.ToLower(parser.StripLinks(b.Content)), q)
	})
	if err != nil {
		return errorResult(fmt.Sprintf("search failed: %v", err)), nil, nil
	}
	if len(hits) == 0 {
		return textResult(fmt.Sprintf("No results found for '%s'.", input.Query)), nil, nil
	}

	res, err := jsonTextResult(map[string]any{
		"query":   input.Query,
		"count":   len(hits),
		"results": hits,
	})
	return res, nil, err
}

// QueryBlocks finds blocks by type and prop value.
func (s *Search) QueryBlocks(ctx context.Context, req *mcp.CallToolRequest, input types.QueryBlocksInput) (*mcp.CallToolResult, any, error) {
	if input.Type == "" && input.Prop == "" {
		return errorResult("type or prop is required"), nil, nil
	}
	if input.Type != "" && !types.BlockType(input.Type).Valid() {
		return errorResult(fmt.Sprintf("unknown block type %q", input.Type)), nil, nil
	}

	hits, err := s.walk(ctx, input.Limit, func(b types.Block) bool {
		if input.Type != "" && string(b.Type) != input.Type {
			return false
		}
		if input.Prop == "" {
			return true
		}
		v, ok := b.Props[input.Prop]
		if !ok {
			return false
		}
		return input.Value == "" || strings.EqualFold(fmt.Sprint(v), input.Value)
	})
	if err != nil {
		return errorResult(fmt.Sprintf("query failed: %v", err)), nil, nil
	}

	res, err := jsonTextResult(map[string]any{
		"count":   len(hits),
		"results": hits,
	})
	return res, nil, err
}

// walk visits every saved block of every page that is not archived, in
// page order and reading order, and collects up to limit matches.
func (s *Search) walk(ctx context.Context, limit int, match func(types.Block) bool) ([]blockHit, error) {
	if limit <= 0 {
		limit = 20
	}

	pages, err := s.client.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	hits := []blockHit{}
	for _, page := range pages {
		blocks, err := s.client.LoadBlocks(ctx, page.ID)
		if err != nil {
			return nil, fmt.Errorf("load blocks of %s: %w", page.ID, err)
		}
		searchNodes(tree.Build(blocks), page, nil, match, limit, &hits)
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

func searchNodes(nodes []*tree.Node, page types.Page, chain []blockSummary, match func(types.Block) bool, limit int, hits *[]blockHit) {
	for i, n := range nodes {
		if len(*hits) >= limit {
			return
		}
		if match(n.Block) {
			var siblings []blockSummary
			for j := max(i-1, 0); j < min(i+2, len(nodes)); j++ {
				if j != i {
					siblings = append(siblings, summarize(nodes[j].Block))
				}
			}
			*hits = append(*hits, blockHit{
				PageID:      page.ID,
				PageTitle:   page.Title,
				BlockID:     n.ID,
				Type:        n.Type,
				Content:     n.Content,
				Text:        parser.StripLinks(n.Content),
				Props:       n.Props,
				ParentChain: chain,
				Siblings:    siblings,
			})
		}

		if len(n.Children) > 0 {
			next := append(append([]blockSummary{}, chain...), summarize(n.Block))
			searchNodes(n.Children, page, next, match, limit, hits)
		}
	}
}

func summarize(b types.Block) blockSummary {
	return blockSummary{ID: b.ID, Text: parser.StripLinks(b.Content)}
}
