package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/session"
	"github.com/skridlevsky/pagetree/store"
	"github.com/skridlevsky/pagetree/tools"
)

// newServer creates and configures the MCP server with all tools registered.
// If readOnly is true, write tools are not registered.
func newServer(b backend.Backend, sessions *session.Manager, readOnly bool) *mcp.Server {
	srv := mcp.NewServer(
		&mcp.Implementation{
			Name:    "pagetree",
			Version: version,
		},
		nil,
	)

	nav := tools.NewNavigate(b, sessions)

	// --- Navigate tools ---
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_pages",
		Description: "List pages that are not archived, newest first. Optionally filter by a case-insensitive title substring.",
	}, nav.ListPages)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_page",
		Description: "Get a page with its blocks as a flat list, as a nested tree and as reading order. Includes edits that are not saved yet. An empty page shows one empty paragraph.",
	}, nav.GetPage)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_backlinks",
		Description: "Find saved blocks on any page whose content links to this page with a [[page:id|title]] token. Each result has the raw 200-character preview and a rendered text without link tokens.",
	}, nav.GetBacklinks)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "navigate",
		Description: "Get the block before and after a block in reading order (depth-first through the tree). Empty when there is none.",
	}, nav.Navigate)

	// --- Search tools ---
	search := tools.NewSearch(b)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search",
		Description: "Full-text search over saved blocks of all pages that are not archived. Case-insensitive. Link tokens match on their title. Each result has its parent chain and neighbouring blocks.",
	}, search.Search)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "query_blocks",
		Description: "Find saved blocks by type and/or prop value, e.g. type=todo prop=checked value=false for open todos.",
	}, search.QueryBlocks)

	daily := tools.NewDaily(b, sessions)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "daily_range",
		Description: "List daily pages between two dates (YYYY-MM-DD, inclusive), oldest first, optionally with their saved block trees.",
	}, daily.DailyRange)

	// --- Analyze tools ---
	analyze := tools.NewAnalyze(b)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "graph_overview",
		Description: "Workspace-wide link statistics over saved blocks: page, block and link counts, pages per type, orphan pages, links to missing or archived pages, and the most connected pages.",
	}, analyze.GraphOverview)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "find_connections",
		Description: "Find how two pages are connected: a direct link, link paths from one to the other (up to maxDepth hops, default 5) and pages linked with both.",
	}, analyze.FindConnections)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "knowledge_gaps",
		Description: "Find pages with no links, pages that are linked to but link nowhere, weakly linked pages and link targets that no longer exist. Daily pages are skipped.",
	}, analyze.KnowledgeGaps)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "topic_clusters",
		Description: "Group pages into clusters of pages connected through links in either direction, largest first, each with its most connected page as hub.",
	}, analyze.TopicClusters)

	// --- Write tools (skipped in read-only mode) ---
	if !readOnly {
		write := tools.NewWrite(b, sessions)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "create_page",
			Description: "Create a page. The page starts with one empty paragraph block, which is saved immediately.",
		}, write.CreatePage)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "daily_page",
			Description: "Open the daily page of a day (default today), creating it when it does not exist. New daily pages are titled YYYY-MM-DD.",
		}, daily.DailyPage)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "rename_page",
			Description: "Change a page title.",
		}, write.RenamePage)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "insert_block_after",
			Description: "Insert a block right after another block, at the same level. The new block is a todo if the reference block is a todo, otherwise a paragraph.",
		}, write.InsertBlockAfter)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "append_block",
			Description: "Append a top-level paragraph at the end of a page.",
		}, write.AppendBlock)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "update_block",
			Description: "Update a block's text, type or props. Props are merged into the existing ones. Omitted fields stay as they are.",
		}, write.UpdateBlock)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "toggle_todo",
			Description: "Flip the checked state of a todo block.",
		}, write.ToggleTodo)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "delete_block",
			Description: "Delete a block and every block nested under it. The last block of a page is cleared instead of removed.",
		}, write.DeleteBlock)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "indent_block",
			Description: "Nest a block under the block just above it at the same level. The first block of a level cannot be indented.",
		}, write.IndentBlock)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "outdent_block",
			Description: "Move a nested block up one level, next to its former parent.",
		}, write.OutdentBlock)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "move_block",
			Description: "Move a block to the position of another block with the same parent, shifting the blocks in between.",
		}, write.MoveBlock)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "slash_command",
			Description: "Convert a block with a slash command (text, h1, h2, h3, todo, bullet, numbered, quote, code, divider, table). The block text is cleared. The table command creates a record table and adds a paragraph after it.",
		}, write.SlashCommand)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "insert_page_link",
			Description: "Append a [[page:id|title]] link to another page at the end of a block.",
		}, write.InsertPageLink)

		mcp.AddTool(srv, &mcp.Tool{
			Name:        "save_page",
			Description: "Save every page with pending edits now instead of waiting for the save delay.",
		}, write.SavePage)
	}

	// --- Health tool ---
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "health",
		Description: "Check server status: version, backend type, read-only mode, page count. Use to verify the server is alive and see its configuration.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
		backendType := "memory"
		if _, ok := b.(*store.Store); ok {
			backendType = "sqlite"
		}

		pages, _ := b.ListPages(ctx)
		pingErr := b.Ping(ctx)

		status := "ok"
		if pingErr != nil {
			status = fmt.Sprintf("error: %v", pingErr)
		}

		data, _ := json.MarshalIndent(map[string]any{
			"status":    status,
			"version":   version,
			"backend":   backendType,
			"readOnly":  readOnly,
			"pageCount": len(pages),
		}, "", "  ")

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil, nil
	})

	return srv
}

// serveHTTP runs the JSON API on addr until ctx ends, then shuts down.
func serveHTTP(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
