package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/skridlevsky/pagetree/engine"
	"github.com/skridlevsky/pagetree/session"
)

// textResult creates a successful text CallToolResult.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult creates an error CallToolResult (visible to the LLM for self-correction).
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// jsonTextResult marshals any value to indented JSON and wraps it as text content.
func jsonTextResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// openSession loads the session of pageID or explains why it could not.
func openSession(ctx context.Context, m *session.Manager, pageID string) (*session.Session, *mcp.CallToolResult) {
	if pageID == "" {
		return nil, errorResult("pageId is required")
	}
	s, err := m.Open(ctx, pageID)
	if err != nil {
		return nil, errorResult(fmt.Sprintf("cannot open page %s: %v", pageID, err))
	}
	return s, nil
}

// editSummary is what every block tool reports back.
type editSummary struct {
	Changed bool     `json:"changed"`
	Focus   string   `json:"focus,omitempty"`
	Blocks  int      `json:"blockCount"`
	Order   []string `json:"order"`
}

func editResult(s *session.Session, res engine.Result) (*mcp.CallToolResult, any, error) {
	out, err := jsonTextResult(editSummary{
		Changed: res.Changed,
		Focus:   res.Focus,
		Blocks:  len(res.Blocks),
		Order:   s.Order(),
	})
	return out, nil, err
}
