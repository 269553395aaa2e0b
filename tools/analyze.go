package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/skridlevsky/pagetree/graph"
	"github.com/skridlevsky/pagetree/types"
)

// Analyze implements link graph analysis MCP tools. The graph is rebuilt
// from saved blocks on every call.
type Analyze struct {
	client graph.Source
}

// NewAnalyze creates a new Analyze tool handler.
func NewAnalyze(c graph.Source) *Analyze {
	return &Analyze{client: c}
}

// GraphOverview returns workspace-wide link statistics.
func (a *Analyze) GraphOverview(ctx context.Context, req *mcp.CallToolRequest, input types.GraphOverviewInput) (*mcp.CallToolResult, any, error) {
	g, err := graph.Build(ctx, a.client)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to build graph: %v", err)), nil, nil
	}

	res, err := jsonTextResult(g.Overview())
	return res, nil, err
}

// FindConnections finds how two pages are connected through links.
func (a *Analyze) FindConnections(ctx context.Context, req *mcp.CallToolRequest, input types.FindConnectionsInput) (*mcp.CallToolResult, any, error) {
	g, err := graph.Build(ctx, a.client)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to build graph: %v", err)), nil, nil
	}
	for _, id := range []string{input.From, input.To} {
		if _, ok := g.Pages[id]; !ok {
			return errorResult(fmt.Sprintf("page not found: %s", id)), nil, nil
		}
	}

	result := g.FindConnections(input.From, input.To, input.MaxDepth)
	if !result.DirectlyLinked && len(result.Paths) == 0 && len(result.SharedConnections) == 0 {
		return textResult(fmt.Sprintf("No connections found between '%s' and '%s'.", result.From.Title, result.To.Title)), nil, nil
	}

	res, err := jsonTextResult(result)
	return res, nil, err
}

// KnowledgeGaps finds pages with few or no links.
func (a *Analyze) KnowledgeGaps(ctx context.Context, req *mcp.CallToolRequest, input types.KnowledgeGapsInput) (*mcp.CallToolResult, any, error) {
	g, err := graph.Build(ctx, a.client)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to build graph: %v", err)), nil, nil
	}

	res, err := jsonTextResult(g.KnowledgeGaps())
	return res, nil, err
}

// TopicClusters finds groups of pages connected through links.
func (a *Analyze) TopicClusters(ctx context.Context, req *mcp.CallToolRequest, input types.TopicClustersInput) (*mcp.CallToolResult, any, error) {
	g, err := graph.Build(ctx, a.client)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to build graph: %v", err)), nil, nil
	}

	clusters := g.TopicClusters()
	if len(clusters) == 0 {
		return textResult("No topic clusters found. No two pages are linked yet."), nil, nil
	}

	res, err := jsonTextResult(map[string]any{
		"clusterCount": len(clusters),
		"clusters":     clusters,
	})
	return res, nil, err
}
