package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/parser"
	"github.com/skridlevsky/pagetree/types"
)

// Source is what Build reads: the page list and each page's stored blocks.
type Source interface {
	backend.PageStore
	backend.BlockStore
}

// Graph is the page link structure of a workspace. There is an edge from a
// page to every page one of its blocks links to with a [[page:id|title]] token.
type Graph struct {
	// Forward links: page id → set of linked page ids
	Forward map[string]map[string]bool
	// Backward links: page id → set of ids of pages that link to it
	Backward map[string]map[string]bool
	// Pages: id → page, for pages that are not archived
	Pages map[string]types.Page
	// BlockCounts: page id → stored block count
	BlockCounts map[string]int
}

// PageRef names a page in analysis results.
type PageRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Build loads every page that is not archived and scans its saved blocks
// for page links. Links from a page to itself are ignored.
func Build(ctx context.Context, src Source) (*Graph, error) {
	pages, err := src.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	g := &Graph{
		Forward:     make(map[string]map[string]bool),
		Backward:    make(map[string]map[string]bool),
		Pages:       make(map[string]types.Page),
		BlockCounts: make(map[string]int),
	}

	for _, page := range pages {
		g.Pages[page.ID] = page
		// Ensure entries exist even for pages with no links
		if g.Forward[page.ID] == nil {
			g.Forward[page.ID] = make(map[string]bool)
		}

		blocks, err := src.LoadBlocks(ctx, page.ID)
		if err != nil {
			return nil, fmt.Errorf("load blocks of %s: %w", page.ID, err)
		}
		g.BlockCounts[page.ID] = len(blocks)
		for _, b := range blocks {
			for _, target := range parser.LinkedPageIDs(b.Content) {
				g.addLink(page.ID, target)
			}
		}
	}

	return g, nil
}

func (g *Graph) addLink(from, to string) {
	if from == to {
		return
	}
	if g.Forward[from] == nil {
		g.Forward[from] = make(map[string]bool)
	}
	g.Forward[from][to] = true
	if g.Backward[to] == nil {
		g.Backward[to] = make(map[string]bool)
	}
	g.Backward[to][from] = true
}

// OutDegree returns the number of pages a page links to.
func (g *Graph) OutDegree(id string) int {
	return len(g.Forward[id])
}

// InDegree returns the number of pages linking to a page.
func (g *Graph) InDegree(id string) int {
	return len(g.Backward[id])
}

// TotalDegree returns outgoing + incoming link count for a page.
func (g *Graph) TotalDegree(id string) int {
	return g.OutDegree(id) + g.InDegree(id)
}

// Title returns the display title for a page id, or the id itself when the
// page is unknown or untitled.
func (g *Graph) Title(id string) string {
	if p, ok := g.Pages[id]; ok && p.Title != "" {
		return p.Title
	}
	return id
}

// Ref returns the PageRef for id.
func (g *Graph) Ref(id string) PageRef {
	return PageRef{ID: id, Title: g.Title(id)}
}

// isDaily reports whether a page is a daily note. Daily pages are left out
// of gap and cluster analysis.
func (g *Graph) isDaily(id string) bool {
	return g.Pages[id].Type == types.PageDaily
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (g *Graph) pageIDs() []string {
	ids := make([]string, 0, len(g.Pages))
	for id := range g.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
