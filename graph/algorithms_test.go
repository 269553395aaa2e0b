package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/skridlevsky/pagetree/types"
	"github.com/skridlevsky/pagetree/vault"
)

// --- Helpers ---

// newGraph builds a Graph from a simple adjacency list of page ids.
// Each page is titled with its upper-cased id. Pages listed in daily are
// daily notes; all others are notes.
func newGraph(edges map[string][]string, daily ...string) *Graph {
	dailySet := make(map[string]bool)
	for _, d := range daily {
		dailySet[d] = true
	}

	g := &Graph{
		Forward:     make(map[string]map[string]bool),
		Backward:    make(map[string]map[string]bool),
		Pages:       make(map[string]types.Page),
		BlockCounts: make(map[string]int),
	}

	for src, targets := range edges {
		g.addPage(src, dailySet[src])
		for _, tgt := range targets {
			g.addPage(tgt, dailySet[tgt])
		}
	}
	for src, targets := range edges {
		for _, tgt := range targets {
			g.addLink(src, tgt)
		}
	}
	return g
}

func (g *Graph) addPage(id string, daily bool) {
	if _, ok := g.Pages[id]; ok {
		return
	}
	typ := types.PageNote
	if daily {
		typ = types.PageDaily
	}
	g.Pages[id] = types.Page{ID: id, Title: strings.ToUpper(id), Type: typ}
	g.Forward[id] = make(map[string]bool)
	g.BlockCounts[id] = 1
}

func ids(refs []PageRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.ID
	}
	return out
}

// --- Build ---

func TestBuild_FromVault(t *testing.T) {
	v := vault.New()
	if err := v.Load("../vault/testdata/workspace.yaml"); err != nil {
		t.Fatal(err)
	}
	g, err := Build(context.Background(), v)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := g.Pages["attic"]; ok {
		t.Error("archived page attic is in the graph")
	}
	if len(g.Pages) != 3 {
		t.Errorf("pages = %d, want 3", len(g.Pages))
	}
	if !g.Forward["home"]["projects"] || !g.Forward["home"]["reading"] {
		t.Errorf("Forward[home] = %v, want projects and reading", g.Forward["home"])
	}
	if !g.Backward["home"]["projects"] {
		t.Errorf("Backward[home] = %v, want projects", g.Backward["home"])
	}
	if g.BlockCounts["projects"] != 3 {
		t.Errorf("BlockCounts[projects] = %d, want 3", g.BlockCounts["projects"])
	}
	if g.BlockCounts["reading"] != 0 {
		t.Errorf("BlockCounts[reading] = %d, want 0", g.BlockCounts["reading"])
	}
}

func TestAddLink_IgnoresSelfLinks(t *testing.T) {
	g := newGraph(map[string][]string{"a": {}})
	g.addLink("a", "a")
	if g.OutDegree("a") != 0 || g.InDegree("a") != 0 {
		t.Errorf("self link counted: out=%d in=%d", g.OutDegree("a"), g.InDegree("a"))
	}
}

// --- Degree ---

func TestDegree(t *testing.T) {
	g := newGraph(map[string][]string{
		"a": {"b", "c"},
		"b": {"c", "a"},
	})
	tests := []struct {
		id           string
		out, in, tot int
	}{
		{"a", 2, 1, 3},
		{"b", 2, 1, 3},
		{"c", 0, 2, 2},
		{"missing", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := g.OutDegree(tt.id); got != tt.out {
				t.Errorf("OutDegree = %d, want %d", got, tt.out)
			}
			if got := g.InDegree(tt.id); got != tt.in {
				t.Errorf("InDegree = %d, want %d", got, tt.in)
			}
			if got := g.TotalDegree(tt.id); got != tt.tot {
				t.Errorf("TotalDegree = %d, want %d", got, tt.tot)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	g := newGraph(map[string][]string{"a": {}})
	g.Pages["untitled"] = types.Page{ID: "untitled"}
	tests := map[string]string{"a": "A", "untitled": "untitled", "missing": "missing"}
	for id, want := range tests {
		if got := g.Title(id); got != want {
			t.Errorf("Title(%s) = %q, want %q", id, got, want)
		}
	}
}

// --- Overview ---

func TestOverview_Empty(t *testing.T) {
	stats := newGraph(map[string][]string{}).Overview()
	if stats.TotalPages != 0 || stats.TotalLinks != 0 {
		t.Errorf("stats = %+v, want zeroes", stats)
	}
	if len(stats.MostConnected) != 0 {
		t.Errorf("MostConnected = %v, want empty", stats.MostConnected)
	}
}

func TestOverview_Counts(t *testing.T) {
	g := newGraph(map[string][]string{
		"a":      {"b", "c"},
		"b":      {"c"},
		"orphan": {},
		"today":  {"a"},
	}, "today")
	g.addLink("b", "gone")
	delete(g.Pages, "gone")
	g.Pages["p"] = types.Page{ID: "p", Title: "P", Type: types.PageProject}

	stats := g.Overview()
	if stats.TotalPages != 6 {
		t.Errorf("TotalPages = %d, want 6", stats.TotalPages)
	}
	// a:2 + b:2 + today:1
	if stats.TotalLinks != 5 {
		t.Errorf("TotalLinks = %d, want 5", stats.TotalLinks)
	}
	if stats.DailyPages != 1 {
		t.Errorf("DailyPages = %d, want 1", stats.DailyPages)
	}
	// orphan and p
	if stats.OrphanPages != 2 {
		t.Errorf("OrphanPages = %d, want 2", stats.OrphanPages)
	}
	if stats.DanglingLinks != 1 {
		t.Errorf("DanglingLinks = %d, want 1", stats.DanglingLinks)
	}
	if stats.ByType[types.PageNote] != 4 || stats.ByType[types.PageProject] != 1 || stats.ByType[types.PageDaily] != 1 {
		t.Errorf("ByType = %v", stats.ByType)
	}
	if stats.TotalBlocks != 5 {
		t.Errorf("TotalBlocks = %d, want 5", stats.TotalBlocks)
	}
}

func TestOverview_Ranking(t *testing.T) {
	g := newGraph(map[string][]string{
		"hub": {"a", "b", "c"},
		"mid": {"a"},
	})
	stats := g.Overview()
	if stats.MostConnected[0].ID != "hub" {
		t.Errorf("MostConnected[0] = %q, want hub", stats.MostConnected[0].ID)
	}
	if stats.MostLinkedTo[0].ID != "a" || stats.MostLinkedTo[0].InLinks != 2 {
		t.Errorf("MostLinkedTo[0] = %+v, want a with 2 in-links", stats.MostLinkedTo[0])
	}
	if stats.MostConnected[0].Title != "HUB" {
		t.Errorf("MostConnected[0].Title = %q, want HUB", stats.MostConnected[0].Title)
	}
}

// --- FindConnections ---

func TestFindConnections(t *testing.T) {
	g := newGraph(map[string][]string{
		"a":      {"b", "shared"},
		"b":      {"c"},
		"c":      {"shared"},
		"lonely": {},
	})
	tests := []struct {
		name     string
		from, to string
		depth    int
		direct   bool
		paths    int
		firstLen int
	}{
		{"direct", "a", "b", 5, true, 1, 2},
		{"two hops", "a", "c", 5, false, 1, 3},
		{"default depth", "a", "b", 0, true, 1, 2},
		{"depth too small", "a", "c", 1, false, 0, 0},
		{"no path", "a", "lonely", 5, false, 0, 0},
		{"links are directed", "c", "a", 5, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := g.FindConnections(tt.from, tt.to, tt.depth)
			if r.DirectlyLinked != tt.direct {
				t.Errorf("DirectlyLinked = %v, want %v", r.DirectlyLinked, tt.direct)
			}
			if len(r.Paths) != tt.paths {
				t.Fatalf("Paths = %v, want %d", r.Paths, tt.paths)
			}
			if tt.paths > 0 && len(r.Paths[0]) != tt.firstLen {
				t.Errorf("first path = %v, want %d pages", ids(r.Paths[0]), tt.firstLen)
			}
		})
	}
}

func TestFindConnections_Shared(t *testing.T) {
	g := newGraph(map[string][]string{
		"a":     {"shared"},
		"b":     {"shared"},
		"other": {"a", "b"},
	})
	r := g.FindConnections("a", "b", 5)
	got := ids(r.SharedConnections)
	if len(got) != 2 || got[0] != "other" || got[1] != "shared" {
		t.Errorf("SharedConnections = %v, want [other shared]", got)
	}
	if r.From.Title != "A" || r.To.Title != "B" {
		t.Errorf("From/To = %+v/%+v", r.From, r.To)
	}
}

// --- KnowledgeGaps ---

func TestKnowledgeGaps(t *testing.T) {
	g := newGraph(map[string][]string{
		"hub":    {"a", "b", "c"},
		"a":      {"hub"},
		"orphan": {},
		"zombie": {},
		"today":  {},
	}, "today")
	g.addLink("a", "gone")

	gaps := g.KnowledgeGaps()
	if got := ids(gaps.OrphanPages); len(got) != 2 || got[0] != "orphan" || got[1] != "zombie" {
		t.Errorf("OrphanPages = %v, want [orphan zombie]", got)
	}
	if got := ids(gaps.DeadEndPages); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("DeadEndPages = %v, want [b c]", got)
	}
	// a: out 2 (hub, gone), in 1
	if len(gaps.WeaklyLinked) != 0 {
		t.Errorf("WeaklyLinked = %v, want none", gaps.WeaklyLinked)
	}
	if len(gaps.DanglingTargets) != 1 || gaps.DanglingTargets[0] != "gone" {
		t.Errorf("DanglingTargets = %v, want [gone]", gaps.DanglingTargets)
	}
}

func TestKnowledgeGaps_WeaklyLinked(t *testing.T) {
	g := newGraph(map[string][]string{
		"a": {"b"},
		"b": {"c"},
	})
	gaps := g.KnowledgeGaps()
	// a: out 1; b: out 1 in 1; c is a dead end
	if got := ids(gaps.OrphanPages); len(got) != 0 {
		t.Errorf("OrphanPages = %v", got)
	}
	if len(gaps.WeaklyLinked) != 2 || gaps.WeaklyLinked[0].ID != "a" {
		t.Errorf("WeaklyLinked = %+v, want a then b", gaps.WeaklyLinked)
	}
}

// --- TopicClusters ---

func TestTopicClusters(t *testing.T) {
	g := newGraph(map[string][]string{
		"hub":   {"x", "y"},
		"x":     {"z"},
		"p":     {"q"},
		"alone": {},
		"today": {"hub", "p"},
	}, "today")

	clusters := g.TopicClusters()
	if len(clusters) != 2 {
		t.Fatalf("clusters = %+v, want 2", clusters)
	}
	big, small := clusters[0], clusters[1]
	if big.Size != 4 || big.Hub.ID != "hub" {
		t.Errorf("big cluster = %+v, want 4 pages around hub", big)
	}
	if got := ids(big.Pages); got[0] != "hub" || got[3] != "z" {
		t.Errorf("big cluster pages = %v, want sorted by title", got)
	}
	if small.Size != 2 || small.ID != 1 {
		t.Errorf("small cluster = %+v", small)
	}
	for _, c := range clusters {
		for _, p := range c.Pages {
			if p.ID == "today" || p.ID == "alone" {
				t.Errorf("cluster %d contains %s", c.ID, p.ID)
			}
		}
	}
}

func TestTopicClusters_UndirectedTraversal(t *testing.T) {
	// b and c only link into a; they still share a cluster
	g := newGraph(map[string][]string{
		"b": {"a"},
		"c": {"a"},
	})
	clusters := g.TopicClusters()
	if len(clusters) != 1 || clusters[0].Size != 3 {
		t.Errorf("clusters = %+v, want one of 3", clusters)
	}
	if clusters[0].Hub.ID != "a" {
		t.Errorf("Hub = %s, want a", clusters[0].Hub.ID)
	}
}
