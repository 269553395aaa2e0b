package graph

import (
	"sort"

	"github.com/skridlevsky/pagetree/types"
)

const (
	defaultMaxDepth = 5
	maxPaths        = 10
	topPages        = 10
	maxWeaklyLinked = 20
)

// OverviewStats contains workspace-wide link statistics.
type OverviewStats struct {
	TotalPages    int                    `json:"totalPages"`
	TotalBlocks   int                    `json:"totalBlocks"`
	TotalLinks    int                    `json:"totalLinks"`
	DailyPages    int                    `json:"dailyPages"`
	OrphanPages   int                    `json:"orphanPages"`
	DanglingLinks int                    `json:"danglingLinks"`
	MostConnected []PageStat             `json:"mostConnected"`
	MostLinkedTo  []PageStat             `json:"mostLinkedTo"`
	ByType        map[types.PageType]int `json:"byType"`
}

// PageStat is a page with its connectivity score.
type PageStat struct {
	PageRef
	OutLinks    int `json:"outLinks"`
	InLinks     int `json:"inLinks"`
	TotalDegree int `json:"totalDegree"`
	BlockCount  int `json:"blockCount"`
}

// ConnectionResult describes how two pages are connected.
type ConnectionResult struct {
	From              PageRef     `json:"from"`
	To                PageRef     `json:"to"`
	DirectlyLinked    bool        `json:"directlyLinked"`
	Paths             [][]PageRef `json:"paths"`
	SharedConnections []PageRef   `json:"sharedConnections"`
}

// GapInfo describes sparse areas of the workspace.
type GapInfo struct {
	OrphanPages  []PageRef  `json:"orphanPages"`
	DeadEndPages []PageRef  `json:"deadEndPages"`
	WeaklyLinked []PageStat `json:"weaklyLinked"`
	// DanglingTargets are linked page ids that are missing or archived.
	DanglingTargets []string `json:"danglingTargets,omitempty"`
}

// Cluster is a group of pages connected through links.
type Cluster struct {
	ID    int       `json:"id"`
	Size  int       `json:"size"`
	Pages []PageRef `json:"pages"`
	Hub   PageRef   `json:"hub"`
}

func (g *Graph) stat(id string) PageStat {
	out, in := g.OutDegree(id), g.InDegree(id)
	return PageStat{
		PageRef:     g.Ref(id),
		OutLinks:    out,
		InLinks:     in,
		TotalDegree: out + in,
		BlockCount:  g.BlockCounts[id],
	}
}

// Overview computes workspace-wide link statistics.
func (g *Graph) Overview() OverviewStats {
	stats := OverviewStats{
		TotalPages: len(g.Pages),
		ByType:     make(map[types.PageType]int),
	}

	var pageStats []PageStat
	for _, id := range g.pageIDs() {
		page := g.Pages[id]
		if page.Type == types.PageDaily {
			stats.DailyPages++
		}
		typ := page.Type
		if typ == "" {
			typ = types.PageNote
		}
		stats.ByType[typ]++

		st := g.stat(id)
		stats.TotalLinks += st.OutLinks
		stats.TotalBlocks += st.BlockCount
		if st.TotalDegree == 0 {
			stats.OrphanPages++
		}
		for target := range g.Forward[id] {
			if _, ok := g.Pages[target]; !ok {
				stats.DanglingLinks++
			}
		}
		pageStats = append(pageStats, st)
	}

	sort.SliceStable(pageStats, func(i, j int) bool {
		return pageStats[i].TotalDegree > pageStats[j].TotalDegree
	})
	stats.MostConnected = append([]PageStat(nil), pageStats[:min(topPages, len(pageStats))]...)

	sort.SliceStable(pageStats, func(i, j int) bool {
		return pageStats[i].InLinks > pageStats[j].InLinks
	})
	stats.MostLinkedTo = pageStats[:min(topPages, len(pageStats))]

	return stats
}

// FindConnections finds how two pages are connected: a direct link, link
// paths from one to the other up to maxDepth hops, and pages both are
// linked with in either direction.
func (g *Graph) FindConnections(from, to string, maxDepth int) ConnectionResult {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	result := ConnectionResult{
		From:           g.Ref(from),
		To:             g.Ref(to),
		DirectlyLinked: g.Forward[from][to],
		Paths:          g.bfsPaths(from, to, maxDepth),
	}

	fromNeighbors := g.allNeighbors(from)
	toNeighbors := g.allNeighbors(to)
	for _, n := range sortedKeys(fromNeighbors) {
		if toNeighbors[n] && n != from && n != to {
			result.SharedConnections = append(result.SharedConnections, g.Ref(n))
		}
	}

	return result
}

// KnowledgeGaps finds pages with few or no links. Daily pages are skipped.
func (g *Graph) KnowledgeGaps() GapInfo {
	var gaps GapInfo
	var weak []PageStat
	dangling := make(map[string]bool)

	for _, id := range g.pageIDs() {
		for target := range g.Forward[id] {
			if _, ok := g.Pages[target]; !ok {
				dangling[target] = true
			}
		}
		if g.isDaily(id) {
			continue
		}

		st := g.stat(id)
		switch {
		case st.TotalDegree == 0:
			gaps.OrphanPages = append(gaps.OrphanPages, st.PageRef)
		case st.OutLinks == 0:
			gaps.DeadEndPages = append(gaps.DeadEndPages, st.PageRef)
		case st.TotalDegree <= 2:
			weak = append(weak, st)
		}
	}

	sort.SliceStable(weak, func(i, j int) bool {
		return weak[i].TotalDegree < weak[j].TotalDegree
	})
	gaps.WeaklyLinked = weak[:min(maxWeaklyLinked, len(weak))]
	gaps.DanglingTargets = sortedKeys(dangling)

	return gaps
}

// TopicClusters finds connected components of the undirected link graph,
// largest first. Single pages and daily pages are left out.
func (g *Graph) TopicClusters() []Cluster {
	visited := make(map[string]bool)
	var clusters []Cluster

	for _, id := range g.pageIDs() {
		if visited[id] {
			continue
		}
		if g.isDaily(id) {
			visited[id] = true
			continue
		}

		component := g.bfsComponent(id, visited)
		if len(component) < 2 {
			continue
		}

		hub := component[0]
		for _, n := range component[1:] {
			if g.TotalDegree(n) > g.TotalDegree(hub) {
				hub = n
			}
		}

		refs := make([]PageRef, len(component))
		for i, c := range component {
			refs[i] = g.Ref(c)
		}
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].Title != refs[j].Title {
				return refs[i].Title < refs[j].Title
			}
			return refs[i].ID < refs[j].ID
		})

		clusters = append(clusters, Cluster{
			Size:  len(component),
			Pages: refs,
			Hub:   g.Ref(hub),
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Size > clusters[j].Size
	})
	for i := range clusters {
		clusters[i].ID = i
	}

	return clusters
}

// --- Internal helpers ---

func (g *Graph) bfsPaths(from, to string, maxDepth int) [][]PageRef {
	type node struct {
		id   string
		path []PageRef
	}

	queue := []node{{id: from, path: []PageRef{g.Ref(from)}}}
	visited := map[string]bool{from: true}
	var paths [][]PageRef

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if len(current.path) > maxDepth {
			break
		}

		for _, linked := range sortedKeys(g.Forward[current.id]) {
			if linked == to {
				path := append(append([]PageRef(nil), current.path...), g.Ref(linked))
				paths = append(paths, path)
				if len(paths) >= maxPaths {
					return paths
				}
				continue
			}

			if !visited[linked] && len(current.path) < maxDepth {
				visited[linked] = true
				next := append(append([]PageRef(nil), current.path...), g.Ref(linked))
				queue = append(queue, node{id: linked, path: next})
			}
		}
	}

	return paths
}

// bfsComponent collects the pages reachable from start over links in
// either direction. Daily pages and links to missing pages are not followed.
func (g *Graph) bfsComponent(start string, visited map[string]bool) []string {
	queue := []string{start}
	visited[start] = true
	var component []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		component = append(component, current)

		for _, n := range sortedKeys(g.allNeighbors(current)) {
			if visited[n] {
				continue
			}
			if _, exists := g.Pages[n]; !exists || g.isDaily(n) {
				continue
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}

	return component
}

func (g *Graph) allNeighbors(id string) map[string]bool {
	neighbors := make(map[string]bool)
	for linked := range g.Forward[id] {
		neighbors[linked] = true
	}
	for linker := range g.Backward[id] {
		neighbors[linker] = true
	}
	return neighbors
}
