package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/skridlevsky/pagetree/graph"
	"github.com/skridlevsky/pagetree/types"
)

func TestGraphOverview(t *testing.T) {
	f := newFixture(t)
	res, _, err := NewAnalyze(f.vault).GraphOverview(context.Background(), nil, types.GraphOverviewInput{})
	if err != nil {
		t.Fatal(err)
	}
	stats := decode[graph.OverviewStats](t, res)
	if stats.TotalPages != 3 || stats.TotalLinks != 3 {
		t.Errorf("stats = %+v, want 3 pages and 3 links", stats)
	}
	if stats.MostConnected[0].ID != "home" {
		t.Errorf("MostConnected[0] = %+v, want home", stats.MostConnected[0])
	}
}

func TestFindConnections_Tool(t *testing.T) {
	f := newFixture(t)
	a := NewAnalyze(f.vault)
	ctx := context.Background()

	res, _, _ := a.FindConnections(ctx, nil, types.FindConnectionsInput{From: "projects", To: "reading"})
	r := decode[graph.ConnectionResult](t, res)
	if r.DirectlyLinked || len(r.Paths) != 1 || len(r.Paths[0]) != 3 {
		t.Errorf("result = %+v, want one path through home", r)
	}

	res, _, _ = a.FindConnections(ctx, nil, types.FindConnectionsInput{From: "reading", To: "home"})
	if res.IsError || !strings.Contains(text(t, res), "No connections") {
		t.Errorf("reading -> home = %q", text(t, res))
	}

	res, _, _ = a.FindConnections(ctx, nil, types.FindConnectionsInput{From: "home", To: "attic"})
	if !res.IsError {
		t.Errorf("archived target should be an error, got %q", text(t, res))
	}
}

func TestKnowledgeGapsAndClusters(t *testing.T) {
	f := newFixture(t)
	a := NewAnalyze(f.vault)
	ctx := context.Background()

	res, _, _ := a.KnowledgeGaps(ctx, nil, types.KnowledgeGapsInput{})
	gaps := decode[graph.GapInfo](t, res)
	if len(gaps.DeadEndPages) != 1 || gaps.DeadEndPages[0].ID != "reading" {
		t.Errorf("DeadEndPages = %+v, want reading", gaps.DeadEndPages)
	}
	if len(gaps.WeaklyLinked) != 1 || gaps.WeaklyLinked[0].ID != "projects" {
		t.Errorf("WeaklyLinked = %+v, want projects", gaps.WeaklyLinked)
	}

	res, _, _ = a.TopicClusters(ctx, nil, types.TopicClustersInput{})
	clusters := decode[struct {
		Count    int             `json:"clusterCount"`
		Clusters []graph.Cluster `json:"clusters"`
	}](t, res)
	if clusters.Count != 1 || clusters.Clusters[0].Hub.ID != "home" {
		t.Errorf("clusters = %+v, want one around home", clusters)
	}
}
