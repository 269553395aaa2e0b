package backlink

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/types"
	"github.com/skridlevsky/pagetree/vault"
)

func seeded(t *testing.T) (*vault.Client, string, string) {
	t.Helper()
	ctx := context.Background()
	v := vault.New()
	p1, err := v.CreatePage(ctx, types.Page{Title: "Target"})
	if err != nil {
		t.Fatal(err)
	}
	p2, err := v.CreatePage(ctx, types.Page{Title: "Source"})
	if err != nil {
		t.Fatal(err)
	}
	return v, p1.ID, p2.ID
}

func TestFind_RoundTrip(t *testing.T) {
	v, p1, p2 := seeded(t)
	ctx := context.Background()
	token := "[[page:" + p1 + "|Hello World]]"
	blocks := []types.Block{
		{ID: "b1", PageID: p2, Type: types.BlockParagraph, Content: "read " + token + " first", Index: 0},
		{ID: "b2", PageID: p2, Type: types.BlockParagraph, Content: "unrelated", Index: 1},
	}
	if err := v.ReplaceBlocks(ctx, p2, blocks); err != nil {
		t.Fatal(err)
	}

	got, err := New(v).Find(ctx, p1)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Find = %+v, want one backlink", got)
	}
	b := got[0]
	if b.PageID != p2 || b.PageTitle != "Source" || b.BlockID != "b1" {
		t.Errorf("backlink = %+v", b)
	}
	if !strings.Contains(b.Preview, token) {
		t.Errorf("preview %q should keep the raw token", b.Preview)
	}
	if r := Render(b); r != "read Hello World first" {
		t.Errorf("Render = %q", r)
	}
}

func TestFind_PrefixIDs(t *testing.T) {
	ctx := context.Background()
	v := vault.New(vault.WithIDGenerator(sequence("abc", "abcd", "src")))
	for _, title := range []string{"Short", "Long", "Source"} {
		if _, err := v.CreatePage(ctx, types.Page{Title: title}); err != nil {
			t.Fatal(err)
		}
	}
	blocks := []types.Block{
		{ID: "long", PageID: "src", Content: "[[page:abcd|Long]]", Index: 0},
		{ID: "short", PageID: "src", Content: "[[page:abc|Short]]", Index: 1},
	}
	if err := v.ReplaceBlocks(ctx, "src", blocks); err != nil {
		t.Fatal(err)
	}

	got, err := New(v).Find(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].BlockID != "short" {
		t.Errorf("Find(abc) = %+v, want only the exact-id block", got)
	}
}

func TestFind_IgnoresPartialTokens(t *testing.T) {
	v, p1, p2 := seeded(t)
	ctx := context.Background()
	blocks := []types.Block{
		{ID: "open", PageID: p2, Content: "[[page:" + p1 + "|never closed", Index: 0},
		{ID: "empty", PageID: p2, Content: "[[page:" + p1 + "|]]", Index: 1},
	}
	if err := v.ReplaceBlocks(ctx, p2, blocks); err != nil {
		t.Fatal(err)
	}
	got, err := New(v).Find(ctx, p1)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Find = %+v, want none", got)
	}
}

func TestFind_PreviewTruncated(t *testing.T) {
	v, p1, p2 := seeded(t)
	ctx := context.Background()
	content := "[[page:" + p1 + "|T]] " + strings.Repeat("é", 300)
	if err := v.ReplaceBlocks(ctx, p2, []types.Block{{ID: "b", PageID: p2, Content: content}}); err != nil {
		t.Fatal(err)
	}
	got, _ := New(v).Find(ctx, p1)
	if len(got) != 1 {
		t.Fatalf("Find = %+v", got)
	}
	if n := len([]rune(got[0].Preview)); n != PreviewLength {
		t.Errorf("preview length = %d runes, want %d", n, PreviewLength)
	}
}

func TestFind_EmptyID(t *testing.T) {
	got, err := New(failingScanner{}).Find(context.Background(), "")
	if err != nil || len(got) != 0 {
		t.Errorf("Find(\"\") = %v, %v", got, err)
	}
}

func TestFind_ScanError(t *testing.T) {
	_, err := New(failingScanner{}).Find(context.Background(), "p")
	if !errors.Is(err, errScan) {
		t.Errorf("err = %v, want wrapped scan error", err)
	}
}

var errScan = errors.New("scan failed")

type failingScanner struct{}

func (failingScanner) ScanContent(context.Context, string) ([]backend.ContentMatch, error) {
	return nil, errScan
}

func sequence(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}
