package tools

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/skridlevsky/pagetree/types"
)

func TestOrdinalSuffix(t *testing.T) {
	tests := []struct {
		day  int
		want string
	}{
		{1, "st"},
		{2, "nd"},
		{3, "rd"},
		{4, "th"},
		{11, "th"},
		{12, "th"},
		{13, "th"},
		{21, "st"},
		{22, "nd"},
		{23, "rd"},
		{24, "th"},
		{31, "st"},
	}

	for _, tt := range tests {
		t.Run(time.Date(2026, time.January, tt.day, 0, 0, 0, 0, time.UTC).Format(dayLayout), func(t *testing.T) {
			if got := ordinalSuffix(tt.day); got != tt.want {
				t.Fatalf("ordinalSuffix(%d) = %q, want %q", tt.day, got, tt.want)
			}
		})
	}
}

func TestDailyTitles(t *testing.T) {
	d := time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC)
	want := []string{
		"2026-02-15",
		"Feb 15th, 2026",
		"February 15th, 2026",
		"February 15, 2026",
	}
	if got := dailyTitles(d); !reflect.DeepEqual(got, want) {
		t.Fatalf("dailyTitles(%s) = %#v, want %#v", d.Format(dayLayout), got, want)
	}
}

func TestDailyPage_CreatesThenReopens(t *testing.T) {
	f := newFixture(t)
	d := NewDaily(f.vault, f.sessions)
	d.now = func() time.Time { return time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	type result struct {
		Date    string   `json:"date"`
		Created bool     `json:"created"`
		Page    pageView `json:"page"`
	}

	res, _, _ := d.DailyPage(ctx, nil, types.DailyPageInput{})
	first := decode[result](t, res)
	if !first.Created || first.Date != "2026-03-02" {
		t.Fatalf("first call = %+v, want a created page for 2026-03-02", first)
	}
	if first.Page.Page.Title != "2026-03-02" || first.Page.Page.Type != types.PageDaily {
		t.Errorf("page = %+v", first.Page.Page)
	}
	if len(first.Page.Blocks) != 1 {
		t.Errorf("blocks = %+v, want the seed paragraph", first.Page.Blocks)
	}

	res, _, _ = d.DailyPage(ctx, nil, types.DailyPageInput{Date: "2026-03-02"})
	second := decode[result](t, res)
	if second.Created || second.Page.Page.ID != first.Page.Page.ID {
		t.Errorf("second call = %+v, want the same page reopened", second)
	}

	res, _, _ = d.DailyPage(ctx, nil, types.DailyPageInput{Date: "March 2"})
	if !res.IsError {
		t.Errorf("bad date accepted: %s", text(t, res))
	}
}

func TestDailyPage_FindsLongTitles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.vault.CreatePage(ctx, types.Page{Title: "Mar 3rd, 2026", Type: types.PageDaily})
	if err != nil {
		t.Fatal(err)
	}

	res, _, _ := NewDaily(f.vault, f.sessions).DailyPage(ctx, nil, types.DailyPageInput{Date: "2026-03-03"})
	got := decode[struct {
		Created bool     `json:"created"`
		Page    pageView `json:"page"`
	}](t, res)
	if got.Created || got.Page.Page.ID != p.ID {
		t.Errorf("got %+v, want existing page %s", got, p.ID)
	}
}

func TestDailyRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, title := range []string{"2026-03-01", "2026-03-03", "2026-04-01"} {
		if _, err := f.vault.CreatePage(ctx, types.Page{Title: title, Type: types.PageDaily}); err != nil {
			t.Fatal(err)
		}
	}
	// Same title, wrong type.
	if _, err := f.vault.CreatePage(ctx, types.Page{Title: "2026-03-02"}); err != nil {
		t.Fatal(err)
	}
	d := NewDaily(f.vault, f.sessions)

	res, _, _ := d.DailyRange(ctx, nil, types.DailyRangeInput{From: "2026-03-01", To: "2026-03-31", IncludeBlocks: true})
	got := decode[struct {
		Found int              `json:"entriesFound"`
		Pages []map[string]any `json:"pages"`
	}](t, res)
	if got.Found != 2 || got.Pages[0]["date"] != "2026-03-01" || got.Pages[1]["date"] != "2026-03-03" {
		t.Errorf("range = %+v, want March 1st and 3rd", got)
	}
	if _, ok := got.Pages[0]["blockCount"]; !ok {
		t.Errorf("entry %v has no blockCount", got.Pages[0])
	}

	tests := []struct {
		name     string
		from, to string
	}{
		{"bad from", "yesterday", "2026-03-01"},
		{"bad to", "2026-03-01", "03/02/2026"},
		{"reversed", "2026-03-02", "2026-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, _ := d.DailyRange(ctx, nil, types.DailyRangeInput{From: tt.from, To: tt.to})
			if !res.IsError {
				t.Errorf("DailyRange(%s, %s) = %s, want an error", tt.from, tt.to, text(t, res))
			}
		})
	}
}
