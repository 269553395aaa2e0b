package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/session"
	"github.com/skridlevsky/pagetree/tree"
	"github.com/skridlevsky/pagetree/types"
)

const dayLayout = "2006-01-02"

// Daily implements MCP tools for daily pages: pages of type daily titled
// with their date.
type Daily struct {
	client   backend.Backend
	sessions *session.Manager
	now      func() time.Time
}

// NewDaily creates a new Daily tool handler.
func NewDaily(c backend.Backend, sessions *session.Manager) *Daily {
	return &Daily{client: c, sessions: sessions, now: time.Now}
}

// DailyPage opens the daily page of a day, creating it when it does not
// exist yet. New pages are titled YYYY-MM-DD.
func (d *Daily) DailyPage(ctx context.Context, req *mcp.CallToolRequest, input types.DailyPageInput) (*mcp.CallToolResult, any, error) {
	day := d.now()
	if input.Date != "" {
		var err error
		if day, err = time.Parse(dayLayout, input.Date); err != nil {
			return errorResult(fmt.Sprintf("invalid date '%s': use YYYY-MM-DD format", input.Date)), nil, nil
		}
	}

	byTitle, err := d.dailyPages(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to list pages: %v", err)), nil, nil
	}

	var s *session.Session
	created := false
	if page, ok := lookupDay(byTitle, day); ok {
		var errRes *mcp.CallToolResult
		if s, errRes = openSession(ctx, d.sessions, page.ID); errRes != nil {
			return errRes, nil, nil
		}
	} else {
		s, err = d.sessions.CreatePage(ctx, types.Page{Title: day.Format(dayLayout), Type: types.PageDaily})
		if err != nil {
			return errorResult(fmt.Sprintf("failed to create daily page: %v", err)), nil, nil
		}
		created = true
	}

	blocks := s.Blocks()
	res, err := jsonTextResult(map[string]any{
		"date":    day.Format(dayLayout),
		"created": created,
		"page": pageView{
			Page:   s.Page(),
			Blocks: blocks,
			Tree:   tree.Build(blocks),
			Order:  tree.Order(blocks),
		},
	})
	return res, nil, err
}

// DailyRange returns the daily pages of a date range, oldest first.
func (d *Daily) DailyRange(ctx context.Context, req *mcp.CallToolRequest, input types.DailyRangeInput) (*mcp.CallToolResult, any, error) {
	from, err := time.Parse(dayLayout, input.From)
	if err != nil {
		return errorResult(fmt.Sprintf("invalid from date '%s': use YYYY-MM-DD format", input.From)), nil, nil
	}
	to, err := time.Parse(dayLayout, input.To)
	if err != nil {
		return errorResult(fmt.Sprintf("invalid to date '%s': use YYYY-MM-DD format", input.To)), nil, nil
	}
	if to.Before(from) {
		return errorResult("'to' date must not be before 'from' date"), nil, nil
	}

	byTitle, err := d.dailyPages(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to list pages: %v", err)), nil, nil
	}

	entries := []map[string]any{}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		page, ok := lookupDay(byTitle, day)
		if !ok {
			continue
		}
		entry := map[string]any{
			"date":   day.Format(dayLayout),
			"pageId": page.ID,
			"title":  page.Title,
		}
		if input.IncludeBlocks {
			blocks, err := d.client.LoadBlocks(ctx, page.ID)
			if err != nil {
				return errorResult(fmt.Sprintf("failed to load %s: %v", page.ID, err)), nil, nil
			}
			nodes := tree.Build(blocks)
			entry["blocks"] = nodes
			entry["blockCount"] = tree.Count(nodes)
		}
		entries = append(entries, entry)
	}

	res, err := jsonTextResult(map[string]any{
		"from":         input.From,
		"to":           input.To,
		"entriesFound": len(entries),
		"pages":        entries,
	})
	return res, nil, err
}

// dailyPages indexes pages of type daily by title.
func (d *Daily) dailyPages(ctx context.Context) (map[string]types.Page, error) {
	pages, err := d.client.ListPages(ctx)
	if err != nil {
		return nil, err
	}
	byTitle := make(map[string]types.Page)
	for _, p := range pages {
		if p.Type == types.PageDaily {
			byTitle[p.Title] = p
		}
	}
	return byTitle, nil
}

func lookupDay(byTitle map[string]types.Page, day time.Time) (types.Page, bool) {
	for _, title := range dailyTitles(day) {
		if p, ok := byTitle[title]; ok {
			return p, true
		}
	}
	return types.Page{}, false
}

// dailyTitles returns the titles a daily page for d may carry, the
// canonical YYYY-MM-DD form first.
func dailyTitles(d time.Time) []string {
	ordinal := fmt.Sprintf("%d%s", d.Day(), ordinalSuffix(d.Day()))
	return []string{
		d.Format(dayLayout),
		fmt.Sprintf("%s %s, %d", d.Format("Jan"), ordinal, d.Year()),
		fmt.Sprintf("%s %s, %d", d.Format("January"), ordinal, d.Year()),
		d.Format("January 2, 2006"),
	}
}

func ordinalSuffix(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
