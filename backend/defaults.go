package backend

import (
	"strings"
	"time"

	"github.com/skridlevsky/pagetree/types"
)

const (
	DefaultWorkspace  = "default"
	DefaultPageTitle  = "Untitled"
	DefaultTableTitle = "Untitled Database"

	defaultTableRows = 3
)

// defaultColumns are created with every new record table.
var defaultColumns = []string{"Name", "Tags"}

// NewPage fills the defaults of a page about to be created: workspace
// "default", type note, title "Untitled" and a sort order of the creation
// time in milliseconds, so newer pages list first.
func NewPage(p types.Page, id string, now time.Time) types.Page {
	p.ID = id
	if p.WorkspaceID == "" {
		p.WorkspaceID = DefaultWorkspace
	}
	if p.Type == "" {
		p.Type = types.PageNote
	}
	if strings.TrimSpace(p.Title) == "" {
		p.Title = DefaultPageTitle
	}
	if p.SortOrder == 0 {
		p.SortOrder = now.UnixMilli()
	}
	p.IsArchived = false
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Version = 1
	return p
}

// ApplyPageUpdate writes the non-nil fields of u onto p.
func ApplyPageUpdate(p types.Page, u types.PageUpdate, now time.Time) types.Page {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.ParentID != nil {
		p.ParentID = *u.ParentID
	}
	p.UpdatedAt = now
	p.Version++
	return p
}

// NewRecordTable builds a record table with two text columns, Name and
// Tags, and three empty rows.
func NewRecordTable(pageID, title string, newID func() string, now time.Time) types.RecordTableDetails {
	if strings.TrimSpace(title) == "" {
		title = DefaultTableTitle
	}
	d := types.RecordTableDetails{
		Table: types.RecordTable{
			ID:        newID(),
			PageID:    pageID,
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	for i, name := range defaultColumns {
		d.Columns = append(d.Columns, types.RecordColumn{
			ID:       newID(),
			TableID:  d.Table.ID,
			Name:     name,
			Type:     "text",
			Position: i,
		})
	}
	for i := 0; i < defaultTableRows; i++ {
		d.Rows = append(d.Rows, types.RecordRow{
			ID:        newID(),
			TableID:   d.Table.ID,
			Data:      map[string]any{},
			Position:  i,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return d
}
