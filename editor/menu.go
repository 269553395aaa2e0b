// Package editor holds the transient menu state layered over content edits:
// the slash-command menu and the page-link autocomplete. Both are plain
// values owned by the caller; every transition returns a new Menu.
package editor

import (
	"strings"

	"github.com/skridlevsky/pagetree/parser"
	"github.com/skridlevsky/pagetree/types"
)

// MaxPageSuggestions caps the link autocomplete list.
const MaxPageSuggestions = 10

// Menu is either inactive (the zero value) or open on one block with a
// query and a highlighted row.
type Menu struct {
	active   bool
	BlockID  string
	Query    string
	Selected int
}

// Active reports whether the menu is open.
func (m Menu) Active() bool { return m.active }

// Close returns the inactive menu.
func Close() Menu { return Menu{} }

// open keeps the selection only while the query is unchanged on the same
// block; any new input resets it to the first row.
func open(m Menu, blockID, query string) Menu {
	next := Menu{active: true, BlockID: blockID, Query: query}
	if m.active && m.BlockID == blockID && m.Query == query {
		next.Selected = m.Selected
	}
	return next
}

// SlashInput is the slash-menu transition for new content in blockID: it
// opens or refines the menu while content starts with "/" and closes it
// otherwise.
func SlashInput(m Menu, blockID, content string) Menu {
	q, ok := parser.SlashQuery(content)
	if !ok {
		return Close()
	}
	return open(m, blockID, q)
}

// LinkInput is the link-menu transition: it is active while content ends
// with an unterminated "[[".
func LinkInput(m Menu, blockID, content string) Menu {
	q, ok := parser.LinkQuery(content)
	if !ok {
		return Close()
	}
	return open(m, blockID, q)
}

// MoveUp highlights the previous row, stopping at the first.
func MoveUp(m Menu) Menu {
	if m.active && m.Selected > 0 {
		m.Selected--
	}
	return m
}

// MoveDown highlights the next of count rows, stopping at the last.
func MoveDown(m Menu, count int) Menu {
	if m.active && m.Selected < count-1 {
		m.Selected++
	}
	return m
}

// Selected returns the highlighted item of a filtered list.
func Selected[T any](m Menu, items []T) (T, bool) {
	var zero T
	if !m.active || m.Selected < 0 || m.Selected >= len(items) {
		return zero, false
	}
	return items[m.Selected], true
}

// FilterPages returns up to MaxPageSuggestions pages whose title contains
// query, case-insensitively, in input order.
func FilterPages(pages []types.Page, query string) []types.Page {
	q := strings.ToLower(query)
	out := make([]types.Page, 0, MaxPageSuggestions)
	for _, p := range pages {
		if strings.Contains(strings.ToLower(p.Title), q) {
			out = append(out, p)
			if len(out) == MaxPageSuggestions {
				break
			}
		}
	}
	return out
}
