package vault

import (
	"context"
	"strings"

	"github.com/skridlevsky/pagetree/backend"
)

// ScanContent returns every block, on any page, whose content contains
// substr. Implements backend.LinkScanner.
func (c *Client) ScanContent(_ context.Context, substr string) ([]backend.ContentMatch, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []backend.ContentMatch
	for pageID, blocks := range c.blocks {
		title := ""
		if p, ok := c.pages[pageID]; ok {
			title = p.Title
		}
		for _, b := range blocks {
			if strings.Contains(b.Content, substr) {
				out = append(out, backend.ContentMatch{
					PageID:    pageID,
					PageTitle: title,
					BlockID:   b.ID,
					Content:   b.Content,
				})
			}
		}
	}
	return out, nil
}
