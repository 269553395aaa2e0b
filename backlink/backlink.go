// Package backlink finds the blocks that link to a page.
package backlink

import (
	"context"
	"fmt"

	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/parser"
	"github.com/skridlevsky/pagetree/types"
)

// PreviewLength is the number of characters of raw content kept per backlink.
const PreviewLength = 200

// Extractor resolves backlinks through a content scan.
type Extractor struct {
	scanner backend.LinkScanner
}

// New creates an Extractor reading from scanner.
func New(scanner backend.LinkScanner) *Extractor {
	return &Extractor{scanner: scanner}
}

// Find returns every block whose content holds a complete link token to
// pageID. The scan is pre-filtered on the literal "[[page:<id>|" prefix and
// confirmed with a pattern anchored to the exact id, so ids that are
// prefixes of other ids do not match. Results are in scan order, which is
// not guaranteed.
func (x *Extractor) Find(ctx context.Context, pageID string) ([]types.Backlink, error) {
	if pageID == "" {
		return []types.Backlink{}, nil
	}
	matches, err := x.scanner.ScanContent(ctx, parser.LinkPrefix(pageID))
	if err != nil {
		return nil, fmt.Errorf("backlinks for %s: %w", pageID, err)
	}

	pattern := parser.LinkPattern(pageID)
	out := make([]types.Backlink, 0, len(matches))
	for _, m := range matches {
		if !pattern.MatchString(m.Content) {
			continue
		}
		out = append(out, types.Backlink{
			PageID:    m.PageID,
			PageTitle: m.PageTitle,
			BlockID:   m.BlockID,
			Preview:   parser.Preview(m.Content, PreviewLength),
		})
	}
	return out, nil
}

// Render returns the preview as readers see it, with link tokens replaced
// by their titles.
func Render(b types.Backlink) string {
	return parser.StripLinks(b.Preview)
}
