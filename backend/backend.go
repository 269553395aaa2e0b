package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/skridlevsky/pagetree/types"
)

var (
	// ErrPageNotFound is returned when a page id does not resolve.
	ErrPageNotFound = errors.New("page not found")
	// ErrTableNotFound is returned when a record table id does not resolve.
	ErrTableNotFound = errors.New("record table not found")
	// ErrReadOnly is returned by write operations on a read-only backend.
	ErrReadOnly = errors.New("backend is read-only")
	// ErrForeignBlock is returned when a replaced block belongs to another page.
	ErrForeignBlock = errors.New("block belongs to another page")
)

// Backend is the storage contract the editor core runs against.
// The SQLite store (store.Store) and the in-memory store (vault.Client)
// both satisfy it.
type Backend interface {
	PageStore
	BlockStore
	LinkScanner
	TableCreator

	// Connectivity
	Ping(ctx context.Context) error
}

// PageStore holds page metadata.
type PageStore interface {
	// ListPages returns non-archived pages, most recent sort order first.
	ListPages(ctx context.Context) ([]types.Page, error)
	GetPage(ctx context.Context, id string) (*types.Page, error)
	// CreatePage fills in defaults for empty fields and returns the stored page.
	CreatePage(ctx context.Context, p types.Page) (*types.Page, error)
	UpdatePage(ctx context.Context, id string, u types.PageUpdate) (*types.Page, error)
}

// BlockStore is the persistence boundary for a page's blocks.
type BlockStore interface {
	// LoadBlocks returns every block of the page ordered by index. The
	// result is flat; hierarchy is rebuilt by the caller.
	LoadBlocks(ctx context.Context, pageID string) ([]types.Block, error)
	// ReplaceBlocks atomically replaces the page's whole block set.
	ReplaceBlocks(ctx context.Context, pageID string, blocks []types.Block) error
}

// LinkScanner finds blocks whose content contains a literal substring,
// across all pages.
type LinkScanner interface {
	ScanContent(ctx context.Context, substr string) ([]ContentMatch, error)
}

// TableCreator manages the record tables referenced by table blocks.
type TableCreator interface {
	CreateRecordTable(ctx context.Context, pageID, title string) (*types.RecordTable, error)
	GetRecordTable(ctx context.Context, id string) (*types.RecordTableDetails, error)
}

// ContentMatch is a block returned by a content scan, with its page title.
type ContentMatch struct {
	PageID    string `json:"pageId"`
	PageTitle string `json:"pageTitle"`
	BlockID   string `json:"blockId"`
	Content   string `json:"content"`
}

// CheckBlocks verifies every block belongs to pageID.
func CheckBlocks(pageID string, blocks []types.Block) error {
	for _, b := range blocks {
		if b.PageID != pageID {
			return fmt.Errorf("%w: block %s has page %q, want %q", ErrForeignBlock, b.ID, b.PageID, pageID)
		}
	}
	return nil
}
