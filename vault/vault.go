// Package vault is an in-memory backend. A vault holds pages, their blocks
// and record tables in maps, optionally seeded from a YAML workspace file.
// It backs tests, demos and the -memory mode of the server.
package vault

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/types"
	"gopkg.in/yaml.v3"
)

// Client implements backend.Backend in memory. It is safe for concurrent use.
type Client struct {
	mu       sync.RWMutex
	pages    map[string]*types.Page
	blocks   map[string][]types.Block // page id → blocks
	tables   map[string]*types.RecordTableDetails
	readOnly bool
	newID    func() string
	now      func() time.Time
}

var _ backend.Backend = (*Client)(nil)

// Option configures a vault Client.
type Option func(*Client)

// WithReadOnly rejects every write with backend.ErrReadOnly.
func WithReadOnly() Option {
	return func(c *Client) { c.readOnly = true }
}

// WithIDGenerator sets how page and record table ids are minted (default: UUIDv7).
func WithIDGenerator(gen func() string) Option {
	return func(c *Client) { c.newID = gen }
}

// WithClock sets the time source for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates an empty vault.
func New(opts ...Option) *Client {
	c := &Client{
		pages:  make(map[string]*types.Page),
		blocks: make(map[string][]types.Block),
		tables: make(map[string]*types.RecordTableDetails),
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// workspaceFile is the YAML layout read by Load.
type workspaceFile struct {
	Pages []struct {
		types.Page `yaml:",inline"`
		Blocks     []types.Block `yaml:"blocks"`
	} `yaml:"pages"`
}

// Load reads a YAML workspace file and adds its pages and blocks. Blocks
// without a pageId take the id of the page they are listed under. Pages
// keep the ids given in the file.
func (c *Client) Load(path string) error {
	_, err := c.load(path)
	return err
}

// load is Load returning the ids of the pages it wrote. A file that fails
// to parse or validate leaves the vault untouched.
func (c *Client) load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s: %w", path, err)
	}
	var ws workspaceFile
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("vault: parse %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	pages := make([]types.Page, 0, len(ws.Pages))
	blockSets := make([][]types.Block, 0, len(ws.Pages))
	for i, fp := range ws.Pages {
		if fp.ID == "" {
			return nil, fmt.Errorf("vault: %s: page %d has no id", path, i)
		}
		p := fp.Page
		if p.CreatedAt.IsZero() {
			p = backend.NewPage(p, p.ID, now)
			p.IsArchived = fp.IsArchived
		}
		pages = append(pages, p)

		blocks := make([]types.Block, 0, len(fp.Blocks))
		for _, b := range fp.Blocks {
			if b.PageID == "" {
				b.PageID = p.ID
			}
			if b.Props == nil {
				b.Props = map[string]any{}
			}
			if b.Type == "" {
				b.Type = types.BlockParagraph
			}
			if b.Version == 0 {
				b.Version = 1
			}
			blocks = append(blocks, b)
		}
		if err := backend.CheckBlocks(p.ID, blocks); err != nil {
			return nil, fmt.Errorf("vault: %s: %w", path, err)
		}
		blockSets = append(blockSets, blocks)
	}

	ids := make([]string, len(pages))
	for i := range pages {
		c.pages[pages[i].ID] = &pages[i]
		c.blocks[pages[i].ID] = blockSets[i]
		ids[i] = pages[i].ID
	}
	return ids, nil
}

// --- backend.Backend implementation ---

func (c *Client) Ping(_ context.Context) error {
	return nil
}

func (c *Client) ListPages(_ context.Context) ([]types.Page, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pages := make([]types.Page, 0, len(c.pages))
	for _, p := range c.pages {
		if !p.IsArchived {
			pages = append(pages, *p)
		}
	}
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].SortOrder != pages[j].SortOrder {
			return pages[i].SortOrder > pages[j].SortOrder
		}
		return pages[i].ID < pages[j].ID
	})
	return pages, nil
}

func (c *Client) GetPage(_ context.Context, id string) (*types.Page, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.pages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", backend.ErrPageNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (c *Client) CreatePage(_ context.Context, in types.Page) (*types.Page, error) {
	if c.readOnly {
		return nil, backend.ErrReadOnly
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := backend.NewPage(in, c.newID(), c.now())
	c.pages[p.ID] = &p
	cp := p
	return &cp, nil
}

func (c *Client) UpdatePage(_ context.Context, id string, u types.PageUpdate) (*types.Page, error) {
	if c.readOnly {
		return nil, backend.ErrReadOnly
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.pages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", backend.ErrPageNotFound, id)
	}
	p := backend.ApplyPageUpdate(*cur, u, c.now())
	c.pages[id] = &p
	cp := p
	return &cp, nil
}

// LoadBlocks returns a copy of the page's blocks ordered by index. An
// unknown page has no blocks.
func (c *Client) LoadBlocks(_ context.Context, pageID string) ([]types.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stored := c.blocks[pageID]
	out := make([]types.Block, len(stored))
	for i, b := range stored {
		out[i] = b.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// ReplaceBlocks swaps the page's block set for a copy of blocks.
func (c *Client) ReplaceBlocks(_ context.Context, pageID string, blocks []types.Block) error {
	if c.readOnly {
		return backend.ErrReadOnly
	}
	if err := backend.CheckBlocks(pageID, blocks); err != nil {
		return err
	}
	if err := checkUnique(blocks); err != nil {
		return err
	}

	stored := make([]types.Block, len(blocks))
	for i, b := range blocks {
		stored[i] = b.Clone()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pages[pageID]; !ok {
		return fmt.Errorf("%w: %s", backend.ErrPageNotFound, pageID)
	}
	c.blocks[pageID] = stored
	return nil
}

func (c *Client) CreateRecordTable(_ context.Context, pageID, title string) (*types.RecordTable, error) {
	if c.readOnly {
		return nil, backend.ErrReadOnly
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pages[pageID]; !ok {
		return nil, fmt.Errorf("%w: %s", backend.ErrPageNotFound, pageID)
	}
	d := backend.NewRecordTable(pageID, title, c.newID, c.now())
	c.tables[d.Table.ID] = &d
	t := d.Table
	return &t, nil
}

func (c *Client) GetRecordTable(_ context.Context, id string) (*types.RecordTableDetails, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", backend.ErrTableNotFound, id)
	}
	cp := *d
	cp.Columns = append([]types.RecordColumn(nil), d.Columns...)
	cp.Rows = append([]types.RecordRow(nil), d.Rows...)
	return &cp, nil
}

// checkUnique rejects duplicate block ids, which the SQLite store refuses
// through its primary key.
func checkUnique(blocks []types.Block) error {
	seen := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if seen[b.ID] {
			return fmt.Errorf("vault: duplicate block id %s", b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}
