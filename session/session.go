// Package session keeps the working block set of open pages. A Session is
// the single mutator of its page's in-memory blocks: every edit runs the
// engine under the session lock, replaces the working set and schedules a
// debounced save. The working set stays authoritative even when a save
// fails.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/editor"
	"github.com/skridlevsky/pagetree/engine"
	"github.com/skridlevsky/pagetree/reconcile"
	"github.com/skridlevsky/pagetree/tree"
	"github.com/skridlevsky/pagetree/types"
)

var (
	// ErrBlockNotFound is returned when an edit names a block the page does not have.
	ErrBlockNotFound = errors.New("block not found")
	// ErrNoSelection is returned when a menu is confirmed with nothing highlighted.
	ErrNoSelection = errors.New("no menu item selected")
	// ErrUnknownCommand is returned for slash command ids outside the catalog.
	ErrUnknownCommand = errors.New("unknown command")
)

// Manager owns one Session per open page.
type Manager struct {
	backend   backend.Backend
	debouncer *reconcile.Debouncer
	engine    *engine.Engine
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithEngine replaces the default engine.
func WithEngine(e *engine.Engine) Option {
	return func(m *Manager) { m.engine = e }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager that saves through debouncer.
func NewManager(b backend.Backend, debouncer *reconcile.Debouncer, opts ...Option) *Manager {
	m := &Manager{
		backend:   b,
		debouncer: debouncer,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.engine == nil {
		m.engine = engine.New()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Open returns the session of pageID, loading it on first use. A page
// without blocks gets one empty paragraph, which is saved with the first
// edit.
func (m *Manager) Open(ctx context.Context, pageID string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[pageID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	page, err := m.backend.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	blocks, err := m.backend.LoadBlocks(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", pageID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[pageID]; ok {
		return s, nil
	}
	s := &Session{
		m:      m,
		page:   *page,
		blocks: m.engine.EnsureSeed(pageID, blocks),
	}
	m.sessions[pageID] = s
	m.logger.Debug("session opened", "page", pageID, "blocks", len(s.blocks), "seeded", len(blocks) == 0)
	return s, nil
}

// CreatePage creates a page and saves its seed paragraph right away, so a
// new page is never stored without blocks.
func (m *Manager) CreatePage(ctx context.Context, p types.Page) (*Session, error) {
	page, err := m.backend.CreatePage(ctx, p)
	if err != nil {
		return nil, err
	}
	seed := []types.Block{m.engine.Seed(page.ID)}
	if err := m.backend.ReplaceBlocks(ctx, page.ID, seed); err != nil {
		return nil, fmt.Errorf("seed page %s: %w", page.ID, err)
	}

	s := &Session{m: m, page: *page, blocks: seed}
	m.mu.Lock()
	m.sessions[page.ID] = s
	m.mu.Unlock()
	m.logger.Info("page created", "page", page.ID, "title", page.Title)
	return s, nil
}

// Drop forgets the session of pageID and discards its unsaved snapshot, so
// the next Open reloads from the backend.
func (m *Manager) Drop(pageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, pageID)
	if m.debouncer.Cancel(pageID) {
		m.logger.Info("unsaved edits discarded", "page", pageID)
	}
}

// UpdatePage changes page metadata in the backend and in the open session
// of that page, if any.
func (m *Manager) UpdatePage(ctx context.Context, pageID string, u types.PageUpdate) (*types.Page, error) {
	page, err := m.backend.UpdatePage(ctx, pageID, u)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	s, ok := m.sessions[pageID]
	m.mu.Unlock()
	if ok {
		s.mu.Lock()
		s.page = *page
		s.mu.Unlock()
	}
	return page, nil
}

// Flush saves every pending snapshot now.
func (m *Manager) Flush(ctx context.Context) error {
	return m.debouncer.Flush(ctx)
}

// Close flushes pending saves and stops the debouncer.
func (m *Manager) Close(ctx context.Context) error {
	return m.debouncer.Close(ctx)
}

// Session is the editing state of one page.
type Session struct {
	m *Manager

	mu     sync.Mutex
	page   types.Page
	blocks []types.Block
	focus  string
	slash  editor.Menu
	link   editor.Menu
}

// Page returns the page metadata as of Open.
func (s *Session) Page() types.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Blocks returns a copy of the working set.
func (s *Session) Blocks() []types.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Block, len(s.blocks))
	for i, b := range s.blocks {
		out[i] = b.Clone()
	}
	return out
}

// Block returns a copy of block id.
func (s *Session) Block(id string) (types.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.blocks {
		if b.ID == id {
			return b.Clone(), true
		}
	}
	return types.Block{}, false
}

// Tree builds the forest of the working set.
func (s *Session) Tree() []*tree.Node {
	return tree.Build(s.Blocks())
}

// Order returns block ids in navigation order.
func (s *Session) Order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tree.Order(s.blocks)
}

// Prev returns the block before id in navigation order, or "".
func (s *Session) Prev(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tree.Prev(s.blocks, id)
}

// Next returns the block after id in navigation order, or "".
func (s *Session) Next(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tree.Next(s.blocks, id)
}

// Focus returns the block that last received focus from an edit.
func (s *Session) Focus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

// Menus returns the slash and link menu states.
func (s *Session) Menus() (slash, link editor.Menu) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slash, s.link
}

// mutate runs op on the working set. Every id in need must exist first.
// The caller must hold s.mu.
func (s *Session) mutate(op func([]types.Block) engine.Result, need ...string) (engine.Result, error) {
	for _, id := range need {
		if !s.has(id) {
			return engine.Result{Blocks: s.blocks}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
		}
	}
	res := op(s.blocks)
	if !res.Changed {
		return res, nil
	}
	s.blocks = res.Blocks
	if res.Focus != "" {
		s.focus = res.Focus
	}
	if err := s.m.debouncer.Schedule(s.page.ID, s.blocks); err != nil {
		s.m.logger.Warn("save not scheduled", "page", s.page.ID, "error", err)
	}
	return res, nil
}

// do is mutate under the session lock.
func (s *Session) do(op func([]types.Block) engine.Result, need ...string) (engine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate(op, need...)
}

func (s *Session) has(id string) bool {
	for _, b := range s.blocks {
		if b.ID == id {
			return true
		}
	}
	return false
}

func (s *Session) eng() *engine.Engine { return s.m.engine }
