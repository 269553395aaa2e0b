package session

import (
	"context"
	"fmt"

	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/editor"
	"github.com/skridlevsky/pagetree/engine"
	"github.com/skridlevsky/pagetree/types"
)

// InsertAfter adds an empty block after id.
func (s *Session) InsertAfter(id string) (engine.Result, error) {
	return s.do(func(b []types.Block) engine.Result { return s.eng().InsertAfter(b, id) }, id)
}

// Append adds an empty root paragraph at the end of the page.
func (s *Session) Append() (engine.Result, error) {
	return s.do(func(b []types.Block) engine.Result { return s.eng().AppendEmptyBlock(b, s.page.ID) })
}

// Delete removes id and its descendants.
func (s *Session) Delete(id string) (engine.Result, error) {
	return s.do(func(b []types.Block) engine.Result { return s.eng().DeleteWithCascade(b, id) }, id)
}

// Indent nests id under its preceding sibling.
func (s *Session) Indent(id string) (engine.Result, error) {
	return s.do(func(b []types.Block) engine.Result { return s.eng().Indent(b, id) }, id)
}

// Outdent moves id up one level.
func (s *Session) Outdent(id string) (engine.Result, error) {
	return s.do(func(b []types.Block) engine.Result { return s.eng().Outdent(b, id) }, id)
}

// Move reorders activeID to overID's position within their sibling group.
func (s *Session) Move(activeID, overID string) (engine.Result, error) {
	return s.do(func(b []types.Block) engine.Result { return s.eng().Move(b, activeID, overID) }, activeID, overID)
}

// UpdateContent sets the text of id without touching the menus.
func (s *Session) UpdateContent(id, text string) (engine.Result, error) {
	return s.do(func(b []types.Block) engine.Result { return s.eng().UpdateContent(b, id, text) }, id)
}

// UpdateType changes the type of id.
func (s *Session) UpdateType(id string, typ types.BlockType) (engine.Result, error) {
	if !typ.Valid() {
		return engine.Result{}, fmt.Errorf("unknown block type %q", typ)
	}
	return s.do(func(b []types.Block) engine.Result { return s.eng().UpdateType(b, id, typ) }, id)
}

// UpdateProps merges props into id.
func (s *Session) UpdateProps(id string, props map[string]any) (engine.Result, error) {
	return s.do(func(b []types.Block) engine.Result { return s.eng().UpdateProps(b, id, props) }, id)
}

// ToggleTodo flips the checked state of id.
func (s *Session) ToggleTodo(id string) (engine.Result, error) {
	return s.do(func(b []types.Block) engine.Result { return s.eng().ToggleTodoChecked(b, id) }, id)
}

// Input is a keystroke-level content change: it updates the text of id and
// runs both menu state machines on the new content.
func (s *Session) Input(id, text string) (engine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.mutate(func(b []types.Block) engine.Result { return s.eng().UpdateContent(b, id, text) }, id)
	if err != nil {
		return res, err
	}
	s.slash = editor.SlashInput(s.slash, id, text)
	s.link = editor.LinkInput(s.link, id, text)
	return res, nil
}

// MoveMenu moves the highlight of whichever menu is open by delta rows.
func (s *Session) MoveMenu(ctx context.Context, delta int) error {
	s.mu.Lock()
	slash, link := s.slash, s.link
	s.mu.Unlock()

	switch {
	case slash.Active():
		n := len(editor.FilterCommands(slash.Query))
		s.mu.Lock()
		s.slash = step(s.slash, delta, n)
		s.mu.Unlock()
	case link.Active():
		pages, err := s.LinkSuggestions(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.link = step(s.link, delta, len(pages))
		s.mu.Unlock()
	}
	return nil
}

func step(m editor.Menu, delta, count int) editor.Menu {
	for ; delta > 0; delta-- {
		m = editor.MoveDown(m, count)
	}
	for ; delta < 0; delta++ {
		m = editor.MoveUp(m)
	}
	return m
}

// CloseMenus cancels both menus without editing anything.
func (s *Session) CloseMenus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slash = editor.Close()
	s.link = editor.Close()
}

// SlashSuggestions returns the commands matching the open slash menu.
func (s *Session) SlashSuggestions() []editor.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.slash.Active() {
		return nil
	}
	return editor.FilterCommands(s.slash.Query)
}

// LinkSuggestions returns the pages matching the open link menu.
func (s *Session) LinkSuggestions(ctx context.Context) ([]types.Page, error) {
	s.mu.Lock()
	link := s.link
	s.mu.Unlock()
	if !link.Active() {
		return nil, nil
	}
	pages, err := s.m.backend.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return editor.FilterPages(pages, link.Query), nil
}

// ConfirmSlash applies the highlighted slash command to the block the
// menu is open on.
func (s *Session) ConfirmSlash(ctx context.Context) (engine.Result, error) {
	s.mu.Lock()
	menu := s.slash
	s.mu.Unlock()

	cmd, ok := editor.Selected(menu, editor.FilterCommands(menu.Query))
	if !ok {
		return engine.Result{}, ErrNoSelection
	}
	return s.ApplyCommand(ctx, menu.BlockID, cmd.ID)
}

// ApplyCommand replaces id with the block type of slash command cmdID and
// closes the slash menu. The table command first creates a record table;
// if that fails nothing changes and the error is returned.
func (s *Session) ApplyCommand(ctx context.Context, id, cmdID string) (engine.Result, error) {
	cmd, ok := editor.LookupCommand(cmdID)
	if !ok {
		return engine.Result{}, fmt.Errorf("%w: %s", ErrUnknownCommand, cmdID)
	}

	if !cmd.IsTable() {
		s.mu.Lock()
		defer s.mu.Unlock()
		res, err := s.mutate(func(b []types.Block) engine.Result { return s.eng().ApplyCommand(b, id, cmd.Type) }, id)
		if err == nil {
			s.slash = editor.Close()
		}
		return res, err
	}

	s.mu.Lock()
	exists := s.has(id)
	pageID := s.page.ID
	s.mu.Unlock()
	if !exists {
		return engine.Result{}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}

	table, err := s.m.backend.CreateRecordTable(ctx, pageID, backend.DefaultTableTitle)
	if err != nil {
		s.m.logger.Error("record table creation failed", "page", pageID, "block", id, "error", err)
		return engine.Result{}, fmt.Errorf("create record table: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.mutate(func(b []types.Block) engine.Result { return s.eng().ApplyTable(b, id, table.ID) }, id)
	if err != nil {
		// The block went away while the table was being created.
		s.m.logger.Warn("record table left unreferenced", "page", pageID, "block", id, "table", table.ID, "error", err)
		return res, err
	}
	s.slash = editor.Close()
	return res, nil
}

// ConfirmLink completes the link being typed with the highlighted page.
func (s *Session) ConfirmLink(ctx context.Context) (engine.Result, error) {
	pages, err := s.LinkSuggestions(ctx)
	if err != nil {
		return engine.Result{}, err
	}
	s.mu.Lock()
	menu := s.link
	s.mu.Unlock()

	page, ok := editor.Selected(menu, pages)
	if !ok {
		return engine.Result{}, ErrNoSelection
	}
	return s.InsertLink(menu.BlockID, page)
}

// InsertLink completes the unfinished "[[" in id with a link to page and
// closes the link menu.
func (s *Session) InsertLink(id string, page types.Page) (engine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.mutate(func(b []types.Block) engine.Result {
		return s.eng().ApplyLink(b, id, page.ID, page.Title)
	}, id)
	if err == nil {
		s.link = editor.Close()
	}
	return res, err
}
