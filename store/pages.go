package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/types"
)

const pageColumns = `id, workspace_id, title, type, icon, parent_id, sort_order, is_archived, created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

// queryRower is a *sql.DB or *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanPage(r rowScanner) (*types.Page, error) {
	var (
		p                types.Page
		parentID         sql.NullString
		archived         int
		created, updated string
	)
	if err := r.Scan(&p.ID, &p.WorkspaceID, &p.Title, &p.Type, &p.Icon, &parentID,
		&p.SortOrder, &archived, &created, &updated, &p.Version); err != nil {
		return nil, err
	}
	p.ParentID = parentID.String
	p.IsArchived = archived != 0
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return &p, nil
}

// ListPages returns non-archived pages, highest sort order first.
func (s *Store) ListPages(ctx context.Context) ([]types.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE is_archived = 0 ORDER BY sort_order DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list pages: %w", err)
	}
	defer rows.Close()

	var pages []types.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan page: %w", err)
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// GetPage returns one page or backend.ErrPageNotFound.
func (s *Store) GetPage(ctx context.Context, id string) (*types.Page, error) {
	p, err := scanPage(s.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", backend.ErrPageNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get page %s: %w", id, err)
	}
	return p, nil
}

// CreatePage inserts a page, filling defaults for empty fields.
func (s *Store) CreatePage(ctx context.Context, in types.Page) (*types.Page, error) {
	if err := s.checkWritable(); err != nil {
		return nil, err
	}
	p := backend.NewPage(in, s.newID(), s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (`+pageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		p.ID, p.WorkspaceID, p.Title, p.Type, p.Icon, nullable(p.ParentID),
		p.SortOrder, formatTime(p.CreatedAt), formatTime(p.UpdatedAt), p.Version)
	if err != nil {
		return nil, fmt.Errorf("store: create page: %w", err)
	}
	s.logger.Info("page created", "page", p.ID, "title", p.Title)
	return &p, nil
}

// UpdatePage applies the non-nil fields of u.
func (s *Store) UpdatePage(ctx context.Context, id string, u types.PageUpdate) (*types.Page, error) {
	if err := s.checkWritable(); err != nil {
		return nil, err
	}
	var out *types.Page
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		cur, err := scanPage(tx.QueryRowContext(ctx,
			`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", backend.ErrPageNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("store: get page %s: %w", id, err)
		}
		p := backend.ApplyPageUpdate(*cur, u, s.now())
		if _, err := tx.ExecContext(ctx,
			`UPDATE pages SET title = ?, parent_id = ?, updated_at = ?, version = ? WHERE id = ?`,
			p.Title, nullable(p.ParentID), formatTime(p.UpdatedAt), p.Version, id); err != nil {
			return fmt.Errorf("store: update page %s: %w", id, err)
		}
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func pageExists(ctx context.Context, q queryRower, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM pages WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", backend.ErrPageNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("store: lookup page %s: %w", id, err)
	}
	return nil
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
