package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/types"
)

// LoadBlocks returns the page's blocks ordered by index.
func (s *Store) LoadBlocks(ctx context.Context, pageID string) ([]types.Block, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_id, parent_block_id, type, content, props, idx, created_at, updated_at, version
		FROM blocks WHERE page_id = ? ORDER BY idx ASC`, pageID)
	if err != nil {
		return nil, fmt.Errorf("store: load blocks %s: %w", pageID, err)
	}
	defer rows.Close()

	blocks := []types.Block{}
	for rows.Next() {
		var (
			b                types.Block
			parent           sql.NullString
			props            string
			created, updated string
		)
		if err := rows.Scan(&b.ID, &b.PageID, &parent, &b.Type, &b.Content, &props,
			&b.Index, &created, &updated, &b.Version); err != nil {
			return nil, fmt.Errorf("store: scan block: %w", err)
		}
		b.ParentBlockID = parent.String
		if err := json.Unmarshal([]byte(props), &b.Props); err != nil || b.Props == nil {
			b.Props = map[string]any{}
		}
		b.CreatedAt = parseTime(created)
		b.UpdatedAt = parseTime(updated)
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// ReplaceBlocks deletes every block of the page and inserts blocks, in one
// transaction.
func (s *Store) ReplaceBlocks(ctx context.Context, pageID string, blocks []types.Block) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	if err := backend.CheckBlocks(pageID, blocks); err != nil {
		return err
	}

	err := s.runTx(ctx, func(tx *sql.Tx) error {
		if err := pageExists(ctx, tx, pageID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE page_id = ?`, pageID); err != nil {
			return fmt.Errorf("store: delete blocks: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO blocks (id, page_id, parent_block_id, type, content, props, idx, created_at, updated_at, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, b := range blocks {
			props, err := json.Marshal(b.Props)
			if err != nil {
				return fmt.Errorf("store: encode props of %s: %w", b.ID, err)
			}
			if b.Props == nil {
				props = []byte("{}")
			}
			if _, err := stmt.ExecContext(ctx, b.ID, b.PageID, nullable(b.ParentBlockID), b.Type,
				b.Content, string(props), b.Index, formatTime(b.CreatedAt), formatTime(b.UpdatedAt), b.Version); err != nil {
				return fmt.Errorf("store: insert block %s: %w", b.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("blocks replaced", "page", pageID, "count", len(blocks))
	return nil
}

// ScanContent returns every block whose content contains substr, with the
// title of its page.
func (s *Store) ScanContent(ctx context.Context, substr string) ([]backend.ContentMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.title, b.id, b.content
		FROM blocks b
		JOIN pages p ON p.id = b.page_id
		WHERE instr(b.content, ?) > 0`, substr)
	if err != nil {
		return nil, fmt.Errorf("store: scan content: %w", err)
	}
	defer rows.Close()

	var out []backend.ContentMatch
	for rows.Next() {
		var m backend.ContentMatch
		if err := rows.Scan(&m.PageID, &m.PageTitle, &m.BlockID, &m.Content); err != nil {
			return nil, fmt.Errorf("store: scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
