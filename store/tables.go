package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/skridlevsky/pagetree/backend"
	"github.com/skridlevsky/pagetree/types"
)

// CreateRecordTable creates a record table on pageID with its default
// columns and rows in one transaction.
func (s *Store) CreateRecordTable(ctx context.Context, pageID, title string) (*types.RecordTable, error) {
	if err := s.checkWritable(); err != nil {
		return nil, err
	}
	d := backend.NewRecordTable(pageID, title, s.newID, s.now())

	err := s.runTx(ctx, func(tx *sql.Tx) error {
		if err := pageExists(ctx, tx, pageID); err != nil {
			return err
		}
		t := d.Table
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO databases (id, page_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			t.ID, t.PageID, t.Title, formatTime(t.CreatedAt), formatTime(t.UpdatedAt)); err != nil {
			return fmt.Errorf("store: insert record table: %w", err)
		}
		for _, c := range d.Columns {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO database_columns (id, database_id, name, type, options, position) VALUES (?, ?, ?, ?, NULL, ?)`,
				c.ID, c.TableID, c.Name, c.Type, c.Position); err != nil {
				return fmt.Errorf("store: insert column %s: %w", c.Name, err)
			}
		}
		for _, r := range d.Rows {
			data, err := json.Marshal(r.Data)
			if err != nil {
				return fmt.Errorf("store: encode row: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO database_rows (id, database_id, data, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
				r.ID, r.TableID, string(data), r.Position, formatTime(r.CreatedAt), formatTime(r.UpdatedAt)); err != nil {
				return fmt.Errorf("store: insert row: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("record table created", "table", d.Table.ID, "page", pageID)
	return &d.Table, nil
}

// GetRecordTable returns a record table with its columns and rows ordered
// by position.
func (s *Store) GetRecordTable(ctx context.Context, id string) (*types.RecordTableDetails, error) {
	var (
		d                types.RecordTableDetails
		created, updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, page_id, title, created_at, updated_at FROM databases WHERE id = ?`, id).
		Scan(&d.Table.ID, &d.Table.PageID, &d.Table.Title, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", backend.ErrTableNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get record table %s: %w", id, err)
	}
	d.Table.CreatedAt = parseTime(created)
	d.Table.UpdatedAt = parseTime(updated)

	cols, err := s.db.QueryContext(ctx,
		`SELECT id, database_id, name, type, position FROM database_columns WHERE database_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("store: list columns: %w", err)
	}
	for cols.Next() {
		var c types.RecordColumn
		if err := cols.Scan(&c.ID, &c.TableID, &c.Name, &c.Type, &c.Position); err != nil {
			cols.Close()
			return nil, fmt.Errorf("store: scan column: %w", err)
		}
		d.Columns = append(d.Columns, c)
	}
	cols.Close()
	if err := cols.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, database_id, data, position, created_at, updated_at FROM database_rows WHERE database_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r    types.RecordRow
			data string
		)
		if err := rows.Scan(&r.ID, &r.TableID, &data, &r.Position, &created, &updated); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &r.Data); err != nil || r.Data == nil {
			r.Data = map[string]any{}
		}
		r.CreatedAt = parseTime(created)
		r.UpdatedAt = parseTime(updated)
		d.Rows = append(d.Rows, r)
	}
	return &d, rows.Err()
}
