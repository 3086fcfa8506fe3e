package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Setting is one category/name/value row of the settings table.
type Setting struct {
	Category string
	Name     string
	Value    string
}

// InsertSettings appends rows to the settings table in one transaction.
func (s *Store) InsertSettings(ctx context.Context, table string, settings []Setting) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert settings: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt := fmt.Sprintf("INSERT INTO %s (category, name, value) VALUES (?, ?, ?)", quoteIdent(table))
	for _, st := range settings {
		if _, err := tx.ExecContext(ctx, stmt, st.Category, st.Name, st.Value); err != nil {
			return fmt.Errorf("insert setting %s/%s: %w", st.Category, st.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert settings: commit: %w", err)
	}
	return nil
}

// SaveSetting replaces every row for category/name with one new row.
func (s *Store) SaveSetting(ctx context.Context, table string, st Setting) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save setting: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	del := fmt.Sprintf("DELETE FROM %s WHERE category = ? AND name = ?", quoteIdent(table))
	if _, err := tx.ExecContext(ctx, del, st.Category, st.Name); err != nil {
		return fmt.Errorf("save setting %s/%s: %w", st.Category, st.Name, err)
	}
	ins := fmt.Sprintf("INSERT INTO %s (category, name, value) VALUES (?, ?, ?)", quoteIdent(table))
	if _, err := tx.ExecContext(ctx, ins, st.Category, st.Name, st.Value); err != nil {
		return fmt.Errorf("save setting %s/%s: %w", st.Category, st.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save setting: commit: %w", err)
	}
	return nil
}

// GetSetting returns the value for category/name. ok is false when no
// row exists.
func (s *Store) GetSetting(ctx context.Context, table, category, name string) (value string, ok bool, err error) {
	q := fmt.Sprintf("SELECT value FROM %s WHERE category = ? AND name = ? LIMIT 1", quoteIdent(table))
	var v sql.NullString
	err = s.db.QueryRowContext(ctx, q, category, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s/%s: %w", category, name, err)
	}
	return v.String, true, nil
}
