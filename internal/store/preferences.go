package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SavePreferences stores a user's preferences for one category as a JSON
// document, replacing any previous row for that user and category.
func (s *Store) SavePreferences(ctx context.Context, table, userID, category string, prefs map[string]any, now time.Time) error {
	contents, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save preferences: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	del := fmt.Sprintf("DELETE FROM %s WHERE assigned_user_id = ? AND category = ?", quoteIdent(table))
	if _, err := tx.ExecContext(ctx, del, userID, category); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}

	ts := now.UTC().Format(DateTimeFormat)
	ins := fmt.Sprintf(`INSERT INTO %s
		(id, category, deleted, date_entered, date_modified, assigned_user_id, contents)
		VALUES (?, ?, 0, ?, ?, ?, ?)`, quoteIdent(table))
	if _, err := tx.ExecContext(ctx, ins, id.String(), category, ts, ts, userID, string(contents)); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save preferences: commit: %w", err)
	}
	return nil
}

// Preferences loads a user's preferences for one category.
// Returns nil when none are stored.
func (s *Store) Preferences(ctx context.Context, table, userID, category string) (map[string]any, error) {
	q := fmt.Sprintf("SELECT contents FROM %s WHERE assigned_user_id = ? AND category = ? AND deleted = 0", quoteIdent(table))
	rows, err := s.db.QueryContext(ctx, q, userID, category)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var contents string
	if err := rows.Scan(&contents); err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	prefs := map[string]any{}
	if err := json.Unmarshal([]byte(contents), &prefs); err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	return prefs, nil
}
