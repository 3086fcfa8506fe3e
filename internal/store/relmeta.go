package store

import (
	"context"
	"fmt"

	"github.com/isleshocky77/crmsetup/internal/meta"
)

// RelationshipsTable holds relationship metadata rows.
const RelationshipsTable = "relationships"

// relationshipColumns is the layout used when no installed module supplies
// the metadata table from its own vardef.
var relationshipColumns = []meta.FieldDef{
	{Name: "id", Type: "id", Required: true},
	{Name: "relationship_name", Type: "varchar", Length: 150, Required: true},
	{Name: "lhs_module", Type: "varchar", Length: 100},
	{Name: "lhs_table", Type: "varchar", Length: 64},
	{Name: "lhs_key", Type: "varchar", Length: 64},
	{Name: "rhs_module", Type: "varchar", Length: 100},
	{Name: "rhs_table", Type: "varchar", Length: 64},
	{Name: "rhs_key", Type: "varchar", Length: 64},
	{Name: "join_table", Type: "varchar", Length: 64},
	{Name: "join_key_lhs", Type: "varchar", Length: 64},
	{Name: "join_key_rhs", Type: "varchar", Length: 64},
	{Name: "relationship_type", Type: "varchar", Length: 64},
	{Name: "relationship_role_column", Type: "varchar", Length: 64},
	{Name: "relationship_role_column_value", Type: "varchar", Length: 50},
	{Name: "reverse", Type: "bool", Default: strPtr("0")},
	{Name: "deleted", Type: "bool", Default: strPtr("0")},
}

var relationshipIndices = []meta.IndexDef{
	{Name: "relationshippk", Type: meta.IndexPrimary, Fields: []string{"id"}},
	{Name: "idx_rel_name", Type: meta.IndexPlain, Fields: []string{"relationship_name"}},
}

// RegisterRelationshipMetadata upserts one metadata row per link.
//
// owner is the module or relationship the links belong to and table the
// table that was just installed for it; both are informational. Row IDs
// are derived from the link name, so registering again overwrites rather
// than duplicates. With no links the call does nothing.
func (s *Store) RegisterRelationshipMetadata(ctx context.Context, owner, table string, links []meta.RelationshipLink) error {
	if len(links) == 0 {
		return nil
	}

	exists, err := s.TableExists(ctx, RelationshipsTable)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.CreateTable(ctx, RelationshipsTable, relationshipColumns, relationshipIndices); err != nil {
			return fmt.Errorf("register metadata for %s: %w", owner, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("register metadata for %s: begin: %w", owner, err)
	}
	defer tx.Rollback() // No-op if committed

	for _, l := range links {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO relationships
			(id, relationship_name, lhs_module, lhs_table, lhs_key, rhs_module, rhs_table, rhs_key,
			 join_table, join_key_lhs, join_key_rhs, relationship_type,
			 relationship_role_column, relationship_role_column_value, reverse, deleted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0)
			ON CONFLICT(id) DO UPDATE SET
				lhs_module = excluded.lhs_module,
				lhs_table = excluded.lhs_table,
				lhs_key = excluded.lhs_key,
				rhs_module = excluded.rhs_module,
				rhs_table = excluded.rhs_table,
				rhs_key = excluded.rhs_key,
				join_table = excluded.join_table,
				join_key_lhs = excluded.join_key_lhs,
				join_key_rhs = excluded.join_key_rhs,
				relationship_type = excluded.relationship_type,
				relationship_role_column = excluded.relationship_role_column,
				relationship_role_column_value = excluded.relationship_role_column_value,
				deleted = 0
		`,
			meta.RelationshipID(l.Name),
			l.Name,
			l.LHSModule, l.LHSTable, l.LHSKey,
			l.RHSModule, l.RHSTable, l.RHSKey,
			nullString(l.JoinTable), nullString(l.JoinKeyLHS), nullString(l.JoinKeyRHS),
			l.Type,
			nullString(l.RoleColumn), nullString(l.RoleColumnValue),
		)
		if err != nil {
			return fmt.Errorf("register metadata %s (%s/%s): %w", l.Name, owner, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("register metadata for %s: commit: %w", owner, err)
	}
	return nil
}

// RelationshipNames lists registered relationships in name order.
func (s *Store) RelationshipNames(ctx context.Context) ([]string, error) {
	exists, err := s.TableExists(ctx, RelationshipsTable)
	if err != nil || !exists {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT relationship_name FROM relationships WHERE deleted = 0 ORDER BY relationship_name")
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list relationships: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func strPtr(s string) *string { return &s }

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
