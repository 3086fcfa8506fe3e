package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/isleshocky77/crmsetup/internal/meta"
)

var testNow = time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

func init() {
	HashCost = bcrypt.MinCost
}

// createTestStore creates a new store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func def(s string) *string { return &s }

func accountsFields() []meta.FieldDef {
	return []meta.FieldDef{
		{Name: "id", Type: "id", Required: true},
		{Name: "name", Type: "name", DBType: "varchar", Length: 150},
		{Name: "description", Type: "text"},
		{Name: "annual_revenue", Type: "currency"},
		{Name: "employees", Type: "int", Default: def("0")},
		{Name: "rating", Type: "varchar", Default: def("it's")},
		{Name: "deleted", Type: "bool", Required: true, Default: def("0")},
		{Name: "date_entered", Type: "datetime"},
		{Name: "contacts", Type: "link", NonDB: true},
	}
}

func accountsIndices() []meta.IndexDef {
	return []meta.IndexDef{
		{Name: "accountspk", Type: meta.IndexPrimary, Fields: []string{"id"}},
		{Name: "idx_accnt_name", Type: meta.IndexUnique, Fields: []string{"name", "deleted"}},
		{Name: "idx_accnt_del", Type: meta.IndexPlain, Fields: []string{"deleted"}},
		{Name: "fk_parent", Type: meta.IndexForeign, Fields: []string{"parent_id"}},
	}
}

func createTable(t *testing.T, s *Store, name string, fields []meta.FieldDef) {
	t.Helper()
	if err := s.CreateTable(context.Background(), name, fields, nil); err != nil {
		t.Fatalf("CreateTable(%s) failed: %v", name, err)
	}
}

var (
	configFields = []meta.FieldDef{
		{Name: "category", Type: "varchar", Length: 32},
		{Name: "name", Type: "varchar", Length: 32},
		{Name: "value", Type: "text"},
	}
	userFields = []meta.FieldDef{
		{Name: "id", Type: "id", Required: true},
		{Name: "user_name", Type: "varchar", Length: 60},
		{Name: "user_hash", Type: "varchar"},
		{Name: "first_name", Type: "varchar"},
		{Name: "last_name", Type: "varchar"},
		{Name: "is_admin", Type: "bool", Default: def("0")},
		{Name: "status", Type: "varchar", Length: 100},
		{Name: "date_entered", Type: "datetime"},
		{Name: "date_modified", Type: "datetime"},
		{Name: "deleted", Type: "bool", Default: def("0")},
	}
	schedulerFields = []meta.FieldDef{
		{Name: "id", Type: "id", Required: true},
		{Name: "deleted", Type: "bool", Default: def("0")},
		{Name: "date_entered", Type: "datetime"},
		{Name: "date_modified", Type: "datetime"},
		{Name: "name", Type: "varchar"},
		{Name: "job", Type: "varchar"},
		{Name: "date_time_start", Type: "datetimecombo"},
		{Name: "job_interval", Type: "varchar", Length: 100},
		{Name: "status", Type: "varchar", Length: 100},
		{Name: "catch_up", Type: "bool", Default: def("1")},
	}
	preferenceFields = []meta.FieldDef{
		{Name: "id", Type: "id", Required: true},
		{Name: "category", Type: "varchar", Length: 50},
		{Name: "deleted", Type: "bool", Default: def("0")},
		{Name: "date_entered", Type: "datetime"},
		{Name: "date_modified", Type: "datetime"},
		{Name: "assigned_user_id", Type: "id"},
		{Name: "contents", Type: "longtext"},
	}
)
