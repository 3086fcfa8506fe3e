package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// VardefRoot returns the absolute path of the shared vardef fixture tree.
//
// The tree holds modules (Users, Administration, Accounts, Contacts,
// UserPreferences, Schedulers, ProjectTask, the ACL and workflow roots,
// Configurator with no table, Broken with an invalid field type) and the
// accounts_contacts and acl_roles_users relationship definitions.
func VardefRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate testutil package")
	}
	return filepath.Join(filepath.Dir(file), "testdata", "vardefs")
}

// CopyVardefs copies the fixture tree into a temp dir so tests can edit it.
func CopyVardefs(t testing.TB) string {
	t.Helper()
	src := VardefRoot(t)
	dst := t.TempDir()

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		t.Fatalf("copy vardefs: %v", err)
	}
	return dst
}
