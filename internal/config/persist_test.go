package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	err := FileWriter{}.Write(path, map[string]any{
		"site_url":         "http://localhost",
		"installer_locked": true,
		"dbconfig": map[string]any{
			"db_name": "crm",
		},
	})
	require.NoError(t, err)

	values, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost", values["site_url"])
	assert.Equal(t, true, values["installer_locked"])

	db, ok := values["dbconfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "crm", db["db_name"])

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCheckLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	// Missing file is not locked
	require.NoError(t, CheckLock(path, false))

	require.NoError(t, FileWriter{}.Write(path, map[string]any{LockKey: false}))
	require.NoError(t, CheckLock(path, false))

	require.NoError(t, FileWriter{}.Write(path, map[string]any{LockKey: true}))
	err := CheckLock(path, false)
	assert.ErrorIs(t, err, ErrLocked)

	assert.NoError(t, CheckLock(path, true))

	locked, err := IsLocked(path)
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestIsLocked_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := IsLocked(path)
	assert.Error(t, err)
}
