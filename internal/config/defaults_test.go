package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedDefaults(t *testing.T) {
	d, err := EmbeddedDefaults()
	require.NoError(t, err)

	opts := d.Options()
	require.NotEmpty(t, opts)

	// Database section first, names sorted
	assert.Equal(t, "database-create", opts[0].FlagName())

	byFlag := map[string]NamedOption{}
	for _, o := range opts {
		byFlag[o.FlagName()] = o
	}
	assert.True(t, byFlag["database-create"].IsSwitch())
	assert.True(t, byFlag["database-drop-tables"].IsSwitch())
	assert.Equal(t, "suitecrm", byFlag["database-name"].Default)
	assert.Equal(t, "u", byFlag["install-admin-username"].Shortcut)
	assert.Equal(t, KeyAdminPassword, byFlag["install-admin-password"].ConfigKey)

	assert.Equal(t, "7.10.0", d.Config[KeySchemaVersion])
}

func TestParseDefaults_ScalarOption(t *testing.T) {
	d, err := ParseDefaults([]byte(`
database:
  name: crm
install: {}
config: {}
`))
	require.NoError(t, err)
	assert.Equal(t, "crm", d.Database["name"].Default)
	assert.Empty(t, d.Database["name"].ConfigKey)
}

func TestParseDefaults_MissingSection(t *testing.T) {
	_, err := ParseDefaults([]byte(`
database: {}
install: {}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"config"`)
}

func TestParseDefaults_BadMode(t *testing.T) {
	_, err := ParseDefaults([]byte(`
database:
  name: {mode: sometimes}
install: {}
config: {}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestParseDefaults_BadShortcut(t *testing.T) {
	_, err := ParseDefaults([]byte(`
database:
  name: {shortcut: nm}
install: {}
config: {}
`))
	assert.Error(t, err)
}

func TestReadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yml")
	require.NoError(t, os.WriteFile(path, embeddedDefaults, 0o644))

	d, err := ReadDefaults(path)
	require.NoError(t, err)
	assert.NotEmpty(t, d.Install)

	_, err = ReadDefaults(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestValues_Remap(t *testing.T) {
	d, err := EmbeddedDefaults()
	require.NoError(t, err)

	flags := map[string]string{
		"install-host":           "crm.example.com",
		"install-admin-password": "secret",
		"database-create":        "true",
	}
	values := d.Values(func(name string) (string, bool) {
		v, ok := flags[name]
		return v, ok
	})

	assert.Equal(t, "crm.example.com", values[KeyHost])
	assert.Equal(t, "http://crm.example.com", values[KeySiteURL])
	assert.Equal(t, "secret", values[KeyAdminPassword])
	assert.Equal(t, "true", values[KeyDBCreate])
	// Defaults fill the rest
	assert.Equal(t, "admin", values[KeyAdminUser])
	assert.Equal(t, "suitecrm", values[KeyDBName])
	// Static config section is carried over
	assert.Equal(t, "SuiteP", values[KeyTheme])
}

func TestValues_NilLookup(t *testing.T) {
	d, err := EmbeddedDefaults()
	require.NoError(t, err)

	values := d.Values(nil)
	assert.Equal(t, "http://localhost", values[KeySiteURL])
}
