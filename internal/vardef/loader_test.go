package vardef

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadModule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, ModulePath(root, "Accounts"), `
dictionary: Account: {
	table: "accounts"
	fields: {
		id: {type: "id", required: true}
		name: {type: "name", dbType: "varchar", length: 150}
	}
	indices: [{name: "accountspk", type: "primary", fields: ["id"]}]
}
`)

	assert.True(t, SourceExists(root, "Accounts"))

	def, err := LoadModule(root, "Accounts", "Account")
	require.NoError(t, err)
	assert.Equal(t, "Account", def.Object)
	assert.Equal(t, "accounts", def.Table)
	assert.Len(t, def.Columns(), 2)
}

func TestLoadModuleMissingSource(t *testing.T) {
	root := t.TempDir()

	assert.False(t, SourceExists(root, "Nope"))

	_, err := LoadModule(root, "Nope", "Nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceNotFound))
}

func TestLoadModuleMissingDictionaryEntry(t *testing.T) {
	root := t.TempDir()
	writeFile(t, ModulePath(root, "Accounts"), `dictionary: Other: {table: "other"}`)

	_, err := LoadModule(root, "Accounts", "Account")
	require.Error(t, err)

	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Equal(t, ModulePath(root, "Accounts"), defErr.Source)
	assert.Contains(t, err.Error(), "dictionary.Account")
}

func TestLoadModuleSyntaxError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, ModulePath(root, "Accounts"), `dictionary: Account: {table: `)

	_, err := LoadModule(root, "Accounts", "Account")
	require.Error(t, err)

	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
}

func TestLoadModuleValidationErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, ModulePath(root, "Accounts"), `
dictionary: Account: {
	table: "accounts"
	fields: { id: {type: "blob"} }
	indices: [{name: "pk", type: "primary", fields: ["missing"]}]
}
`)

	_, err := LoadModule(root, "Accounts", "Account")
	require.Error(t, err)

	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Len(t, defErr.Errors, 2)

	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ErrUnknownFieldType, verr.Code)
}

func TestLoadModuleDoesNotExist(t *testing.T) {
	root := t.TempDir()
	writeFile(t, ModulePath(root, "Configurator"), `dictionary: Configurator: {table: "does_not_exist"}`)

	def, err := LoadModule(root, "Configurator", "Configurator")
	require.NoError(t, err)
	assert.False(t, def.HasTable())
}

const relationshipFiles = `
package metadata

relationships: zz_rel: {
	table: "zz_rel"
	fields: [{name: "id", type: "varchar", length: 36}]
}
relationships: aa_rel: {
	table: "aa_rel"
	fields: [{name: "id", type: "varchar", length: 36}]
}
`

func TestLoadRelationshipsSorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, MetadataDir, "a.cue"), relationshipFiles)
	writeFile(t, filepath.Join(root, MetadataDir, "b.cue"), `
package metadata

relationships: mm_rel: {
	table: "mm_rel"
	fields: [{name: "id", type: "varchar", length: 36}]
}
`)

	defs, errs := LoadRelationships(root, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, defs, 3)
	assert.Equal(t, "aa_rel", defs[0].Name)
	assert.Equal(t, "mm_rel", defs[1].Name)
	assert.Equal(t, "zz_rel", defs[2].Name)
}

func TestLoadRelationshipsMissingDir(t *testing.T) {
	defs, errs := LoadRelationships(t.TempDir(), LoadModeFailFast)
	assert.Empty(t, errs)
	assert.Empty(t, defs)
}

func TestLoadRelationshipsCollectAll(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, MetadataDir, "rels.cue"), `
package metadata

relationships: good: {
	table: "good"
	fields: [{name: "id", type: "varchar"}]
}
relationships: no_table: {
	fields: [{name: "id", type: "varchar"}]
}
relationships: bad_type: {
	table: "bad_type"
	fields: [{name: "id", type: "blob"}]
}
`)

	defs, errs := LoadRelationships(root, LoadModeCollectAll)
	assert.Len(t, errs, 2)
	require.Len(t, defs, 1)
	assert.Equal(t, "good", defs[0].Name)

	_, errs = LoadRelationships(root, LoadModeFailFast)
	assert.Len(t, errs, 1)
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.cue"), "package x\n")
	writeFile(t, filepath.Join(dir, "nested", "b.cue"), "package x\n")
	writeFile(t, filepath.Join(dir, "README.md"), "docs")

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
