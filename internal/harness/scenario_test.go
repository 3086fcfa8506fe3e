package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isleshocky77/crmsetup/internal/catalog"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalScenario = `
name: minimal
description: "Single install"
modules:
  - {id: User, dir: Users, table: users, default_init: true, seeds: users}
runs:
  - name: install
assertions:
  - type: trace_contains
    hook: pre_createUsers
`

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", scenario.Name)
	assert.Equal(t, "Single install", scenario.Description)
	assert.Empty(t, scenario.Vardefs)
	require.Len(t, scenario.Modules, 1)
	assert.Equal(t, "users", scenario.Modules[0].Seeds)
	require.Len(t, scenario.Runs, 1)
	assert.Nil(t, scenario.Runs[0].Expect)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertTraceContains, scenario.Assertions[0].Type)
}

func TestLoadScenario_Testdata(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			_, err := LoadScenario(f)
			require.NoError(t, err)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, minimalScenario+"assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_RelativeVardefs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vardefs"), 0755))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario+"vardefs: vardefs\n"), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vardefs"), scenario.Vardefs)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: "x"
modules: [{id: User, dir: Users}]
runs: [{name: a}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing modules",
			content: `
name: x
description: "x"
runs: [{name: a}]
`,
			wantErr: "modules list is required",
		},
		{
			name: "missing runs",
			content: `
name: x
description: "x"
modules: [{id: User, dir: Users}]
`,
			wantErr: "runs list is required",
		},
		{
			name: "module without dir",
			content: `
name: x
description: "x"
modules: [{id: User}]
runs: [{name: a}]
`,
			wantErr: "modules[0]: dir is required",
		},
		{
			name: "unknown seed role",
			content: `
name: x
description: "x"
modules: [{id: User, dir: Users, seeds: accounts}]
runs: [{name: a}]
`,
			wantErr: `unknown seed role "accounts"`,
		},
		{
			name: "duplicate run",
			content: `
name: x
description: "x"
modules: [{id: User, dir: Users}]
runs: [{name: a}, {name: a}]
`,
			wantErr: `duplicate run name "a"`,
		},
		{
			name: "bad expected status",
			content: `
name: x
description: "x"
modules: [{id: User, dir: Users}]
runs: [{name: a, expect: {status: Done}}]
`,
			wantErr: "runs[0].expect: status must be",
		},
		{
			name: "assertion on unknown run",
			content: `
name: x
description: "x"
modules: [{id: User, dir: Users}]
runs: [{name: a}]
assertions: [{type: trace_contains, run: b, hook: pre_createUsers}]
`,
			wantErr: `unknown run "b"`,
		},
		{
			name: "missing vardef root",
			content: `
name: x
description: "x"
vardefs: /nonexistent/vardefs
modules: [{id: User, dir: Users}]
runs: [{name: a}]
`,
			wantErr: "vardef root not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAssertion(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"missing type", Assertion{}, "type is required"},
		{"unknown type", Assertion{Type: "trace_magic"}, `unknown assertion type "trace_magic"`},
		{"contains without hook", Assertion{Type: AssertTraceContains}, "hook is required for trace_contains"},
		{"order without events", Assertion{Type: AssertTraceOrder}, "events list is required"},
		{"count without hook", Assertion{Type: AssertTraceCount}, "hook is required for trace_count"},
		{"negative count", Assertion{Type: AssertTraceCount, Hook: "h", Count: -1}, "count must be non-negative"},
		{"state without table", Assertion{Type: AssertFinalState}, "table is required for final_state"},
		{"state without expect", Assertion{Type: AssertFinalState, Table: "users"}, "expect is required"},
		{"row count without table", Assertion{Type: AssertRowCount}, "table is required for row_count"},
		{"valid row count", Assertion{Type: AssertRowCount, Table: "users"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAssertion(0, &tt.assertion)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScenario_Registry(t *testing.T) {
	s := &Scenario{Modules: []ModuleSpec{
		{ID: "Account", Dir: "Accounts", Table: "accounts", DefaultInit: true},
		{ID: "ACLAction", Dir: "ACLActions", Priority: 1},
		{ID: "Administration", Dir: "Administration", Seeds: "settings"},
	}}

	reg, err := s.Registry()
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())

	ordered := reg.Ordered()
	assert.Equal(t, "ACLAction", ordered[0].ID)

	admin, ok := reg.Lookup("Administration")
	require.True(t, ok)
	assert.Equal(t, catalog.SeedSettings, admin.Seeds)
}

func TestScenario_RegistryDuplicateModule(t *testing.T) {
	s := &Scenario{Modules: []ModuleSpec{
		{ID: "Account", Dir: "Accounts"},
		{ID: "Account", Dir: "Accounts"},
	}}

	_, err := s.Registry()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modules[1]")
}
