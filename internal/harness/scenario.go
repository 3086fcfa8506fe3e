package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/isleshocky77/crmsetup/internal/catalog"
	"github.com/isleshocky77/crmsetup/internal/install"
)

// Scenario defines an installation scenario: a module catalog, one or
// more installer runs against the same working directory, and assertions
// on the recorded hook trace and the final database.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Vardefs is the vardef root. Relative paths are resolved against the
	// scenario file. When empty the caller supplies one.
	Vardefs string `yaml:"vardefs,omitempty"`

	// Modules is the catalog installed by every run, in declaration order.
	Modules []ModuleSpec `yaml:"modules"`

	// Runs execute in order. Later runs see what earlier runs left behind.
	Runs []RunSpec `yaml:"runs"`

	// Assertions validate the trace and final state.
	// Supported types: trace_contains, trace_order, trace_count,
	// final_state, row_count
	Assertions []Assertion `yaml:"assertions"`
}

// ModuleSpec declares one catalog entry.
type ModuleSpec struct {
	ID          string `yaml:"id"`
	Object      string `yaml:"object,omitempty"`
	Dir         string `yaml:"dir"`
	Table       string `yaml:"table,omitempty"`
	Priority    int    `yaml:"priority,omitempty"`
	DefaultInit bool   `yaml:"default_init,omitempty"`
	NonStandard bool   `yaml:"non_standard,omitempty"`

	// Seeds is a seed role name: settings, users, user_preferences or
	// schedulers.
	Seeds string `yaml:"seeds,omitempty"`
}

// RunSpec is one installer invocation.
type RunSpec struct {
	Name string `yaml:"name"`

	// Config overrides configuration keys on top of the harness baseline.
	Config map[string]string `yaml:"config,omitempty"`

	// Force allows the run against a locked configuration.
	Force bool `yaml:"force,omitempty"`

	// Expect checks the run's report. If nil, the run must complete.
	Expect *RunExpect `yaml:"expect,omitempty"`
}

// RunExpect is a subset match on an install report. Unset fields are not
// checked.
type RunExpect struct {
	Status                    string   `yaml:"status,omitempty"`
	FailedStage               string   `yaml:"failed_stage,omitempty"`
	ErrorKind                 string   `yaml:"error_kind,omitempty"`
	Admin                     string   `yaml:"admin,omitempty"`
	TablesCreated             []string `yaml:"tables_created,omitempty"`
	RelationshipTablesCreated []string `yaml:"relationship_tables_created,omitempty"`
	SettingsSeeded            *bool    `yaml:"settings_seeded,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Run limits trace assertions to one run. Empty means every run.
	Run string `yaml:"run,omitempty"`

	// Hook and Subject select trace events (trace_contains, trace_count).
	// An empty Subject matches any subject.
	Hook    string `yaml:"hook,omitempty"`
	Subject string `yaml:"subject,omitempty"`

	// Events is the expected order for trace_order, each written as
	// "hook" or "hook:subject".
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number for trace_count and row_count.
	Count int `yaml:"count,omitempty"`

	// Table, Where and Expect are used by final_state and row_count.
	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertRowCount      = "row_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Vardefs != "" && !filepath.IsAbs(scenario.Vardefs) {
		scenario.Vardefs = filepath.Join(filepath.Dir(path), scenario.Vardefs)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// Registry builds the module catalog described by the scenario.
func (s *Scenario) Registry() (*catalog.Registry, error) {
	reg := catalog.NewRegistry()
	for i, m := range s.Modules {
		role, err := catalog.ParseSeedRole(m.Seeds)
		if err != nil {
			return nil, fmt.Errorf("modules[%d]: %w", i, err)
		}
		err = reg.Register(catalog.Entry{
			ID:          m.ID,
			Object:      m.Object,
			Dir:         m.Dir,
			Table:       m.Table,
			Priority:    m.Priority,
			DefaultInit: m.DefaultInit,
			NonStandard: m.NonStandard,
			Seeds:       role,
		})
		if err != nil {
			return nil, fmt.Errorf("modules[%d]: %w", i, err)
		}
	}
	return reg, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Modules) == 0 {
		return fmt.Errorf("modules list is required and must be non-empty")
	}

	if len(s.Runs) == 0 {
		return fmt.Errorf("runs list is required and must be non-empty")
	}

	if s.Vardefs != "" {
		if _, err := os.Stat(s.Vardefs); os.IsNotExist(err) {
			return fmt.Errorf("vardef root not found: %s", s.Vardefs)
		}
	}

	for i, m := range s.Modules {
		if m.ID == "" {
			return fmt.Errorf("modules[%d]: id is required", i)
		}
		if m.Dir == "" {
			return fmt.Errorf("modules[%d]: dir is required", i)
		}
		if _, err := catalog.ParseSeedRole(m.Seeds); err != nil {
			return fmt.Errorf("modules[%d]: %w", i, err)
		}
	}

	runs := make(map[string]bool, len(s.Runs))
	for i, r := range s.Runs {
		if r.Name == "" {
			return fmt.Errorf("runs[%d]: name is required", i)
		}
		if runs[r.Name] {
			return fmt.Errorf("runs[%d]: duplicate run name %q", i, r.Name)
		}
		runs[r.Name] = true

		if r.Expect != nil && r.Expect.Status != "" &&
			r.Expect.Status != string(install.StageComplete) && r.Expect.Status != string(install.StageFailed) {
			return fmt.Errorf("runs[%d].expect: status must be %s or %s", i, install.StageComplete, install.StageFailed)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
		if assertion.Run != "" && !runs[assertion.Run] {
			return fmt.Errorf("assertions[%d]: unknown run %q", i, assertion.Run)
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Hook == "" {
			return fmt.Errorf("assertions[%d]: hook is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Hook == "" {
			return fmt.Errorf("assertions[%d]: hook is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
