package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/isleshocky77/crmsetup/internal/install"
)

// Snapshot is the golden form of a scenario result. Wall-clock fields of
// the reports are left out; run IDs and stage sequence numbers are
// deterministic under the harness.
type Snapshot struct {
	Scenario string        `json:"scenario"`
	Runs     []RunSnapshot `json:"runs"`
}

// RunSnapshot summarises one run.
type RunSnapshot struct {
	Name                      string               `json:"name"`
	RunID                     string               `json:"run_id"`
	Status                    install.Stage        `json:"status"`
	FailedStage               install.Stage        `json:"failed_stage,omitempty"`
	Stages                    []StageSnapshot      `json:"stages"`
	TablesCreated             []string             `json:"tables_created"`
	RelationshipTablesCreated []string             `json:"relationship_tables_created"`
	Skipped                   []SkipSnapshot       `json:"skipped,omitempty"`
	Admin                     install.AdminOutcome `json:"admin"`
	SettingsSeeded            bool                 `json:"settings_seeded"`
	SchedulersSeeded          int                  `json:"schedulers_seeded"`

	// Hooks lists the run's hook firings as "hook" or "hook:subject".
	Hooks []string `json:"hooks"`
}

// StageSnapshot is one stage record without timings.
type StageSnapshot struct {
	Stage  install.Stage `json:"stage"`
	Seq    int64         `json:"seq"`
	Status string        `json:"status"`
}

// SkipSnapshot is one skipped module.
type SkipSnapshot struct {
	Module string `json:"module"`
	Reason string `json:"reason"`
}

// NewSnapshot builds the snapshot of result, with runs in scenario order.
func NewSnapshot(s *Scenario, result *Result) Snapshot {
	snap := Snapshot{Scenario: s.Name, Runs: make([]RunSnapshot, 0, len(s.Runs))}
	for _, rs := range s.Runs {
		r := result.Runs[rs.Name]
		run := RunSnapshot{
			Name:                      rs.Name,
			RunID:                     r.RunID,
			Status:                    r.Status,
			FailedStage:               r.FailedStage,
			Stages:                    make([]StageSnapshot, 0, len(r.Stages)),
			TablesCreated:             nonNil(r.TablesCreated),
			RelationshipTablesCreated: nonNil(r.RelationshipTablesCreated),
			Admin:                     r.Admin,
			SettingsSeeded:            r.SettingsSeeded,
			SchedulersSeeded:          r.SchedulersSeeded,
			Hooks:                     []string{},
		}
		for _, st := range r.Stages {
			run.Stages = append(run.Stages, StageSnapshot{Stage: st.Stage, Seq: st.Seq, Status: st.Status})
		}
		for _, sk := range r.Skipped {
			run.Skipped = append(run.Skipped, SkipSnapshot{Module: sk.Module, Reason: sk.Reason})
		}
		for _, e := range result.Trace {
			if e.Run == rs.Name {
				run.Hooks = append(run.Hooks, e.key())
			}
		}
		snap.Runs = append(snap.Runs, run)
	}
	return snap
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario, vardefs string) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, t.TempDir(), vardefs)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario, result)
}

// AssertGolden compares an existing result against the scenario's golden
// file without re-running it.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := json.MarshalIndent(NewSnapshot(scenario, result), "", "  ")
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
