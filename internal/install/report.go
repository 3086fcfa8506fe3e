package install

import (
	"fmt"
	"time"

	"github.com/isleshocky77/crmsetup/internal/catalog"
)

// Stage is a step of the installation pipeline.
type Stage string

const (
	StageConfigPrepared         Stage = "ConfigPrepared"
	StageDatabaseProvisioned    Stage = "DatabaseProvisioned"
	StageSchemaInstalled        Stage = "SchemaInstalled"
	StageRelationshipsInstalled Stage = "RelationshipsInstalled"
	StageDefaultsSeeded         Stage = "DefaultsSeeded"
	StageModulesPostProcessed   Stage = "ModulesPostProcessed"
	StageUserFinalized          Stage = "UserFinalized"
	StageComplete               Stage = "Complete"

	// StageFailed is terminal and never recorded as a stage of its own.
	StageFailed Stage = "Failed"
)

// Stages lists the pipeline in execution order.
var Stages = []Stage{
	StageConfigPrepared,
	StageDatabaseProvisioned,
	StageSchemaInstalled,
	StageRelationshipsInstalled,
	StageDefaultsSeeded,
	StageModulesPostProcessed,
	StageUserFinalized,
	StageComplete,
}

// Stage record statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// StageRecord is one entry of the report's stage log.
type StageRecord struct {
	Stage    Stage         `json:"stage" yaml:"stage"`
	Seq      int64         `json:"seq" yaml:"seq"`
	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Status   string        `json:"status" yaml:"status"`
}

// AdminOutcome describes what happened to the administrator account.
type AdminOutcome string

const (
	AdminCreated       AdminOutcome = "created"
	AdminPasswordReset AdminOutcome = "password_reset"
	AdminSkipped       AdminOutcome = "skipped"
)

// Report is the result of one installation run.
type Report struct {
	RunID  string        `json:"run_id"`
	Status Stage         `json:"status"`
	Stages []StageRecord `json:"stages"`

	// FailedStage and Cause are set when Status is StageFailed.
	FailedStage Stage  `json:"failed_stage,omitempty"`
	Cause       string `json:"cause,omitempty"`
	Err         error  `json:"-"`

	TablesCreated             []string       `json:"tables_created"`
	RelationshipTablesCreated []string       `json:"relationship_tables_created"`
	Skipped                   []catalog.Skip `json:"skipped,omitempty"`
	Admin                     AdminOutcome   `json:"admin"`
	SettingsSeeded            bool           `json:"settings_seeded"`
	SchedulersSeeded          int            `json:"schedulers_seeded"`

	Started time.Time     `json:"started"`
	Elapsed time.Duration `json:"elapsed"`
}

// Succeeded reports whether the run reached Complete.
func (r Report) Succeeded() bool {
	return r.Status == StageComplete
}

// recorder builds a Report while a run is in progress. It belongs to one
// Sequencer.Run call.
type recorder struct {
	clock  *Clock
	now    TimeSource
	report Report

	next   int // index into Stages of the stage that may start next
	active *StageRecord
}

func newRecorder(runID string, clock *Clock, now TimeSource) *recorder {
	return &recorder{
		clock: clock,
		now:   now,
		report: Report{
			RunID:   runID,
			Started: now(),
			Admin:   AdminSkipped,
		},
	}
}

// start opens stage. Stages must start in order, one at a time.
func (r *recorder) start(stage Stage) (StageRecord, error) {
	if r.active != nil {
		return StageRecord{}, fmt.Errorf("cannot start %s: %s still running", stage, r.active.Stage)
	}
	if r.report.Status == StageFailed {
		return StageRecord{}, fmt.Errorf("cannot start %s: run failed", stage)
	}
	if r.next >= len(Stages) || Stages[r.next] != stage {
		return StageRecord{}, fmt.Errorf("illegal transition to %s from %s", stage, r.last())
	}
	r.active = &StageRecord{
		Stage:   stage,
		Seq:     r.clock.Next(),
		Started: r.now(),
	}
	return *r.active, nil
}

// finish closes the active stage successfully.
func (r *recorder) finish() StageRecord {
	rec := r.close(StatusOK)
	r.next++
	if rec.Stage == StageComplete {
		r.report.Status = StageComplete
	}
	return rec
}

// fail closes the active stage, if any, and marks the run failed.
func (r *recorder) fail(err *Error) {
	stage := err.Stage
	if r.active != nil {
		stage = r.close(StatusFailed).Stage
	}
	r.report.Status = StageFailed
	r.report.FailedStage = stage
	r.report.Cause = err.Error()
	r.report.Err = err
}

func (r *recorder) close(status string) StageRecord {
	rec := *r.active
	rec.Duration = r.now().Sub(rec.Started)
	rec.Status = status
	r.report.Stages = append(r.report.Stages, rec)
	r.active = nil
	return rec
}

func (r *recorder) last() Stage {
	if r.next == 0 {
		return "start"
	}
	return Stages[r.next-1]
}

func (r *recorder) tablesCreated(names ...string) {
	r.report.TablesCreated = append(r.report.TablesCreated, names...)
}

func (r *recorder) relationshipTablesCreated(names ...string) {
	r.report.RelationshipTablesCreated = append(r.report.RelationshipTablesCreated, names...)
}

func (r *recorder) skipped(skips ...catalog.Skip) {
	r.report.Skipped = append(r.report.Skipped, skips...)
}

// finalize returns a copy of the report that later recorder calls cannot
// change.
func (r *recorder) finalize() Report {
	out := r.report
	out.Elapsed = r.now().Sub(out.Started)
	out.Stages = append([]StageRecord(nil), r.report.Stages...)
	out.TablesCreated = append([]string{}, r.report.TablesCreated...)
	out.RelationshipTablesCreated = append([]string{}, r.report.RelationshipTablesCreated...)
	out.Skipped = append([]catalog.Skip(nil), r.report.Skipped...)
	return out
}

// TableSet records the tables processed during one run, in insertion
// order.
type TableSet struct {
	index map[string]struct{}
	order []string
}

// NewTableSet returns an empty set.
func NewTableSet() *TableSet {
	return &TableSet{index: make(map[string]struct{})}
}

// Add inserts name and reports whether it was new.
func (s *TableSet) Add(name string) bool {
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = struct{}{}
	s.order = append(s.order, name)
	return true
}

// Contains reports whether name was added.
func (s *TableSet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of tables.
func (s *TableSet) Len() int {
	return len(s.order)
}

// Names returns the tables in insertion order.
func (s *TableSet) Names() []string {
	return append([]string(nil), s.order...)
}
