package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/isleshocky77/crmsetup/internal/config"
	"github.com/isleshocky77/crmsetup/internal/install"
	"github.com/isleshocky77/crmsetup/internal/store"
	"github.com/isleshocky77/crmsetup/internal/testutil"
)

// Baseline values every run starts from, before its own overrides.
const (
	DatabaseName  = "crm"
	AdminPassword = "secret"
	SiteGUID      = "scenario-guid"
)

// Harness runs scenarios with deterministic run IDs and timestamps.
type Harness struct {
	// WorkDir holds the database, configuration file, cache and logs of
	// every run. Runs of one scenario share it.
	WorkDir string

	// Vardefs is used when the scenario names no vardef root.
	Vardefs string

	// Logger receives installer logs. Defaults to discarding them.
	Logger *slog.Logger
}

// Run executes a scenario with a harness rooted at workDir.
func Run(ctx context.Context, s *Scenario, workDir, vardefs string) (*Result, error) {
	h := &Harness{WorkDir: workDir, Vardefs: vardefs}
	return h.Run(ctx, s)
}

// Run executes every run of the scenario in order, checks each report
// against its expectations, then evaluates the assertions against the
// recorded trace and the resulting database.
//
// The returned error is reserved for problems with the scenario itself;
// failed expectations and assertions are reported in the Result.
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	vardefs := s.Vardefs
	if vardefs == "" {
		vardefs = h.Vardefs
	}
	if vardefs == "" {
		return nil, fmt.Errorf("scenario %s: no vardef root", s.Name)
	}

	reg, err := s.Registry()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	defaults, err := config.EmbeddedDefaults()
	if err != nil {
		return nil, err
	}

	logger := h.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	result := NewResult()
	ids := testutil.NewSequenceIDs("run")
	clock := testutil.NewStepClock()

	var last *config.Config
	for _, rs := range s.Runs {
		values := defaults.Values(nil)
		values[config.KeyDBName] = DatabaseName
		values[config.KeyDBDataDir] = filepath.Join(h.WorkDir, "data")
		values[config.KeyDBCreate] = "true"
		values[config.KeyAdminPassword] = AdminPassword
		values[config.KeyVardefs] = vardefs
		values[config.KeyConfigFile] = filepath.Join(h.WorkDir, "config.toml")
		values[config.KeyCacheDir] = filepath.Join(h.WorkDir, "cache")
		values[config.KeyLogDir] = h.WorkDir
		values[config.KeySiteGUID] = SiteGUID
		for k, v := range rs.Config {
			values[k] = v
		}

		cfg, err := config.Build(values, rs.Force)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", rs.Name, err)
		}
		last = cfg

		hooks := install.NewHooks()
		for _, name := range install.HookNames {
			hooks.On(name, func(_ context.Context, e install.HookEvent) error {
				result.addTrace(rs.Name, e.Name, e.Subject)
				return nil
			})
		}

		seq := install.New(cfg, reg, install.NewStoreProvisioner(cfg.Database.DataDir), config.FileWriter{},
			install.WithLogger(logger.With("run", rs.Name)),
			install.WithHooks(hooks),
			install.WithIDGenerator(ids),
			install.WithTimeSource(clock.Now),
		)
		report, runErr := seq.Run(ctx)
		result.Runs[rs.Name] = report

		for _, msg := range checkRun(rs, report, runErr) {
			result.AddError(fmt.Sprintf("run %s: %s", rs.Name, msg))
		}
	}

	actx := &AssertionContext{Ctx: ctx}
	if needsDatabase(s.Assertions) {
		st, err := store.NewProvisioner(last.Database.DataDir).Open(ctx, last.Database.Name)
		if err != nil {
			result.AddError(fmt.Sprintf("open database: %v", err))
		} else {
			defer st.Close()
			actx.DB = st.DB()
		}
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// checkRun compares a report with the run's expectations. A run without
// expectations must complete.
func checkRun(rs RunSpec, report install.Report, runErr error) []string {
	exp := rs.Expect
	if exp == nil {
		exp = &RunExpect{Status: string(install.StageComplete)}
	}

	var errs []string
	if exp.Status != "" && string(report.Status) != exp.Status {
		msg := fmt.Sprintf("status: expected %s, got %s", exp.Status, report.Status)
		if runErr != nil {
			msg += fmt.Sprintf(" (%v)", runErr)
		}
		errs = append(errs, msg)
	}
	if exp.FailedStage != "" && string(report.FailedStage) != exp.FailedStage {
		errs = append(errs, fmt.Sprintf("failed stage: expected %s, got %q", exp.FailedStage, report.FailedStage))
	}
	if exp.ErrorKind != "" && !install.IsKind(runErr, install.ErrorKind(exp.ErrorKind)) {
		errs = append(errs, fmt.Sprintf("error kind: expected %s, got %v", exp.ErrorKind, runErr))
	}
	if exp.Admin != "" && string(report.Admin) != exp.Admin {
		errs = append(errs, fmt.Sprintf("admin: expected %s, got %s", exp.Admin, report.Admin))
	}
	if exp.TablesCreated != nil && !slices.Equal(exp.TablesCreated, report.TablesCreated) {
		errs = append(errs, fmt.Sprintf("tables created: expected %v, got %v", exp.TablesCreated, report.TablesCreated))
	}
	if exp.RelationshipTablesCreated != nil && !slices.Equal(exp.RelationshipTablesCreated, report.RelationshipTablesCreated) {
		errs = append(errs, fmt.Sprintf("relationship tables created: expected %v, got %v",
			exp.RelationshipTablesCreated, report.RelationshipTablesCreated))
	}
	if exp.SettingsSeeded != nil && *exp.SettingsSeeded != report.SettingsSeeded {
		errs = append(errs, fmt.Sprintf("settings seeded: expected %t, got %t", *exp.SettingsSeeded, report.SettingsSeeded))
	}
	return errs
}

func needsDatabase(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertFinalState || a.Type == AssertRowCount {
			return true
		}
	}
	return false
}
