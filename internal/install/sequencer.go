package install

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/isleshocky77/crmsetup/internal/catalog"
	"github.com/isleshocky77/crmsetup/internal/config"
	"github.com/isleshocky77/crmsetup/internal/meta"
	"github.com/isleshocky77/crmsetup/internal/store"
	"github.com/isleshocky77/crmsetup/internal/vardef"
)

// CacheDirs are created under the cache directory while preparing the
// configuration.
var CacheDirs = []string{
	"custom_fields",
	"dyn_lay",
	"images",
	"modules",
	"layout",
	"pdf",
	"upload",
	"upload/import",
	"xml",
	"include/javascript",
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithHooks registers installer hooks.
func WithHooks(h *Hooks) Option {
	return func(s *Sequencer) { s.hooks = h }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Sequencer) { s.logger = l }
}

// WithTimeSource sets the wall clock. Defaults to time.Now.
func WithTimeSource(now TimeSource) Option {
	return func(s *Sequencer) { s.now = now }
}

// WithIDGenerator sets the run ID generator. Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Sequencer) { s.ids = g }
}

// WithSchedulers overrides the default scheduler jobs.
func WithSchedulers(jobs []store.Scheduler) Option {
	return func(s *Sequencer) { s.schedulers = jobs }
}

// Sequencer runs the installation stages in order.
type Sequencer struct {
	cfg         *config.Config
	registry    *catalog.Registry
	provisioner Provisioner
	writer      ConfigWriter

	hooks      *Hooks
	logger     *slog.Logger
	now        TimeSource
	ids        IDGenerator
	schedulers []store.Scheduler
}

// New creates a sequencer for one configuration.
func New(cfg *config.Config, registry *catalog.Registry, provisioner Provisioner, writer ConfigWriter, opts ...Option) *Sequencer {
	s := &Sequencer{
		cfg:         cfg,
		registry:    registry,
		provisioner: provisioner,
		writer:      writer,
		logger:      slog.Default(),
		now:         time.Now,
		ids:         UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run holds the state of one Run call.
type run struct {
	rec       *recorder
	res       *catalog.Resolution
	rels      []meta.RelationshipDef
	target    Target
	processed *TableSet
	fresh     map[catalog.SeedRole]bool
}

type stageFunc func(ctx context.Context, r *run) error

// Run executes every stage. The returned Report is complete whether or
// not the run succeeded; on failure the error is an *Error and the report
// names the failing stage.
func (s *Sequencer) Run(ctx context.Context) (Report, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	r := &run{
		rec:       newRecorder(s.ids.NewID(), NewClock(), s.now),
		processed: NewTableSet(),
		fresh:     make(map[catalog.SeedRole]bool),
	}
	defer func() {
		if r.target != nil {
			if err := r.target.Close(); err != nil {
				s.logger.Error("error closing database", "error", err)
			}
		}
	}()

	s.logger.Info("installation starting",
		"run", r.rec.report.RunID,
		"database", s.cfg.Database.Name,
		"vardefs", s.cfg.Paths.Vardefs)

	stages := []struct {
		stage    Stage
		fallback ErrorKind
		fn       stageFunc
	}{
		{StageConfigPrepared, KindConfiguration, s.prepareConfig},
		{StageDatabaseProvisioned, KindProvisioning, s.provisionDatabase},
		{StageSchemaInstalled, KindSchema, s.installSchema},
		{StageRelationshipsInstalled, KindSchema, s.installRelationships},
		{StageDefaultsSeeded, KindSeedData, s.seedDefaults},
		{StageModulesPostProcessed, KindSeedData, s.postProcessModules},
		{StageUserFinalized, KindSeedData, s.finalizeUser},
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return s.failed(r, classify(st.stage, KindTimeout, err))
		}

		rec, err := r.rec.start(st.stage)
		if err != nil {
			return s.failed(r, classify(st.stage, st.fallback, err))
		}
		s.logger.Info("stage started", "stage", st.stage, "seq", rec.Seq, "at", rec.Started.Format(time.RFC3339))

		if err := st.fn(ctx, r); err != nil {
			return s.failed(r, classify(st.stage, st.fallback, err))
		}

		done := r.rec.finish()
		s.logger.Info("stage completed", "stage", done.Stage, "seq", done.Seq, "duration", done.Duration)
	}

	if _, err := r.rec.start(StageComplete); err != nil {
		return s.failed(r, classify(StageComplete, KindConfiguration, err))
	}
	r.rec.finish()

	report := r.rec.finalize()
	s.logger.Info(fmt.Sprintf("Installation complete (%ds)", int(report.Elapsed.Seconds())),
		"run", report.RunID,
		"tables_created", len(report.TablesCreated),
		"relationship_tables_created", len(report.RelationshipTablesCreated),
		"skipped", len(report.Skipped))
	return report, nil
}

func (s *Sequencer) failed(r *run, err *Error) (Report, error) {
	r.rec.fail(err)
	report := r.rec.finalize()
	s.logger.Error("installation failed",
		"run", report.RunID,
		"stage", report.FailedStage,
		"kind", err.Kind,
		"error", err.Err)
	return report, err
}

// prepareConfig checks the install lock, removes the stale configuration
// file, creates the cache directories and resolves the module catalog and
// relationship dictionary.
func (s *Sequencer) prepareConfig(_ context.Context, r *run) error {
	cfg := s.cfg

	if err := config.CheckLock(cfg.Paths.ConfigFile, cfg.Force); err != nil {
		return newError(KindConfiguration, cfg.Paths.ConfigFile, err)
	}
	if err := os.Remove(cfg.Paths.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return newError(KindConfiguration, cfg.Paths.ConfigFile, fmt.Errorf("remove stale config: %w", err))
	}

	if cfg.Paths.CacheDir != "" {
		for _, dir := range CacheDirs {
			path := filepath.Join(cfg.Paths.CacheDir, dir)
			if err := os.MkdirAll(path, 0o755); err != nil {
				return newError(KindConfiguration, path, fmt.Errorf("create cache directory: %w", err))
			}
		}
	}

	res, err := s.registry.Resolve(cfg.Paths.Vardefs)
	if err != nil {
		return newError(KindConfiguration, cfg.Paths.Vardefs, err)
	}
	for _, skip := range res.Skipped {
		if skip.Err != nil {
			s.logger.Warn("skipping module", "module", skip.Module, "reason", skip.Reason,
				"kind", KindSchemaDefinition, "error", skip.Err)
		} else {
			s.logger.Debug("skipping module", "module", skip.Module, "reason", skip.Reason)
		}
	}
	r.res = res
	r.rec.skipped(res.Skipped...)

	rels, errs := vardef.LoadRelationships(cfg.Paths.Vardefs, vardef.LoadModeCollectAll)
	for _, err := range errs {
		s.logger.Warn("skipping relationship definition", "kind", KindSchemaDefinition, "error", err)
		r.rec.skipped(catalog.Skip{Module: vardef.MetadataDir, Reason: catalog.SkipDefinition, Err: err})
	}
	r.rels = rels

	s.logger.Debug("catalog resolved", "modules", len(res.Modules), "relationships", len(rels))
	return nil
}

// provisionDatabase creates the database from scratch when configured to,
// otherwise requires it to exist and checks its encoding.
func (s *Sequencer) provisionDatabase(ctx context.Context, r *run) error {
	name := s.cfg.Database.Name

	if s.cfg.Database.Create {
		if err := s.hooks.Fire(ctx, HookPreCreateDatabase, name); err != nil {
			return err
		}
		exists, err := s.provisioner.DatabaseExists(ctx, name)
		if err != nil {
			return newError(KindProvisioning, name, err)
		}
		if exists {
			s.logger.Info("dropping existing database", "database", name)
			if err := s.provisioner.DropDatabase(ctx, name); err != nil {
				return newError(KindProvisioning, name, err)
			}
		}
		if err := s.provisioner.CreateDatabase(ctx, name); err != nil {
			return newError(KindProvisioning, name, err)
		}
		if err := s.hooks.Fire(ctx, HookPostCreateDatabase, name); err != nil {
			return err
		}
	}

	target, err := s.provisioner.Open(ctx, name)
	if err != nil {
		return newError(KindProvisioning, name, err)
	}
	r.target = target

	if !s.cfg.Database.Create {
		if err := s.hooks.Fire(ctx, HookPreCharsetCollation, name); err != nil {
			return err
		}
		if err := target.EnsureEncoding(ctx); err != nil {
			return newError(KindProvisioning, name, err)
		}
		if err := s.hooks.Fire(ctx, HookPostCharsetCollation, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequencer) installSchema(ctx context.Context, r *run) error {
	si := &SchemaInstaller{
		DB:     r.target,
		Meta:   r.target,
		Hooks:  s.hooks,
		Logger: s.logger,
	}
	res, err := si.Install(ctx, r.res.Modules, r.processed, s.cfg.Database.DropTables)
	r.rec.tablesCreated(res.Created...)
	r.rec.skipped(res.Skipped...)
	for role := range res.Fresh {
		r.fresh[role] = true
	}
	return err
}

func (s *Sequencer) installRelationships(ctx context.Context, r *run) error {
	ri := &RelationshipInstaller{
		DB:        r.target,
		Meta:      r.target,
		Logger:    s.logger,
		Processed: r.processed,
	}
	created, err := ri.Install(ctx, r.rels, s.cfg.Database.DropTables)
	r.rec.relationshipTablesCreated(created...)
	return err
}

// seedDefaults writes settings, the administrator and schedulers, then
// persists the application configuration.
func (s *Sequencer) seedDefaults(ctx context.Context, r *run) error {
	seeder := &DefaultsSeeder{
		Store:      r.target,
		Config:     s.cfg,
		Now:        s.now,
		Logger:     s.logger,
		Schedulers: s.schedulers,
	}

	if settings := r.res.Table(catalog.SeedSettings); settings != "" && r.fresh[catalog.SeedSettings] {
		if err := s.hooks.Fire(ctx, HookPreCreateDefaultSettings, settings); err != nil {
			return err
		}
		if err := seeder.SeedDefaultSettings(ctx, settings); err != nil {
			return err
		}
		r.rec.report.SettingsSeeded = true
		if err := s.hooks.Fire(ctx, HookPostCreateDefaultSettings, settings); err != nil {
			return err
		}
	} else {
		s.logger.Debug("settings table not new, keeping existing settings")
	}

	if users := r.res.Table(catalog.SeedUsers); users != "" {
		if err := s.hooks.Fire(ctx, HookPreCreateUsers, users); err != nil {
			return err
		}
		outcome, err := seeder.SeedAdminUser(ctx, users, r.fresh[catalog.SeedUsers])
		if err != nil {
			return err
		}
		r.rec.report.Admin = outcome
		if err := s.hooks.Fire(ctx, HookPostCreateUsers, users); err != nil {
			return err
		}
	} else {
		s.logger.Warn("no users table, skipping admin account")
	}

	schedulers := r.res.Table(catalog.SeedSchedulers)
	if err := s.hooks.Fire(ctx, HookPreCreateSchedulers, schedulers); err != nil {
		return err
	}
	n, err := seeder.SeedSchedulers(ctx, schedulers)
	if err != nil {
		return err
	}
	r.rec.report.SchedulersSeeded = n
	if err := s.hooks.Fire(ctx, HookPostCreateSchedulers, schedulers); err != nil {
		return err
	}

	path := s.cfg.Paths.ConfigFile
	if err := s.writer.Write(path, GlobalConfig(s.cfg, "")); err != nil {
		return newError(KindConfiguration, path, err)
	}
	s.logger.Debug("configuration written", "path", path)
	return nil
}

func (s *Sequencer) postProcessModules(ctx context.Context, r *run) error {
	pp := &PostProcessor{
		Store:  r.target,
		Config: s.cfg,
		Hooks:  s.hooks,
		Logger: s.logger,
	}
	return pp.Run(ctx, r.res.Table(catalog.SeedSettings))
}

func (s *Sequencer) finalizeUser(ctx context.Context, r *run) error {
	users := r.res.Table(catalog.SeedUsers)
	if users == "" {
		s.logger.Warn("no users table, skipping user finalisation")
		return nil
	}
	return finalizeAdmin(ctx, r.target, s.cfg, s.now, users, r.res.Table(catalog.SeedUserPreferences))
}
