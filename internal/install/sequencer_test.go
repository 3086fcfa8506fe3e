package install

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isleshocky77/crmsetup/internal/catalog"
	"github.com/isleshocky77/crmsetup/internal/config"
	"github.com/isleshocky77/crmsetup/internal/store"
	"github.com/isleshocky77/crmsetup/internal/testutil"
)

func newTestSequencer(cfg *config.Config, r *catalog.Registry, opts ...Option) *Sequencer {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		WithTimeSource(testutil.NewStepClock().Now),
		WithIDGenerator(testutil.NewSequenceIDs("run")),
	}
	return New(cfg, r, NewStoreProvisioner(cfg.Database.DataDir), config.FileWriter{}, append(base, opts...)...)
}

func openInstalled(t *testing.T, cfg *config.Config) *store.Store {
	t.Helper()
	s, err := store.NewProvisioner(cfg.Database.DataDir).Open(context.Background(), cfg.Database.Name)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSequencer_FreshInstallThenRerun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := testConfig(t, dir, nil, false)
	report, err := newTestSequencer(cfg, scenarioRegistry()).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, "run-0001", report.RunID)
	assert.Equal(t, StageComplete, report.Status)
	assert.Equal(t, []string{"users", "config", "accounts"}, report.TablesCreated)
	assert.Equal(t, []string{"accounts_contacts", "acl_roles_users"}, report.RelationshipTablesCreated)
	assert.Equal(t, AdminCreated, report.Admin)
	assert.True(t, report.SettingsSeeded)
	assert.Zero(t, report.SchedulersSeeded)
	require.Len(t, report.Stages, len(Stages))
	for i, rec := range report.Stages {
		assert.Equal(t, Stages[i], rec.Stage)
		assert.Equal(t, StatusOK, rec.Status)
	}

	// Persisted configuration is locked
	locked, err := config.IsLocked(cfg.Paths.ConfigFile)
	require.NoError(t, err)
	assert.True(t, locked)

	for _, dir := range CacheDirs {
		info, err := os.Stat(filepath.Join(cfg.Paths.CacheDir, dir))
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}

	// Re-run against the existing database with a new password
	cfg2 := testConfig(t, dir, map[string]string{
		config.KeyDBCreate:      "false",
		config.KeyAdminPassword: "changed",
	}, true)
	report2, err := newTestSequencer(cfg2, scenarioRegistry()).Run(ctx)
	require.NoError(t, err)

	assert.Empty(t, report2.TablesCreated)
	assert.Empty(t, report2.RelationshipTablesCreated)
	assert.Equal(t, AdminPasswordReset, report2.Admin)
	assert.False(t, report2.SettingsSeeded)

	s := openInstalled(t, cfg2)
	n, err := s.CountRows(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := s.CheckAdminPassword(ctx, "users", "changed")
	require.NoError(t, err)
	assert.True(t, ok)

	v, ok, err := s.GetSetting(ctx, "config", "info", "sugar_version")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "7.10.0", v)
}

func TestSequencer_LockedWithoutForce(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, nil, false)
	require.NoError(t, config.FileWriter{}.Write(cfg.Paths.ConfigFile, map[string]any{config.LockKey: true}))

	report, err := newTestSequencer(cfg, scenarioRegistry()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConfiguration))
	assert.ErrorIs(t, err, config.ErrLocked)

	assert.Equal(t, StageFailed, report.Status)
	assert.Equal(t, StageConfigPrepared, report.FailedStage)
	require.Len(t, report.Stages, 1)
	assert.Equal(t, StatusFailed, report.Stages[0].Status)

	// Nothing was provisioned
	_, err = os.Stat(filepath.Join(cfg.Database.DataDir, "crm.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestSequencer_MissingDatabaseWithoutCreate(t *testing.T) {
	cfg := testConfig(t, t.TempDir(), map[string]string{config.KeyDBCreate: "false"}, false)

	report, err := newTestSequencer(cfg, scenarioRegistry()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindProvisioning))
	assert.ErrorIs(t, err, store.ErrDatabaseNotFound)
	assert.Equal(t, StageDatabaseProvisioned, report.FailedStage)
}

func TestSequencer_MissingVardefRoot(t *testing.T) {
	cfg := testConfig(t, t.TempDir(), map[string]string{
		config.KeyVardefs: filepath.Join(t.TempDir(), "nope"),
	}, false)

	report, err := newTestSequencer(cfg, scenarioRegistry()).Run(context.Background())
	assert.True(t, IsKind(err, KindConfiguration))
	assert.ErrorIs(t, err, catalog.ErrRootNotFound)
	assert.Equal(t, StageConfigPrepared, report.FailedStage)
}

func TestSequencer_PriorityOrder(t *testing.T) {
	cfg := testConfig(t, t.TempDir(), nil, false)
	r := catalog.NewRegistry().MustRegister(
		catalog.Entry{ID: "Account", Dir: "Accounts", DefaultInit: true},
		catalog.Entry{ID: "AOW_WorkFlow", Dir: "AOW_WorkFlow", Priority: 4, DefaultInit: true},
		catalog.Entry{ID: "Relationship", Dir: "Relationships", Priority: 3, DefaultInit: true},
		catalog.Entry{ID: "ACLAction", Dir: "ACLActions", Priority: 1, DefaultInit: true},
	)
	hooks, events := hookRecorder(HookPreCreateModuleTable)

	report, err := newTestSequencer(cfg, r, WithHooks(hooks)).Run(context.Background())
	require.NoError(t, err)

	var order []string
	for _, e := range *events {
		order = append(order, e.Subject)
	}
	assert.Equal(t, []string{"ACLAction", "Relationship", "AOW_WorkFlow", "Account"}, order)
	assert.Equal(t, []string{"acl_actions", "relationships", "aow_workflow", "accounts"}, report.TablesCreated)
	// No users table in this catalog
	assert.Equal(t, AdminSkipped, report.Admin)
}

func TestSequencer_HookOrder(t *testing.T) {
	cfg := testConfig(t, t.TempDir(), nil, false)
	hooks, events := hookRecorder(
		HookPreCreateDatabase, HookPostCreateDatabase,
		HookPreCreateAllModuleTables, HookPostCreateAllModuleTables,
		HookPreCreateDefaultSettings, HookPostCreateDefaultSettings,
		HookPreCreateUsers, HookPostCreateUsers,
		HookPreCreateSchedulers, HookPostCreateSchedulers,
		HookPreSetSystemTabs, HookPostSetSystemTabs,
		HookPostInstallModules,
	)

	_, err := newTestSequencer(cfg, scenarioRegistry(), WithHooks(hooks)).Run(context.Background())
	require.NoError(t, err)

	var names []string
	for _, e := range *events {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		HookPreCreateDatabase, HookPostCreateDatabase,
		HookPreCreateAllModuleTables, HookPostCreateAllModuleTables,
		HookPreCreateDefaultSettings, HookPostCreateDefaultSettings,
		HookPreCreateUsers, HookPostCreateUsers,
		HookPreCreateSchedulers, HookPostCreateSchedulers,
		HookPreSetSystemTabs, HookPostSetSystemTabs,
		HookPostInstallModules,
	}, names)
}

func TestSequencer_HookFailureStopsRun(t *testing.T) {
	cfg := testConfig(t, t.TempDir(), nil, false)
	hooks := NewHooks().On(HookPreCreateUsers, func(context.Context, HookEvent) error {
		return assert.AnError
	})

	report, err := newTestSequencer(cfg, scenarioRegistry(), WithHooks(hooks)).Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindSeedData))
	assert.Equal(t, StageDefaultsSeeded, report.FailedStage)

	// Stages before the failure completed
	require.Len(t, report.Stages, 5)
	assert.Equal(t, StatusOK, report.Stages[3].Status)
}

func TestSequencer_Cancelled(t *testing.T) {
	cfg := testConfig(t, t.TempDir(), nil, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestSequencer(cfg, scenarioRegistry()).Run(ctx)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTimeout))
	assert.Equal(t, StageFailed, report.Status)
	assert.Equal(t, StageConfigPrepared, report.FailedStage)
	assert.Empty(t, report.Stages)
}

func TestSequencer_TimeoutIsApplied(t *testing.T) {
	cfg := testConfig(t, t.TempDir(), map[string]string{config.KeyTimeout: "1m"}, false)
	assert.Equal(t, time.Minute, cfg.Timeout)

	var deadline time.Time
	hooks := NewHooks().On(HookPreCreateDatabase, func(ctx context.Context, _ HookEvent) error {
		deadline, _ = ctx.Deadline()
		return nil
	})

	_, err := newTestSequencer(cfg, scenarioRegistry(), WithHooks(hooks)).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, deadline.IsZero())
}

func TestSequencer_SchedulersSeededWhenCatalogHasTable(t *testing.T) {
	cfg := testConfig(t, t.TempDir(), nil, false)
	r := scenarioRegistry().MustRegister(
		catalog.Entry{ID: "Scheduler", Dir: "Schedulers", Table: "schedulers", Seeds: catalog.SeedSchedulers},
		catalog.Entry{ID: "UserPreference", Dir: "UserPreferences", DefaultInit: true, Seeds: catalog.SeedUserPreferences},
	)
	jobs := DefaultSchedulers[:2]

	report, err := newTestSequencer(cfg, r, WithSchedulers(jobs)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.SchedulersSeeded)

	s := openInstalled(t, cfg)
	prefs, err := s.Preferences(context.Background(), "user_preferences", store.AdminID, PreferencesCategory)
	require.NoError(t, err)
	assert.Equal(t, "Y-m-d", prefs["datef"])
}
