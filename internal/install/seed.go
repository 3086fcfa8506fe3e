package install

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/isleshocky77/crmsetup/internal/config"
	"github.com/isleshocky77/crmsetup/internal/store"
)

// DefaultSchedulers are the built-in scheduler jobs.
var DefaultSchedulers = []store.Scheduler{
	{Name: "Process Workflow Tasks", Job: "function::processAOW_Workflow", Interval: "*::*::*::*::*", Status: "Active"},
	{Name: "Run Report Generation Scheduled Tasks", Job: "function::aorRunScheduledReports", Interval: "*::*::*::*::*", Status: "Active"},
	{Name: "Prune Tracker Tables", Job: "function::trimTracker", Interval: "0::2::1::*::*", Status: "Active", CatchUp: true},
	{Name: "Check Inbound Mailboxes", Job: "function::pollMonitoredInboxesAOP", Interval: "*::*::*::*::*", Status: "Active"},
	{Name: "Run Nightly Process Bounced Campaign Emails", Job: "function::pollMonitoredInboxesForBouncedCampaignEmails", Interval: "0::2-6::*::*::*", Status: "Active", CatchUp: true},
	{Name: "Run Nightly Mass Email Campaigns", Job: "function::runMassEmailCampaign", Interval: "0::2-6::*::*::*", Status: "Active", CatchUp: true},
	{Name: "Prune Database on 1st of Month", Job: "function::pruneDatabase", Interval: "0::4::1::*::*", Status: "Inactive"},
	{Name: "Perform Lucene Index", Job: "function::aodIndexUnindexed", Interval: "0::0::*::*::*", Status: "Active"},
	{Name: "Optimise AOD Index", Job: "function::aodOptimiseIndex", Interval: "0::*/3::*::*::*", Status: "Active"},
	{Name: "Run Email Reminder Notifications", Job: "function::sendEmailReminders", Interval: "*::*::*::*::*", Status: "Active"},
	{Name: "Clean Jobs Queue", Job: "function::cleanJobQueue", Interval: "0::5::*::*::*", Status: "Active", CatchUp: true},
	{Name: "Removal of documents from filesystem", Job: "function::removeDocumentsFromFS", Interval: "0::3::1::*::*", Status: "Active"},
	{Name: "Prune SuiteCRM Feed Tables", Job: "function::trimSugarFeeds", Interval: "0::2::1::*::*", Status: "Active", CatchUp: true},
	{Name: "Google Calendar Sync", Job: "function::syncGoogleCalendar", Interval: "*/15::*::*::*::*", Status: "Active"},
}

// DefaultsSeeder writes the default data of a new installation.
type DefaultsSeeder struct {
	Store  SeedStore
	Config *config.Config
	Now    TimeSource
	Logger *slog.Logger

	// Schedulers overrides DefaultSchedulers when non-nil.
	Schedulers []store.Scheduler
}

// DefaultSettings returns the baseline settings rows for cfg.
func DefaultSettings(cfg *config.Config) []store.Setting {
	return []store.Setting{
		{Category: "notify", Name: "fromaddress", Value: "do_not_reply@example.com"},
		{Category: "notify", Name: "fromname", Value: cfg.Site.SystemName},
		{Category: "notify", Name: "send_by_default", Value: "1"},
		{Category: "notify", Name: "on", Value: "1"},
		{Category: "notify", Name: "send_from_assigning_user", Value: "0"},
		{Category: "mail", Name: "smtpserver", Value: ""},
		{Category: "mail", Name: "smtpport", Value: "25"},
		{Category: "mail", Name: "sendtype", Value: "smtp"},
		{Category: "mail", Name: "smtpuser", Value: ""},
		{Category: "mail", Name: "smtppass", Value: ""},
		{Category: "mail", Name: "smtpauth_req", Value: "0"},
		{Category: "mail", Name: "smtpssl", Value: "0"},
		{Category: "info", Name: "sugar_version", Value: cfg.SchemaVersion},
		{Category: "MySettings", Name: "tab", Value: ""},
		{Category: "portal", Name: "on", Value: "0"},
		{Category: "tracker", Name: "Tracker", Value: "1"},
		{Category: "system", Name: "skypeout_on", Value: "1"},
		{Category: "system", Name: "tsession_timeout", Value: "0"},
	}
}

// SeedDefaultSettings inserts the baseline settings rows. The caller only
// invokes it when the settings table was created in this run.
func (s *DefaultsSeeder) SeedDefaultSettings(ctx context.Context, table string) error {
	rows := DefaultSettings(s.Config)
	if err := s.Store.InsertSettings(ctx, table, rows); err != nil {
		return newError(KindSeedData, table, err)
	}
	loggerOrDefault(s.Logger).Debug("default settings seeded", "table", table, "rows", len(rows))
	return nil
}

// SeedAdminUser creates the administrator when the users table is fresh.
// Otherwise it only resets the administrator's password, which requires
// the account to exist.
func (s *DefaultsSeeder) SeedAdminUser(ctx context.Context, table string, fresh bool) (AdminOutcome, error) {
	now := s.Now()
	if fresh {
		acct := store.AdminAccount{
			UserName: s.Config.Admin.UserName,
			Password: s.Config.Admin.Password,
			LastName: "Administrator",
		}
		if err := s.Store.CreateAdmin(ctx, table, acct, now); err != nil {
			return AdminSkipped, newError(KindSeedData, table, err)
		}
		loggerOrDefault(s.Logger).Debug("admin user created", "table", table, "user", acct.UserName)
		return AdminCreated, nil
	}

	err := s.Store.ResetAdminPassword(ctx, table, s.Config.Admin.Password, now)
	if errors.Is(err, store.ErrAdminNotFound) {
		return AdminSkipped, newError(KindSeedData, table,
			fmt.Errorf("users table exists without an admin account: %w", err))
	}
	if err != nil {
		return AdminSkipped, newError(KindSeedData, table, err)
	}
	loggerOrDefault(s.Logger).Debug("admin password reset", "table", table)
	return AdminPasswordReset, nil
}

// SeedSchedulers replaces the built-in scheduler rows. With no table it
// logs and does nothing. Returns the number of jobs written.
func (s *DefaultsSeeder) SeedSchedulers(ctx context.Context, table string) (int, error) {
	if table == "" {
		loggerOrDefault(s.Logger).Warn("no schedulers table, skipping default schedulers")
		return 0, nil
	}
	jobs := s.Schedulers
	if jobs == nil {
		jobs = DefaultSchedulers
	}
	if err := s.Store.ReplaceSchedulers(ctx, table, jobs, s.Now()); err != nil {
		return 0, newError(KindSeedData, table, err)
	}
	return len(jobs), nil
}

