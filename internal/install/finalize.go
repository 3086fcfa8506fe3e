package install

import (
	"context"

	"github.com/isleshocky77/crmsetup/internal/config"
	"github.com/isleshocky77/crmsetup/internal/store"
)

// PreferencesCategory is the user preference category written for the
// administrator.
const PreferencesCategory = "global"

// AdminPreferences returns the preferences saved for the administrator.
func AdminPreferences(cfg *config.Config) map[string]any {
	return map[string]any{
		"datef":                  cfg.Locale.DateFormat,
		"timef":                  cfg.Locale.TimeFormat,
		"timezone":               cfg.Locale.Timezone,
		"reminder_checked":       0,
		"email_reminder_checked": 0,
		"reminder_time":          1800,
		"email_reminder_time":    3600,
		"mailmerge_on":           "on",
		"use_real_names":         true,
		"user_theme":             cfg.Theme,
	}
}

// finalizeAdmin flags the administrator and stores its preferences when a
// preferences table exists.
func finalizeAdmin(ctx context.Context, st SeedStore, cfg *config.Config, now TimeSource, usersTable, prefsTable string) error {
	if err := st.SetAdmin(ctx, usersTable, now()); err != nil {
		return newError(KindSeedData, usersTable, err)
	}
	if prefsTable == "" {
		return nil
	}
	err := st.SavePreferences(ctx, prefsTable, store.AdminID, PreferencesCategory, AdminPreferences(cfg), now())
	if err != nil {
		return newError(KindSeedData, prefsTable, err)
	}
	return nil
}
