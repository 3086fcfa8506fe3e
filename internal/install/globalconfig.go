package install

import (
	"path/filepath"

	"github.com/google/uuid"

	"github.com/isleshocky77/crmsetup/internal/config"
	"github.com/isleshocky77/crmsetup/internal/meta"
)

// GlobalConfig returns the application configuration persisted at the end
// of DefaultsSeeded. uniqueKey is used when the site GUID is empty; when
// both are empty a UUID is generated.
func GlobalConfig(cfg *config.Config, uniqueKey string) map[string]any {
	if cfg.Site.GUID != "" {
		uniqueKey = cfg.Site.GUID
	}
	if uniqueKey == "" {
		uniqueKey = uuid.NewString()
	}

	return map[string]any{
		"dbconfig": map[string]any{
			"db_type": "sqlite",
			"db_name": cfg.Database.Name,
			"db_dir":  cfg.Database.DataDir,
		},
		"site_url":                   cfg.Site.URL,
		"host_name":                  cfg.Site.Host,
		"unique_key":                 uniqueKey,
		"default_date_format":        cfg.Locale.DateFormat,
		"default_time_format":        cfg.Locale.TimeFormat,
		"default_language":           cfg.Locale.Language,
		"default_locale_name_format": cfg.Locale.NameFormat,
		"default_currency_name":      cfg.Currency.Name,
		"default_currency_symbol":    cfg.Currency.Symbol,
		"default_currency_iso4217":   cfg.Currency.ISO4217,
		"default_theme":              cfg.Theme,
		"cache_dir":                  cfg.Paths.CacheDir,
		"log_dir":                    cfg.Paths.LogDir,
		"logger": map[string]any{
			"file":  filepath.Join(cfg.Paths.LogDir, cfg.LogFile),
			"level": cfg.LogLevel,
		},
		"sugar_version":    cfg.SchemaVersion,
		"suitecrm_version": meta.AppVersion,
		config.LockKey:     true,
	}
}
