package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/Masterminds/semver/v3"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/text/unicode/norm"

	"github.com/isleshocky77/crmsetup/internal/meta"
)

// Keys of the configuration map.
const (
	KeyDBName          = "setup_db_database_name"
	KeyDBDataDir       = "setup_db_data_dir"
	KeyDBCreate        = "setup_db_create_database"
	KeyDBDropTables    = "setup_db_drop_tables"
	KeyHost            = "host"
	KeySiteURL         = "setup_site_url"
	KeyAdminUser       = "setup_site_admin_user_name"
	KeyAdminPassword   = "setup_site_admin_password"
	KeySystemName      = "setup_system_name"
	KeySiteGUID        = "setup_site_guid"
	KeyAutomaticChecks = "setup_site_sugarbeet_automatic_checks"
	KeyDateFormat      = "default_date_format"
	KeyTimeFormat      = "default_time_format"
	KeyTimezone        = "default_timezone"
	KeyLanguage        = "default_language"
	KeyNameFormat      = "default_locale_name_format"
	KeyCurrencyName    = "default_currency_name"
	KeyCurrencySymbol  = "default_currency_symbol"
	KeyCurrencyISO     = "default_currency_iso4217"
	KeyVardefs         = "setup_vardefs_dir"
	KeyConfigFile      = "setup_config_file"
	KeyCacheDir        = "cache_dir"
	KeyLogDir          = "setup_site_log_dir"
	KeyLogFile         = "setup_site_log_file"
	KeyLogLevel        = "setup_site_log_level"
	KeyTheme           = "default_theme"
	KeySchemaVersion   = "setup_sugar_version"
	KeyTimeout         = "setup_timeout"
)

// DateFormats are the accepted date formats.
var DateFormats = []string{
	"Y-m-d", "m-d-Y", "d-m-Y", "Y/m/d", "m/d/Y", "d/m/Y", "Y.m.d", "d.m.Y", "m.d.Y",
}

// TimeFormats are the accepted time formats.
var TimeFormats = []string{
	"H:i", "h:ia", "h:iA", "h:i a", "h:i A", "H.i", "h.ia", "h.iA", "h.i a", "h.i A", "H:i:s",
}

var dbNamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

// Database holds database settings.
type Database struct {
	Name       string
	DataDir    string
	Create     bool
	DropTables bool
}

// Site holds site identity settings.
type Site struct {
	URL             string
	Host            string
	SystemName      string
	GUID            string
	AutomaticChecks bool
}

// Admin holds the administrator credentials.
type Admin struct {
	UserName string
	Password string
}

// String hides the password.
func (a Admin) String() string {
	return fmt.Sprintf("{UserName:%s Password:***}", a.UserName)
}

// Locale holds format and language defaults.
type Locale struct {
	DateFormat string
	TimeFormat string
	Timezone   string
	Language   string
	NameFormat string
}

// Currency holds the default currency.
type Currency struct {
	Name    string
	Symbol  string
	ISO4217 string
}

// Paths holds filesystem locations, with ~ expanded.
type Paths struct {
	Vardefs    string
	ConfigFile string
	CacheDir   string
	LogDir     string
}

// Config is the validated installer configuration.
// It is built once by Build and never modified afterwards.
type Config struct {
	Database      Database
	Site          Site
	Admin         Admin
	Locale        Locale
	Currency      Currency
	Paths         Paths
	SchemaVersion string
	Theme         string
	LogFile       string
	LogLevel      string
	Timeout       time.Duration
	Force         bool

	values map[string]string
}

// Value returns a raw configuration value.
func (c *Config) Value(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Values returns a copy of the raw configuration map.
func (c *Config) Values() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Problem is one invalid configuration value.
type Problem struct {
	Key     string
	Message string
}

// Error reports every invalid value found by Build.
type Error struct {
	Problems []Problem
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = fmt.Sprintf("%s: %s", p.Key, p.Message)
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

// Build validates a configuration map and returns the immutable Config.
// force bypasses the installer lock.
func Build(values map[string]string, force bool) (*Config, error) {
	b := &builder{values: values}

	c := &Config{
		Database: Database{
			Name:       b.required(KeyDBName),
			DataDir:    b.path(KeyDBDataDir, true),
			Create:     b.boolean(KeyDBCreate),
			DropTables: b.boolean(KeyDBDropTables),
		},
		Site: Site{
			Host:            b.text(KeyHost),
			SystemName:      b.text(KeySystemName),
			GUID:            b.text(KeySiteGUID),
			AutomaticChecks: b.boolean(KeyAutomaticChecks),
		},
		Admin: Admin{
			UserName: b.required(KeyAdminUser),
			Password: b.required(KeyAdminPassword),
		},
		Locale: Locale{
			DateFormat: b.oneOf(KeyDateFormat, "Y-m-d", DateFormats),
			TimeFormat: b.oneOf(KeyTimeFormat, "H:i", TimeFormats),
			Timezone:   b.timezone(KeyTimezone),
			Language:   b.withDefault(KeyLanguage, "en_us"),
			NameFormat: b.withDefault(KeyNameFormat, "s f l"),
		},
		Currency: Currency{
			Name:    b.withDefault(KeyCurrencyName, "US Dollars"),
			Symbol:  b.withDefault(KeyCurrencySymbol, "$"),
			ISO4217: b.withDefault(KeyCurrencyISO, "USD"),
		},
		Paths: Paths{
			Vardefs:    b.path(KeyVardefs, true),
			ConfigFile: b.path(KeyConfigFile, true),
			CacheDir:   b.path(KeyCacheDir, false),
			LogDir:     b.path(KeyLogDir, false),
		},
		SchemaVersion: b.schemaVersion(KeySchemaVersion),
		Theme:         b.withDefault(KeyTheme, "SuiteP"),
		LogFile:       b.withDefault(KeyLogFile, "suitecrm.log"),
		LogLevel:      b.withDefault(KeyLogLevel, "fatal"),
		Timeout:       b.duration(KeyTimeout),
		Force:         force,
	}
	c.Site.URL = b.siteURL(KeySiteURL)

	if c.Database.Name != "" && !dbNamePattern.MatchString(c.Database.Name) {
		b.fail(KeyDBName, fmt.Sprintf("%q is not a valid database name", c.Database.Name))
	}
	if strings.ContainsAny(c.Currency.ISO4217, " \t") || (c.Currency.ISO4217 != "" && len(c.Currency.ISO4217) != 3) {
		b.fail(KeyCurrencyISO, fmt.Sprintf("%q is not an ISO 4217 code", c.Currency.ISO4217))
	}

	if len(b.problems) > 0 {
		return nil, &Error{Problems: b.problems}
	}

	c.values = make(map[string]string, len(values))
	for k, v := range values {
		c.values[k] = v
	}
	// Normalised values win over raw input.
	c.values[KeyAdminUser] = c.Admin.UserName
	c.values[KeySystemName] = c.Site.SystemName
	c.values[KeySiteURL] = c.Site.URL
	return c, nil
}

type builder struct {
	values   map[string]string
	problems []Problem
}

func (b *builder) fail(key, msg string) {
	b.problems = append(b.problems, Problem{Key: key, Message: msg})
}

// text returns the NFC-normalised, trimmed value.
func (b *builder) text(key string) string {
	return norm.NFC.String(strings.TrimSpace(b.values[key]))
}

func (b *builder) required(key string) string {
	v := b.text(key)
	if v == "" {
		b.fail(key, "is required")
	}
	return v
}

func (b *builder) withDefault(key, def string) string {
	if v := b.text(key); v != "" {
		return v
	}
	return def
}

func (b *builder) boolean(key string) bool {
	v := strings.TrimSpace(b.values[key])
	if v == "" {
		return false
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		b.fail(key, fmt.Sprintf("%q is not a boolean", v))
		return false
	}
	return parsed
}

func (b *builder) oneOf(key, def string, allowed []string) string {
	v := b.withDefault(key, def)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	b.fail(key, fmt.Sprintf("%q is not one of %v", v, allowed))
	return v
}

func (b *builder) timezone(key string) string {
	v := b.withDefault(key, "UTC")
	if _, err := time.LoadLocation(v); err != nil {
		b.fail(key, fmt.Sprintf("unknown timezone %q", v))
	}
	return v
}

func (b *builder) path(key string, required bool) string {
	v := strings.TrimSpace(b.values[key])
	if v == "" {
		if required {
			b.fail(key, "is required")
		}
		return ""
	}
	expanded, err := homedir.Expand(v)
	if err != nil {
		b.fail(key, fmt.Sprintf("cannot expand %q: %v", v, err))
		return v
	}
	return expanded
}

func (b *builder) duration(key string) time.Duration {
	v := strings.TrimSpace(b.values[key])
	if v == "" || v == "0" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		b.fail(key, fmt.Sprintf("%q is not a positive duration", v))
		return 0
	}
	return d
}

// schemaVersion requires a version with the same major as the schema this
// build installs.
func (b *builder) schemaVersion(key string) string {
	v := b.withDefault(key, meta.SchemaVersion)
	ver, err := semver.NewVersion(v)
	if err != nil {
		b.fail(key, fmt.Sprintf("%q is not a version: %v", v, err))
		return v
	}
	current := semver.MustParse(meta.SchemaVersion)
	constraint, err := semver.NewConstraint(fmt.Sprintf("^%d.0.0", current.Major()))
	if err != nil {
		b.fail(key, err.Error())
		return v
	}
	if !constraint.Check(ver) {
		b.fail(key, fmt.Sprintf("version %s is not compatible with schema %s", v, meta.SchemaVersion))
	}
	return ver.String()
}

func (b *builder) siteURL(key string) string {
	v := b.text(key)
	if v == "" {
		b.fail(key, "is required (set the host)")
		return ""
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		b.fail(key, fmt.Sprintf("%q is not an http(s) URL", v))
		return v
	}
	return strings.TrimRight(u.String(), "/")
}
