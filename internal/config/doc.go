// Package config turns installer defaults and command line values into one
// immutable Config.
//
// The defaults file has three sections. Options in "database" and
// "install" are exposed as flags; their values are copied into a flat
// key/value map under each option's config-key, on top of the static
// "config" section. Build validates that map and returns a *Config that is
// shared read-only by every install stage.
//
// The package also persists the application configuration as TOML and
// reads back its installer_locked flag.
package config
