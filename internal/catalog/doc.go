// Package catalog is the module registry of the installer.
//
// Every installable module is declared once as an Entry: its identifier,
// the directory holding its vardef, the table it owns and a few
// declarative flags (creation priority, eager or deferred compilation,
// non-standard exclusion, seed role). The sequencer never compares module
// names; it asks the registry for a resolved, ordered list of descriptors.
//
// # Ordering
//
// Entries with a positive Priority come first, lowest value first. All
// other entries follow in registration order. Builtin() gives the access
// control, role, relationship and workflow modules priorities 1 to 4
// because later tables carry metadata that depends on them.
//
// # Skips
//
// A module is skipped, never failed, when its vardef file is absent, when
// the vardef declares the does_not_exist table, or when the vardef cannot
// be compiled. Skips are reported in the Resolution.
package catalog
