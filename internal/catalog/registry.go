package catalog

import (
	"errors"
	"fmt"
)

// SeedRole marks tables the defaults seeder writes to.
type SeedRole int

const (
	SeedNone SeedRole = iota
	SeedSettings
	SeedUsers
	SeedUserPreferences
	SeedSchedulers
)

// ParseSeedRole parses the String form of a role. "" is SeedNone.
func ParseSeedRole(s string) (SeedRole, error) {
	switch s {
	case "", "none":
		return SeedNone, nil
	case "settings":
		return SeedSettings, nil
	case "users":
		return SeedUsers, nil
	case "user_preferences":
		return SeedUserPreferences, nil
	case "schedulers":
		return SeedSchedulers, nil
	}
	return SeedNone, fmt.Errorf("unknown seed role %q", s)
}

func (r SeedRole) String() string {
	switch r {
	case SeedSettings:
		return "settings"
	case SeedUsers:
		return "users"
	case SeedUserPreferences:
		return "user_preferences"
	case SeedSchedulers:
		return "schedulers"
	default:
		return "none"
	}
}

// Entry declares one installable module.
type Entry struct {
	// ID is the module identifier, e.g. "Account".
	ID string

	// Object is the vardef dictionary key. Defaults to ID.
	Object string

	// Dir is the module directory under <vardefs>/modules.
	Dir string

	// Table is the expected table name. When empty the vardef decides.
	Table string

	// Priority > 0 places the module ahead of all unprioritised ones.
	Priority int

	// DefaultInit compiles the vardef while resolving. Modules without it
	// are compiled only when the schema installer reaches them.
	DefaultInit bool

	// NonStandard modules are resolved but never get a table.
	NonStandard bool

	Seeds SeedRole
}

func (e Entry) object() string {
	if e.Object != "" {
		return e.Object
	}
	return e.ID
}

// ErrDuplicateModule is returned when an identifier is registered twice.
var ErrDuplicateModule = errors.New("module already registered")

// Registry maps module identifiers to entries, keeping registration order.
// It is built once at startup and read-only afterwards.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds an entry. IDs must be unique and Dir is required.
func (r *Registry) Register(e Entry) error {
	if e.ID == "" {
		return errors.New("module id is required")
	}
	if e.Dir == "" {
		return fmt.Errorf("module %s: dir is required", e.ID)
	}
	if e.Priority < 0 {
		return fmt.Errorf("module %s: priority must not be negative", e.ID)
	}
	if _, ok := r.index[e.ID]; ok {
		return fmt.Errorf("%s: %w", e.ID, ErrDuplicateModule)
	}
	r.index[e.ID] = len(r.entries)
	r.entries = append(r.entries, e)
	return nil
}

// MustRegister is Register for static tables. It panics on error.
func (r *Registry) MustRegister(entries ...Entry) *Registry {
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	return r
}

// Lookup returns the entry for id.
func (r *Registry) Lookup(id string) (Entry, bool) {
	i, ok := r.index[id]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Entries returns a copy of the entries in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.entries)
}
