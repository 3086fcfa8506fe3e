package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/isleshocky77/crmsetup/internal/meta"
	"github.com/isleshocky77/crmsetup/internal/vardef"
)

// Skip reasons reported for modules left out of a resolution or passed
// over by the schema installer.
const (
	SkipSourceAbsent = "schema source absent"
	SkipNoTable      = "no physical table"
	SkipDefinition   = "malformed schema definition"
)

// ErrRootNotFound is returned when the vardef root is missing.
var ErrRootNotFound = errors.New("vardef root not found")

// TableMismatchError reports a vardef whose table differs from the one
// the registry declares for the module.
type TableMismatchError struct {
	Module   string
	Declared string
	Vardef   string
}

func (e *TableMismatchError) Error() string {
	return fmt.Sprintf("module %s: registry declares table %q, vardef declares %q",
		e.Module, e.Declared, e.Vardef)
}

// Descriptor is a resolved module: its entry plus access to its compiled
// vardef.
type Descriptor struct {
	Entry

	root string
	def  *meta.TableDef
}

// Loaded reports whether the vardef has been compiled.
func (d *Descriptor) Loaded() bool {
	return d.def != nil
}

// TableName returns the table the module owns.
func (d *Descriptor) TableName() string {
	if d.def != nil && d.def.HasTable() {
		return d.def.Table
	}
	return d.Table
}

// Definition returns the compiled vardef, compiling it on first use.
// Errors are wrapped vardef errors or a *TableMismatchError.
func (d *Descriptor) Definition() (*meta.TableDef, error) {
	if d.def != nil {
		return d.def, nil
	}
	def, err := vardef.LoadModule(d.root, d.Dir, d.object())
	if err != nil {
		return nil, err
	}
	if d.Table != "" && def.HasTable() && def.Table != d.Table {
		return nil, &TableMismatchError{Module: d.ID, Declared: d.Table, Vardef: def.Table}
	}
	d.def = def
	return def, nil
}

// Skip records a module that was left out and why.
type Skip struct {
	Module string `json:"module"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Resolution is the ordered result of Resolve.
type Resolution struct {
	Modules []*Descriptor
	Skipped []Skip
}

// Resolve orders the registry and applies the skip rules against the
// vardef tree rooted at root.
//
// Modules with DefaultInit are compiled here; the rest are only checked
// for a source file and compile later through Descriptor.Definition.
func (r *Registry) Resolve(root string) (*Resolution, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", root, ErrRootNotFound)
		}
		return nil, fmt.Errorf("stat vardef root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vardef root %s is not a directory", root)
	}

	res := &Resolution{}
	for _, e := range r.Ordered() {
		d := &Descriptor{Entry: e, root: root}

		if e.NonStandard {
			res.Modules = append(res.Modules, d)
			continue
		}
		if !vardef.SourceExists(root, e.Dir) {
			res.Skipped = append(res.Skipped, Skip{Module: e.ID, Reason: SkipSourceAbsent})
			continue
		}
		if !e.DefaultInit {
			res.Modules = append(res.Modules, d)
			continue
		}

		def, err := d.Definition()
		if err != nil {
			res.Skipped = append(res.Skipped, Skip{Module: e.ID, Reason: SkipDefinition, Err: err})
			continue
		}
		if !def.HasTable() {
			res.Skipped = append(res.Skipped, Skip{Module: e.ID, Reason: SkipNoTable})
			continue
		}
		res.Modules = append(res.Modules, d)
	}

	return res, nil
}

// Ordered returns the entries in installation order: prioritised entries
// by ascending priority, then the rest in registration order.
func (r *Registry) Ordered() []Entry {
	ordered := r.Entries()
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := ordered[i].Priority, ordered[j].Priority
		switch {
		case pi > 0 && pj > 0:
			return pi < pj
		case pi > 0:
			return true
		default:
			return false
		}
	})
	return ordered
}

// IDs returns the module identifiers of a resolution, in order.
func (res *Resolution) IDs() []string {
	ids := make([]string, len(res.Modules))
	for i, d := range res.Modules {
		ids[i] = d.ID
	}
	return ids
}

// Table returns the resolved table name for a seed role, or "" when no
// resolved module has that role.
func (res *Resolution) Table(role SeedRole) string {
	for _, d := range res.Modules {
		if d.Seeds == role && !d.NonStandard {
			return d.TableName()
		}
	}
	return ""
}
