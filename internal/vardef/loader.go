package vardef

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/isleshocky77/crmsetup/internal/meta"
)

// Layout of a vardef root.
const (
	ModulesDir    = "modules"
	MetadataDir   = "metadata"
	VardefsFile   = "vardefs.cue"
	dictionaryKey = "dictionary"
	relationsKey  = "relationships"
)

// ErrSourceNotFound is returned when a module has no vardef file.
var ErrSourceNotFound = errors.New("vardef source not found")

// LoadMode controls how errors are handled while loading the relationship
// dictionary.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// DefinitionError reports a vardef that compiled but failed validation, or
// did not compile at all.
type DefinitionError struct {
	Source string
	Errors []error
}

func (e *DefinitionError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s: %v", e.Source, e.Errors[0])
	}
	return fmt.Sprintf("%s: %d errors, first: %v", e.Source, len(e.Errors), e.Errors[0])
}

// Unwrap exposes the individual errors to errors.Is/As.
func (e *DefinitionError) Unwrap() []error {
	return e.Errors
}

// ModulePath returns the vardef file for a module directory.
func ModulePath(root, dir string) string {
	return filepath.Join(root, ModulesDir, dir, VardefsFile)
}

// SourceExists reports whether the module has a vardef file.
func SourceExists(root, dir string) bool {
	info, err := os.Stat(ModulePath(root, dir))
	return err == nil && !info.IsDir()
}

// LoadModule compiles and validates the vardef of one module.
// object is the dictionary key inside the file (e.g. "Account").
//
// Returns ErrSourceNotFound (wrapped) when the file is absent and a
// *DefinitionError when it is malformed.
func LoadModule(root, dir, object string) (*meta.TableDef, error) {
	path := ModulePath(root, dir)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrSourceNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read vardef: %w", err)
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, &DefinitionError{Source: path, Errors: []error{formatCUEError(err)}}
	}

	entry := value.LookupPath(cue.MakePath(cue.Str(dictionaryKey), cue.Str(object)))
	if !entry.Exists() {
		return nil, &DefinitionError{Source: path, Errors: []error{&CompileError{
			Field:   dictionaryKey + "." + object,
			Message: "no dictionary entry for object",
		}}}
	}

	def, err := CompileModule(entry)
	if err != nil {
		return nil, &DefinitionError{Source: path, Errors: []error{err}}
	}
	if def.Object == "" {
		def.Object = object
	}

	if verrs := Validate(def); len(verrs) > 0 {
		return nil, &DefinitionError{Source: path, Errors: validationErrors(verrs)}
	}

	return def, nil
}

// LoadRelationships compiles the relationship dictionary under
// <root>/metadata. A missing directory means no relationships.
// The result is sorted by relationship name.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadRelationships(root string, mode LoadMode) ([]meta.RelationshipDef, []error) {
	dir := filepath.Join(root, MetadataDir)

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, []error{fmt.Errorf("error accessing metadata directory: %w", err)}
	}
	if !info.IsDir() {
		return nil, []error{fmt.Errorf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("error scanning directory: %w", err)}
	}
	if len(cueFiles) == 0 {
		return nil, nil
	}

	// Load CUE instances
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{errors.New("no CUE instances loaded")}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{fmt.Errorf("loading CUE files: %w", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	relsVal := value.LookupPath(cue.MakePath(cue.Str(relationsKey)))
	if !relsVal.Exists() {
		return nil, nil
	}

	iter, err := relsVal.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var (
		defs []meta.RelationshipDef
		errs []error
	)
	for iter.Next() {
		name := iter.Label()
		def, err := CompileRelationship(iter.Value())
		if err != nil {
			errs = append(errs, &DefinitionError{Source: relationsKey + "." + name, Errors: []error{err}})
			if mode == LoadModeFailFast {
				return nil, errs
			}
			continue
		}
		if verrs := Validate(def); len(verrs) > 0 {
			errs = append(errs, &DefinitionError{Source: relationsKey + "." + name, Errors: validationErrors(verrs)})
			if mode == LoadModeFailFast {
				return nil, errs
			}
			continue
		}
		defs = append(defs, *def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func validationErrors(verrs []ValidationError) []error {
	errs := make([]error, len(verrs))
	for i, v := range verrs {
		errs[i] = v
	}
	return errs
}
