package vardef

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/isleshocky77/crmsetup/internal/meta"
)

// CompileModule parses a CUE value into a TableDef.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the dictionary entry itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`dictionary: Account: { table: "accounts", ... }`)
//	def, err := CompileModule(v.LookupPath(cue.ParsePath("dictionary.Account")))
func CompileModule(v cue.Value) (*meta.TableDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &meta.TableDef{Object: lastLabel(v)}

	table, ok, err := lookupString(v, "table")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &CompileError{
			Field:   "table",
			Message: "table is required",
			Pos:     v.Pos(),
		}
	}
	def.Table = table

	// A module without a physical table needs nothing else.
	if table == meta.TableDoesNotExist {
		return def, nil
	}

	def.Fields, err = parseFields(v)
	if err != nil {
		return nil, err
	}
	def.Indices, err = parseIndices(v)
	if err != nil {
		return nil, err
	}
	def.Relationships, err = parseLinks(v)
	if err != nil {
		return nil, err
	}

	return def, nil
}

// CompileRelationship parses a CUE value into a RelationshipDef.
//
// The CUE value should be the dictionary entry itself, e.g.:
//
//	def, err := CompileRelationship(v.LookupPath(cue.ParsePath("relationships.accounts_contacts")))
func CompileRelationship(v cue.Value) (*meta.RelationshipDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &meta.RelationshipDef{Name: lastLabel(v)}

	table, ok, err := lookupString(v, "table")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &CompileError{
			Field:   "table",
			Message: "table is required",
			Pos:     v.Pos(),
		}
	}
	def.Table = table

	// Fields and indices are optional for relationships
	def.Fields, err = parseFields(v)
	if err != nil {
		return nil, err
	}
	def.Indices, err = parseIndices(v)
	if err != nil {
		return nil, err
	}
	def.Links, err = parseLinks(v)
	if err != nil {
		return nil, err
	}

	return def, nil
}

// parseFields extracts field definitions in declaration order.
// Supports:
// - Struct keyed by field name: fields: { id: {type: "id"} }
// - List of structs with a name: fields: [{name: "id", type: "id"}]
func parseFields(v cue.Value) ([]meta.FieldDef, error) {
	fieldsVal := v.LookupPath(cue.MakePath(cue.Str("fields")))
	if !fieldsVal.Exists() {
		return nil, nil
	}

	var fields []meta.FieldDef

	switch fieldsVal.IncompleteKind() {
	case cue.StructKind:
		iter, err := fieldsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			f, err := parseField(iter.Value(), iter.Label())
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
	case cue.ListKind:
		iter, err := fieldsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name, ok, err := lookupString(iter.Value(), "name")
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &CompileError{
					Field:   "fields.name",
					Message: "list fields need a name",
					Pos:     iter.Value().Pos(),
				}
			}
			f, err := parseField(iter.Value(), name)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
	default:
		return nil, &CompileError{
			Field:   "fields",
			Message: "fields must be a struct or a list",
			Pos:     fieldsVal.Pos(),
		}
	}

	return fields, nil
}

// parseField parses a single field definition.
func parseField(v cue.Value, name string) (meta.FieldDef, error) {
	f := meta.FieldDef{Name: name}

	typ, ok, err := lookupString(v, "type")
	if err != nil {
		return f, err
	}
	if !ok {
		return f, &CompileError{
			Field:   "fields." + name + ".type",
			Message: "type is required",
			Pos:     v.Pos(),
		}
	}
	f.Type = typ

	if f.DBType, _, err = lookupString(v, "dbType"); err != nil {
		return f, err
	}
	if f.Length, err = lookupInt(v, "length"); err != nil {
		return f, err
	}
	if f.Precision, err = lookupInt(v, "precision"); err != nil {
		return f, err
	}
	if f.Required, err = lookupBool(v, "required"); err != nil {
		return f, err
	}

	source, _, err := lookupString(v, "source")
	if err != nil {
		return f, err
	}
	f.NonDB = source == "non-db" || meta.NonDBTypes[typ]

	defVal := v.LookupPath(cue.MakePath(cue.Str("default")))
	if defVal.Exists() {
		s, err := scalarString(defVal)
		if err != nil {
			return f, err
		}
		f.Default = s
	}

	return f, nil
}

// parseIndices extracts index definitions (optional).
func parseIndices(v cue.Value) ([]meta.IndexDef, error) {
	indicesVal := v.LookupPath(cue.MakePath(cue.Str("indices")))
	if !indicesVal.Exists() {
		return nil, nil
	}

	iter, err := indicesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var indices []meta.IndexDef
	for iter.Next() {
		iv := iter.Value()
		idx := meta.IndexDef{}

		name, ok, err := lookupString(iv, "name")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &CompileError{
				Field:   "indices.name",
				Message: "index name is required",
				Pos:     iv.Pos(),
			}
		}
		idx.Name = name

		typ, ok, err := lookupString(iv, "type")
		if err != nil {
			return nil, err
		}
		if !ok {
			typ = meta.IndexPlain
		}
		idx.Type = typ

		fieldsVal := iv.LookupPath(cue.MakePath(cue.Str("fields")))
		if fieldsVal.Exists() {
			fieldIter, err := fieldsVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for fieldIter.Next() {
				col, err := fieldIter.Value().String()
				if err != nil {
					return nil, formatCUEError(err)
				}
				idx.Fields = append(idx.Fields, col)
			}
		}

		indices = append(indices, idx)
	}

	return indices, nil
}

// parseLinks extracts relationship metadata links (optional).
func parseLinks(v cue.Value) ([]meta.RelationshipLink, error) {
	relsVal := v.LookupPath(cue.MakePath(cue.Str("relationships")))
	if !relsVal.Exists() {
		return nil, nil
	}

	iter, err := relsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var links []meta.RelationshipLink
	for iter.Next() {
		lv := iter.Value()
		link := meta.RelationshipLink{Name: iter.Label()}

		targets := []struct {
			key string
			dst *string
		}{
			{"lhs_module", &link.LHSModule},
			{"lhs_table", &link.LHSTable},
			{"lhs_key", &link.LHSKey},
			{"rhs_module", &link.RHSModule},
			{"rhs_table", &link.RHSTable},
			{"rhs_key", &link.RHSKey},
			{"join_table", &link.JoinTable},
			{"join_key_lhs", &link.JoinKeyLHS},
			{"join_key_rhs", &link.JoinKeyRHS},
			{"relationship_type", &link.Type},
			{"relationship_role_column", &link.RoleColumn},
			{"relationship_role_column_value", &link.RoleColumnValue},
		}
		for _, t := range targets {
			s, _, err := lookupString(lv, t.key)
			if err != nil {
				return nil, err
			}
			*t.dst = s
		}

		links = append(links, link)
	}

	return links, nil
}

// lastLabel returns the final selector of the value's path, unquoted.
func lastLabel(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	sel := sels[len(sels)-1]
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

func lookupString(v cue.Value, key string) (string, bool, error) {
	fv := v.LookupPath(cue.MakePath(cue.Str(key)))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", false, &CompileError{
			Field:   key,
			Message: fmt.Sprintf("must be a string: %v", err),
			Pos:     fv.Pos(),
		}
	}
	return s, true, nil
}

func lookupInt(v cue.Value, key string) (int, error) {
	fv := v.LookupPath(cue.MakePath(cue.Str(key)))
	if !fv.Exists() {
		return 0, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, &CompileError{
			Field:   key,
			Message: fmt.Sprintf("must be an integer: %v", err),
			Pos:     fv.Pos(),
		}
	}
	return int(n), nil
}

func lookupBool(v cue.Value, key string) (bool, error) {
	fv := v.LookupPath(cue.MakePath(cue.Str(key)))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, &CompileError{
			Field:   key,
			Message: fmt.Sprintf("must be a bool: %v", err),
			Pos:     fv.Pos(),
		}
	}
	return b, nil
}

// scalarString renders a default value as the string stored in DDL.
// null means "no default".
func scalarString(v cue.Value) (*string, error) {
	var s string
	switch v.IncompleteKind() {
	case cue.NullKind:
		return nil, nil
	case cue.StringKind:
		str, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		s = str
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		s = strconv.FormatInt(n, 10)
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		s = "0"
		if b {
			s = "1"
		}
	default:
		return nil, &CompileError{
			Field:   "default",
			Message: fmt.Sprintf("unsupported default kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
	return &s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
