package vardef

import (
	"fmt"
	"regexp"

	"github.com/isleshocky77/crmsetup/internal/meta"
)

// Validation error codes (E200-E299)
const (
	// General validation errors (E200)
	ErrUnsupportedType = "E200" // unsupported definition type for validation

	// Table errors (E201-E209)
	ErrTableMissing      = "E201" // table name is required
	ErrInvalidIdentifier = "E202" // table/field/index name is not a plain identifier
	ErrNoColumns         = "E203" // at least one stored field required
	ErrUnknownFieldType  = "E204" // field type has no storage class
	ErrDuplicateField    = "E205" // duplicate field name

	// Index errors (E210-E219)
	ErrInvalidIndexType  = "E210" // unknown index type
	ErrIndexUnknownField = "E211" // index references a missing column
	ErrDuplicateIndex    = "E212" // duplicate index name
	ErrMultiplePrimary   = "E213" // more than one primary index
	ErrIndexNoFields     = "E214" // index without fields

	// Relationship link errors (E220-E229)
	ErrInvalidLinkType = "E220" // unknown relationship type
	ErrLinkMissingSide = "E221" // lhs/rhs module, table or key missing
	ErrLinkJoinKeys    = "E222" // many-to-many without join table and keys
)

// identPattern matches names that can be used unquoted in DDL.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a compiled definition against the schema rules.
// Returns all errors found (does not fail-fast).
// Supports TableDef and RelationshipDef.
func Validate(v any) []ValidationError {
	switch def := v.(type) {
	case *meta.TableDef:
		return validateTable(def)
	case meta.TableDef:
		return validateTable(&def)
	case *meta.RelationshipDef:
		return validateRelationship(def)
	case meta.RelationshipDef:
		return validateRelationship(&def)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported definition type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateTable(def *meta.TableDef) []ValidationError {
	var errs []ValidationError

	if def.Table == "" {
		errs = append(errs, ValidationError{
			Field:   "table",
			Message: "table is required",
			Code:    ErrTableMissing,
		})
		return errs
	}
	if !def.HasTable() {
		return nil
	}

	errs = append(errs, validateColumns(def.Table, def.Fields, def.Indices)...)
	errs = append(errs, validateLinks(def.Relationships)...)
	return errs
}

func validateRelationship(def *meta.RelationshipDef) []ValidationError {
	var errs []ValidationError

	if def.Table == "" {
		errs = append(errs, ValidationError{
			Field:   "table",
			Message: "table is required",
			Code:    ErrTableMissing,
		})
		return errs
	}

	errs = append(errs, validateColumns(def.Table, def.Fields, def.Indices)...)
	errs = append(errs, validateLinks(def.Links)...)
	return errs
}

// validateColumns checks identifiers, field types and index references.
func validateColumns(table string, fields []meta.FieldDef, indices []meta.IndexDef) []ValidationError {
	var errs []ValidationError

	if !identPattern.MatchString(table) {
		errs = append(errs, ValidationError{
			Field:   "table",
			Message: fmt.Sprintf("%q is not a valid identifier", table),
			Code:    ErrInvalidIdentifier,
		})
	}

	stored := make(map[string]bool)
	seen := make(map[string]bool)
	for _, f := range fields {
		path := "fields." + f.Name
		if seen[f.Name] {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: "duplicate field name",
				Code:    ErrDuplicateField,
			})
			continue
		}
		seen[f.Name] = true

		if f.NonDB {
			continue
		}
		if !identPattern.MatchString(f.Name) {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("%q is not a valid identifier", f.Name),
				Code:    ErrInvalidIdentifier,
			})
		}
		if _, ok := meta.ClassOf(f.ColumnType()); !ok {
			errs = append(errs, ValidationError{
				Field:   path + ".type",
				Message: fmt.Sprintf("unknown field type %q", f.ColumnType()),
				Code:    ErrUnknownFieldType,
			})
		}
		stored[f.Name] = true
	}

	if len(stored) == 0 {
		errs = append(errs, ValidationError{
			Field:   "fields",
			Message: "at least one stored field is required",
			Code:    ErrNoColumns,
		})
	}

	indexNames := make(map[string]bool)
	primaries := 0
	for _, idx := range indices {
		path := "indices." + idx.Name
		if indexNames[idx.Name] {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: "duplicate index name",
				Code:    ErrDuplicateIndex,
			})
		}
		indexNames[idx.Name] = true

		if !identPattern.MatchString(idx.Name) {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("%q is not a valid identifier", idx.Name),
				Code:    ErrInvalidIdentifier,
			})
		}
		if !meta.ValidIndexTypes[idx.Type] {
			errs = append(errs, ValidationError{
				Field:   path + ".type",
				Message: fmt.Sprintf("unknown index type %q", idx.Type),
				Code:    ErrInvalidIndexType,
			})
		}
		if idx.Type == meta.IndexPrimary {
			primaries++
		}
		if len(idx.Fields) == 0 {
			errs = append(errs, ValidationError{
				Field:   path + ".fields",
				Message: "index needs at least one field",
				Code:    ErrIndexNoFields,
			})
		}
		// Foreign and fulltext indices are not materialised, so their
		// columns are not checked.
		if idx.Type == meta.IndexForeign || idx.Type == meta.IndexFulltext {
			continue
		}
		for _, col := range idx.Fields {
			if !stored[col] {
				errs = append(errs, ValidationError{
					Field:   path + ".fields",
					Message: fmt.Sprintf("unknown column %q", col),
					Code:    ErrIndexUnknownField,
				})
			}
		}
	}

	if primaries > 1 {
		errs = append(errs, ValidationError{
			Field:   "indices",
			Message: fmt.Sprintf("%d primary indices declared, at most one allowed", primaries),
			Code:    ErrMultiplePrimary,
		})
	}

	return errs
}

func validateLinks(links []meta.RelationshipLink) []ValidationError {
	var errs []ValidationError

	for _, link := range links {
		path := "relationships." + link.Name
		if !meta.ValidRelationshipTypes[link.Type] {
			errs = append(errs, ValidationError{
				Field:   path + ".relationship_type",
				Message: fmt.Sprintf("unknown relationship type %q", link.Type),
				Code:    ErrInvalidLinkType,
			})
		}
		if link.LHSModule == "" || link.LHSTable == "" || link.LHSKey == "" ||
			link.RHSModule == "" || link.RHSTable == "" || link.RHSKey == "" {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: "lhs and rhs module, table and key are required",
				Code:    ErrLinkMissingSide,
			})
		}
		if link.Type == meta.ManyToMany &&
			(link.JoinTable == "" || link.JoinKeyLHS == "" || link.JoinKeyRHS == "") {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: "many-to-many needs join_table, join_key_lhs and join_key_rhs",
				Code:    ErrLinkJoinKeys,
			})
		}
	}

	return errs
}
