package meta

// TableDoesNotExist is the vardef table sentinel for modules without a
// physical table.
const TableDoesNotExist = "does_not_exist"

// FieldDef is one column of a module or relationship table.
type FieldDef struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	DBType    string  `json:"db_type,omitempty"`
	Length    int     `json:"length,omitempty"`
	Precision int     `json:"precision,omitempty"`
	Required  bool    `json:"required,omitempty"`
	Default   *string `json:"default,omitempty"`
	NonDB     bool    `json:"non_db,omitempty"` // source: "non-db", never a column
}

// ColumnType returns the storage type: DBType when set, otherwise Type.
func (f FieldDef) ColumnType() string {
	if f.DBType != "" {
		return f.DBType
	}
	return f.Type
}

// IndexDef is an index declared in a vardef.
type IndexDef struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"` // "primary", "unique", "index", "foreign", "fulltext"
	Fields []string `json:"fields"`
}

// Index types understood by the DDL generator.
const (
	IndexPrimary  = "primary"
	IndexUnique   = "unique"
	IndexPlain    = "index"
	IndexForeign  = "foreign"
	IndexFulltext = "fulltext"
)

// ValidIndexTypes defines allowed index types.
var ValidIndexTypes = map[string]bool{
	IndexPrimary:  true,
	IndexUnique:   true,
	IndexPlain:    true,
	IndexForeign:  true,
	IndexFulltext: true,
}

// RelationshipLink is one row of relationship metadata: how two modules
// join, either directly or through a join table.
type RelationshipLink struct {
	Name            string `json:"name"`
	LHSModule       string `json:"lhs_module"`
	LHSTable        string `json:"lhs_table"`
	LHSKey          string `json:"lhs_key"`
	RHSModule       string `json:"rhs_module"`
	RHSTable        string `json:"rhs_table"`
	RHSKey          string `json:"rhs_key"`
	JoinTable       string `json:"join_table,omitempty"`
	JoinKeyLHS      string `json:"join_key_lhs,omitempty"`
	JoinKeyRHS      string `json:"join_key_rhs,omitempty"`
	Type            string `json:"relationship_type"`
	RoleColumn      string `json:"relationship_role_column,omitempty"`
	RoleColumnValue string `json:"relationship_role_column_value,omitempty"`
}

// Relationship types.
const (
	OneToOne   = "one-to-one"
	OneToMany  = "one-to-many"
	ManyToMany = "many-to-many"
)

// ValidRelationshipTypes defines allowed relationship types.
var ValidRelationshipTypes = map[string]bool{
	OneToOne:   true,
	OneToMany:  true,
	ManyToMany: true,
}

// TableDef is a compiled module vardef.
type TableDef struct {
	Object        string             `json:"object"`
	Table         string             `json:"table"`
	Fields        []FieldDef         `json:"fields"`
	Indices       []IndexDef         `json:"indices,omitempty"`
	Relationships []RelationshipLink `json:"relationships,omitempty"`
}

// HasTable reports whether the vardef describes a physical table.
func (d *TableDef) HasTable() bool {
	return d.Table != "" && d.Table != TableDoesNotExist
}

// Columns returns the fields that are stored, in declaration order.
func (d *TableDef) Columns() []FieldDef {
	return storedFields(d.Fields)
}

// RelationshipDef is one entry of the relationship dictionary: a join table
// plus the metadata links that use it.
type RelationshipDef struct {
	Name    string             `json:"name"`
	Table   string             `json:"table"`
	Fields  []FieldDef         `json:"fields"`
	Indices []IndexDef         `json:"indices,omitempty"`
	Links   []RelationshipLink `json:"relationships,omitempty"`
}

// Columns returns the fields that are stored, in declaration order.
func (d *RelationshipDef) Columns() []FieldDef {
	return storedFields(d.Fields)
}

func storedFields(fields []FieldDef) []FieldDef {
	cols := make([]FieldDef, 0, len(fields))
	for _, f := range fields {
		if f.NonDB {
			continue
		}
		cols = append(cols, f)
	}
	return cols
}
