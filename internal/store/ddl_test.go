package store

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isleshocky77/crmsetup/internal/meta"
)

func renderDDL(t *testing.T, table string, fields []meta.FieldDef, indices []meta.IndexDef) []byte {
	t.Helper()
	stmts, err := CreateTableSQL(table, fields, indices)
	require.NoError(t, err)
	return []byte(strings.Join(stmts, ";\n") + ";\n")
}

func TestCreateTableSQL_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	g.Assert(t, "ddl_accounts", renderDDL(t, "accounts", accountsFields(), accountsIndices()))

	g.Assert(t, "ddl_accounts_contacts", renderDDL(t, "accounts_contacts",
		[]meta.FieldDef{
			{Name: "id", Type: "varchar", Length: 36},
			{Name: "contact_id", Type: "varchar", Length: 36},
			{Name: "account_id", Type: "varchar", Length: 36},
			{Name: "date_modified", Type: "datetime"},
			{Name: "deleted", Type: "bool", Length: 1, Default: def("0")},
		},
		[]meta.IndexDef{
			{Name: "accounts_contactspk", Type: meta.IndexPrimary, Fields: []string{"id"}},
			{Name: "idx_account_contact", Type: meta.IndexPlain, Fields: []string{"account_id", "contact_id"}},
			{Name: "idx_contid_del_accid", Type: meta.IndexPlain, Fields: []string{"contact_id", "deleted", "account_id"}},
		},
	))
}

func TestCreateTableSQL_Errors(t *testing.T) {
	_, err := CreateTableSQL("t", []meta.FieldDef{{Name: "x", Type: "link", NonDB: true}}, nil)
	assert.ErrorContains(t, err, "no stored columns")

	_, err = CreateTableSQL("t", []meta.FieldDef{{Name: "x", Type: "blob"}}, nil)
	assert.ErrorContains(t, err, "unknown type")

	_, err = CreateTableSQL("t", []meta.FieldDef{{Name: "x", Type: "int"}},
		[]meta.IndexDef{{Name: "i", Type: "spatial", Fields: []string{"x"}}})
	assert.ErrorContains(t, err, "unknown index type")
}

func TestCreateTableSQL_IndexColumns(t *testing.T) {
	fields := []meta.FieldDef{
		{Name: "id", Type: "id"},
		{Name: "name", Type: "varchar"},
		{Name: "contacts", Type: "link", NonDB: true},
	}

	tests := []struct {
		name    string
		index   meta.IndexDef
		wantErr string
	}{
		{"misspelled column", meta.IndexDef{Name: "idx_nmae", Type: meta.IndexPlain, Fields: []string{"nmae"}}, `index idx_nmae: unknown column "nmae"`},
		{"non-db column", meta.IndexDef{Name: "idx_contacts", Type: meta.IndexUnique, Fields: []string{"contacts"}}, `unknown column "contacts"`},
		{"primary on missing column", meta.IndexDef{Name: "tpk", Type: meta.IndexPrimary, Fields: []string{"uuid"}}, `unknown column "uuid"`},
		{"no columns", meta.IndexDef{Name: "idx_empty", Type: meta.IndexPlain}, "index idx_empty: no columns"},
		{"foreign index is not checked", meta.IndexDef{Name: "fk_parent", Type: meta.IndexForeign, Fields: []string{"parent_id"}}, ""},
		{"valid", meta.IndexDef{Name: "idx_name", Type: meta.IndexPlain, Fields: []string{"name", "id"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateTableSQL("t", fields, []meta.IndexDef{tt.index})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, "table t: ")
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestColumnSQL_Types(t *testing.T) {
	tests := []struct {
		field meta.FieldDef
		want  string
	}{
		{meta.FieldDef{Name: "a", Type: "id"}, `"a" CHAR(36)`},
		{meta.FieldDef{Name: "a", Type: "enum", Length: 100}, `"a" VARCHAR(100)`},
		{meta.FieldDef{Name: "a", Type: "multienum"}, `"a" TEXT`},
		{meta.FieldDef{Name: "a", Type: "decimal", Length: 10, Precision: 2}, `"a" DECIMAL(10,2)`},
		{meta.FieldDef{Name: "a", Type: "double"}, `"a" DOUBLE`},
		{meta.FieldDef{Name: "a", Type: "date"}, `"a" DATE`},
		{meta.FieldDef{Name: "a", Type: "time"}, `"a" TIME`},
		{meta.FieldDef{Name: "a", Type: "int", Default: def("abc")}, `"a" INTEGER DEFAULT 'abc'`},
		{meta.FieldDef{Name: "a", Type: "varchar", Default: def("")}, `"a" VARCHAR(255) DEFAULT ''`},
	}

	for _, tt := range tests {
		got, err := columnSQL(tt.field)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteIdent("plain"))
	assert.Equal(t, `"we""ird"`, quoteIdent(`we"ird`))
}
