package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/isleshocky77/crmsetup/internal/meta"
)

const (
	defaultVarcharLength = 255
	defaultDecimalLength = 26
	defaultDecimalScale  = 6
)

// CreateTableSQL returns the statements that create a table and its
// indices. The primary index becomes a table constraint; unique and plain
// indices become CREATE INDEX statements. Foreign and fulltext indices are
// not materialised. Materialised indices may only name stored columns.
func CreateTableSQL(table string, fields []meta.FieldDef, indices []meta.IndexDef) ([]string, error) {
	var cols []string
	stored := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.NonDB {
			continue
		}
		col, err := columnSQL(f)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		cols = append(cols, "\t"+col)
		stored[f.Name] = true
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s: no stored columns", table)
	}

	var stmts []string
	var post []string
	for _, idx := range indices {
		if idx.Type != meta.IndexForeign && idx.Type != meta.IndexFulltext {
			if err := checkIndexColumns(idx, stored); err != nil {
				return nil, fmt.Errorf("table %s: %w", table, err)
			}
		}
		switch idx.Type {
		case meta.IndexPrimary:
			cols = append(cols, fmt.Sprintf("\tCONSTRAINT %s PRIMARY KEY (%s)",
				quoteIdent(idx.Name), quoteList(idx.Fields)))
		case meta.IndexUnique:
			post = append(post, fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)",
				quoteIdent(idx.Name), quoteIdent(table), quoteList(idx.Fields)))
		case meta.IndexPlain, "":
			post = append(post, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				quoteIdent(idx.Name), quoteIdent(table), quoteList(idx.Fields)))
		case meta.IndexForeign, meta.IndexFulltext:
			// not supported by SQLite DDL
		default:
			return nil, fmt.Errorf("table %s: unknown index type %q", table, idx.Type)
		}
	}

	stmts = append(stmts, fmt.Sprintf("CREATE TABLE %s (\n%s\n)",
		quoteIdent(table), strings.Join(cols, ",\n")))
	stmts = append(stmts, post...)
	return stmts, nil
}

func checkIndexColumns(idx meta.IndexDef, stored map[string]bool) error {
	if len(idx.Fields) == 0 {
		return fmt.Errorf("index %s: no columns", idx.Name)
	}
	for _, col := range idx.Fields {
		if !stored[col] {
			return fmt.Errorf("index %s: unknown column %q", idx.Name, col)
		}
	}
	return nil
}

// columnSQL renders one column definition.
func columnSQL(f meta.FieldDef) (string, error) {
	class, ok := meta.ClassOf(f.ColumnType())
	if !ok {
		return "", fmt.Errorf("field %s: unknown type %q", f.Name, f.ColumnType())
	}

	var b strings.Builder
	b.WriteString(quoteIdent(f.Name))
	b.WriteByte(' ')
	b.WriteString(sqlType(class, f))
	if f.Required {
		b.WriteString(" NOT NULL")
	}
	if f.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(defaultLiteral(class, *f.Default))
	}
	return b.String(), nil
}

func sqlType(class meta.TypeClass, f meta.FieldDef) string {
	switch class {
	case meta.ClassID:
		return "CHAR(36)"
	case meta.ClassString:
		n := f.Length
		if n <= 0 {
			n = defaultVarcharLength
		}
		return fmt.Sprintf("VARCHAR(%d)", n)
	case meta.ClassText:
		return "TEXT"
	case meta.ClassInt:
		return "INTEGER"
	case meta.ClassBool:
		return "BOOLEAN"
	case meta.ClassDecimal:
		n, p := f.Length, f.Precision
		if n <= 0 {
			n, p = defaultDecimalLength, defaultDecimalScale
		}
		return fmt.Sprintf("DECIMAL(%d,%d)", n, p)
	case meta.ClassFloat:
		return "DOUBLE"
	case meta.ClassDate:
		return "DATE"
	case meta.ClassDateTime:
		return "DATETIME"
	case meta.ClassTime:
		return "TIME"
	}
	return "TEXT"
}

// defaultLiteral quotes string defaults and leaves numeric ones bare.
func defaultLiteral(class meta.TypeClass, v string) string {
	switch class {
	case meta.ClassInt, meta.ClassBool, meta.ClassDecimal, meta.ClassFloat:
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return v
		}
	}
	return quoteString(v)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
