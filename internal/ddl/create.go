// Package ddl turns schema.TableInfo values into dialect CREATE TABLE text.
//
// The per-dialect packages (internal/storage/<kind>/ddl) provide a Dialect
// with their quoting rules and logical-type table; rendering and the
// nullability rule live here so every dialect emits the same shape:
//
//	CREATE TABLE <qualified name> (
//	  <col1> <TYPE> NULL,
//	  <col2> <TYPE> NOT NULL
//	);
//
// Rendering is deterministic: the same input always yields byte-identical
// text.
package ddl

import (
	"fmt"
	"strings"

	"dbetl/internal/schema"

	"github.com/zeebo/xxh3"
)

// FromTable types every column of t through d.ColumnType. The first
// unsupported column aborts with the dialect's error.
func FromTable(d Dialect, t schema.TableInfo) (TableDef, error) {
	def := TableDef{Schema: t.Schema, Name: t.Name, Columns: make([]ColumnDef, 0, len(t.Columns))}
	for _, c := range t.Columns {
		typ, err := d.ColumnType(c)
		if err != nil {
			return TableDef{}, fmt.Errorf("column %q: %w", c.Name, err)
		}
		def.Columns = append(def.Columns, ColumnDef{
			Name:     c.Name,
			SQLType:  typ,
			Nullable: Nullable(c),
		})
	}
	return def, nil
}

// BuildCreateTableSQL renders t using the dialect's quoting.
//
// Rules:
//   - t.Name must be non-empty.
//   - At least one column is required, each with a non-empty Name and SQLType.
//   - No IF NOT EXISTS guard: creating an existing table is an error the
//     caller surfaces.
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("%s ddl: table name must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, t.Name)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, c.Name)
		}

		var sb strings.Builder
		sb.WriteString(d.Quote(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if c.Nullable {
			sb.WriteString(" NULL")
		} else {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n);",
		d.Qualify(t.Schema, t.Name),
		strings.Join(cols, ",\n  "),
	), nil
}

// Build is FromTable followed by BuildCreateTableSQL.
func Build(d Dialect, t schema.TableInfo) (string, error) {
	def, err := FromTable(d, t)
	if err != nil {
		return "", err
	}
	return BuildCreateTableSQL(d, def)
}

// Fingerprint hashes DDL text so runs can log and compare table shapes
// without printing whole statements.
func Fingerprint(sql string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(sql))
}
