package storage

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"dbetl/internal/schema"
)

// CatalogRow is one column row read from a catalog view. A column whose
// native type has no logical equivalent keeps the zero Type and its native
// name in DeclaredType; see Unmapped.
type CatalogRow struct {
	Schema  string
	Table   string
	Ordinal int
	Column  schema.ColumnInfo
}

// GroupColumns folds catalog rows into tables in one pass. Rows are first
// stable-sorted by (schema, table, ordinal) so a catalog without an ordering
// guarantee can never split one table's columns across two TableInfo values.
func GroupColumns(in []CatalogRow) []schema.TableInfo {
	rs := slices.Clone(in)
	slices.SortStableFunc(rs, func(a, b CatalogRow) int {
		if c := cmp.Compare(a.Schema, b.Schema); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Table, b.Table); c != 0 {
			return c
		}
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})

	var (
		out []schema.TableInfo
		cur *schema.TableInfo
	)
	for _, r := range rs {
		if cur == nil || cur.Schema != r.Schema || cur.Name != r.Table {
			if cur != nil {
				out = append(out, *cur)
			}
			cur = &schema.TableInfo{Schema: r.Schema, Name: r.Table}
		}
		cur.Columns = append(cur.Columns, r.Column)
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

// Unmapped returns an *UnsupportedTypeError for the first column whose native
// type had no logical equivalent when dialect's catalog was read, or nil.
func Unmapped(dialect string, cols []schema.ColumnInfo) error {
	for _, c := range cols {
		if !c.Type.Valid() {
			return fmt.Errorf("column %s: %w", c.Name,
				&UnsupportedTypeError{Dialect: dialect, Native: c.DeclaredType})
		}
	}
	return nil
}

// Ignored reports whether schemaName is in the ignore list (case-insensitive).
func Ignored(schemaName string, ignore []string) bool {
	for _, s := range ignore {
		if strings.EqualFold(s, schemaName) {
			return true
		}
	}
	return false
}

// SplitQualified splits "schema.table" at the first dot. A name without a dot
// returns an empty schema.
func SplitQualified(name string) (schemaName, table string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
