// Package mapping decides how source tables and columns appear in the target.
//
// A Mapping returns false to exclude a table or column. Column decisions are
// always made against the original source table, so a mapping can be
// table-context-sensitive even after the target table name is chosen.
package mapping

import (
	"path"
	"strings"

	"dbetl/internal/ident"
	"dbetl/internal/schema"
)

// Mapping transforms source tables and columns into target ones. It must not
// have side effects and must not modify its arguments.
type Mapping interface {
	MapTable(src schema.TableInfo) (schema.TableInfo, bool)
	MapColumn(src schema.TableInfo, col schema.ColumnInfo) (schema.ColumnInfo, bool)
}

// Identity maps everything to itself.
type Identity struct{}

func (Identity) MapTable(src schema.TableInfo) (schema.TableInfo, bool) { return src, true }

func (Identity) MapColumn(_ schema.TableInfo, col schema.ColumnInfo) (schema.ColumnInfo, bool) {
	return col, true
}

// Styled renames schemas, tables and columns through an identifier style and
// keeps every other attribute.
type Styled struct {
	Style ident.Style
}

func (m Styled) MapTable(src schema.TableInfo) (schema.TableInfo, bool) {
	return schema.TableInfo{
		Schema:  m.Style.Convert(src.Schema),
		Name:    m.Style.Convert(src.Name),
		Columns: src.Clone().Columns,
	}, true
}

func (m Styled) MapColumn(_ schema.TableInfo, col schema.ColumnInfo) (schema.ColumnInfo, bool) {
	return col.WithName(m.Style.Convert(col.Name)), true
}

// Exclude drops tables and columns matching glob patterns (path.Match syntax,
// compared case-insensitively). Table patterns match either "name" or
// "schema.name"; column patterns match "column" or "table.column".
type Exclude struct {
	Tables  []string
	Columns []string
}

func (m Exclude) MapTable(src schema.TableInfo) (schema.TableInfo, bool) {
	if matchAny(m.Tables, src.Name, src.QualifiedName()) {
		return schema.TableInfo{}, false
	}
	return src, true
}

func (m Exclude) MapColumn(src schema.TableInfo, col schema.ColumnInfo) (schema.ColumnInfo, bool) {
	if matchAny(m.Columns, col.Name, src.Name+"."+col.Name) {
		return schema.ColumnInfo{}, false
	}
	return col, true
}

func matchAny(patterns []string, names ...string) bool {
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		for _, n := range names {
			if ok, err := path.Match(p, strings.ToLower(n)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// Func adapts plain functions to Mapping. A nil function behaves like
// Identity for that half.
type Func struct {
	Table  func(schema.TableInfo) (schema.TableInfo, bool)
	Column func(schema.TableInfo, schema.ColumnInfo) (schema.ColumnInfo, bool)
}

func (f Func) MapTable(src schema.TableInfo) (schema.TableInfo, bool) {
	if f.Table == nil {
		return src, true
	}
	return f.Table(src)
}

func (f Func) MapColumn(src schema.TableInfo, col schema.ColumnInfo) (schema.ColumnInfo, bool) {
	if f.Column == nil {
		return col, true
	}
	return f.Column(src, col)
}

type chain []Mapping

// Chain applies mappings left to right. Each table step sees the previous
// step's output; each column step sees the original source table and the
// previous step's column. The first exclusion wins.
func Chain(ms ...Mapping) Mapping {
	if len(ms) == 1 {
		return ms[0]
	}
	return chain(ms)
}

func (c chain) MapTable(src schema.TableInfo) (schema.TableInfo, bool) {
	cur := src
	for _, m := range c {
		next, ok := m.MapTable(cur)
		if !ok {
			return schema.TableInfo{}, false
		}
		cur = next
	}
	return cur, true
}

func (c chain) MapColumn(src schema.TableInfo, col schema.ColumnInfo) (schema.ColumnInfo, bool) {
	cur := col
	for _, m := range c {
		next, ok := m.MapColumn(src, cur)
		if !ok {
			return schema.ColumnInfo{}, false
		}
		cur = next
	}
	return cur, true
}

// Table resolves the mapping for one source table.
func Table(src schema.TableInfo, m Mapping) schema.TableMapping {
	tm := schema.TableMapping{Source: src}
	target, ok := m.MapTable(src)
	if !ok {
		return tm
	}
	tm.Target = &schema.TableInfo{Schema: target.Schema, Name: target.Name}
	tm.Columns = make([]schema.ColumnMapping, 0, len(src.Columns))
	for _, c := range src.Columns {
		cm := schema.ColumnMapping{Source: c}
		if tc, ok := m.MapColumn(src, c); ok {
			tc := tc
			cm.Target = &tc
		}
		tm.Columns = append(tm.Columns, cm)
	}
	tm.Target.Columns = tm.TargetColumns()
	return tm
}

// Build resolves mappings for every table, preserving order.
func Build(tables []schema.TableInfo, m Mapping) schema.DatabaseMapping {
	out := make([]schema.TableMapping, 0, len(tables))
	for _, t := range tables {
		out = append(out, Table(t, m))
	}
	return schema.NewDatabaseMapping(out)
}
