// Package schema holds the portable description of tables and columns that
// flows between sources, mappings and dialect providers. Nothing in this
// package knows about a particular SQL dialect.
//
// Values are treated as immutable once built: a Mapping constructs new
// TableInfo/ColumnInfo values instead of editing the ones it was given, and
// the helpers below copy slices rather than sharing them.
package schema

import (
	"fmt"
	"strings"
)

// ColumnInfo describes one column.
//
// Fields:
//   - Name: column name as the source reports it
//   - DeclaredType: source-dialect native type label (e.g. "varchar", "int4")
//   - Type: portable logical type used by every dialect's type emission
//   - AllowNull: whether the column accepts NULL
//   - Size: character/byte length; nil means unbounded
type ColumnInfo struct {
	Name         string
	DeclaredType string
	Type         LogicalType
	AllowNull    bool
	Size         *int
}

// SizeOf returns a pointer suitable for ColumnInfo.Size.
func SizeOf(n int) *int { return &n }

// WithName returns a copy of c carrying a different name.
func (c ColumnInfo) WithName(name string) ColumnInfo {
	out := c
	out.Name = name
	if c.Size != nil {
		out.Size = SizeOf(*c.Size)
	}
	return out
}

// Bounded reports whether the column has a declared size.
func (c ColumnInfo) Bounded() bool { return c.Size != nil }

// TableInfo identifies a table and lists its columns in ordinal order.
type TableInfo struct {
	Schema  string
	Name    string
	Columns []ColumnInfo
}

// TableKey is the case-insensitive lookup identity of a table.
type TableKey struct {
	Schema string
	Name   string
}

// KeyOf folds schema and name for case-insensitive lookups.
func KeyOf(schemaName, name string) TableKey {
	return TableKey{Schema: strings.ToLower(schemaName), Name: strings.ToLower(name)}
}

// Key returns the case-insensitive identity of t.
func (t TableInfo) Key() TableKey { return KeyOf(t.Schema, t.Name) }

// QualifiedName renders "schema.name", or just the name when the schema is
// empty. It is meant for logs and reports, not for SQL.
func (t TableInfo) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Column finds a column by exact name.
func (t TableInfo) Column(name string) (ColumnInfo, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// Clone returns a deep copy of t.
func (t TableInfo) Clone() TableInfo {
	out := TableInfo{Schema: t.Schema, Name: t.Name}
	if t.Columns != nil {
		out.Columns = make([]ColumnInfo, len(t.Columns))
		for i, c := range t.Columns {
			out.Columns[i] = c.WithName(c.Name)
		}
	}
	return out
}

// ColumnMapping pairs a source column with its optional target column. A nil
// Target drops the column from the target projection.
type ColumnMapping struct {
	Source ColumnInfo
	Target *ColumnInfo
}

// TableMapping pairs a source table with its optional target. A nil Target
// means the table is skipped entirely.
type TableMapping struct {
	Source  TableInfo
	Target  *TableInfo
	Columns []ColumnMapping
}

// Skipped reports whether the table is excluded from migration.
func (m TableMapping) Skipped() bool { return m.Target == nil }

// SourceColumns returns the source columns that have a target, in source
// order. This is the column list of the projected SELECT.
func (m TableMapping) SourceColumns() []ColumnInfo {
	out := make([]ColumnInfo, 0, len(m.Columns))
	for _, cm := range m.Columns {
		if cm.Target != nil {
			out = append(out, cm.Source)
		}
	}
	return out
}

// TargetColumns returns the mapped target columns in source order.
func (m TableMapping) TargetColumns() []ColumnInfo {
	out := make([]ColumnInfo, 0, len(m.Columns))
	for _, cm := range m.Columns {
		if cm.Target != nil {
			out = append(out, *cm.Target)
		}
	}
	return out
}

// TargetTable returns the target table identity carrying only the mapped
// columns. It returns false for a skipped mapping.
func (m TableMapping) TargetTable() (TableInfo, bool) {
	if m.Target == nil {
		return TableInfo{}, false
	}
	return TableInfo{
		Schema:  m.Target.Schema,
		Name:    m.Target.Name,
		Columns: m.TargetColumns(),
	}, true
}

// Validate checks that every mapped source column exists by name in the
// source table.
func (m TableMapping) Validate() error {
	for _, cm := range m.Columns {
		if _, ok := m.Source.Column(cm.Source.Name); !ok {
			return fmt.Errorf("schema: mapping for %s references unknown column %q",
				m.Source.QualifiedName(), cm.Source.Name)
		}
	}
	return nil
}

// DatabaseMapping is an ordered set of table mappings with a case-insensitive
// (schema, name) index.
type DatabaseMapping struct {
	tables []TableMapping
	index  map[TableKey]int
}

// NewDatabaseMapping builds a DatabaseMapping preserving the given order. When
// two mappings share a key, Lookup returns the first.
func NewDatabaseMapping(tables []TableMapping) DatabaseMapping {
	dm := DatabaseMapping{
		tables: append([]TableMapping(nil), tables...),
		index:  make(map[TableKey]int, len(tables)),
	}
	for i, t := range dm.tables {
		k := t.Source.Key()
		if _, dup := dm.index[k]; !dup {
			dm.index[k] = i
		}
	}
	return dm
}

// Tables returns the mappings in order.
func (d DatabaseMapping) Tables() []TableMapping {
	return append([]TableMapping(nil), d.tables...)
}

// Len returns the number of table mappings.
func (d DatabaseMapping) Len() int { return len(d.tables) }

// Lookup finds the mapping for a source table, ignoring case.
func (d DatabaseMapping) Lookup(schemaName, name string) (TableMapping, bool) {
	i, ok := d.index[KeyOf(schemaName, name)]
	if !ok {
		return TableMapping{}, false
	}
	return d.tables[i], true
}
