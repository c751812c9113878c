package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ordersTable() TableInfo {
	return TableInfo{
		Schema: "dbo",
		Name:   "Orders",
		Columns: []ColumnInfo{
			{Name: "Id", Type: Int32},
			{Name: "Note", Type: String, AllowNull: true, Size: SizeOf(200)},
			{Name: "Secret", Type: Binary, AllowNull: true},
		},
	}
}

func TestDatabaseMappingLookupIgnoresCase(t *testing.T) {
	t.Parallel()

	src := ordersTable()
	other := TableInfo{Schema: "dbo", Name: "Customers"}
	dm := NewDatabaseMapping([]TableMapping{
		{Source: other},
		{Source: src, Target: &src},
	})

	tests := []struct {
		schema, name string
		wantOK       bool
	}{
		{"dbo", "Orders", true},
		{"DBO", "orders", true},
		{"dbo", "customers", true},
		{"sales", "orders", false},
	}
	for _, tt := range tests {
		_, ok := dm.Lookup(tt.schema, tt.name)
		if ok != tt.wantOK {
			t.Fatalf("Lookup(%q, %q) ok = %v, want %v", tt.schema, tt.name, ok, tt.wantOK)
		}
	}
	if dm.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", dm.Len())
	}
	if got := dm.Tables()[0].Source.Name; got != "Customers" {
		t.Fatalf("Tables()[0] = %q, want insertion order", got)
	}
}

func TestTableMappingProjections(t *testing.T) {
	t.Parallel()

	src := ordersTable()
	id := ColumnInfo{Name: "id", Type: Int32}
	note := ColumnInfo{Name: "note", Type: String, AllowNull: true, Size: SizeOf(200)}
	m := TableMapping{
		Source: src,
		Target: &TableInfo{Schema: "public", Name: "orders"},
		Columns: []ColumnMapping{
			{Source: src.Columns[0], Target: &id},
			{Source: src.Columns[1], Target: &note},
			{Source: src.Columns[2]},
		},
	}

	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if diff := cmp.Diff(src.Columns[:2], m.SourceColumns()); diff != "" {
		t.Fatalf("SourceColumns() mismatch (-want +got):\n%s", diff)
	}
	tt, ok := m.TargetTable()
	if !ok {
		t.Fatalf("TargetTable() ok = false")
	}
	want := TableInfo{Schema: "public", Name: "orders", Columns: []ColumnInfo{id, note}}
	if diff := cmp.Diff(want, tt); diff != "" {
		t.Fatalf("TargetTable() mismatch (-want +got):\n%s", diff)
	}

	m.Columns = append(m.Columns, ColumnMapping{Source: ColumnInfo{Name: "Ghost"}})
	if err := m.Validate(); err == nil {
		t.Fatalf("Validate() expected error for unknown source column")
	}
}

func TestCloneDoesNotShareSize(t *testing.T) {
	t.Parallel()

	src := ordersTable()
	cp := src.Clone()
	*cp.Columns[1].Size = 1
	if *src.Columns[1].Size != 200 {
		t.Fatalf("Clone shares Size pointer with original")
	}
}
