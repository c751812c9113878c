package mapping

import (
	"testing"

	"dbetl/internal/ident"
	"dbetl/internal/schema"

	"github.com/google/go-cmp/cmp"
)

func sampleTables() []schema.TableInfo {
	return []schema.TableInfo{
		{Schema: "dbo", Name: "OrderDetails", Columns: []schema.ColumnInfo{
			{Name: "OrderId", DeclaredType: "int", Type: schema.Int32},
			{Name: "UnitPrice", DeclaredType: "money", Type: schema.Decimal, AllowNull: true},
			{Name: "Notes", DeclaredType: "varchar", Type: schema.String, AllowNull: true, Size: schema.SizeOf(400)},
		}},
		{Schema: "dbo", Name: "temp_cache", Columns: []schema.ColumnInfo{
			{Name: "Key", Type: schema.String},
		}},
	}
}

func TestIdentityIsStructuralNoop(t *testing.T) {
	t.Parallel()

	for _, tbl := range sampleTables() {
		got, ok := Identity{}.MapTable(tbl)
		if !ok {
			t.Fatalf("Identity.MapTable(%s) excluded the table", tbl.Name)
		}
		if diff := cmp.Diff(tbl, got); diff != "" {
			t.Fatalf("Identity.MapTable mismatch (-want +got):\n%s", diff)
		}
		for _, c := range tbl.Columns {
			gc, ok := Identity{}.MapColumn(tbl, c)
			if !ok || !cmp.Equal(c, gc) {
				t.Fatalf("Identity.MapColumn(%s) = %+v, %v; want %+v, true", c.Name, gc, ok, c)
			}
		}
	}
}

func TestStyledRenamesAndPreservesAttributes(t *testing.T) {
	t.Parallel()

	src := sampleTables()[0]
	m := Styled{Style: ident.Lower()}

	tbl, ok := m.MapTable(src)
	if !ok || tbl.Schema != "dbo" || tbl.Name != "order_details" {
		t.Fatalf("MapTable() = %s.%s, %v; want dbo.order_details, true", tbl.Schema, tbl.Name, ok)
	}

	col, ok := m.MapColumn(src, src.Columns[2])
	if !ok {
		t.Fatalf("MapColumn() excluded Notes")
	}
	want := schema.ColumnInfo{Name: "notes", DeclaredType: "varchar", Type: schema.String, AllowNull: true, Size: schema.SizeOf(400)}
	if diff := cmp.Diff(want, col); diff != "" {
		t.Fatalf("MapColumn() mismatch (-want +got):\n%s", diff)
	}
	if src.Columns[2].Name != "Notes" {
		t.Fatalf("MapColumn mutated its input: %q", src.Columns[2].Name)
	}
}

func TestExclude(t *testing.T) {
	t.Parallel()

	m := Exclude{Tables: []string{"TEMP_*"}, Columns: []string{"orderdetails.notes"}}
	tables := sampleTables()

	if _, ok := m.MapTable(tables[1]); ok {
		t.Fatalf("MapTable(temp_cache) ok = true, want excluded")
	}
	if _, ok := m.MapTable(tables[0]); !ok {
		t.Fatalf("MapTable(OrderDetails) excluded unexpectedly")
	}
	if _, ok := m.MapColumn(tables[0], tables[0].Columns[2]); ok {
		t.Fatalf("MapColumn(Notes) ok = true, want excluded")
	}
	if _, ok := m.MapColumn(tables[0], tables[0].Columns[0]); !ok {
		t.Fatalf("MapColumn(OrderId) excluded unexpectedly")
	}
}

func TestChainPassesOriginalSourceTable(t *testing.T) {
	t.Parallel()

	var seen []string
	spy := Func{Column: func(src schema.TableInfo, c schema.ColumnInfo) (schema.ColumnInfo, bool) {
		seen = append(seen, src.Name)
		return c, true
	}}
	m := Chain(Styled{Style: ident.Lower()}, spy)

	tm := Table(sampleTables()[0], m)
	if tm.Target == nil || tm.Target.Name != "order_details" {
		t.Fatalf("Target = %+v, want order_details", tm.Target)
	}
	for _, name := range seen {
		if name != "OrderDetails" {
			t.Fatalf("column step saw table %q, want original OrderDetails", name)
		}
	}
	if len(seen) != 3 {
		t.Fatalf("column step called %d times, want 3", len(seen))
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	m := Chain(
		Exclude{Tables: []string{"temp_cache"}, Columns: []string{"UnitPrice"}},
		Styled{Style: ident.Lower()},
	)
	dm := Build(sampleTables(), m)

	if dm.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", dm.Len())
	}
	skipped, ok := dm.Lookup("DBO", "TEMP_CACHE")
	if !ok || !skipped.Skipped() {
		t.Fatalf("temp_cache mapping = %+v, %v; want skipped", skipped, ok)
	}

	details, ok := dm.Lookup("dbo", "orderdetails")
	if !ok || details.Skipped() {
		t.Fatalf("OrderDetails mapping missing or skipped")
	}
	if err := details.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	var names []string
	for _, c := range details.TargetColumns() {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"order_id", "notes"}, names); diff != "" {
		t.Fatalf("target columns mismatch (-want +got):\n%s", diff)
	}
	if got := len(details.Columns); got != 3 {
		t.Fatalf("len(Columns) = %d, want 3 (dropped columns stay in the mapping)", got)
	}
}
