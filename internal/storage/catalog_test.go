package storage

import (
	"testing"

	"dbetl/internal/schema"
)

func col(name string) schema.ColumnInfo { return schema.ColumnInfo{Name: name, Type: schema.Int32} }

func TestGroupColumns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []CatalogRow
		want map[string][]string
		// order of tables in the result
		order []string
	}{
		{
			name: "sorted input",
			in: []CatalogRow{
				{"dbo", "a", 1, col("a1")}, {"dbo", "a", 2, col("a2")},
				{"dbo", "b", 1, col("b1")},
			},
			order: []string{"dbo.a", "dbo.b"},
			want:  map[string][]string{"dbo.a": {"a1", "a2"}, "dbo.b": {"b1"}},
		},
		{
			name: "interleaved input is not split",
			in: []CatalogRow{
				{"dbo", "b", 2, col("b2")}, {"dbo", "a", 2, col("a2")},
				{"dbo", "b", 1, col("b1")}, {"dbo", "a", 1, col("a1")},
				{"app", "a", 1, col("x1")},
			},
			order: []string{"app.a", "dbo.a", "dbo.b"},
			want:  map[string][]string{"app.a": {"x1"}, "dbo.a": {"a1", "a2"}, "dbo.b": {"b1", "b2"}},
		},
		{name: "empty", in: nil, order: nil, want: map[string][]string{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := GroupColumns(tt.in)
			if len(got) != len(tt.order) {
				t.Fatalf("GroupColumns() returned %d tables, want %d", len(got), len(tt.order))
			}
			seen := map[string]bool{}
			for i, tbl := range got {
				q := tbl.QualifiedName()
				if q != tt.order[i] {
					t.Fatalf("table %d = %s, want %s", i, q, tt.order[i])
				}
				if seen[q] {
					t.Fatalf("table %s appears twice", q)
				}
				seen[q] = true
				want := tt.want[q]
				if len(tbl.Columns) != len(want) {
					t.Fatalf("%s columns = %v, want %v", q, tbl.Columns, want)
				}
				for j, c := range tbl.Columns {
					if c.Name != want[j] {
						t.Fatalf("%s column %d = %s, want %s", q, j, c.Name, want[j])
					}
				}
			}
		})
	}
}

func TestGroupColumnsDoesNotReorderInput(t *testing.T) {
	t.Parallel()

	in := []CatalogRow{{"s", "b", 1, col("b1")}, {"s", "a", 1, col("a1")}}
	GroupColumns(in)
	if in[0].Table != "b" {
		t.Fatalf("GroupColumns sorted its input in place")
	}
}

func TestSplitQualifiedAndIgnored(t *testing.T) {
	t.Parallel()

	if s, n := SplitQualified("dbo.orders"); s != "dbo" || n != "orders" {
		t.Fatalf("SplitQualified = %q, %q", s, n)
	}
	if s, n := SplitQualified("orders"); s != "" || n != "orders" {
		t.Fatalf("SplitQualified = %q, %q", s, n)
	}
	if !Ignored("PG_CATALOG", []string{"pg_catalog"}) || Ignored("public", []string{"pg_catalog"}) {
		t.Fatalf("Ignored mismatch")
	}
}
