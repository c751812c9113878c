package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// allTypes returns one column per logical type, alternating sized/unsized and
// nullable/not-null.
func allTypes(sized bool) []ColumnInfo {
	cols := make([]ColumnInfo, 0, len(LogicalTypes))
	for i, lt := range LogicalTypes {
		c := ColumnInfo{
			Name:      "col_" + lt.String(),
			Type:      lt,
			AllowNull: i%2 == 0,
		}
		if sized {
			c.Size = SizeOf(10 + i)
		}
		if i%3 == 0 {
			c.DeclaredType = "native_" + lt.String()
		}
		cols = append(cols, c)
	}
	return cols
}

func TestSerializeParseRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cols []ColumnInfo
	}{
		{name: "all types without size", cols: allTypes(false)},
		{name: "all types with size", cols: allTypes(true)},
		{name: "reserved characters in names", cols: []ColumnInfo{
			{Name: "Unit Price", Type: Decimal, AllowNull: true},
			{Name: `weird,"name":x`, Type: String, Size: SizeOf(0)},
			{Name: " padded ", Type: Int32, DeclaredType: "numeric(10,2)"},
			{Name: "", Type: Guid, DeclaredType: "double precision"},
			{Name: "# not a comment", Type: Binary},
		}},
		{name: "empty", cols: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			text := Serialize(tt.cols)
			got, err := Parse(text)
			if err != nil {
				t.Fatalf("Parse(Serialize(...)) error: %v\ntext:\n%s", err, text)
			}
			if diff := cmp.Diff(tt.cols, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s\ntext:\n%s", diff, text)
			}
		})
	}
}

func TestSerializeOneColumnPerLine(t *testing.T) {
	t.Parallel()

	cols := []ColumnInfo{
		{Name: "Id", Type: Int32, DeclaredType: "int"},
		{Name: "Name", Type: String, AllowNull: true, Size: SizeOf(50), DeclaredType: "varchar"},
	}
	want := "Id:int32@int,\nName:string(50)?@varchar\n"
	if got := Serialize(cols); got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestParseAcceptsLooseInput(t *testing.T) {
	t.Parallel()

	text := `
# generated by analyze
Id : int ,
Name:text(20) ? @ nvarchar,   # trailing comment
Active:BOOL?,
`
	got, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := []ColumnInfo{
		{Name: "Id", Type: Int32},
		{Name: "Name", Type: String, Size: SizeOf(20), AllowNull: true, DeclaredType: "nvarchar"},
		{Name: "Active", Type: Boolean, AllowNull: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		wantLine int
		wantMsg  string
	}{
		{name: "missing colon", text: "Id int32", wantLine: 1, wantMsg: "expected ':'"},
		{name: "unknown type", text: "Id:int32,\nName:varchar", wantLine: 2, wantMsg: "unknown type"},
		{name: "bad size", text: "Name:string(abc)", wantLine: 1, wantMsg: "invalid size"},
		{name: "unterminated size", text: "Name:string(12", wantLine: 1, wantMsg: "unterminated size"},
		{name: "missing comma", text: "A:int32\nB:int32", wantLine: 2, wantMsg: "expected ','"},
		{name: "unterminated quote", text: `"A:int32`, wantLine: 1, wantMsg: "unterminated"},
		{name: "missing type", text: "A:", wantLine: 1, wantMsg: "missing type"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.text)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse(%q) error = %v, want *ParseError", tt.text, err)
			}
			if pe.Line != tt.wantLine {
				t.Fatalf("Parse(%q) line = %d, want %d", tt.text, pe.Line, tt.wantLine)
			}
			if !strings.Contains(pe.Msg, tt.wantMsg) {
				t.Fatalf("Parse(%q) msg = %q, want substring %q", tt.text, pe.Msg, tt.wantMsg)
			}
		})
	}
}

func TestParseLogicalTypeAliases(t *testing.T) {
	t.Parallel()

	tests := map[string]LogicalType{
		"boolean": Boolean, "BOOL": Boolean, "int": Int32, "long": Int64,
		"Text": String, "uuid": Guid, "timestamp": DateTime, "DateTimeOffset": DateTimeOffset,
	}
	for in, want := range tests {
		got, err := ParseLogicalType(in)
		if err != nil {
			t.Fatalf("ParseLogicalType(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLogicalType(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLogicalType("varchar"); err == nil {
		t.Fatalf("ParseLogicalType(varchar) expected error")
	}
}
