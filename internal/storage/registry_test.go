package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dbetl/internal/ident"
	"dbetl/internal/schema"
)

type stubProvider struct{ kind string }

func (p stubProvider) Kind() string           { return p.kind }
func (p stubProvider) NameStyle() ident.Style { return ident.Default }
func (p stubProvider) TypeOf(string) (schema.LogicalType, error) {
	return 0, &UnsupportedTypeError{Dialect: p.kind, Native: "x"}
}
func (p stubProvider) ColumnType(schema.ColumnInfo) (string, error)    { return "", nil }
func (p stubProvider) CreateTableSQL(schema.TableInfo) (string, error) { return "", nil }
func (p stubProvider) CreateSchemaSQL(string) string                   { return "" }
func (p stubProvider) QuoteIdent(id string) string                     { return "`" + id + "`" }
func (p stubProvider) QualifiedName(s, t string) string                { return s + "." + t }
func (p stubProvider) CreateDatabase(context.Context, string, bool) error {
	return nil
}
func (p stubProvider) Open(context.Context) (Conn, error) { return nil, errors.New("stub") }

func TestRegistryAliasesAndUnknownKind(t *testing.T) {
	Register("stubdb", func(cfg Config) (Provider, error) {
		return stubProvider{kind: cfg.Kind}, nil
	}, "Stub")

	p, err := New(Config{Kind: "STUB"})
	if err != nil {
		t.Fatalf("New(STUB) error: %v", err)
	}
	if p.Kind() != "stubdb" {
		t.Fatalf("Kind() = %q, want stubdb", p.Kind())
	}

	if k, ok := Canonical(" stub "); !ok || k != "stubdb" {
		t.Fatalf("Canonical(stub) = %q, %v, want stubdb", k, ok)
	}
	if _, ok := Canonical("nope"); ok {
		t.Fatalf("Canonical(nope) ok = true")
	}

	_, err = New(Config{Kind: "nope"})
	if err == nil || !strings.Contains(err.Error(), "stubdb") {
		t.Fatalf("New(nope) error = %v, want unknown kind listing registered kinds", err)
	}
}

func TestSelectSQL(t *testing.T) {
	t.Parallel()

	tbl := schema.TableInfo{Schema: "s", Name: "t"}
	got, err := SelectSQL(stubProvider{}, tbl, []schema.ColumnInfo{{Name: "a"}, {Name: "b"}})
	if err != nil {
		t.Fatalf("SelectSQL error: %v", err)
	}
	if want := "SELECT `a`, `b` FROM s.t"; got != want {
		t.Fatalf("SelectSQL() = %q, want %q", got, want)
	}
	if _, err := SelectSQL(stubProvider{}, tbl, nil); !errors.Is(err, ErrNoColumns) {
		t.Fatalf("SelectSQL(no columns) error = %v, want ErrNoColumns", err)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	cause := errors.New("already exists")
	tce := &TableCreationError{Table: "s.t", Err: cause}
	if !errors.Is(tce, cause) {
		t.Fatalf("TableCreationError does not unwrap")
	}

	lost := ConnectionLost(errors.New("reset by peer"))
	if !errors.Is(lost, ErrConnectionLost) || !IsConnError(lost) {
		t.Fatalf("ConnectionLost not detected: %v", lost)
	}
	if ConnectionLost(nil) != nil {
		t.Fatalf("ConnectionLost(nil) != nil")
	}
	if IsConnError(context.Canceled) {
		t.Fatalf("cancellation treated as connection loss")
	}
}
