package migrate

import (
	"context"
	"fmt"
	"strings"

	"dbetl/internal/ident"
	"dbetl/internal/rows"
	"dbetl/internal/schema"
	"dbetl/internal/storage"
)

// fakeProvider hands out one shared fakeConn.
type fakeProvider struct {
	kind    string
	conn    *fakeConn
	openErr error
	created []string
}

func (p *fakeProvider) Kind() string                                 { return p.kind }
func (p *fakeProvider) NameStyle() ident.Style                       { return ident.Default }
func (p *fakeProvider) TypeOf(string) (schema.LogicalType, error)    { return schema.String, nil }
func (p *fakeProvider) ColumnType(schema.ColumnInfo) (string, error) { return "TEXT", nil }
func (p *fakeProvider) CreateSchemaSQL(string) string                { return "" }
func (p *fakeProvider) QuoteIdent(id string) string                  { return `"` + id + `"` }

func (p *fakeProvider) QualifiedName(s, t string) string {
	if s == "" {
		return p.QuoteIdent(t)
	}
	return p.QuoteIdent(s) + "." + p.QuoteIdent(t)
}

func (p *fakeProvider) CreateTableSQL(t schema.TableInfo) (string, error) {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", t.QualifiedName(), strings.Join(names, ", ")), nil
}

func (p *fakeProvider) CreateDatabase(_ context.Context, name string, replace bool) error {
	p.created = append(p.created, fmt.Sprintf("%s replace=%v", name, replace))
	return nil
}

func (p *fakeProvider) Open(context.Context) (storage.Conn, error) {
	if p.openErr != nil {
		return nil, p.openErr
	}
	return p.conn, nil
}

// fakeConn serves tables from memory and records loads.
type fakeConn struct {
	tables     []schema.TableInfo
	data       map[string][][]any // full source rows by qualified name
	catalogErr error
	pingErr    error
	pings      int

	// loadErr fails LoadData for a target table; onLoad runs first.
	loadErr map[string]error
	onLoad  func(ctx context.Context) error
	count   int64 // returned instead of the drained count when non-zero

	queried [][]schema.ColumnInfo
	loads   []schema.TableMapping
	got     map[string][][]string // drained rows as text by target name
	closed  int
}

func (c *fakeConn) GetSchema(context.Context, string) ([]schema.ColumnInfo, error) {
	return nil, nil
}

func (c *fakeConn) GetTableInfo(context.Context) ([]schema.TableInfo, error) {
	return c.tables, c.catalogErr
}

func (c *fakeConn) Query(_ context.Context, t schema.TableInfo, cols []schema.ColumnInfo) (rows.Cursor, error) {
	c.queried = append(c.queried, cols)
	var out [][]any
	for _, full := range c.data[t.QualifiedName()] {
		row := make([]any, len(cols))
		for i, col := range cols {
			for j, tc := range t.Columns {
				if tc.Name == col.Name {
					row[i] = full[j]
				}
			}
		}
		out = append(out, row)
	}
	return rows.NewSlice(cols, out), nil
}

func (c *fakeConn) LoadData(ctx context.Context, m schema.TableMapping, src rows.Cursor) (int64, error) {
	c.loads = append(c.loads, m)
	target, _ := m.TargetTable()
	name := target.QualifiedName()
	if c.onLoad != nil {
		if err := c.onLoad(ctx); err != nil {
			return 0, err
		}
	}
	if err := c.loadErr[name]; err != nil {
		return 0, err
	}
	if c.got == nil {
		c.got = map[string][][]string{}
	}
	var n int64
	for src.Next() {
		rec := make([]string, len(src.Columns()))
		for i := range rec {
			if src.IsNull(i) {
				rec[i] = "<nil>"
				continue
			}
			rec[i], _ = src.String(i)
		}
		c.got[name] = append(c.got[name], rec)
		n++
	}
	if c.count != 0 {
		return c.count, nil
	}
	return n, src.Err()
}

func (c *fakeConn) Ping(context.Context) error { c.pings++; return c.pingErr }
func (c *fakeConn) Close() error               { c.closed++; return nil }

func ordersTable() schema.TableInfo {
	return schema.TableInfo{Schema: "dbo", Name: "Orders", Columns: []schema.ColumnInfo{
		{Name: "OrderId", Type: schema.Int32},
		{Name: "Note", Type: schema.String, AllowNull: true},
		{Name: "Secret", Type: schema.String, AllowNull: true},
	}}
}

func tempCacheTable() schema.TableInfo {
	return schema.TableInfo{Schema: "dbo", Name: "temp_cache", Columns: []schema.ColumnInfo{
		{Name: "k", Type: schema.String},
	}}
}

func newSource(tables ...schema.TableInfo) *fakeConn {
	return &fakeConn{
		tables: tables,
		data: map[string][][]any{
			"dbo.Orders":     {{int32(1), "first", "x"}, {int32(2), nil, "y"}},
			"dbo.temp_cache": {{"a"}},
		},
	}
}
