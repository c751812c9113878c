// Package sqlite implements the embedded-database provider on
// modernc.org/sqlite via database/sql. SQLite has no bulk-load API; loads run
// a prepared INSERT inside one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dbetl/internal/ident"
	"dbetl/internal/rows"
	"dbetl/internal/schema"
	"dbetl/internal/storage"
	sqddl "dbetl/internal/storage/sqlite/ddl"

	_ "modernc.org/sqlite"
)

// Kind is the registry name of this backend.
const Kind = sqddl.Kind

const driverName = "sqlite"

// ResolveDSN turns a bare database name into a file name with a .db
// extension. Paths with an extension, file: URIs and :memory: pass through.
func ResolveDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || filepath.Ext(dsn) != "" {
		return dsn
	}
	return dsn + ".db"
}

// filePath extracts the file a DSN refers to, or "" for in-memory databases.
func filePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == ":memory:" || p == "" {
		return ""
	}
	return p
}

// Provider is the SQLite dialect bound to one database file.
type Provider struct {
	cfg storage.Config
	dsn string
}

var _ storage.Provider = (*Provider)(nil)

// New builds a Provider. It does not open the file.
func New(cfg storage.Config) (*Provider, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("sqlite: DSN must not be empty")
	}
	return &Provider{cfg: cfg, dsn: ResolveDSN(cfg.DSN)}, nil
}

func (p *Provider) Kind() string           { return Kind }
func (p *Provider) NameStyle() ident.Style { return ident.Default }

func (p *Provider) TypeOf(native string) (schema.LogicalType, error) { return sqddl.TypeOf(native) }
func (p *Provider) ColumnType(c schema.ColumnInfo) (string, error)   { return sqddl.ColumnType(c) }

func (p *Provider) CreateTableSQL(t schema.TableInfo) (string, error) {
	return sqddl.BuildCreateTableSQL(t)
}

// CreateSchemaSQL returns "": schemas are folded into table names.
func (p *Provider) CreateSchemaSQL(string) string { return "" }

func (p *Provider) QuoteIdent(id string) string { return sqddl.QuoteIdent(id) }

func (p *Provider) QualifiedName(schemaName, table string) string {
	return sqddl.QualifiedName(schemaName, table)
}

// CreateDatabase creates the database file. With deleteIfExisting an
// existing file is removed first; removal failures are logged and ignored.
// name overrides the configured DSN when non-empty.
func (p *Provider) CreateDatabase(ctx context.Context, name string, deleteIfExisting bool) error {
	dsn := p.dsn
	if name != "" {
		dsn = ResolveDSN(name)
	}
	if path := filePath(dsn); path != "" && deleteIfExisting {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.cfg.Log().Printf("sqlite: remove file=%s failed (ignored): %v", path, err)
		}
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("sqlite: create %s: %w", dsn, err)
	}
	defer db.Close()
	// The file is created on first connect.
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: create %s: %w", dsn, err)
	}
	return nil
}

// Open opens the database with a single connection, so :memory: databases
// behave like one database for the lifetime of the Conn.
func (p *Provider) Open(ctx context.Context) (storage.Conn, error) {
	db, err := sql.Open(driverName, p.dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &conn{p: p, db: db}, nil
}

type conn struct {
	p  *Provider
	db *sql.DB
}

func (c *conn) wrap(ctx context.Context, op string, err error) error {
	if ctx.Err() == nil && storage.IsConnError(err) {
		err = storage.ConnectionLost(err)
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}

const catalogSQL = `
SELECT m.name, p.cid, p.name, p.type, p."notnull"
FROM sqlite_master m
JOIN pragma_table_info(m.name) p
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'`

// GetTableInfo lists user tables from sqlite_master, all in schema "main".
func (c *conn) GetTableInfo(ctx context.Context) ([]schema.TableInfo, error) {
	rs, err := c.db.QueryContext(ctx, catalogSQL)
	if err != nil {
		return nil, c.wrap(ctx, "catalog", err)
	}
	defer rs.Close()

	var out []storage.CatalogRow
	for rs.Next() {
		var (
			r       = storage.CatalogRow{Schema: sqddl.MainSchema}
			decl    string
			notNull bool
		)
		if err := rs.Scan(&r.Table, &r.Ordinal, &r.Column.Name, &decl, &notNull); err != nil {
			return nil, c.wrap(ctx, "catalog scan", err)
		}
		lt, _ := sqddl.TypeOf(decl)
		r.Column.Type = lt
		r.Column.DeclaredType = decl
		r.Column.AllowNull = !notNull
		r.Column.Size = sqddl.SizeOf(decl)
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		return nil, c.wrap(ctx, "catalog", err)
	}
	return storage.GroupColumns(out), nil
}

// GetSchema describes table through a WHERE 1=0 probe using the declared
// column types.
func (c *conn) GetSchema(ctx context.Context, table string) ([]schema.ColumnInfo, error) {
	s, name := storage.SplitQualified(table)
	rs, err := c.db.QueryContext(ctx, "SELECT * FROM "+sqddl.QualifiedName(s, name)+" WHERE 1=0")
	if err != nil {
		return nil, c.wrap(ctx, "probe "+table, err)
	}
	defer rs.Close()

	cts, err := rs.ColumnTypes()
	if err != nil {
		return nil, c.wrap(ctx, "probe "+table, err)
	}
	cols := make([]schema.ColumnInfo, 0, len(cts))
	for _, ct := range cts {
		decl := ct.DatabaseTypeName()
		lt, err := sqddl.TypeOf(decl)
		if err != nil {
			return nil, fmt.Errorf("sqlite: column %q: %w", ct.Name(), err)
		}
		col := schema.ColumnInfo{Name: ct.Name(), DeclaredType: decl, Type: lt, AllowNull: true}
		if nullable, ok := ct.Nullable(); ok {
			col.AllowNull = nullable
		}
		col.Size = sqddl.SizeOf(decl)
		cols = append(cols, col)
	}
	return cols, nil
}

func (c *conn) Query(ctx context.Context, table schema.TableInfo, cols []schema.ColumnInfo) (rows.Cursor, error) {
	q, err := storage.SelectSQL(c.p, table, cols)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", table.QualifiedName(), err)
	}
	rs, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, c.wrap(ctx, "select "+table.QualifiedName(), err)
	}
	return rows.NewSQL(rs, cols)
}

func (c *conn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return storage.ConnectionLost(fmt.Errorf("sqlite: ping: %w", err))
	}
	return nil
}

func (c *conn) Close() error { return c.db.Close() }
