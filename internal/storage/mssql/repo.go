// Package mssql implements the SQL Server provider using go-mssqldb. Loads
// create the table and stream rows through the driver's bulk copy API inside
// one transaction.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"dbetl/internal/ident"
	"dbetl/internal/rows"
	"dbetl/internal/schema"
	"dbetl/internal/storage"
	msddl "dbetl/internal/storage/mssql/ddl"

	"github.com/google/uuid"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

// Kind is the registry name of this backend.
const Kind = msddl.Kind

// DefaultIgnoredSchemas are never listed by GetTableInfo.
var DefaultIgnoredSchemas = []string{"sys", "INFORMATION_SCHEMA"}

const masterDB = "master"

// execer is the part of *sql.DB CreateDatabase needs.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error
}

// openServer and openDB are test hooks.
var (
	openServer = func(cfg msdsn.Config) execer {
		return sql.OpenDB(mssql.NewConnectorConfig(cfg))
	}
	openDB = func(dsn string) (*sql.DB, error) { return sql.Open("sqlserver", dsn) }
)

// ResolveDSN returns dsn unchanged when it is already a connection string.
// Otherwise dsn names a database on localhost; with no user the driver
// falls back to integrated authentication.
func ResolveDSN(dsn, user, password string) string {
	if strings.Contains(dsn, "=") || strings.Contains(dsn, "://") {
		return dsn
	}
	u := url.URL{
		Scheme:   "sqlserver",
		Host:     "localhost",
		RawQuery: url.Values{"database": {dsn}}.Encode(),
	}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String()
}

// Provider is the SQL Server dialect plus connection settings.
type Provider struct {
	cfg    storage.Config
	dsn    string
	ignore []string
}

var _ storage.Provider = (*Provider)(nil)

// New builds a Provider, validating the DSN early to fail fast on obvious
// mistakes. It does not connect.
func New(cfg storage.Config) (*Provider, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("mssql: dsn or database name is required")
	}
	dsn := ResolveDSN(cfg.DSN, cfg.User, cfg.Password)
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	p := &Provider{cfg: cfg, dsn: dsn, ignore: DefaultIgnoredSchemas}
	if len(cfg.IgnoreSchemas) > 0 {
		p.ignore = cfg.IgnoreSchemas
	}
	return p, nil
}

func (p *Provider) Kind() string           { return Kind }
func (p *Provider) NameStyle() ident.Style { return ident.Default }

func (p *Provider) TypeOf(native string) (schema.LogicalType, error) { return msddl.TypeOf(native) }
func (p *Provider) ColumnType(c schema.ColumnInfo) (string, error)   { return msddl.ColumnType(c) }

func (p *Provider) CreateTableSQL(t schema.TableInfo) (string, error) {
	return msddl.BuildCreateTableSQL(t)
}

func (p *Provider) CreateSchemaSQL(name string) string { return msddl.CreateSchemaSQL(name) }

func (p *Provider) QuoteIdent(id string) string { return msddl.QuoteIdent(id) }

func (p *Provider) QualifiedName(schemaName, table string) string {
	return msddl.QualifiedName(schemaName, table)
}

// CreateDatabase connects to master on the same server and creates name,
// dropping an existing database first when deleteIfExisting is set.
func (p *Provider) CreateDatabase(ctx context.Context, name string, deleteIfExisting bool) error {
	cfg, err := msdsn.Parse(p.dsn)
	if err != nil {
		return fmt.Errorf("mssql dsn: %w", err)
	}
	cfg.Database = masterDB
	db := openServer(cfg)
	defer db.Close()

	quoted := msddl.QuoteIdent(name)
	if deleteIfExisting {
		drop := fmt.Sprintf(
			"IF DB_ID(N'%s') IS NOT NULL BEGIN ALTER DATABASE %s SET SINGLE_USER WITH ROLLBACK IMMEDIATE; DROP DATABASE %s; END",
			strings.ReplaceAll(name, "'", "''"), quoted, quoted)
		if _, err := db.ExecContext(ctx, drop); err != nil {
			p.cfg.Log().Printf("mssql: drop database=%s failed (ignored): %v", name, err)
		}
	}
	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+quoted); err != nil {
		return fmt.Errorf("mssql: create database %s: %w", name, describe(err))
	}
	return nil
}

// Open connects and pings the configured database.
func (p *Provider) Open(ctx context.Context) (storage.Conn, error) {
	db, err := openDB(p.dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	return &conn{p: p, db: db}, nil
}

type conn struct {
	p  *Provider
	db *sql.DB
}

// describe adds the server error number to driver errors.
func describe(err error) error {
	var me mssql.Error
	if errors.As(err, &me) {
		return fmt.Errorf("%w (error %d, state %d)", err, me.Number, me.State)
	}
	return err
}

func (c *conn) wrap(ctx context.Context, op string, err error) error {
	err = describe(err)
	if ctx.Err() == nil && storage.IsConnError(err) {
		err = storage.ConnectionLost(err)
	}
	return fmt.Errorf("mssql: %s: %w", op, err)
}

const catalogSQL = `
SELECT c.TABLE_SCHEMA, c.TABLE_NAME, c.ORDINAL_POSITION, c.COLUMN_NAME, c.DATA_TYPE,
       CASE WHEN c.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END,
       c.CHARACTER_MAXIMUM_LENGTH
FROM INFORMATION_SCHEMA.COLUMNS c
JOIN INFORMATION_SCHEMA.TABLES t
  ON t.TABLE_SCHEMA = c.TABLE_SCHEMA AND t.TABLE_NAME = c.TABLE_NAME
WHERE t.TABLE_TYPE = 'BASE TABLE'`

// GetTableInfo reads every base table in one catalog query. Ignored schemas
// are filtered client-side; ordering and grouping happen in
// storage.GroupColumns.
func (c *conn) GetTableInfo(ctx context.Context) ([]schema.TableInfo, error) {
	rs, err := c.db.QueryContext(ctx, catalogSQL)
	if err != nil {
		return nil, c.wrap(ctx, "catalog", err)
	}
	defer rs.Close()

	var out []storage.CatalogRow
	for rs.Next() {
		var (
			r     storage.CatalogRow
			typ   string
			nulls bool
			size  sql.NullInt64
		)
		if err := rs.Scan(&r.Schema, &r.Table, &r.Ordinal, &r.Column.Name, &typ, &nulls, &size); err != nil {
			return nil, c.wrap(ctx, "catalog scan", err)
		}
		if storage.Ignored(r.Schema, c.p.ignore) {
			continue
		}
		// Unmapped types leave Type unset; see storage.Unmapped.
		lt, _ := msddl.TypeOf(typ)
		r.Column.Type = lt
		r.Column.DeclaredType = typ
		r.Column.AllowNull = nulls
		r.Column.Size = columnSize(lt, size)
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		return nil, c.wrap(ctx, "catalog", err)
	}
	return storage.GroupColumns(out), nil
}

// columnSize keeps lengths for strings and binaries only. -1 marks the MAX
// types, which are unbounded.
func columnSize(lt schema.LogicalType, n sql.NullInt64) *int {
	if !n.Valid || n.Int64 < 0 || (lt != schema.String && lt != schema.Binary) {
		return nil
	}
	return schema.SizeOf(int(n.Int64))
}

// unboundedLength is what the driver reports for (MAX) columns.
const unboundedLength = 1 << 30

// GetSchema describes table through a SELECT TOP 0 probe.
func (c *conn) GetSchema(ctx context.Context, table string) ([]schema.ColumnInfo, error) {
	s, name := storage.SplitQualified(table)
	rs, err := c.db.QueryContext(ctx, "SELECT TOP 0 * FROM "+msddl.QualifiedName(s, name))
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
		decl := strings.ToLower(ct.DatabaseTypeName())
		lt, err := msddl.TypeOf(decl)
		if err != nil {
			return nil, fmt.Errorf("mssql: column %q: %w", ct.Name(), err)
		}
		col := schema.ColumnInfo{Name: ct.Name(), DeclaredType: decl, Type: lt, AllowNull: true}
		if nullable, ok := ct.Nullable(); ok {
			col.AllowNull = nullable
		}
		if n, ok := ct.Length(); ok && n < unboundedLength && (lt == schema.String || lt == schema.Binary) {
			col.Size = schema.SizeOf(int(n))
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// decodeValue fixes driver encodings the generic getters cannot know about:
// uniqueidentifier arrives as 16 bytes in SQL Server's mixed-endian order.
func decodeValue(col schema.ColumnInfo, v any) (any, error) {
	if col.Type != schema.Guid {
		return v, nil
	}
	b, ok := v.([]byte)
	if !ok || len(b) != 16 {
		return v, nil
	}
	var u mssql.UniqueIdentifier
	if err := u.Scan(b); err != nil {
		return nil, fmt.Errorf("mssql: column %q: %w", col.Name, err)
	}
	return uuid.UUID(u), nil
}

func (c *conn) Query(ctx context.Context, table schema.TableInfo, cols []schema.ColumnInfo) (rows.Cursor, error) {
	q, err := storage.SelectSQL(c.p, table, cols)
	if err != nil {
		return nil, fmt.Errorf("mssql: %s: %w", table.QualifiedName(), err)
	}
	rs, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, c.wrap(ctx, "select "+table.QualifiedName(), err)
	}
	return rows.NewSQL(rs, cols, rows.WithDecoder(decodeValue))
}

func (c *conn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return storage.ConnectionLost(fmt.Errorf("mssql: ping: %w", err))
	}
	return nil
}

func (c *conn) Close() error { return c.db.Close() }
