// Package postgres implements the Postgres provider using pgx v5. Catalog
// reads go through information_schema; loads run CREATE TABLE and a binary
// COPY inside one transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"dbetl/internal/ident"
	"dbetl/internal/rows"
	"dbetl/internal/schema"
	"dbetl/internal/storage"
	pgddl "dbetl/internal/storage/postgres/ddl"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// Kind is the registry name of this backend.
const Kind = pgddl.Kind

// DefaultIgnoredSchemas are never listed by GetTableInfo.
var DefaultIgnoredSchemas = []string{"pg_catalog", "information_schema"}

// maintenanceDB is the database CreateDatabase connects to.
const maintenanceDB = "postgres"

// pgxConn is the subset of *pgx.Conn the provider uses.
type pgxConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	IsClosed() bool
	TypeMap() *pgtype.Map
}

// connect is a test hook; tests replace it to avoid a real server.
var connect = func(ctx context.Context, cc *pgx.ConnConfig) (pgxConn, error) {
	c, err := pgx.ConnectConfig(ctx, cc)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ResolveDSN returns dsn unchanged when it is already a connection string
// (keyword=value or URL form). Otherwise dsn is taken as a database name on
// localhost. Empty user leaves authentication to the server defaults.
func ResolveDSN(dsn, user, password string) string {
	if strings.Contains(dsn, "=") || strings.Contains(dsn, "://") {
		return dsn
	}
	u := url.URL{Scheme: "postgres", Host: "localhost:5432", Path: "/" + dsn}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String()
}

// Provider is the Postgres dialect plus the connection settings for one
// database.
type Provider struct {
	cfg    storage.Config
	dsn    string
	ignore []string
}

var _ storage.Provider = (*Provider)(nil)

// New builds a Provider. It does not connect.
func New(cfg storage.Config) (*Provider, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("postgres: dsn or database name is required")
	}
	p := &Provider{
		cfg:    cfg,
		dsn:    ResolveDSN(cfg.DSN, cfg.User, cfg.Password),
		ignore: DefaultIgnoredSchemas,
	}
	if len(cfg.IgnoreSchemas) > 0 {
		p.ignore = cfg.IgnoreSchemas
	}
	return p, nil
}

func (p *Provider) Kind() string           { return Kind }
func (p *Provider) NameStyle() ident.Style { return ident.Lower() }

func (p *Provider) TypeOf(native string) (schema.LogicalType, error) { return pgddl.TypeOf(native) }
func (p *Provider) ColumnType(c schema.ColumnInfo) (string, error)   { return pgddl.ColumnType(c) }

func (p *Provider) CreateTableSQL(t schema.TableInfo) (string, error) {
	return pgddl.BuildCreateTableSQL(t)
}

func (p *Provider) CreateSchemaSQL(name string) string { return pgddl.CreateSchemaSQL(name) }

func (p *Provider) QuoteIdent(id string) string { return pgddl.QuoteIdent(id) }

// SelectColumn casts columns whose native type pgx would not decode into a
// cursor-readable value.
func (p *Provider) SelectColumn(c schema.ColumnInfo) string {
	if pgddl.TextCast(c.DeclaredType) {
		return pgddl.QuoteIdent(c.Name) + "::text"
	}
	return pgddl.QuoteIdent(c.Name)
}

func (p *Provider) QualifiedName(schemaName, table string) string {
	return pgddl.QualifiedName(schemaName, table)
}

// CreateDatabase connects to the maintenance database of the same server and
// creates name, dropping it first when deleteIfExisting is set.
func (p *Provider) CreateDatabase(ctx context.Context, name string, deleteIfExisting bool) error {
	cc, err := pgx.ParseConfig(p.dsn)
	if err != nil {
		return fmt.Errorf("postgres: parse dsn: %w", err)
	}
	cc.Database = maintenanceDB
	db, err := connect(ctx, cc)
	if err != nil {
		return fmt.Errorf("postgres: connect %s: %w", maintenanceDB, err)
	}
	defer func() { _ = db.Close(context.Background()) }()

	quoted := pgddl.QuoteIdent(name)
	if deleteIfExisting {
		if _, err := db.Exec(ctx, "DROP DATABASE IF EXISTS "+quoted); err != nil {
			p.cfg.Log().Printf("postgres: drop database=%s failed (ignored): %v", name, err)
		}
	}
	if _, err := db.Exec(ctx, "CREATE DATABASE "+quoted); err != nil {
		return fmt.Errorf("postgres: create database %s: %w", name, describe(err))
	}
	return nil
}

// Open connects to the configured database.
func (p *Provider) Open(ctx context.Context) (storage.Conn, error) {
	cc, err := pgx.ParseConfig(p.dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	db, err := connect(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &conn{p: p, db: db}, nil
}

// conn is one live pgx connection.
type conn struct {
	p  *Provider
	db pgxConn
}

// describe adds Detail and SQLSTATE from a server error, which pgx leaves out
// of Error().
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s, sqlstate %s)", err, pgErr.Detail, pgErr.SQLState())
	}
	return err
}

// wrap prefixes op and marks errors after which the connection is unusable.
// Cancellation is reported as is.
func (c *conn) wrap(ctx context.Context, op string, err error) error {
	err = describe(err)
	if ctx.Err() == nil && (storage.IsConnError(err) || c.db.IsClosed()) {
		err = storage.ConnectionLost(err)
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}

const catalogSQL = `
SELECT c.table_schema::text,
       c.table_name::text,
       c.ordinal_position::int,
       c.column_name::text,
       c.udt_name::text,
       c.data_type::text,
       c.is_nullable::text = 'YES',
       c.character_maximum_length::int
FROM information_schema.columns c
JOIN information_schema.tables t
  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
WHERE t.table_type = 'BASE TABLE'
  AND NOT (lower(c.table_schema::text) = ANY($1))`

// GetTableInfo reads every base table in one catalog query. Ordering and
// grouping happen client-side in storage.GroupColumns.
func (c *conn) GetTableInfo(ctx context.Context) ([]schema.TableInfo, error) {
	ignore := make([]string, len(c.p.ignore))
	for i, s := range c.p.ignore {
		ignore[i] = strings.ToLower(s)
	}
	rs, err := c.db.Query(ctx, catalogSQL, ignore)
	if err != nil {
		return nil, c.wrap(ctx, "catalog", err)
	}
	defer rs.Close()

	var out []storage.CatalogRow
	for rs.Next() {
		var (
			r        storage.CatalogRow
			udt      string
			dataType string
			size     *int32
		)
		if err := rs.Scan(&r.Schema, &r.Table, &r.Ordinal, &r.Column.Name, &udt, &dataType, &r.Column.AllowNull, &size); err != nil {
			return nil, c.wrap(ctx, "catalog scan", err)
		}
		// An unmapped type stays on the column; the table fails when it is
		// migrated, not while the catalog is read.
		r.Column.DeclaredType = dataType
		if lt, err := pgddl.TypeOf(udt); err == nil {
			r.Column.Type = lt
		} else {
			r.Column.DeclaredType = udt
		}
		if size != nil {
			r.Column.Size = schema.SizeOf(int(*size))
		}
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		return nil, c.wrap(ctx, "catalog", err)
	}
	return storage.GroupColumns(out), nil
}

// GetSchema describes table through a LIMIT 0 probe. A probe cannot see
// constraints, so every column is reported nullable.
func (c *conn) GetSchema(ctx context.Context, table string) ([]schema.ColumnInfo, error) {
	s, name := storage.SplitQualified(table)
	rs, err := c.db.Query(ctx, "SELECT * FROM "+pgddl.QualifiedName(s, name)+" LIMIT 0")
	if err != nil {
		return nil, c.wrap(ctx, "probe "+table, err)
	}
	fds := rs.FieldDescriptions()
	rs.Close()
	if err := rs.Err(); err != nil {
		return nil, c.wrap(ctx, "probe "+table, err)
	}

	tm := c.db.TypeMap()
	cols := make([]schema.ColumnInfo, 0, len(fds))
	for _, fd := range fds {
		typ, ok := tm.TypeForOID(fd.DataTypeOID)
		if !ok {
			return nil, fmt.Errorf("postgres: column %q: %w", fd.Name,
				&storage.UnsupportedTypeError{Dialect: Kind, Native: fmt.Sprintf("oid %d", fd.DataTypeOID)})
		}
		lt, err := pgddl.TypeOf(typ.Name)
		if err != nil {
			return nil, fmt.Errorf("postgres: column %q: %w", fd.Name, err)
		}
		col := schema.ColumnInfo{Name: fd.Name, DeclaredType: typ.Name, Type: lt, AllowNull: true}
		// varchar(n) and bpchar(n) carry n+4 in the type modifier.
		if lt == schema.String && fd.TypeModifier > 4 {
			col.Size = schema.SizeOf(int(fd.TypeModifier - 4))
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func (c *conn) Query(ctx context.Context, table schema.TableInfo, cols []schema.ColumnInfo) (rows.Cursor, error) {
	q, err := storage.SelectSQL(c.p, table, cols)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", table.QualifiedName(), err)
	}
	rs, err := c.db.Query(ctx, q)
	if err != nil {
		return nil, c.wrap(ctx, "select "+table.QualifiedName(), err)
	}
	return rows.NewPGX(rs, cols)
}

func (c *conn) Ping(ctx context.Context) error {
	if err := c.db.Ping(ctx); err != nil {
		return storage.ConnectionLost(fmt.Errorf("postgres: ping: %w", err))
	}
	return nil
}

func (c *conn) Close() error { return c.db.Close(context.Background()) }
