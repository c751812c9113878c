// Package storage contains the dialect-agnostic contracts every database
// backend implements, plus the pieces they share: the kind registry, the
// error taxonomy, catalog grouping and the batched row loader.
//
// Backends (postgres, mssql, sqlite) register a Factory at init time; callers
// obtain a Provider via New without importing the backend packages directly.
// Import internal/storage/all to enable every built-in backend.
package storage

import (
	"context"
	"log"

	"dbetl/internal/ident"
	"dbetl/internal/rows"
	"dbetl/internal/schema"
)

// DefaultBatchSize is the number of rows between cancellation checks and
// progress log lines inside LoadData.
const DefaultBatchSize = 10000

// Provider describes one dialect and knows how to reach one database. It
// holds no live connection; Open acquires one.
type Provider interface {
	// Kind is the registry name, e.g. "postgres".
	Kind() string
	// NameStyle is the identifier style this dialect prefers when target
	// names are rewritten.
	NameStyle() ident.Style

	// TypeOf maps a native type name to a logical type. Unknown names fail
	// with *UnsupportedTypeError.
	TypeOf(nativeType string) (schema.LogicalType, error)
	// ColumnType maps a logical column to the native DDL type.
	ColumnType(c schema.ColumnInfo) (string, error)

	// CreateTableSQL renders CREATE TABLE for t. It is deterministic.
	CreateTableSQL(t schema.TableInfo) (string, error)
	// CreateSchemaSQL renders create-schema-if-not-exists, or "" when the
	// dialect has no schema namespaces.
	CreateSchemaSQL(name string) string

	QuoteIdent(id string) string
	QualifiedName(schemaName, table string) string

	// CreateDatabase creates a database, dropping it first when
	// deleteIfExisting is set. Drop failures are logged and ignored.
	CreateDatabase(ctx context.Context, name string, deleteIfExisting bool) error

	// Open acquires a live connection. The caller must Close it.
	Open(ctx context.Context) (Conn, error)
}

// Conn is one live connection to a database.
type Conn interface {
	// GetSchema describes an existing table through a zero-row probe.
	// table may be qualified as "schema.table".
	GetSchema(ctx context.Context, table string) ([]schema.ColumnInfo, error)
	// GetTableInfo lists every base table outside the ignored schemas with
	// its columns, ordered by (schema, table) and column ordinal. Columns
	// of unmapped native types are kept with the zero Type.
	GetTableInfo(ctx context.Context) ([]schema.TableInfo, error)
	// Query selects cols from table in order and returns a cursor typed by
	// cols.
	Query(ctx context.Context, table schema.TableInfo, cols []schema.ColumnInfo) (rows.Cursor, error)
	// LoadData creates the mapped target table and streams src into it. It
	// returns the number of rows written, or -1 when the bulk path cannot
	// report a count.
	LoadData(ctx context.Context, m schema.TableMapping, src rows.Cursor) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// Config is the backend-agnostic configuration handed to a Factory.
type Config struct {
	// Kind selects the backend, e.g. "postgres", "mssql", "sqlite".
	Kind string
	// DSN is a connection string or a bare database name; see each backend's
	// ResolveDSN.
	DSN string
	// Credentials for bare database names. Empty means integrated/trusted
	// authentication.
	User     string
	Password string
	// IgnoreSchemas overrides the backend's default ignored schemas.
	IgnoreSchemas []string
	// BatchSize overrides DefaultBatchSize.
	BatchSize int
	// Job labels metrics.
	Job string
	// Logger receives progress lines; nil means log.Default().
	Logger *log.Logger
}

// Log returns the configured logger or the standard one.
func (c Config) Log() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// Batch returns the effective batch size.
func (c Config) Batch() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return DefaultBatchSize
}
