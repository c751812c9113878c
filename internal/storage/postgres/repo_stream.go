package postgres

import (
	"context"
	"fmt"

	gddl "dbetl/internal/ddl"
	"dbetl/internal/rows"
	"dbetl/internal/schema"
	"dbetl/internal/storage"
	pgddl "dbetl/internal/storage/postgres/ddl"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// encoders resolves each logical type to the Go value pgx's binary COPY
// encodes for the matching column type.
var encoders = storage.EncoderTable{
	schema.Boolean:        storage.EncodeBool,
	schema.Byte:           storage.EncodeInt16,
	schema.Int16:          storage.EncodeInt16,
	schema.Int32:          storage.EncodeInt32,
	schema.Int64:          storage.EncodeInt64,
	schema.Single:         storage.EncodeFloat32,
	schema.Double:         storage.EncodeFloat64,
	schema.Decimal:        encodeNumeric,
	schema.String:         storage.EncodeString,
	schema.DateTime:       storage.EncodeTime,
	schema.DateTimeOffset: storage.EncodeTime,
	schema.Binary:         storage.EncodeBytes,
	schema.Guid:           encodeUUID,
}

func encodeNumeric(c rows.Cursor, i int) (any, error) {
	d, err := c.Decimal(i)
	if err != nil {
		return nil, err
	}
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}, nil
}

func encodeUUID(c rows.Cursor, i int) (any, error) {
	u, err := c.UUID(i)
	if err != nil {
		return nil, err
	}
	return pgtype.UUID{Bytes: u, Valid: true}, nil
}

// copySource feeds a cursor to pgx.CopyFrom one row at a time. The row
// buffer is reused; pgx encodes each row before asking for the next.
type copySource struct {
	b    *storage.Batcher
	src  rows.Cursor
	encs []storage.Encoder
	buf  []any
	err  error
}

var _ pgx.CopyFromSource = (*copySource)(nil)

func (s *copySource) Next() bool {
	if s.err != nil {
		return false
	}
	if !s.src.Next() {
		s.err = s.src.Err()
		return false
	}
	return true
}

func (s *copySource) Values() ([]any, error) {
	if err := storage.EncodeRow(s.src, s.encs, s.buf); err != nil {
		s.err = err
		return nil, err
	}
	if err := s.b.Add(); err != nil {
		s.err = err
		return nil, err
	}
	return s.buf, nil
}

func (s *copySource) Err() error { return s.err }

func copyTarget(t schema.TableInfo) pgx.Identifier {
	if t.Schema == "" {
		return pgx.Identifier{t.Name}
	}
	return pgx.Identifier{t.Schema, t.Name}
}

// LoadData creates the target table and copies src into it in a single
// transaction, so a failed load leaves no table behind.
func (c *conn) LoadData(ctx context.Context, m schema.TableMapping, src rows.Cursor) (int64, error) {
	target, ok := m.TargetTable()
	if !ok {
		return 0, fmt.Errorf("postgres: table %s is not mapped", m.Source.QualifiedName())
	}
	name := target.QualifiedName()

	// Type errors surface here, before the source is read.
	createSQL, err := pgddl.BuildCreateTableSQL(target)
	if err != nil {
		return 0, fmt.Errorf("postgres: %s: %w", name, err)
	}
	encs, err := encoders.Resolve(Kind, target.Columns)
	if err != nil {
		return 0, fmt.Errorf("postgres: %s: %w", name, err)
	}
	if err := storage.CheckWidth(src, len(target.Columns)); err != nil {
		return 0, err
	}

	tx, err := c.db.Begin(ctx)
	if err != nil {
		return 0, c.wrap(ctx, "begin", err)
	}
	// No-op after Commit.
	defer func() { _ = tx.Rollback(context.Background()) }()

	if target.Schema != "" {
		if _, err := tx.Exec(ctx, pgddl.CreateSchemaSQL(target.Schema)); err != nil {
			return 0, c.wrap(ctx, "create schema "+target.Schema, err)
		}
	}
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		if ctx.Err() == nil && c.db.IsClosed() {
			return 0, c.wrap(ctx, "create table "+name, err)
		}
		return 0, &storage.TableCreationError{Table: name, Err: describe(err)}
	}
	log := c.p.cfg.Log()
	log.Printf("postgres: created table=%s columns=%d ddl=%s", name, len(target.Columns), gddl.Fingerprint(createSQL))

	colNames := make([]string, len(target.Columns))
	for i, col := range target.Columns {
		colNames[i] = col.Name
	}
	b := storage.NewBatcher(ctx, c.p.cfg, name)
	source := &copySource{b: b, src: src, encs: encs, buf: make([]any, len(encs))}
	n, err := tx.CopyFrom(ctx, copyTarget(target), colNames, source)
	if err != nil {
		// Encoder and cursor errors are returned by pgx unchanged.
		if source.err != nil {
			return n, fmt.Errorf("postgres: copy %s: %w", name, source.err)
		}
		return n, c.wrap(ctx, "copy "+name, err)
	}
	b.Finish()
	if err := tx.Commit(ctx); err != nil {
		return n, c.wrap(ctx, "commit "+name, err)
	}
	return n, nil
}
