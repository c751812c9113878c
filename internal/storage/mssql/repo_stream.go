package mssql

import (
	"context"
	"fmt"

	gddl "dbetl/internal/ddl"
	"dbetl/internal/rows"
	"dbetl/internal/schema"
	"dbetl/internal/storage"
	msddl "dbetl/internal/storage/mssql/ddl"

	mssql "github.com/microsoft/go-mssqldb"
)

// Bulk copy takes int64 and float64 for every integer and float column;
// decimals go as text so the server applies the column's scale.
var encoders = storage.EncoderTable{
	schema.Boolean:  storage.EncodeBool,
	schema.Byte:     widen(rows.Cursor.Int16),
	schema.Int16:    widen(rows.Cursor.Int16),
	schema.Int32:    widen(rows.Cursor.Int32),
	schema.Int64:    storage.EncodeInt64,
	schema.Single:   widenFloat,
	schema.Double:   storage.EncodeFloat64,
	schema.Decimal:  encodeDecimal,
	schema.String:   storage.EncodeString,
	schema.DateTime: storage.EncodeTime,
}

func widen[T int16 | int32](get func(rows.Cursor, int) (T, error)) storage.Encoder {
	return func(c rows.Cursor, i int) (any, error) {
		v, err := get(c, i)
		if err != nil {
			return nil, err
		}
		return int64(v), nil
	}
}

func widenFloat(c rows.Cursor, i int) (any, error) {
	v, err := c.Float32(i)
	if err != nil {
		return nil, err
	}
	return float64(v), nil
}

func encodeDecimal(c rows.Cursor, i int) (any, error) {
	d, err := c.Decimal(i)
	if err != nil {
		return nil, err
	}
	return d.String(), nil
}

// createErr reports a failed CREATE TABLE as connection loss when the
// connection broke, otherwise as a TableCreationError.
func (c *conn) createErr(ctx context.Context, name string, err error) error {
	if ctx.Err() == nil && storage.IsConnError(err) {
		return c.wrap(ctx, "create table "+name, err)
	}
	return &storage.TableCreationError{Table: name, Err: describe(err)}
}

// LoadData creates the target table and bulk copies src into it. It returns
// the driver's rows-affected count, or -1 when the driver does not report
// one.
func (c *conn) LoadData(ctx context.Context, m schema.TableMapping, src rows.Cursor) (int64, error) {
	target, ok := m.TargetTable()
	if !ok {
		return 0, fmt.Errorf("mssql: table %s is not mapped", m.Source.QualifiedName())
	}
	name := target.QualifiedName()
	quoted := msddl.QualifiedName(target.Schema, target.Name)

	// Type errors surface here, before the source is read.
	createSQL, err := msddl.BuildCreateTableSQL(target)
	if err != nil {
		return 0, fmt.Errorf("mssql: %s: %w", name, err)
	}
	encs, err := encoders.Resolve(Kind, target.Columns)
	if err != nil {
		return 0, fmt.Errorf("mssql: %s: %w", name, err)
	}
	if err := storage.CheckWidth(src, len(target.Columns)); err != nil {
		return 0, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, c.wrap(ctx, "begin tx", err)
	}
	rollback := func() { _ = tx.Rollback() }

	if target.Schema != "" {
		if _, err := tx.ExecContext(ctx, msddl.CreateSchemaSQL(target.Schema)); err != nil {
			rollback()
			return 0, c.wrap(ctx, "create schema "+target.Schema, err)
		}
	}
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		rollback()
		return 0, c.createErr(ctx, name, err)
	}
	c.p.cfg.Log().Printf("mssql: created table=%s columns=%d ddl=%s", name, len(target.Columns), gddl.Fingerprint(createSQL))

	colNames := make([]string, len(target.Columns))
	for i, col := range target.Columns {
		colNames[i] = col.Name
	}
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(quoted, mssql.BulkOptions{Tablock: true}, colNames...))
	if err != nil {
		rollback()
		return 0, c.wrap(ctx, "prepare bulk", err)
	}

	b := storage.NewBatcher(ctx, c.p.cfg, name)
	if _, err := storage.Pump(b, src, encs, func(row []any) error {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return c.wrap(ctx, "bulk row", err)
		}
		return nil
	}); err != nil {
		_ = stmt.Close()
		rollback()
		return 0, err
	}

	res, err := stmt.ExecContext(ctx) // flush
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, c.wrap(ctx, "bulk finalize", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		n = -1
	}
	if err := tx.Commit(); err != nil {
		return 0, c.wrap(ctx, "commit", err)
	}
	return n, nil
}
