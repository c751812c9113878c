package sqlite

import (
	"context"
	"fmt"

	gddl "dbetl/internal/ddl"
	"dbetl/internal/rows"
	"dbetl/internal/schema"
	"dbetl/internal/storage"
	sqddl "dbetl/internal/storage/sqlite/ddl"
)

// encoders follow the column affinities chosen by ddl.ColumnType: booleans as
// 0/1, times as Unix seconds, decimals as exact text.
var encoders = storage.EncoderTable{
	schema.Boolean:  encodeBool,
	schema.Byte:     storage.EncodeInt16,
	schema.Int16:    storage.EncodeInt16,
	schema.Int32:    storage.EncodeInt32,
	schema.Int64:    storage.EncodeInt64,
	schema.Single:   storage.EncodeFloat32,
	schema.Double:   storage.EncodeFloat64,
	schema.Decimal:  encodeDecimal,
	schema.String:   storage.EncodeString,
	schema.DateTime: encodeUnix,
}

func encodeBool(c rows.Cursor, i int) (any, error) {
	b, err := c.Bool(i)
	if err != nil {
		return nil, err
	}
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

func encodeDecimal(c rows.Cursor, i int) (any, error) {
	d, err := c.Decimal(i)
	if err != nil {
		return nil, err
	}
	return d.String(), nil
}

func encodeUnix(c rows.Cursor, i int) (any, error) {
	t, err := c.Time(i)
	if err != nil {
		return nil, err
	}
	return t.Unix(), nil
}

// LoadData creates the target table and inserts every row of src through a
// prepared statement inside one transaction.
func (c *conn) LoadData(ctx context.Context, m schema.TableMapping, src rows.Cursor) (int64, error) {
	target, ok := m.TargetTable()
	if !ok {
		return 0, fmt.Errorf("sqlite: table %s is not mapped", m.Source.QualifiedName())
	}
	name := sqddl.TableName(target.Schema, target.Name)

	// Type errors surface here, before the source is read.
	createSQL, err := sqddl.BuildCreateTableSQL(target)
	if err != nil {
		return 0, fmt.Errorf("sqlite: %s: %w", name, err)
	}
	encs, err := encoders.Resolve(Kind, target.Columns)
	if err != nil {
		return 0, fmt.Errorf("sqlite: %s: %w", name, err)
	}
	insertSQL, err := sqddl.BuildInsertSQL(target)
	if err != nil {
		return 0, err
	}
	if err := storage.CheckWidth(src, len(target.Columns)); err != nil {
		return 0, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, c.wrap(ctx, "begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return 0, &storage.TableCreationError{Table: name, Err: err}
	}
	c.p.cfg.Log().Printf("sqlite: created table=%s columns=%d ddl=%s", name, len(target.Columns), gddl.Fingerprint(createSQL))

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, c.wrap(ctx, "prepare insert "+name, err)
	}
	defer stmt.Close()

	b := storage.NewBatcher(ctx, c.p.cfg, name)
	n, err := storage.Pump(b, src, encs, func(row []any) error {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return c.wrap(ctx, "insert "+name, err)
		}
		return nil
	})
	if err != nil {
		return n, err
	}
	if err := tx.Commit(); err != nil {
		return n, c.wrap(ctx, "commit "+name, err)
	}
	return n, nil
}
