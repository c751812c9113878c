package postgres

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"

	"dbetl/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// fakeTx records statements and drains CopyFrom sources. Methods not
// overridden panic through the nil embedded interface.
type fakeTx struct {
	pgx.Tx

	execs   []string
	execErr func(sql string) error
	copyErr error

	copyTable pgx.Identifier
	copyCols  []string
	copied    [][]any

	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	if t.execErr != nil {
		if err := t.execErr(sql); err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (t *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	t.copyTable, t.copyCols = table, cols
	var n int64
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return n, err
		}
		t.copied = append(t.copied, append([]any(nil), vals...))
		n++
		if t.copyErr != nil {
			return n, t.copyErr
		}
	}
	return n, src.Err()
}

func (t *fakeTx) Commit(context.Context) error { t.committed = true; return nil }

func (t *fakeTx) Rollback(context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

// fakeDB stands in for *pgx.Conn.
type fakeDB struct {
	tx      *fakeTx
	execs   []string
	execErr func(sql string) error
	closed  bool
	pingErr error
}

var _ pgxConn = (*fakeDB)(nil)

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	if f.tx == nil {
		return nil, errors.New("no tx")
	}
	return f.tx, nil
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	if f.execErr != nil {
		if err := f.execErr(sql); err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("fakeDB: Query not supported")
}

func (f *fakeDB) Ping(context.Context) error  { return f.pingErr }
func (f *fakeDB) Close(context.Context) error { f.closed = true; return nil }
func (f *fakeDB) IsClosed() bool              { return f.closed }
func (f *fakeDB) TypeMap() *pgtype.Map        { return pgtype.NewMap() }

// newTestConn builds a conn over db with a captured logger.
func newTestConn(db *fakeDB) (*conn, *bytes.Buffer) {
	var buf bytes.Buffer
	p := &Provider{
		cfg:    storage.Config{Kind: Kind, DSN: "test", BatchSize: 2, Logger: log.New(&buf, "", 0)},
		dsn:    ResolveDSN("test", "", ""),
		ignore: DefaultIgnoredSchemas,
	}
	return &conn{p: p, db: db}, &buf
}

func failOn(prefix string, err error) func(string) error {
	return func(sql string) error {
		if strings.HasPrefix(sql, prefix) {
			return err
		}
		return nil
	}
}
