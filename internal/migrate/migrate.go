// Package migrate copies every table of a source database into a target
// database, one table at a time over one connection to each.
//
// A table failure is recorded and the run continues, unless the target
// connection is gone, in which case the run stops. Cancelling the context
// stops the run between tables or at the next batch boundary inside a load.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dbetl/internal/ddl"
	"dbetl/internal/mapping"
	"dbetl/internal/metrics"
	"dbetl/internal/schema"
	"dbetl/internal/storage"
)

// ErrCancelled is returned by Run when the context ends before every table
// was processed. It wraps the context error.
var ErrCancelled = errors.New("migration cancelled")

// Migrator moves tables from Source to Target.
type Migrator struct {
	Source storage.Provider
	Target storage.Provider
	// Mapping decides target names and exclusions; nil means identity.
	Mapping mapping.Mapping
	// Logger receives one line per table; nil means log.Default().
	Logger *log.Logger
	// Job labels metrics.
	Job string
}

func (m *Migrator) log() *log.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return log.Default()
}

func (m *Migrator) mapping() mapping.Mapping {
	if m.Mapping != nil {
		return m.Mapping
	}
	return mapping.Identity{}
}

// Run migrates every source table in catalog order. The report is returned
// even when err is non-nil and covers the tables reached so far.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	rep := &Report{Job: m.Job}
	defer func() { rep.Elapsed = time.Since(start) }()

	src, err := m.Source.Open(ctx)
	if err != nil {
		return rep, fmt.Errorf("migrate: open source: %w", err)
	}
	defer src.Close()

	dst, err := m.Target.Open(ctx)
	if err != nil {
		return rep, fmt.Errorf("migrate: open target: %w", err)
	}
	defer dst.Close()

	tables, err := src.GetTableInfo(ctx)
	if err != nil {
		return rep, fmt.Errorf("migrate: read source catalog: %w", err)
	}
	dm := mapping.Build(tables, m.mapping())
	m.log().Printf("migrate: job=%s tables=%d source=%s target=%s", m.Job, dm.Len(), m.Source.Kind(), m.Target.Kind())

	pending := dm.Tables()
	for i, tm := range pending {
		if err := ctx.Err(); err != nil {
			m.cancelRest(rep, pending[i:])
			return rep, fmt.Errorf("%w: %w", ErrCancelled, err)
		}

		o := m.table(ctx, src, dst, tm)
		rep.add(o)
		m.record(o)

		switch {
		case o.Status == Cancelled:
			m.cancelRest(rep, pending[i+1:])
			return rep, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		case o.Status == Failed && m.fatal(ctx, dst, o.Err):
			return rep, fmt.Errorf("migrate: %s: %w", o.Source, o.Err)
		}
	}
	return rep, nil
}

// table migrates one mapped table.
func (m *Migrator) table(ctx context.Context, src, dst storage.Conn, tm schema.TableMapping) Outcome {
	o := Outcome{Source: tm.Source.QualifiedName()}
	target, ok := tm.TargetTable()
	if !ok {
		o.Status = Skipped
		return o
	}
	o.Target = target.QualifiedName()
	if err := storage.Unmapped(m.Source.Kind(), tm.SourceColumns()); err != nil {
		o.Status, o.Err = Failed, err
		return o
	}
	if sql, err := m.Target.CreateTableSQL(target); err == nil {
		o.DDL = ddl.Fingerprint(sql)
	}

	start := time.Now()
	n, err := copyTable(ctx, src, dst, tm)
	o.Elapsed = time.Since(start)
	switch {
	case err == nil:
		o.Status, o.Rows = Succeeded, n
	case ctx.Err() != nil:
		o.Status, o.Err = Cancelled, err
	default:
		o.Status, o.Err = Failed, err
	}
	return o
}

func copyTable(ctx context.Context, src, dst storage.Conn, tm schema.TableMapping) (int64, error) {
	cur, err := src.Query(ctx, tm.Source, tm.SourceColumns())
	if err != nil {
		return 0, err
	}
	defer cur.Close()
	return dst.LoadData(ctx, tm, cur)
}

// fatal reports whether a table failure should stop the run.
func (m *Migrator) fatal(ctx context.Context, dst storage.Conn, err error) bool {
	if errors.Is(err, storage.ErrConnectionLost) {
		return true
	}
	if perr := dst.Ping(ctx); perr != nil {
		m.log().Printf("migrate: target ping failed after error: %v", perr)
		return true
	}
	return false
}

func (m *Migrator) cancelRest(rep *Report, rest []schema.TableMapping) {
	for _, tm := range rest {
		o := Outcome{Source: tm.Source.QualifiedName(), Status: Cancelled}
		rep.add(o)
		m.record(o)
	}
}

func (m *Migrator) record(o Outcome) {
	switch o.Status {
	case Succeeded:
		m.log().Printf("migrate: table=%s target=%s status=%s rows=%s elapsed=%s ddl=%s",
			o.Source, o.Target, o.Status, o.RowsText(), o.Elapsed.Truncate(time.Millisecond), o.DDL)
		metrics.RecordRow(m.Job, "inserted", o.Rows)
	case Failed:
		m.log().Printf("migrate: table=%s target=%s status=%s elapsed=%s err=%v",
			o.Source, o.Target, o.Status, o.Elapsed.Truncate(time.Millisecond), o.Err)
	default:
		m.log().Printf("migrate: table=%s status=%s", o.Source, o.Status)
	}
	if o.Status == Succeeded || o.Status == Failed {
		metrics.RecordStep(m.Job, "table", o.Err, o.Elapsed)
	}
	metrics.RecordTable(m.Job, o.Status.String())
}
