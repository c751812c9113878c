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
	"dbetl/internal/rows"
	"dbetl/internal/schema"
	"dbetl/internal/storage"
)

// ImportOptions control Import.
type ImportOptions struct {
	// Schema is the target schema; empty uses the dialect's default.
	Schema string
	// Mapping renames or drops columns; nil means identity.
	Mapping mapping.Mapping
	// Database, when set, is created before loading. Replace drops an
	// existing database of that name first.
	Database string
	Replace  bool
	Job      string
	Logger   *log.Logger
}

// ErrTableExcluded is returned when the mapping excludes the imported table.
var ErrTableExcluded = errors.New("table excluded by mapping")

// Import loads one cursor, typically a file, into a new table named table
// on target. Columns the mapping drops are projected out of src before the
// load. It does not close src.
func Import(ctx context.Context, target storage.Provider, src rows.Cursor, table string, opts ImportOptions) (Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	m := opts.Mapping
	if m == nil {
		m = mapping.Identity{}
	}

	srcTable := schema.TableInfo{Schema: opts.Schema, Name: table, Columns: src.Columns()}
	tm := mapping.Table(srcTable, m)
	o := Outcome{Source: srcTable.QualifiedName()}
	tt, ok := tm.TargetTable()
	if !ok {
		o.Status = Skipped
		return o, fmt.Errorf("migrate: import %s: %w", table, ErrTableExcluded)
	}
	o.Target = tt.QualifiedName()

	cur := src
	if len(tt.Columns) != len(srcTable.Columns) {
		var idx []int
		for i, cm := range tm.Columns {
			if cm.Target != nil {
				idx = append(idx, i)
			}
		}
		p, err := rows.Project(src, idx)
		if err != nil {
			return o, fmt.Errorf("migrate: import %s: %w", table, err)
		}
		cur = p
	}

	if opts.Database != "" {
		if err := target.CreateDatabase(ctx, opts.Database, opts.Replace); err != nil {
			return o, fmt.Errorf("migrate: import: %w", err)
		}
	}
	if sql, err := target.CreateTableSQL(tt); err == nil {
		o.DDL = ddl.Fingerprint(sql)
	}

	conn, err := target.Open(ctx)
	if err != nil {
		return o, fmt.Errorf("migrate: import: open target: %w", err)
	}
	defer conn.Close()

	start := time.Now()
	n, err := conn.LoadData(ctx, tm, cur)
	o.Elapsed = time.Since(start)
	metrics.RecordStep(opts.Job, "import", err, o.Elapsed)
	if err != nil {
		o.Status, o.Err = Failed, err
		if ctx.Err() != nil {
			o.Status = Cancelled
		}
		metrics.RecordTable(opts.Job, o.Status.String())
		return o, fmt.Errorf("migrate: import %s: %w", table, err)
	}
	o.Status, o.Rows = Succeeded, n
	metrics.RecordRow(opts.Job, "inserted", n)
	metrics.RecordTable(opts.Job, o.Status.String())
	logger.Printf("import: table=%s rows=%s elapsed=%s ddl=%s",
		o.Target, o.RowsText(), o.Elapsed.Truncate(time.Millisecond), o.DDL)
	return o, nil
}
