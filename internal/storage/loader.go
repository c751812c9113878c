package storage

import (
	"context"
	"log"
	"time"

	"dbetl/internal/metrics"
	"dbetl/internal/rows"
)

// Batcher counts rows written by a bulk path and, every size rows, checks for
// cancellation and emits a progress line with the instantaneous rate:
//
//	batch #3: table=dbo.orders rps=48211 rows=10000 total=30000 elapsed=620ms since_last=207ms
//
// It holds no rows itself; memory stays bounded by the bulk path.
type Batcher struct {
	ctx   context.Context
	size  int64
	log   *log.Logger
	table string
	job   string

	total     int64
	batches   int64
	start     time.Time
	lastFlush time.Time
	lastTotal int64
}

// NewBatcher starts a batch counter for one table load.
func NewBatcher(ctx context.Context, cfg Config, table string) *Batcher {
	now := time.Now()
	return &Batcher{
		ctx:       ctx,
		size:      int64(cfg.Batch()),
		log:       cfg.Log(),
		table:     table,
		job:       cfg.Job,
		start:     now,
		lastFlush: now,
	}
}

// Add records one written row. At batch boundaries it returns ctx.Err() if
// the load was cancelled.
func (b *Batcher) Add() error {
	b.total++
	if b.total%b.size != 0 {
		return nil
	}
	b.flush()
	return b.ctx.Err()
}

// Check returns ctx.Err() without counting a row.
func (b *Batcher) Check() error { return b.ctx.Err() }

// Total is the number of rows recorded so far.
func (b *Batcher) Total() int64 { return b.total }

func (b *Batcher) flush() {
	b.batches++
	now := time.Now()
	sinceLast := now.Sub(b.lastFlush)
	n := b.total - b.lastTotal
	rps := float64(0)
	if sinceLast > 0 {
		rps = float64(n) / sinceLast.Seconds()
	}
	b.log.Printf(
		"batch #%d: table=%s rps=%.0f rows=%d total=%d elapsed=%s since_last=%s",
		b.batches,
		b.table,
		rps,
		n,
		b.total,
		now.Sub(b.start).Truncate(time.Millisecond),
		sinceLast.Truncate(time.Millisecond),
	)
	metrics.RecordBatches(b.job, 1)
	b.lastFlush = now
	b.lastTotal = b.total
}

// Finish logs the final partial batch.
func (b *Batcher) Finish() {
	if b.total > b.lastTotal {
		b.flush()
	}
	b.log.Printf("loader: input drained table=%s total=%d elapsed=%s",
		b.table, b.total, time.Since(b.start).Truncate(time.Millisecond))
}

// Pump drains src, encoding each row with encs into a reused buffer and
// passing it to write. It checks for cancellation between batches. The
// returned count is the number of rows handed to write successfully.
func Pump(b *Batcher, src rows.Cursor, encs []Encoder, write func(row []any) error) (int64, error) {
	if err := b.Check(); err != nil {
		return 0, err
	}
	buf := make([]any, len(encs))
	for src.Next() {
		if err := EncodeRow(src, encs, buf); err != nil {
			return b.Total(), err
		}
		if err := write(buf); err != nil {
			return b.Total(), err
		}
		if err := b.Add(); err != nil {
			return b.Total(), err
		}
	}
	if err := src.Err(); err != nil {
		return b.Total(), err
	}
	b.Finish()
	return b.Total(), nil
}
