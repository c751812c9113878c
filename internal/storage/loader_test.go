package storage

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"dbetl/internal/rows"
	"dbetl/internal/schema"
)

func intRows(n int) *rows.Slice {
	data := make([][]any, n)
	for i := range data {
		data[i] = []any{int64(i), "x"}
	}
	return rows.NewSlice([]schema.ColumnInfo{
		{Name: "n", Type: schema.Int64},
		{Name: "s", Type: schema.String},
	}, data)
}

func testConfig(buf *bytes.Buffer, batch int) Config {
	return Config{BatchSize: batch, Logger: log.New(buf, "", 0)}
}

// TestPump_Basic verifies every row reaches write in order and progress is
// logged per batch.
func TestPump_Basic(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	b := NewBatcher(context.Background(), testConfig(&logs, 3), "t")
	encs := []Encoder{EncodeInt64, EncodeString}

	var got []int64
	total, err := Pump(b, intRows(7), encs, func(row []any) error {
		got = append(got, row[0].(int64))
		return nil
	})
	if err != nil {
		t.Fatalf("Pump error: %v", err)
	}
	if total != 7 || len(got) != 7 || got[6] != 6 {
		t.Fatalf("total=%d got=%v, want 7 rows in order", total, got)
	}
	if n := strings.Count(logs.String(), "batch #"); n != 3 {
		t.Fatalf("batch lines = %d, want 3 (3+3+1)\n%s", n, logs.String())
	}
	if !strings.Contains(logs.String(), "input drained table=t total=7") {
		t.Fatalf("missing final line:\n%s", logs.String())
	}
}

// TestPump_ErrorPropagation ensures the first write error stops the load.
func TestPump_ErrorPropagation(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	b := NewBatcher(context.Background(), testConfig(&logs, 2), "t")
	wantErr := errors.New("write failed")
	calls := 0
	total, err := Pump(b, intRows(5), []Encoder{EncodeInt64, EncodeString}, func([]any) error {
		calls++
		if calls == 3 {
			return wantErr
		}
		return nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("want error %v, got %v", wantErr, err)
	}
	if total != 2 || calls != 3 {
		t.Fatalf("total=%d calls=%d, want 2 and 3", total, calls)
	}
}

// TestPump_ContextCancel checks the loader stops at the next batch boundary.
func TestPump_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var logs bytes.Buffer
	b := NewBatcher(ctx, testConfig(&logs, 2), "t")

	calls := 0
	total, err := Pump(b, intRows(10), []Encoder{EncodeInt64, EncodeString}, func([]any) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if total != 4 {
		t.Fatalf("total = %d, want 4 (stopped at the second batch boundary)", total)
	}
}

func TestPump_AlreadyCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var logs bytes.Buffer
	b := NewBatcher(ctx, testConfig(&logs, 2), "t")
	total, err := Pump(b, intRows(3), []Encoder{EncodeInt64, EncodeString}, func([]any) error {
		t.Fatalf("write called after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) || total != 0 {
		t.Fatalf("Pump = %d, %v; want 0, context.Canceled", total, err)
	}
}
