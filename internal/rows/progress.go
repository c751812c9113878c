package rows

import "sync/atomic"

// Progress is a snapshot of how far a cursor has been read.
type Progress struct {
	Rows  int64
	Bytes int64 // -1 when the source does not track offsets
	Done  bool
}

// byteCounter is implemented by cursors that know their input offset.
type byteCounter interface {
	BytesRead() int64
}

// Tracked wraps a Cursor and invokes a callback every Every rows and once at
// the end. The callback runs on the goroutine driving Next and must return
// quickly; Tracker is a ready-made non-blocking sink.
type Tracked struct {
	Cursor
	every int64
	fn    func(Progress)
	n     int64
	done  bool
}

// Track wraps c. every <= 0 defaults to 10000 rows.
func Track(c Cursor, every int, fn func(Progress)) *Tracked {
	if every <= 0 {
		every = 10000
	}
	return &Tracked{Cursor: c, every: int64(every), fn: fn}
}

func (t *Tracked) Next() bool {
	if !t.Cursor.Next() {
		if !t.done {
			t.done = true
			t.report(true)
		}
		return false
	}
	t.n++
	if t.n%t.every == 0 {
		t.report(false)
	}
	return true
}

func (t *Tracked) report(done bool) {
	if t.fn == nil {
		return
	}
	p := Progress{Rows: t.n, Bytes: -1, Done: done}
	if bc, ok := t.Cursor.(byteCounter); ok {
		p.Bytes = bc.BytesRead()
	}
	t.fn(p)
}

// Rows returns the number of rows read so far.
func (t *Tracked) Rows() int64 { return t.n }

// Tracker stores the latest Progress for a reader on another goroutine.
// Update never blocks.
type Tracker struct {
	v atomic.Pointer[Progress]
}

// Update records p; it is safe to use as a Track callback.
func (t *Tracker) Update(p Progress) { t.v.Store(&p) }

// Load returns the latest snapshot, or a zero Progress before the first update.
func (t *Tracker) Load() Progress {
	if p := t.v.Load(); p != nil {
		return *p
	}
	return Progress{Bytes: -1}
}
