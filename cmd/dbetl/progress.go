package main

import (
	"io"
	"time"

	"dbetl/internal/rows"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uiprogress"
)

// progressEvery is how many rows pass between tracker updates.
const progressEvery = 1000

var progressRefresh = 200 * time.Millisecond

// renderProgress draws a bar for t until done is closed. The bar follows
// bytes read against size; sources without offsets show the row count only.
func renderProgress(w io.Writer, t *rows.Tracker, size int64, done <-chan struct{}) {
	p := uiprogress.New()
	p.SetOut(w)
	p.SetRefreshInterval(progressRefresh)
	bar := p.AddBar(100).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(*uiprogress.Bar) string { return "import" })
	bar.AppendFunc(func(*uiprogress.Bar) string {
		return humanize.Comma(t.Load().Rows) + " rows"
	})
	p.Start()
	defer p.Stop()

	tick := time.NewTicker(progressRefresh)
	defer tick.Stop()
	for {
		select {
		case <-done:
			_ = bar.Set(100)
			return
		case <-tick.C:
			_ = bar.Set(percent(t.Load(), size))
		}
	}
}

// percent maps bytes read onto 0..99; 100 means the reader finished.
func percent(p rows.Progress, size int64) int {
	if p.Done {
		return 100
	}
	if size <= 0 || p.Bytes < 0 {
		return 0
	}
	n := int(p.Bytes * 100 / size)
	if n > 99 {
		n = 99
	}
	return n
}
