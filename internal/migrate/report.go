package migrate

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

// Status is the result of one table in a run.
type Status int

const (
	Succeeded Status = iota + 1
	Failed
	Skipped
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome records what happened to one source table.
type Outcome struct {
	Source string // qualified source name
	Target string // qualified target name; empty when skipped
	Status Status
	// Rows is the loaded row count, or -1 when the bulk path could not
	// report one. Only meaningful for Succeeded.
	Rows    int64
	Elapsed time.Duration
	// DDL is the fingerprint of the CREATE TABLE sent to the target.
	DDL string
	Err error
}

// RowsText renders Rows for humans.
func (o Outcome) RowsText() string {
	switch {
	case o.Status != Succeeded:
		return "-"
	case o.Rows < 0:
		return "unknown"
	}
	return humanize.Comma(o.Rows)
}

// Report is the ordered list of table outcomes of a run.
type Report struct {
	Job      string
	Outcomes []Outcome
	Elapsed  time.Duration
}

func (r *Report) add(o Outcome) { r.Outcomes = append(r.Outcomes, o) }

// Count returns how many tables ended with s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Rows sums the known row counts of succeeded tables.
func (r *Report) Rows() int64 {
	var n int64
	for _, o := range r.Outcomes {
		if o.Status == Succeeded && o.Rows > 0 {
			n += o.Rows
		}
	}
	return n
}

// Write renders one line per table followed by a summary line.
func (r *Report) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tTARGET\tSTATUS\tROWS\tELAPSED\tDDL")
	for _, o := range r.Outcomes {
		target := o.Target
		if target == "" {
			target = "-"
		}
		ddl := o.DDL
		if ddl == "" {
			ddl = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Source, target, o.Status, o.RowsText(), o.Elapsed.Truncate(time.Millisecond), ddl)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, o := range r.Outcomes {
		if o.Err != nil && o.Status == Failed {
			fmt.Fprintf(w, "error: %s: %v\n", o.Source, o.Err)
		}
	}
	_, err := fmt.Fprintf(w, "%d tables: %d succeeded, %d failed, %d skipped, %d cancelled; %s rows in %s\n",
		len(r.Outcomes), r.Count(Succeeded), r.Count(Failed), r.Count(Skipped), r.Count(Cancelled),
		humanize.Comma(r.Rows()), r.Elapsed.Truncate(time.Millisecond))
	return err
}
