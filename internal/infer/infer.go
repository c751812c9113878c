// Package infer guesses a typed schema from the text values of a sample of
// rows. A column gets the narrowest type that every non-empty sampled value
// satisfies, tried in this order:
//
//	int32, int64, boolean, double, guid, datetime, string
//
// Integers win over booleans so 0/1 columns stay numeric. Columns with no
// values at all are nullable strings.
package infer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"dbetl/internal/rows"
	"dbetl/internal/schema"

	"github.com/google/uuid"
)

// DefaultSampleRows is the number of rows read when Options.SampleRows is
// not set.
const DefaultSampleRows = 100000

// Options tune inference.
type Options struct {
	// SampleRows caps the rows read; <= 0 means DefaultSampleRows.
	SampleRows int
}

// candidate bits; a column keeps the bits every value satisfied.
const (
	canInt32 = 1 << iota
	canInt64
	canBool
	canFloat
	canGuid
	canTime
)

const allCandidates = canInt32 | canInt64 | canBool | canFloat | canGuid | canTime

type column struct {
	name   string
	can    int
	values int
	nulls  bool
	maxLen int
}

func (c *column) observe(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		c.nulls = true
		return
	}
	c.values++
	if n := utf8.RuneCountInString(s); n > c.maxLen {
		c.maxLen = n
	}
	if c.can&(canInt32|canInt64) != 0 {
		n, err := strconv.ParseInt(s, 10, 64)
		switch {
		case err != nil:
			c.can &^= canInt32 | canInt64
		case n < math.MinInt32 || n > math.MaxInt32:
			c.can &^= canInt32
		}
	}
	if c.can&canBool != 0 && !isBool(s) {
		c.can &^= canBool
	}
	if c.can&canFloat != 0 {
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			c.can &^= canFloat
		}
	}
	if c.can&canGuid != 0 && !isGuid(s) {
		c.can &^= canGuid
	}
	if c.can&canTime != 0 {
		if _, err := rows.AsTime(c.name, s); err != nil {
			c.can &^= canTime
		}
	}
}

func (c *column) info() schema.ColumnInfo {
	out := schema.ColumnInfo{Name: c.name, AllowNull: c.nulls || c.values == 0}
	switch {
	case c.values == 0:
		out.Type = schema.String
	case c.can&canInt32 != 0:
		out.Type = schema.Int32
	case c.can&canInt64 != 0:
		out.Type = schema.Int64
	case c.can&canBool != 0:
		out.Type = schema.Boolean
	case c.can&canFloat != 0:
		out.Type = schema.Double
	case c.can&canGuid != 0:
		out.Type = schema.Guid
	case c.can&canTime != 0:
		out.Type = schema.DateTime
	default:
		out.Type = schema.String
		out.Size = schema.SizeOf(c.maxLen)
	}
	return out
}

// isBool accepts common textual booleans. Digits are left to the integer
// check.
func isBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "t", "f", "yes", "no", "y", "n", "1", "0":
		return true
	}
	return false
}

func isGuid(s string) bool {
	if len(s) != 36 && len(s) != 38 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Analyze reads up to opt.SampleRows rows from c and returns one column per
// cursor column. It does not close c.
func Analyze(c rows.Cursor, opt Options) ([]schema.ColumnInfo, error) {
	limit := opt.SampleRows
	if limit <= 0 {
		limit = DefaultSampleRows
	}

	src := c.Columns()
	cols := make([]*column, len(src))
	for i, sc := range src {
		cols[i] = &column{name: sc.Name, can: allCandidates}
	}

	for n := 0; n < limit && c.Next(); n++ {
		for i, col := range cols {
			if c.IsNull(i) {
				col.nulls = true
				continue
			}
			s, err := c.String(i)
			if err != nil {
				return nil, fmt.Errorf("infer: row %d: %w", n+1, err)
			}
			col.observe(s)
		}
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("infer: %w", err)
	}

	out := make([]schema.ColumnInfo, len(cols))
	for i, col := range cols {
		out[i] = col.info()
	}
	return out, nil
}
