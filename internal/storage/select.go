package storage

import (
	"errors"
	"strings"

	"dbetl/internal/schema"
)

// Quoter is the identifier part of a Provider.
type Quoter interface {
	QuoteIdent(id string) string
	QualifiedName(schemaName, table string) string
}

// ColumnSelector is implemented by providers that wrap some columns in the
// select list, e.g. a cast for types the cursor reads back as text.
type ColumnSelector interface {
	SelectColumn(c schema.ColumnInfo) string
}

// ErrNoColumns is returned when a projection would select nothing.
var ErrNoColumns = errors.New("no columns to select")

// SelectSQL renders SELECT of cols from t in the given order. When q is also
// a ColumnSelector it renders each select-list entry.
func SelectSQL(q Quoter, t schema.TableInfo, cols []schema.ColumnInfo) (string, error) {
	if len(cols) == 0 {
		return "", ErrNoColumns
	}
	sel, _ := q.(ColumnSelector)
	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		if sel != nil {
			sb.WriteString(sel.SelectColumn(c))
			continue
		}
		sb.WriteString(q.QuoteIdent(c.Name))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(q.QualifiedName(t.Schema, t.Name))
	return sb.String(), nil
}
