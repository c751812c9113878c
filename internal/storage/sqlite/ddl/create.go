package ddl

import (
	"fmt"
	"strings"

	gddl "dbetl/internal/ddl"
	"dbetl/internal/schema"
)

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement for t:
//
//	CREATE TABLE "table" (
//	  "col1" INTEGER NOT NULL,
//	  "col2" TEXT NULL
//	);
func BuildCreateTableSQL(t schema.TableInfo) (string, error) {
	return gddl.Build(Dialect, t)
}

// BuildInsertSQL returns the prepared INSERT used by the load path.
func BuildInsertSQL(t schema.TableInfo) (string, error) {
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("sqlite ddl: at least one column is required")
	}
	names := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = QuoteIdent(c.Name)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QualifiedName(t.Schema, t.Name),
		strings.Join(names, ", "),
		strings.Join(marks, ", "),
	), nil
}
