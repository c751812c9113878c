package ddl

import (
	gddl "dbetl/internal/ddl"
	"dbetl/internal/schema"
)

// BuildCreateTableSQL returns a Postgres CREATE TABLE statement for t. It is
// a thin wrapper over the generic renderer with Postgres quoting and types.
func BuildCreateTableSQL(t schema.TableInfo) (string, error) {
	return gddl.Build(Dialect, t)
}
