package ddl

import (
	gddl "dbetl/internal/ddl"
	"dbetl/internal/schema"
)

// BuildCreateTableSQL returns a plain CREATE TABLE for t:
//
//	CREATE TABLE [schema].[table] (
//	  [col1] INT NOT NULL,
//	  [col2] VARCHAR(MAX) NULL
//	);
//
// There is no OBJECT_ID guard: loading into an existing table is an error.
func BuildCreateTableSQL(t schema.TableInfo) (string, error) {
	return gddl.Build(Dialect, t)
}
