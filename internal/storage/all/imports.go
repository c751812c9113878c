// Package all registers every built-in storage backend. Import it for side
// effects from binaries that select backends by kind at runtime.
package all

import (
	_ "dbetl/internal/storage/mssql"
	_ "dbetl/internal/storage/postgres"
	_ "dbetl/internal/storage/sqlite"
)
