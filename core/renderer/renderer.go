// Package renderer selects the SQL renderer for a database dialect.
package renderer

import (
	"github.com/stokaro/runkey/core/platform"
	"github.com/stokaro/runkey/core/renderer/dialects/mariadb"
	"github.com/stokaro/runkey/core/renderer/dialects/mssql"
	"github.com/stokaro/runkey/core/renderer/dialects/mysql"
	"github.com/stokaro/runkey/core/renderer/dialects/postgres"
	"github.com/stokaro/runkey/core/renderer/dialects/sqlite"
	"github.com/stokaro/runkey/core/renderer/types"
)

// New returns a renderer for the dialect. Engines without a dedicated
// renderer get PostgreSQL syntax under their own name.
func New(dialect string) types.RenderVisitor {
	switch name := platform.NormalizeDialect(dialect); name {
	case platform.Postgres:
		return postgres.New()
	case platform.MySQL:
		return mysql.New()
	case platform.MariaDB:
		return mariadb.New()
	case platform.SQLite:
		return sqlite.New()
	case platform.MSSQL:
		return mssql.New()
	default:
		return postgres.NewNamed(name)
	}
}
