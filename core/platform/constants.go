package platform

import (
	"strings"
)

const (
	Postgres = "postgres"
	MySQL    = "mysql"
	MariaDB  = "mariadb"
	SQLite   = "sqlite"
	MSSQL    = "mssql"
)

// NormalizeDialect maps driver names and URL schemes to a platform name.
// Unknown names are returned lower-cased so that callers can still log them;
// Lookup treats them as the generic dialect.
func NormalizeDialect(dialect string) string {
	switch d := strings.ToLower(strings.TrimSpace(dialect)); d {
	case "pgx", "postgresql", "postgres":
		return Postgres
	case "mysql":
		return MySQL
	case "mariadb":
		return MariaDB
	case "sqlite", "sqlite3":
		return SQLite
	case "mssql", "sqlserver":
		return MSSQL
	default:
		return d
	}
}

// IsMySQLFamily reports whether the dialect is MySQL or MariaDB.
func IsMySQLFamily(dialect string) bool {
	d := NormalizeDialect(dialect)
	return d == MySQL || d == MariaDB
}

// DefaultIDCollation returns the collation identifier columns use when none
// is configured. MySQL needs a case-sensitive binary collation so that ids
// differing only in case stay distinct.
func DefaultIDCollation(dialect string) string {
	if IsMySQLFamily(dialect) {
		return "utf8mb3_bin"
	}
	return ""
}
