package dbschema

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	mssql "github.com/microsoft/go-mssqldb"
)

// MySQL server error numbers raised when a NULL meets a NOT NULL column.
const (
	mysqlBadNullError      = 1048 // ER_BAD_NULL_ERROR
	mysqlInvalidUseOfNull  = 1138 // ER_INVALID_USE_OF_NULL
	mysqlWarnNullToNotNull = 1263 // ER_WARN_NULL_TO_NOTNULL
)

// mssqlCannotInsertNull is "Cannot insert the value NULL into column".
const mssqlCannotInsertNull = 515

// IsNotNullViolation reports whether err is a driver error for a NULL value
// in a NOT NULL column, on any supported engine.
func IsNotNullViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.NotNullViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlBadNullError, mysqlInvalidUseOfNull, mysqlWarnNullToNotNull:
			return true
		}
		return false
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintNotNull
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return msErr.Number == mssqlCannotInsertNull
	}
	var msErrPtr *mssql.Error
	if errors.As(err, &msErrPtr) {
		return msErrPtr.Number == mssqlCannotInsertNull
	}

	return false
}
