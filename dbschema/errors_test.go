package dbschema_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/stokaro/runkey/dbschema"
)

func TestIsNotNullViolation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "plain error", err: errors.New("boom"), expected: false},
		{name: "postgres not null", err: &pgconn.PgError{Code: pgerrcode.NotNullViolation}, expected: true},
		{name: "postgres unique", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, expected: false},
		{name: "mysql bad null", err: &mysql.MySQLError{Number: 1048}, expected: true},
		{name: "mysql invalid use of null", err: &mysql.MySQLError{Number: 1138}, expected: true},
		{name: "mysql duplicate key", err: &mysql.MySQLError{Number: 1062}, expected: false},
		{name: "mssql cannot insert null", err: mssql.Error{Number: 515}, expected: true},
		{name: "mssql pointer", err: &mssql.Error{Number: 515}, expected: true},
		{name: "mssql fk conflict", err: mssql.Error{Number: 547}, expected: false},
		{name: "wrapped postgres", err: fmt.Errorf("failed to execute SQL: %w", &pgconn.PgError{Code: pgerrcode.NotNullViolation}), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(dbschema.IsNotNullViolation(tt.err), qt.Equals, tt.expected)
		})
	}
}

func TestIsNotNullViolation_SQLite(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	conn, err := dbschema.ConnectToDatabase("sqlite://:memory:")
	c.Assert(err, qt.IsNil)
	defer conn.Close()

	w := conn.Writer()
	c.Assert(w.ExecuteSQL(ctx, "CREATE TABLE task_instance (run_id VARCHAR(250) NOT NULL)"), qt.IsNil)

	err = w.ExecuteSQL(ctx, "INSERT INTO task_instance (run_id) VALUES (NULL)")
	c.Assert(err, qt.IsNotNil)
	c.Assert(dbschema.IsNotNullViolation(err), qt.IsTrue)

	c.Assert(w.ExecuteSQL(ctx, "CREATE TABLE dag_run (run_id VARCHAR(250) UNIQUE)"), qt.IsNil)
	c.Assert(w.ExecuteSQL(ctx, "INSERT INTO dag_run (run_id) VALUES ('a')"), qt.IsNil)
	err = w.ExecuteSQL(ctx, "INSERT INTO dag_run (run_id) VALUES ('a')")
	c.Assert(err, qt.IsNotNil)
	c.Assert(dbschema.IsNotNullViolation(err), qt.IsFalse)
}
