package dbschema_test

import (
	"context"
	"errors"
	"testing"

	sq "github.com/Masterminds/squirrel"
	qt "github.com/frankban/quicktest"

	"github.com/stokaro/runkey/dbschema"
)

// newCatalogDB attaches an in-memory database named INFORMATION_SCHEMA with
// the two catalog views TableConstraints reads.
func newCatalogDB(c *qt.C) *dbschema.DatabaseConnection {
	ctx := context.Background()

	conn, err := dbschema.ConnectToDatabase("sqlite://:memory:")
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { _ = conn.Close() })

	for _, stmt := range []string{
		"ATTACH DATABASE ':memory:' AS INFORMATION_SCHEMA",
		"CREATE TABLE INFORMATION_SCHEMA.TABLE_CONSTRAINTS (CONSTRAINT_NAME TEXT, CONSTRAINT_TYPE TEXT, TABLE_NAME TEXT)",
		"CREATE TABLE INFORMATION_SCHEMA.CONSTRAINT_COLUMN_USAGE (CONSTRAINT_NAME TEXT, COLUMN_NAME TEXT)",
		`INSERT INTO INFORMATION_SCHEMA.TABLE_CONSTRAINTS VALUES
			('PK__task_ins__8E5A4C1D', 'PRIMARY KEY', 'task_instance'),
			('ti_unique_marker', 'unique', 'task_instance'),
			('task_instance_dag_run_fkey', 'FOREIGN KEY', 'task_instance'),
			('dag_run_dag_id_run_id_key', 'UNIQUE', 'dag_run')`,
		`INSERT INTO INFORMATION_SCHEMA.CONSTRAINT_COLUMN_USAGE VALUES
			('PK__task_ins__8E5A4C1D', 'dag_id'),
			('PK__task_ins__8E5A4C1D', 'task_id'),
			('PK__task_ins__8E5A4C1D', 'execution_date'),
			('ti_unique_marker', 'marker'),
			('task_instance_dag_run_fkey', 'run_id'),
			('dag_run_dag_id_run_id_key', 'dag_id'),
			('dag_run_dag_id_run_id_key', 'run_id')`,
	} {
		c.Assert(conn.Writer().ExecuteSQL(ctx, stmt), qt.IsNil)
	}
	return conn
}

func TestTableConstraints(t *testing.T) {
	c := qt.New(t)
	conn := newCatalogDB(c)

	constraints, err := dbschema.TableConstraints(context.Background(), conn, sq.Question, "task_instance")
	c.Assert(err, qt.IsNil)

	c.Assert(constraints, qt.HasLen, 2)
	c.Assert(constraints[dbschema.PrimaryKey]["PK__task_ins__8E5A4C1D"], qt.ContentEquals, []string{"dag_id", "task_id", "execution_date"})
	c.Assert(constraints["unique"]["ti_unique_marker"], qt.DeepEquals, []string{"marker"})

	name, err := constraints.PrimaryKeyName()
	c.Assert(err, qt.IsNil)
	c.Assert(name, qt.Equals, "PK__task_ins__8E5A4C1D")
}

func TestTableConstraints_NoPrimaryKey(t *testing.T) {
	c := qt.New(t)
	conn := newCatalogDB(c)

	constraints, err := dbschema.TableConstraints(context.Background(), conn, sq.Question, "dag_run")
	c.Assert(err, qt.IsNil)
	c.Assert(constraints[dbschema.Unique]["dag_run_dag_id_run_id_key"], qt.ContentEquals, []string{"dag_id", "run_id"})

	_, err = constraints.PrimaryKeyName()
	c.Assert(err, qt.ErrorIs, dbschema.ErrNoPrimaryKey)
}

func TestTableConstraints_QueryErrorIsWrapped(t *testing.T) {
	c := qt.New(t)

	// No INFORMATION_SCHEMA attached.
	conn, err := dbschema.ConnectToDatabase("sqlite://:memory:")
	c.Assert(err, qt.IsNil)
	defer conn.Close()

	_, err = dbschema.TableConstraints(context.Background(), conn, sq.Question, "task_instance")
	c.Assert(err, qt.ErrorMatches, "failed to query constraints of task_instance: .*")
	c.Assert(errors.Unwrap(err), qt.IsNotNil)

	offline := dbschema.NewOfflineConnection("mssql", nil)
	_, err = dbschema.TableConstraints(context.Background(), offline, sq.AtP, "task_instance")
	c.Assert(err, qt.ErrorIs, dbschema.ErrOffline)
}
