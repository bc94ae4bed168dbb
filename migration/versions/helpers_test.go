package versions_test

import (
	"context"
	"slices"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	qt "github.com/frankban/quicktest"
	"github.com/go-extras/go-kit/must"

	"github.com/stokaro/runkey/core/ast"
	"github.com/stokaro/runkey/core/renderer"
	"github.com/stokaro/runkey/dbschema"
	"github.com/stokaro/runkey/dbschema/sqlite"
	"github.com/stokaro/runkey/migration/snapshot"
	"github.com/stokaro/runkey/migration/versions"
)

const (
	day1 = "2021-01-01 00:00:00"
	day2 = "2021-01-02 00:00:00"
)

// newDatabase creates the tables as the previous revision left them in an
// in-memory SQLite database.
func newDatabase(c *qt.C) *dbschema.DatabaseConnection {
	conn := must.Must(dbschema.ConnectToDatabase("sqlite://:memory:"))
	c.Cleanup(func() { _ = conn.Close() })

	r := renderer.New("sqlite")
	for _, m := range []*snapshot.Table{
		versions.DagRunBefore("sqlite"),
		versions.TaskInstanceBefore("sqlite", ""),
		versions.TaskRescheduleBefore("sqlite", ""),
	} {
		nodes := append([]ast.Node{m.CreateTable(m.Name)}, m.CreateIndexes()...)
		stmts, err := r.Statements(&ast.StatementList{Statements: nodes})
		c.Assert(err, qt.IsNil)
		for _, stmt := range stmts {
			c.Assert(conn.Writer().ExecuteSQL(context.Background(), stmt), qt.IsNil)
		}
	}
	return conn
}

func exec(c *qt.C, conn *dbschema.DatabaseConnection, stmt sq.Sqlizer) {
	c.Assert(conn.Writer().Exec(context.Background(), stmt), qt.IsNil)
}

// seed inserts two dags with three runs, four task instances and two task
// reschedules, every one of them matched by a dag run.
func seed(c *qt.C, conn *dbschema.DatabaseConnection) {
	exec(c, conn, sq.Insert("dag_run").
		Columns("dag_id", "execution_date", "run_id", "run_type", "state").
		Values("etl", day1, "scheduled__2021-01-01", "scheduled", "success").
		Values("etl", day2, "manual__2021-01-02", "manual", "running").
		Values("report", day1, "scheduled__report", "scheduled", "success"))

	exec(c, conn, sq.Insert("task_instance").
		Columns("dag_id", "task_id", "execution_date", "pool", "state", "try_number").
		Values("etl", "extract", day1, "default_pool", "success", 1).
		Values("etl", "load", day1, "default_pool", "success", 1).
		Values("etl", "extract", day2, "default_pool", "up_for_reschedule", 2).
		Values("report", "render", day1, "default_pool", "success", 1))

	exec(c, conn, sq.Insert("task_reschedule").
		Columns("dag_id", "task_id", "execution_date", "try_number", "start_date", "end_date", "duration", "reschedule_date").
		Values("etl", "extract", day2, 1, day2, day2, 10, day2).
		Values("etl", "extract", day2, 2, day2, day2, 20, day2))
}

type taskKey struct {
	DagID, TaskID, Key string
}

// taskKeys returns (dag_id, task_id, column) of every row of table, sorted.
func taskKeys(c *qt.C, conn *dbschema.DatabaseConnection, table, column string) []taskKey {
	query, args, err := sq.Select("dag_id", "task_id", column).From(table).OrderBy("dag_id", "task_id", column).ToSql()
	c.Assert(err, qt.IsNil)
	rows, err := conn.QueryContext(context.Background(), query, args...)
	c.Assert(err, qt.IsNil)
	defer rows.Close()

	var keys []taskKey
	for rows.Next() {
		var k taskKey
		if column == "execution_date" {
			var t time.Time
			c.Assert(rows.Scan(&k.DagID, &k.TaskID, &t), qt.IsNil)
			k.Key = t.UTC().Format(time.DateTime)
		} else {
			c.Assert(rows.Scan(&k.DagID, &k.TaskID, &k.Key), qt.IsNil)
		}
		keys = append(keys, k)
	}
	c.Assert(rows.Err(), qt.IsNil)
	return keys
}

func count(c *qt.C, conn *dbschema.DatabaseConnection, query string) int {
	var n int
	c.Assert(conn.QueryRowContext(context.Background(), query).Scan(&n), qt.IsNil)
	return n
}

// shape is the part of a live table the revision changes, order-insensitive.
type shape struct {
	Columns     []string
	PrimaryKey  []string
	NotNull     []string
	Indexes     []string
	ForeignKeys []string
}

func readShape(c *qt.C, conn *dbschema.DatabaseConnection, table string) shape {
	schema, err := sqlite.NewSQLiteReader(conn).ReadSchema(context.Background())
	c.Assert(err, qt.IsNil)
	t := schema.Table(table)
	c.Assert(t, qt.IsNotNil)

	var s shape
	for _, col := range t.Columns {
		s.Columns = append(s.Columns, col.Name)
		if col.IsPrimaryKey {
			s.PrimaryKey = append(s.PrimaryKey, col.Name)
		}
		if col.IsNullable == "NO" {
			s.NotNull = append(s.NotNull, col.Name)
		}
	}
	for _, idx := range schema.TableIndexes(table) {
		if idx.Origin == "c" {
			s.Indexes = append(s.Indexes, idx.Name)
		}
	}
	for _, fk := range schema.TableConstraints(table) {
		s.ForeignKeys = append(s.ForeignKeys, *fk.ForeignTable+"("+strings.Join(fk.ForeignColumns, ", ")+") ON DELETE "+*fk.DeleteRule)
	}
	for _, list := range [][]string{s.Columns, s.PrimaryKey, s.NotNull, s.Indexes, s.ForeignKeys} {
		slices.Sort(list)
	}
	return s
}

