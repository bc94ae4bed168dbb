package sqlite_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/runkey/core/ast"
	"github.com/stokaro/runkey/core/renderer/dialects/sqlite"
)

func TestRenderer_AutoIncrementKeyIsInline(t *testing.T) {
	c := qt.New(t)

	table := ast.NewCreateTable("_tmp_task_reschedule").
		AddColumn(ast.NewColumn("id", ast.DataType{Kind: ast.Integer}).SetAutoIncrement()).
		AddColumn(ast.NewColumn("run_id", ast.StringType(250).WithCollation("utf8mb3_bin")).SetNotNull()).
		AddColumn(ast.NewColumn("reschedule_date", ast.TimestampType(true)).SetNotNull()).
		AddConstraint(ast.NewPrimaryKeyConstraint("task_reschedule_pkey", "id")).
		AddConstraint(ast.NewUniqueConstraint("", "run_id"))

	stmts, err := sqlite.New().Statements(table)
	c.Assert(err, qt.IsNil)
	c.Assert(stmts, qt.DeepEquals, []string{"CREATE TABLE _tmp_task_reschedule (\n" +
		"\tid INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,\n" +
		"\trun_id VARCHAR(250) NOT NULL,\n" +
		"\treschedule_date TIMESTAMP NOT NULL,\n" +
		"\tUNIQUE (run_id)\n" +
		")"})
}

func TestRenderer_AlterTable(t *testing.T) {
	c := qt.New(t)

	r := sqlite.New()
	stmts, err := r.Statements(ast.NewAlterTable("task_instance",
		&ast.AddColumnOperation{Column: ast.NewColumn("run_id", ast.StringType(250).WithCollation("nocase"))}))
	c.Assert(err, qt.IsNil)
	c.Assert(stmts, qt.DeepEquals, []string{"ALTER TABLE task_instance ADD COLUMN run_id VARCHAR(250) COLLATE NOCASE"})

	_, err = r.Statements(ast.NewAlterTable("task_instance", &ast.DropColumnOperation{ColumnName: "execution_date"}))
	c.Assert(errors.Is(err, sqlite.ErrRequiresRebuild), qt.IsTrue)

	_, err = r.Statements(ast.NewAlterTable("task_instance",
		&ast.DropConstraintOperation{Name: "task_instance_pkey", Type: ast.PrimaryKeyConstraint}))
	c.Assert(errors.Is(err, sqlite.ErrRequiresRebuild), qt.IsTrue)
}

func TestRenderer_RebuildStatements(t *testing.T) {
	c := qt.New(t)

	sql, err := sqlite.New().Render(&ast.StatementList{Statements: []ast.Node{
		ast.NewInsertSelect("_tmp_dag_run", "dag_run", "id", "dag_id", "run_id"),
		ast.NewDropTable("dag_run"),
		ast.NewRenameTable("_tmp_dag_run", "dag_run"),
		ast.NewDropIndex("ti_dag_date", "task_instance"),
	}})
	c.Assert(err, qt.IsNil)
	c.Assert(sql, qt.Equals, "INSERT INTO _tmp_dag_run (id, dag_id, run_id) SELECT id, dag_id, run_id FROM dag_run;\n"+
		"DROP TABLE dag_run;\n"+
		"ALTER TABLE _tmp_dag_run RENAME TO dag_run;\n"+
		"DROP INDEX ti_dag_date;\n")
}
