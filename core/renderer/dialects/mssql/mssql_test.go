package mssql_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/runkey/core/ast"
	"github.com/stokaro/runkey/core/renderer/dialects/mssql"
)

func TestRenderer_VisitAlterTable(t *testing.T) {
	c := qt.New(t)

	stmts, err := mssql.New().Statements(ast.NewAlterTable("task_instance",
		&ast.AddColumnOperation{Column: ast.NewColumn("run_id", ast.StringType(250))},
		&ast.ModifyColumnOperation{Column: ast.NewColumn("run_id", ast.StringType(250)).SetNotNull(), SetNullable: true},
		&ast.ModifyColumnOperation{Column: ast.NewColumn("execution_date", ast.TimestampType(true)), SetType: true},
		&ast.DropConstraintOperation{Name: "PK__task_ins__5B9C1E4C", Type: ast.PrimaryKeyConstraint},
	))
	c.Assert(err, qt.IsNil)
	c.Assert(stmts, qt.DeepEquals, []string{
		"ALTER TABLE task_instance ADD run_id VARCHAR(250) NULL",
		"ALTER TABLE task_instance ALTER COLUMN run_id VARCHAR(250) NOT NULL",
		"ALTER TABLE task_instance ALTER COLUMN execution_date DATETIME2(6) NULL",
		"ALTER TABLE task_instance DROP CONSTRAINT PK__task_ins__5B9C1E4C",
	})
}

func TestRenderer_VisitCreateTable(t *testing.T) {
	c := qt.New(t)

	table := ast.NewCreateTable("task_reschedule").
		AddColumn(ast.NewColumn("id", ast.DataType{Kind: ast.Integer}).SetAutoIncrement()).
		AddColumn(ast.NewColumn("dag_id", ast.StringType(250)).SetNotNull()).
		AddConstraint(ast.NewPrimaryKeyConstraint("task_reschedule_pkey", "id")).
		AddConstraint(ast.NewForeignKeyConstraint("task_reschedule_dr_fkey", []string{"dag_id"},
			&ast.ForeignKeyRef{Table: "dag_run", Columns: []string{"dag_id"}, OnDelete: "NO ACTION"}))

	stmts, err := mssql.New().Statements(table)
	c.Assert(err, qt.IsNil)
	c.Assert(stmts, qt.DeepEquals, []string{"CREATE TABLE task_reschedule (\n" +
		"\tid INTEGER IDENTITY(1,1) NOT NULL,\n" +
		"\tdag_id VARCHAR(250) NOT NULL,\n" +
		"\tCONSTRAINT task_reschedule_pkey PRIMARY KEY (id),\n" +
		"\tCONSTRAINT task_reschedule_dr_fkey FOREIGN KEY (dag_id) REFERENCES dag_run (dag_id) ON DELETE NO ACTION\n" +
		")"})
}

func TestRenderer_DropIndexNeedsTable(t *testing.T) {
	c := qt.New(t)

	stmts, err := mssql.New().Statements(ast.NewDropIndex("ti_dag_date", "task_instance"))
	c.Assert(err, qt.IsNil)
	c.Assert(stmts, qt.DeepEquals, []string{"DROP INDEX ti_dag_date ON task_instance"})

	_, err = mssql.New().Statements(ast.NewDropIndex("ti_dag_date", ""))
	c.Assert(err, qt.IsNotNil)
}
