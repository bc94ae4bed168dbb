package mysql_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/runkey/core/ast"
	"github.com/stokaro/runkey/core/renderer/dialects/mysql"
)

func TestRenderer_VisitAlterTable(t *testing.T) {
	tests := []struct {
		name     string
		op       ast.AlterOperation
		expected string
	}{
		{
			name: "modify restates the full column",
			op: &ast.ModifyColumnOperation{
				Column:      ast.NewColumn("run_id", ast.StringType(250).WithCollation("utf8mb3_bin")).SetNotNull(),
				SetNullable: true,
			},
			expected: "ALTER TABLE task_instance MODIFY run_id VARCHAR(250) COLLATE utf8mb3_bin NOT NULL",
		},
		{
			name: "nullable timestamp",
			op: &ast.ModifyColumnOperation{
				Column:  ast.NewColumn("execution_date", ast.TimestampType(true)),
				SetType: true,
			},
			expected: "ALTER TABLE task_instance MODIFY execution_date TIMESTAMP(6) NULL",
		},
		{
			name:     "drop primary key",
			op:       &ast.DropConstraintOperation{Name: "task_instance_pkey", Type: ast.PrimaryKeyConstraint},
			expected: "ALTER TABLE task_instance DROP PRIMARY KEY",
		},
		{
			name:     "drop foreign key",
			op:       &ast.DropConstraintOperation{Name: "task_reschedule_dag_task_date_fkey", Type: ast.ForeignKeyConstraint},
			expected: "ALTER TABLE task_instance DROP FOREIGN KEY task_reschedule_dag_task_date_fkey",
		},
		{
			name:     "drop unique",
			op:       &ast.DropConstraintOperation{Name: "dag_id_2", Type: ast.UniqueConstraint},
			expected: "ALTER TABLE task_instance DROP INDEX dag_id_2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			stmts, err := mysql.New().Statements(ast.NewAlterTable("task_instance", tt.op))
			c.Assert(err, qt.IsNil)
			c.Assert(stmts, qt.DeepEquals, []string{tt.expected})
		})
	}
}

func TestRenderer_VisitCreateTable(t *testing.T) {
	c := qt.New(t)

	table := ast.NewCreateTable("task_reschedule").
		AddColumn(ast.NewColumn("id", ast.DataType{Kind: ast.Integer}).SetAutoIncrement()).
		AddColumn(ast.NewColumn("try_number", ast.DataType{Kind: ast.Integer}).SetNotNull()).
		AddConstraint(ast.NewPrimaryKeyConstraint("task_reschedule_pkey", "id"))

	sql, err := mysql.New().Render(table)
	c.Assert(err, qt.IsNil)
	c.Assert(sql, qt.Equals, "CREATE TABLE task_reschedule (\n"+
		"\tid INTEGER NOT NULL AUTO_INCREMENT,\n"+
		"\ttry_number INTEGER NOT NULL,\n"+
		"\tCONSTRAINT task_reschedule_pkey PRIMARY KEY (id)\n"+
		");\n")
}

func TestRenderer_VisitDropIndex(t *testing.T) {
	c := qt.New(t)

	r := mysql.New()
	stmts, err := r.Statements(ast.NewDropIndex("ti_dag_date", "task_instance"))
	c.Assert(err, qt.IsNil)
	c.Assert(stmts, qt.DeepEquals, []string{"DROP INDEX ti_dag_date ON task_instance"})

	_, err = r.Statements(ast.NewDropIndex("ti_dag_date", ""))
	c.Assert(err, qt.ErrorMatches, "dropping index ti_dag_date requires a table name on mysql")
	c.Assert(r.Dialect(), qt.Equals, "mysql")
}
