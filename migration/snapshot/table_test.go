package snapshot_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/runkey/core/ast"
	"github.com/stokaro/runkey/core/renderer/dialects/sqlite"
	"github.com/stokaro/runkey/migration/snapshot"
)

func taskReschedule() *snapshot.Table {
	return &snapshot.Table{
		Name: "task_reschedule",
		Columns: []snapshot.Column{
			{Name: "id", Type: ast.DataType{Kind: ast.Integer}, AutoInc: true},
			{Name: "task_id", Type: ast.StringType(250)},
			{Name: "dag_id", Type: ast.StringType(250)},
			{Name: "execution_date", Type: ast.TimestampType(true)},
		},
		PrimaryKey: &snapshot.Key{Name: "task_reschedule_pkey", Columns: []string{"id"}},
		ForeignKeys: []snapshot.ForeignKey{{
			Name:       "task_reschedule_dag_task_date_fkey",
			Columns:    []string{"dag_id", "task_id", "execution_date"},
			RefTable:   "task_instance",
			RefColumns: []string{"dag_id", "task_id", "execution_date"},
			OnDelete:   "CASCADE",
		}},
		Indexes: []snapshot.Index{
			{Name: "idx_task_reschedule_dag_task_date", Columns: []string{"dag_id", "task_id", "execution_date"}},
		},
	}
}

func TestTable_DropColumnInUse(t *testing.T) {
	c := qt.New(t)
	tbl := taskReschedule()

	c.Assert(tbl.DropColumn("execution_date"), qt.ErrorIs, snapshot.ErrInUse)

	kind, err := tbl.DropConstraint("task_reschedule_dag_task_date_fkey")
	c.Assert(err, qt.IsNil)
	c.Assert(kind, qt.Equals, ast.ForeignKeyConstraint)
	c.Assert(tbl.DropColumn("execution_date"), qt.ErrorIs, snapshot.ErrInUse)

	c.Assert(tbl.DropIndex("idx_task_reschedule_dag_task_date"), qt.IsNil)
	c.Assert(tbl.DropColumn("execution_date"), qt.IsNil)
	c.Assert(tbl.ColumnNames(), qt.DeepEquals, []string{"id", "task_id", "dag_id"})
}

func TestTable_UnknownNames(t *testing.T) {
	c := qt.New(t)
	tbl := taskReschedule()

	c.Assert(tbl.DropColumn("run_id"), qt.ErrorIs, snapshot.ErrNotFound)
	c.Assert(tbl.DropIndex("ti_dag_date"), qt.ErrorIs, snapshot.ErrNotFound)
	_, err := tbl.DropConstraint("task_reschedule_ti_fkey")
	c.Assert(err, qt.ErrorIs, snapshot.ErrNotFound)
	c.Assert(tbl.AlterColumn("run_id", func(*snapshot.Column) {}), qt.ErrorIs, snapshot.ErrNotFound)
	c.Assert(tbl.AddIndex(snapshot.Index{Name: "idx_run", Columns: []string{"run_id"}}), qt.ErrorIs, snapshot.ErrNotFound)
	c.Assert(tbl.AddColumn(snapshot.Column{Name: "dag_id"}), qt.ErrorIs, snapshot.ErrExists)
	c.Assert(tbl.AddIndex(snapshot.Index{Name: "idx_task_reschedule_dag_task_date", Columns: []string{"dag_id"}}), qt.ErrorIs, snapshot.ErrExists)
	c.Assert(tbl.AddForeignKey(snapshot.ForeignKey{
		Name:       "task_reschedule_dr_fkey",
		Columns:    []string{"dag_id"},
		RefTable:   "dag_run",
		RefColumns: []string{"dag_id", "run_id"},
	}), qt.ErrorMatches, "foreign key task_reschedule_dr_fkey on task_reschedule references 2 columns with 1")
}

func TestTable_Clone(t *testing.T) {
	c := qt.New(t)
	tbl := taskReschedule()
	clone := tbl.Clone()
	c.Assert(clone, qt.DeepEquals, tbl)

	clone.PrimaryKey.Columns[0] = "changed"
	clone.Indexes[0].Columns[0] = "changed"
	clone.ForeignKeys[0].RefColumns[0] = "changed"
	c.Assert(tbl.PrimaryKey.Columns[0], qt.Equals, "id")
	c.Assert(tbl.Indexes[0].Columns[0], qt.Equals, "dag_id")
	c.Assert(tbl.ForeignKeys[0].RefColumns[0], qt.Equals, "dag_id")
}

func TestTable_NameUniques(t *testing.T) {
	c := qt.New(t)

	tbl := &snapshot.Table{
		Name: "dag_run",
		Columns: []snapshot.Column{
			{Name: "dag_id", Type: ast.StringType(250)},
			{Name: "run_id", Type: ast.StringType(250)},
		},
	}
	c.Assert(tbl.AddUnique(snapshot.Key{Columns: []string{"dag_id", "run_id"}}), qt.IsNil)
	tbl.NameUniques(func(table string, key snapshot.Key) string {
		return table + "_" + key.Columns[0] + "_" + key.Columns[1] + "_key"
	})
	c.Assert(tbl.Uniques[0].Name, qt.Equals, "dag_run_dag_id_run_id_key")

	kind, err := tbl.DropConstraint("dag_run_dag_id_run_id_key")
	c.Assert(err, qt.IsNil)
	c.Assert(kind, qt.Equals, ast.UniqueConstraint)
}

func TestTable_CreateTable(t *testing.T) {
	c := qt.New(t)

	stmts, err := sqlite.New().Statements(&ast.StatementList{
		Statements: append([]ast.Node{taskReschedule().CreateTable("_tmp_task_reschedule")}, taskReschedule().CreateIndexes()...),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(stmts, qt.DeepEquals, []string{
		"CREATE TABLE _tmp_task_reschedule (\n" +
			"\tid INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,\n" +
			"\ttask_id VARCHAR(250) NOT NULL,\n" +
			"\tdag_id VARCHAR(250) NOT NULL,\n" +
			"\texecution_date TIMESTAMP NOT NULL,\n" +
			"\tCONSTRAINT task_reschedule_dag_task_date_fkey FOREIGN KEY (dag_id, task_id, execution_date) REFERENCES task_instance (dag_id, task_id, execution_date) ON DELETE CASCADE\n" +
			")",
		"CREATE INDEX idx_task_reschedule_dag_task_date ON task_reschedule (dag_id, task_id, execution_date)",
	})
}
