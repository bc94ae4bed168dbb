package mariadb_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/runkey/core/ast"
	"github.com/stokaro/runkey/core/renderer/dialects/mariadb"
)

func TestRenderer_SharesMySQLSyntax(t *testing.T) {
	c := qt.New(t)

	r := mariadb.New()
	c.Assert(r.Dialect(), qt.Equals, "mariadb")

	stmts, err := r.Statements(&ast.StatementList{Statements: []ast.Node{
		ast.NewAlterTable("dag_run", &ast.DropConstraintOperation{Name: "dag_id", Type: ast.UniqueConstraint}),
		ast.NewRenameTable("_tmp_dag_run", "dag_run"),
	}})
	c.Assert(err, qt.IsNil)
	c.Assert(stmts, qt.DeepEquals, []string{
		"ALTER TABLE dag_run DROP INDEX dag_id",
		"RENAME TABLE _tmp_dag_run TO dag_run",
	})
}
