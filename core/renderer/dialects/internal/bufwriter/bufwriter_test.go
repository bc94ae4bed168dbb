package bufwriter

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestWriter(t *testing.T) {
	c := qt.New(t)

	var w Writer
	w.Commentf("rebuild %s", "dag_run")
	w.Statementf("  DROP TABLE %s  ", "dag_run")
	w.Statementf("ALTER TABLE _tmp_dag_run RENAME TO dag_run")

	c.Assert(w.Statements(), qt.DeepEquals, []string{
		"DROP TABLE dag_run",
		"ALTER TABLE _tmp_dag_run RENAME TO dag_run",
	})
	c.Assert(w.String(), qt.Equals, "-- rebuild dag_run\nDROP TABLE dag_run;\nALTER TABLE _tmp_dag_run RENAME TO dag_run;\n")

	w.Reset()
	c.Assert(w.Statements(), qt.HasLen, 0)
	c.Assert(w.String(), qt.Equals, "")
}
