package check_test

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-extras/go-kit/must"

	"github.com/stokaro/runkey/cmd/check"
	"github.com/stokaro/runkey/dbschema"
	"github.com/stokaro/runkey/migration/versions"
)

// newDatabase creates a SQLite file with the columns the check reads and
// returns its URL.
func newDatabase(c *qt.C, statements ...string) string {
	url := "sqlite://" + filepath.Join(c.TempDir(), "airflow.db")
	conn := must.Must(dbschema.ConnectToDatabase(url))
	defer conn.Close()

	for _, stmt := range append([]string{
		"CREATE TABLE dag_run (id INTEGER PRIMARY KEY, dag_id VARCHAR(250) NOT NULL, execution_date TIMESTAMP NOT NULL)",
		"CREATE TABLE task_instance (task_id VARCHAR(250) NOT NULL, dag_id VARCHAR(250) NOT NULL, execution_date TIMESTAMP NOT NULL)",
		"CREATE TABLE task_reschedule (id INTEGER PRIMARY KEY, task_id VARCHAR(250) NOT NULL, dag_id VARCHAR(250) NOT NULL, execution_date TIMESTAMP NOT NULL)",
		"INSERT INTO dag_run (dag_id, execution_date) VALUES ('etl', '2021-01-01 00:00:00')",
		"INSERT INTO task_instance VALUES ('extract', 'etl', '2021-01-01 00:00:00')",
	}, statements...) {
		c.Assert(conn.Writer().ExecuteSQL(context.Background(), stmt), qt.IsNil)
	}
	return url
}

func run(url string) (string, error) {
	cmd := check.NewCheckCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--database-url", url})
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck_OK(t *testing.T) {
	c := qt.New(t)

	out, err := run(newDatabase(c))
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, `task_instance rows without a dag run:   0
task_reschedule rows without a dag run: 0
OK
`)
}

func TestCheck_Unmatched(t *testing.T) {
	c := qt.New(t)

	url := newDatabase(c,
		"INSERT INTO task_instance VALUES ('extract', 'etl', '2021-01-02 00:00:00')",
		"INSERT INTO task_reschedule (task_id, dag_id, execution_date) VALUES ('extract', 'gone', '2021-01-01 00:00:00')",
	)

	out, err := run(url)
	c.Assert(err, qt.ErrorIs, versions.ErrUnmatchedRows)
	c.Assert(err, qt.ErrorMatches, `rows without a matching dag run: 2 found`)
	c.Assert(out, qt.Contains, "task_instance rows without a dag run:   1\n")
	c.Assert(out, qt.Contains, "task_reschedule rows without a dag run: 1\n")
}

func TestCheck_MissingTables(t *testing.T) {
	c := qt.New(t)

	_, err := run("sqlite://:memory:")
	c.Assert(err, qt.ErrorMatches, `failed to count unmatched rows of task_instance: .*`)
}
