package migrator_test

import (
	"bytes"
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/runkey/dbschema"
	"github.com/stokaro/runkey/migration/migrator"
)

func TestCreateMigrationFromSQL(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	var out bytes.Buffer
	conn := dbschema.NewOfflineConnection("postgres", &out)

	m := migrator.CreateMigrationFromSQL("a1", "", "Create dags",
		[]string{"CREATE TABLE dags (id INTEGER)", "CREATE INDEX dags_id ON dags (id)"},
		[]string{"DROP TABLE dags"},
	)
	c.Assert(m.Revision, qt.Equals, "a1")
	c.Assert(m.DownRevision, qt.Equals, "")
	c.Assert(m.Description, qt.Equals, "Create dags")

	c.Assert(m.Up(ctx, conn), qt.IsNil)
	c.Assert(out.String(), qt.Equals, "CREATE TABLE dags (id INTEGER);\nCREATE INDEX dags_id ON dags (id);\n")

	out.Reset()
	c.Assert(m.Down(ctx, conn), qt.IsNil)
	c.Assert(out.String(), qt.Equals, "DROP TABLE dags;\n")
}

func TestCreateMigrationFromSQL_Error(t *testing.T) {
	c := qt.New(t)
	conn, err := dbschema.ConnectToDatabase("sqlite://:memory:")
	c.Assert(err, qt.IsNil)
	defer conn.Close()

	m := migrator.CreateMigrationFromSQL("a1", "", "Broken", []string{"CREATE TABLE"}, nil)
	err = m.Up(context.Background(), conn)
	c.Assert(err, qt.ErrorMatches, `(?s)failed to execute SQL statement: .*SQL: CREATE TABLE`)
}

func TestInitialize_VersionTablePerDialect(t *testing.T) {
	tests := []struct {
		dialect string
		want    string
	}{
		{dialect: "postgres", want: "CREATE TABLE IF NOT EXISTS alembic_version"},
		{dialect: "mysql", want: "CREATE TABLE IF NOT EXISTS alembic_version"},
		{dialect: "mssql", want: "IF OBJECT_ID(N'alembic_version', N'U') IS NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			c := qt.New(t)
			var out bytes.Buffer
			conn := dbschema.NewOfflineConnection(tt.dialect, &out)

			m := migrator.NewMigrator(conn, migrator.NewRegisteredMigrationProvider())
			c.Assert(m.Initialize(context.Background()), qt.IsNil)
			c.Assert(out.String(), qt.Contains, tt.want)
			c.Assert(out.String(), qt.Contains, "CONSTRAINT alembic_version_pkc PRIMARY KEY (version_num)")
		})
	}
}
