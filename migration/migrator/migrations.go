package migrator

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/stokaro/runkey/core/platform"
	"github.com/stokaro/runkey/dbschema"
)

//go:embed base/schema.sql
var versionSchemaSQL string

//go:embed base/schema_mssql.sql
var versionSchemaMSSQL string

// versionTable holds the revision the database is at
const versionTable = "alembic_version"

func versionSchema(dialect string) string {
	if platform.NormalizeDialect(dialect) == platform.MSSQL {
		return versionSchemaMSSQL
	}
	return versionSchemaSQL
}

// MigrationFunc represents a migration function that operates on a database connection
type MigrationFunc func(context.Context, *dbschema.DatabaseConnection) error

// NoopMigrationFunc is a no-op migration function
func NoopMigrationFunc(_ context.Context, _ *dbschema.DatabaseConnection) error {
	return nil
}

// Migration is one revision of the chain. It applies on top of DownRevision;
// an empty DownRevision starts the chain from an empty database.
type Migration struct {
	Revision     string
	DownRevision string
	Description  string
	Up           MigrationFunc
	Down         MigrationFunc
}

// CreateMigrationFromSQL creates a migration from SQL statements
// This is useful for programmatically creating migrations
func CreateMigrationFromSQL(revision, downRevision, description string, upSQL, downSQL []string) *Migration {
	return &Migration{
		Revision:     revision,
		DownRevision: downRevision,
		Description:  description,
		Up:           executeSQLStatements(upSQL),
		Down:         executeSQLStatements(downSQL),
	}
}

func executeSQLStatements(statements []string) MigrationFunc {
	return func(ctx context.Context, conn *dbschema.DatabaseConnection) error {
		for _, stmt := range statements {
			if err := conn.Writer().ExecuteSQL(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute SQL statement: %w\nSQL: %s", err, stmt)
			}
		}
		return nil
	}
}
