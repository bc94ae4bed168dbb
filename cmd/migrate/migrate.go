package migrate

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/stokaro/runkey/cmd/internal/setup"
	"github.com/stokaro/runkey/migration/migrator"
)

const fromFlag = "from"

// NewMigrateCommand creates the migrate command and its subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate [up|down|to|status]",
		Short: "Apply or revert schema revisions",
		Long: `Apply or revert the revisions of the scheduler database.

With --sql nothing is executed: the statements are printed for the dialect
given by --dialect. Offline downgrades need the revision the database is at,
given by --from. SQL Server upgrades cannot be rendered offline because the
primary key name of task_instance has to be looked up.

Examples:
  runkey migrate status --database-url postgres://localhost/airflow
  runkey migrate up --database-url sqlite:///airflow.db
  runkey migrate up --sql --dialect mysql
  runkey migrate down --sql --dialect postgres --from 7b2661a43ba3`,
	}

	migrateCmd.AddCommand(
		newRevisionCommand("up", "Upgrade to the head revision", cobra.NoArgs,
			func(ctx context.Context, m *migrator.Migrator, _ []string) error {
				return m.MigrateUp(ctx)
			}),
		newRevisionCommand("down", "Revert the current revision", cobra.NoArgs,
			func(ctx context.Context, m *migrator.Migrator, _ []string) error {
				return m.MigrateDown(ctx)
			}),
		newRevisionCommand("to <revision>", "Upgrade or downgrade to a revision", cobra.ExactArgs(1),
			func(ctx context.Context, m *migrator.Migrator, args []string) error {
				return m.MigrateTo(ctx, args[0])
			}),
		newStatusCommand(),
	)
	return migrateCmd
}

func revisionFlags() map[string]cobraflags.Flag {
	flags := setup.ConnectionFlags()
	for name, f := range setup.OfflineFlags() {
		flags[name] = f
	}
	flags[fromFlag] = &cobraflags.StringFlag{
		Name:  fromFlag,
		Value: "",
		Usage: "Revision the database is at, instead of reading alembic_version",
	}
	return flags
}

type runFunc func(ctx context.Context, m *migrator.Migrator, args []string) error

func newRevisionCommand(use, short string, args cobra.PositionalArgs, run runFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup.NewEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			m, err := newMigrator(cmd, env)
			if err != nil {
				return err
			}
			return run(cmd.Context(), m, args)
		},
	}
	cobraflags.RegisterMap(cmd, revisionFlags())
	return cmd
}

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current and pending revisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup.NewEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			m, err := newMigrator(cmd, env)
			if err != nil {
				return err
			}
			status, err := m.GetMigrationStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			return printStatus(cmd.OutOrStdout(), env.Conn.Info().Dialect, status)
		},
	}
	cobraflags.RegisterMap(cmd, revisionFlags())
	return cmd
}

func newMigrator(cmd *cobra.Command, env *setup.Env) (*migrator.Migrator, error) {
	m := env.Migrator()
	from, err := cmd.Flags().GetString(fromFlag)
	if err != nil {
		return nil, err
	}
	if from != "" {
		m = m.WithStartingRevision(from)
	}
	return m, nil
}

func printStatus(w io.Writer, dialect string, status *migrator.MigrationStatus) error {
	pending := "none"
	if status.HasPendingChanges {
		pending = strings.Join(status.PendingMigrations, ", ")
	}

	title := cases.Title(language.English)
	_, err := fmt.Fprintf(w, "Dialect:          %s\nCurrent revision: %s\nHead revision:    %s\nPending:          %s\n",
		title.String(dialect), status.CurrentRevision, status.HeadRevision, pending)
	return err
}
