package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/stokaro/runkey/cmd/check"
	"github.com/stokaro/runkey/cmd/migrate"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "runkey",
		Short: "Re-key task instances of a scheduler database to dag runs",
		Long: `runkey upgrades and downgrades the scheduler database revision that keys
task_instance and task_reschedule by run_id instead of execution_date.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(migrate.NewMigrateCommand())
	rootCmd.AddCommand(check.NewCheckCommand())
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
