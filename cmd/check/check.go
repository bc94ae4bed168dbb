package check

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stokaro/runkey/cmd/internal/setup"
	"github.com/stokaro/runkey/migration/versions"
)

// NewCheckCommand creates the check command. It fails when task instances
// or task reschedules have no dag run to take their run_id from.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Find rows that would block the re-keying upgrade",
		Long: `Count task_instance and task_reschedule rows without a dag_run of the
same dag_id and execution_date. The upgrade cannot give those rows a run_id
and fails on them; delete or repair them first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup.NewEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			u, err := versions.FindUnmatched(cmd.Context(), env.Conn)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "task_instance rows without a dag run:   %d\n", u.TaskInstances)
			fmt.Fprintf(out, "task_reschedule rows without a dag run: %d\n", u.TaskReschedules)
			if u.Total() > 0 {
				return fmt.Errorf("%w: %d found", versions.ErrUnmatchedRows, u.Total())
			}
			fmt.Fprintln(out, "OK")
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, setup.ConnectionFlags())
	return cmd
}
