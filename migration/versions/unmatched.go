package versions

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/stokaro/runkey/dbschema"
)

// ErrUnmatchedRows is returned when the upgrade finds task instances or task
// reschedules whose (dag_id, execution_date) has no dag run. Those rows keep a
// NULL run_id and cannot be re-keyed; they have to be removed or given a dag
// run before the upgrade is retried.
var ErrUnmatchedRows = errors.New("rows without a matching dag run")

// Unmatched counts the rows that would block the upgrade.
type Unmatched struct {
	TaskInstances   int
	TaskReschedules int
}

// Total returns the number of blocking rows
func (u Unmatched) Total() int {
	return u.TaskInstances + u.TaskReschedules
}

// FindUnmatched counts the task_instance and task_reschedule rows that have no
// dag_run with the same dag_id and execution_date. It must run before the
// upgrade, while both tables still carry execution_date.
func FindUnmatched(ctx context.Context, conn *dbschema.DatabaseConnection) (Unmatched, error) {
	var u Unmatched
	var err error
	if u.TaskInstances, err = countUnmatched(ctx, conn, "task_instance"); err != nil {
		return Unmatched{}, err
	}
	if u.TaskReschedules, err = countUnmatched(ctx, conn, "task_reschedule"); err != nil {
		return Unmatched{}, err
	}
	return u, nil
}

func countUnmatched(ctx context.Context, conn *dbschema.DatabaseConnection, table string) (int, error) {
	exists, _, err := sq.Select("1").
		From(dagRunTable).
		Where(sq.Expr(dagRunTable + ".dag_id = " + table + ".dag_id")).
		Where(sq.Expr(dagRunTable + ".execution_date = " + table + ".execution_date")).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build dag run lookup: %w", err)
	}

	query, args, err := sq.Select("COUNT(*)").
		From(table).
		Where("NOT EXISTS (" + exists + ")").
		PlaceholderFormat(conn.Dialect().PlaceholderFormat()).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count of %s: %w", table, err)
	}

	var n int
	if err := conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unmatched rows of %s: %w", table, err)
	}
	return n, nil
}
