// Package versions holds the schema revisions of the scheduler database.
//
// Revision 7b2661a43ba3 re-keys task instances from (dag_id, task_id,
// execution_date) to (dag_id, task_id, run_id) and points task reschedules at
// the new key. Every engine-specific decision is taken from the connection's
// platform.Dialect.
package versions

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/stokaro/runkey/core/platform"
	"github.com/stokaro/runkey/dbschema"
	"github.com/stokaro/runkey/migration/op"
	"github.com/stokaro/runkey/migration/snapshot"
)

const (
	// Revision identifies this revision in alembic_version
	Revision = "7b2661a43ba3"
	// DownRevision is the revision this one applies on top of
	DownRevision = "142555e44c17"
	// Description is recorded in logs and status output
	Description = "TaskInstance keyed to DagRun"
)

const (
	taskInstanceTable   = "task_instance"
	taskRescheduleTable = "task_reschedule"
	taskInstancePKey    = "task_instance_pkey"
)

// Options configures the re-keying revision
type Options struct {
	// IDCollation is the collation of dag_id, task_id and run_id columns.
	// Empty selects the engine default, see platform.DefaultIDCollation.
	IDCollation string
	// TaskInstancePrimaryKey is the current name of the task_instance
	// primary key. Empty reads it from the catalog where the engine
	// generated it (SQL Server), so set it to render that upgrade offline.
	TaskInstancePrimaryKey string
}

// ReKeyer upgrades and downgrades revision 7b2661a43ba3.
type ReKeyer struct {
	opts   Options
	logger *slog.Logger
}

// New creates a ReKeyer
func New(opts Options) *ReKeyer {
	return &ReKeyer{
		opts:   opts,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger
func (r *ReKeyer) WithLogger(l *slog.Logger) *ReKeyer {
	tmp := *r
	tmp.logger = l
	return &tmp
}

// Upgrade re-keys task instances with default options.
func Upgrade(ctx context.Context, conn *dbschema.DatabaseConnection) error {
	return New(Options{}).Upgrade(ctx, conn)
}

// Downgrade restores the execution date key with default options.
func Downgrade(ctx context.Context, conn *dbschema.DatabaseConnection) error {
	return New(Options{}).Downgrade(ctx, conn)
}

func (r *ReKeyer) collation(dialect string) string {
	if r.opts.IDCollation != "" {
		return r.opts.IDCollation
	}
	return platform.DefaultIDCollation(dialect)
}

func (r *ReKeyer) dialect(conn *dbschema.DatabaseConnection) string {
	name := conn.Info().Dialect
	if !platform.IsKnown(name) {
		r.logger.Warn("Unknown dialect, using the default path", "dialect", name)
	}
	return name
}

// Upgrade replaces execution_date with run_id in task_instance and
// task_reschedule. Every row must have a dag run with the same dag_id and
// execution_date; otherwise it fails with ErrUnmatchedRows and nothing is
// repaired. The caller owns the transaction.
func (r *ReKeyer) Upgrade(ctx context.Context, conn *dbschema.DatabaseConnection) error {
	name := r.dialect(conn)
	d := conn.Dialect()
	collation := r.collation(name)
	r.logger.Info("Re-keying task instances by run id", "dialect", d.Name(), "collation", collation)

	ops := op.New(conn,
		DagRunBefore(name),
		TaskInstanceBefore(name, collation),
		TaskRescheduleBefore(name, collation),
	).WithLogger(r.logger)
	if err := ops.Comment(ctx, "Running upgrade "+DownRevision+" -> "+Revision+", "+Description); err != nil {
		return err
	}

	if err := r.fixDagRun(ctx, ops, collation); err != nil {
		return fmt.Errorf("failed to fix dag_run constraints: %w", err)
	}

	runID := nullable("run_id", id(collation))
	for _, table := range []string{taskInstanceTable, taskRescheduleTable} {
		if err := ops.AddColumn(ctx, table, runID); err != nil {
			return err
		}
	}

	// task_reschedule references task_instance by execution_date, so both are
	// filled before either loses it.
	for _, table := range []string{taskInstanceTable, taskRescheduleTable} {
		if err := ops.Execute(ctx, MultiTableUpdate(d, table, "run_id")); err != nil {
			return fmt.Errorf("failed to backfill %s.run_id: %w", table, err)
		}
	}

	err := ops.BatchAlterTable(ctx, taskRescheduleTable, func(b *op.Batch) {
		b.AlterColumn("run_id", op.SetNullable(false))
		b.DropConstraint(taskRescheduleByDateFK.Name)
		if d.IndexesForeignKeys() {
			b.DropIndex(taskRescheduleByDateFK.Name)
		}
		b.DropIndex(taskRescheduleByDateIndex.Name)
	})
	if err != nil {
		return unmatched(taskRescheduleTable, err)
	}

	tiModel, err := ops.Model(taskInstanceTable)
	if err != nil {
		return err
	}
	pkName, err := r.primaryKeyName(ctx, conn, d, tiModel)
	if err != nil {
		return err
	}

	err = ops.BatchAlterTable(ctx, taskInstanceTable, func(b *op.Batch) {
		b.AlterColumn("run_id", op.SetNullable(false))
		if !d.RebuildsTables() {
			b.DropPrimaryKey(pkName)
		}
		b.CreatePrimaryKey(taskInstancePKey, "dag_id", "task_id", "run_id")
		b.DropIndex(tiDagDateIndex.Name)
		b.DropIndex(tiStateLookupByDate.Name)
		b.DropColumn("execution_date")
		b.CreateForeignKey(taskInstanceDagRunFK)
		b.CreateIndex(tiDagRunIndex)
		b.CreateIndex(tiStateLookupByRun)
	})
	if err != nil {
		return unmatched(taskInstanceTable, err)
	}

	// The foreign keys to task_instance need its new primary key.
	err = ops.BatchAlterTable(ctx, taskRescheduleTable, func(b *op.Batch) {
		b.DropColumn("execution_date")
		b.CreateIndex(taskRescheduleByRunIndex)
		b.CreateForeignKey(taskRescheduleTaskInstanceFK)
		b.CreateForeignKey(taskRescheduleDagRunFK(d))
	})
	if err != nil {
		return err
	}

	r.logger.Info("Re-keyed task instances by run id")
	return nil
}

// Downgrade restores execution_date as the key of task_instance and
// task_reschedule. Constraint names fixed on dag_run by Upgrade are kept.
func (r *ReKeyer) Downgrade(ctx context.Context, conn *dbschema.DatabaseConnection) error {
	name := r.dialect(conn)
	d := conn.Dialect()
	collation := r.collation(name)
	r.logger.Info("Re-keying task instances by execution date", "dialect", d.Name(), "collation", collation)

	ops := op.New(conn,
		DagRunAfter(collation),
		TaskInstanceAfter(name, collation),
		TaskRescheduleAfter(name, collation),
	).WithLogger(r.logger)
	if err := ops.Comment(ctx, "Running downgrade "+Revision+" -> "+DownRevision+", "+Description); err != nil {
		return err
	}

	executionDate := nullable("execution_date", utcDate)
	for _, table := range []string{taskInstanceTable, taskRescheduleTable} {
		if err := ops.AddColumn(ctx, table, executionDate); err != nil {
			return err
		}
	}
	for _, table := range []string{taskInstanceTable, taskRescheduleTable} {
		if err := ops.Execute(ctx, MultiTableUpdate(d, table, "execution_date")); err != nil {
			return fmt.Errorf("failed to backfill %s.execution_date: %w", table, err)
		}
	}

	// The primary key of task_instance cannot go while foreign keys use it.
	err := ops.BatchAlterTable(ctx, taskRescheduleTable, func(b *op.Batch) {
		b.AlterColumn("execution_date", op.SetNullable(false))
		b.DropConstraint(taskRescheduleTaskInstanceFK.Name)
		b.DropConstraint(taskRescheduleDagRunFK(d).Name)
		if d.IndexesForeignKeys() {
			b.DropIndex(taskRescheduleDagRunFK(d).Name)
		}
		b.DropIndex(taskRescheduleByRunIndex.Name)
	})
	if err != nil {
		return unmatched(taskRescheduleTable, err)
	}

	err = ops.BatchAlterTable(ctx, taskInstanceTable, func(b *op.Batch) {
		b.AlterColumn("execution_date", op.SetNullable(false))
		b.DropPrimaryKey(taskInstancePKey)
		b.CreatePrimaryKey(taskInstancePKey, "dag_id", "task_id", "execution_date")
		b.DropConstraint(taskInstanceDagRunFK.Name)
		b.DropIndex(tiDagRunIndex.Name)
		b.DropIndex(tiStateLookupByRun.Name)
		b.CreateIndex(tiStateLookupByDate)
		b.CreateIndex(tiDagDateIndex)
		b.DropColumn("run_id")
	})
	if err != nil {
		return unmatched(taskInstanceTable, err)
	}

	err = ops.BatchAlterTable(ctx, taskRescheduleTable, func(b *op.Batch) {
		b.DropColumn("run_id")
		b.CreateIndex(taskRescheduleByDateIndex)
		b.CreateForeignKey(taskRescheduleByDateFK)
	})
	if err != nil {
		return err
	}

	r.logger.Info("Re-keyed task instances by execution date")
	return nil
}

// fixDagRun gives the dag_run unique constraints their conventional names and
// the id columns the id collation. Changes are worked out from the
// pre-revision snapshot of dag_run, not from the live catalog. Engines that
// rebuild tables always recreate dag_run.
func (r *ReKeyer) fixDagRun(ctx context.Context, ops *op.Operations, collation string) error {
	if ops.Dialect().RebuildsTables() {
		return ops.BatchAlterTable(ctx, dagRunTable, func(b *op.Batch) {
			b.NameUniques(uniqueKeyName)
		}, op.RecreateAlways())
	}

	model, err := ops.Model(dagRunTable)
	if err != nil {
		return err
	}
	target := DagRunAfter(collation)

	var retype []snapshot.Column
	for _, name := range []string{"dag_id", "run_id"} {
		have, err := model.Column(name)
		if err != nil {
			return err
		}
		want, err := target.Column(name)
		if err != nil {
			return err
		}
		if have.Type != want.Type {
			retype = append(retype, want)
		}
	}

	keyNames := func(keys []snapshot.Key) []string {
		var names []string
		for _, k := range keys {
			names = append(names, k.Name)
		}
		return names
	}
	var drop []string
	for _, u := range model.Uniques {
		if u.Name != "" && !slices.Contains(keyNames(target.Uniques), u.Name) {
			drop = append(drop, u.Name)
		}
	}
	var create []snapshot.Key
	for _, u := range target.Uniques {
		if !slices.Contains(keyNames(model.Uniques), u.Name) {
			create = append(create, u)
		}
	}

	if len(retype) == 0 && len(drop) == 0 && len(create) == 0 {
		r.logger.Debug("dag_run needs no changes")
		return nil
	}

	return ops.BatchAlterTable(ctx, dagRunTable, func(b *op.Batch) {
		for _, col := range retype {
			b.AlterColumn(col.Name, op.SetType(col.Type))
		}
		for _, name := range drop {
			b.DropConstraint(name)
		}
		for _, u := range create {
			b.CreateUnique(u.Name, u.Columns...)
		}
	})
}

// primaryKeyName returns the name of the task_instance primary key: the
// configured one, the catalog's on engines that generate it, or the name the
// snapshot records.
func (r *ReKeyer) primaryKeyName(ctx context.Context, q dbschema.Querier, d platform.Dialect, model *snapshot.Table) (string, error) {
	if r.opts.TaskInstancePrimaryKey != "" {
		return r.opts.TaskInstancePrimaryKey, nil
	}
	if !d.RequiresConstraintLookup() {
		if model.PrimaryKey == nil || model.PrimaryKey.Name == "" {
			return taskInstancePKey, nil
		}
		return model.PrimaryKey.Name, nil
	}

	constraints, err := dbschema.TableConstraints(ctx, q, d.PlaceholderFormat(), taskInstanceTable)
	if err != nil {
		return "", fmt.Errorf("failed to look up primary key of %s: %w", taskInstanceTable, err)
	}
	name, err := constraints.PrimaryKeyName()
	if err != nil {
		return "", fmt.Errorf("failed to look up primary key of %s: %w", taskInstanceTable, err)
	}
	r.logger.Debug("Found primary key", "table", taskInstanceTable, "name", name)
	return name, nil
}

func unmatched(table string, err error) error {
	if dbschema.IsNotNullViolation(err) {
		return fmt.Errorf("%w: %s: %w", ErrUnmatchedRows, table, err)
	}
	return err
}
