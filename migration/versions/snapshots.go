package versions

import (
	"strings"

	"github.com/stokaro/runkey/core/ast"
	"github.com/stokaro/runkey/core/platform"
	"github.com/stokaro/runkey/migration/snapshot"
)

// IDLen is the length of dag, task and run identifiers.
const IDLen = 250

var (
	integer = ast.DataType{Kind: ast.Integer}
	float   = ast.DataType{Kind: ast.Float}
	boolean = ast.DataType{Kind: ast.Boolean}
	blob    = ast.DataType{Kind: ast.Blob}
	utcDate = ast.TimestampType(true)
)

func str(length int) ast.DataType {
	return ast.StringType(length)
}

func id(collation string) ast.DataType {
	return ast.StringType(IDLen).WithCollation(collation)
}

func notNull(name string, t ast.DataType) snapshot.Column {
	return snapshot.Column{Name: name, Type: t}
}

func nullable(name string, t ast.DataType) snapshot.Column {
	return snapshot.Column{Name: name, Type: t, Nullable: true}
}

// uniqueKeyName is the naming convention for unique constraints:
// <table>_<column>_<column>..._key.
func uniqueKeyName(table string, key snapshot.Key) string {
	return table + "_" + strings.Join(key.Columns, "_") + "_key"
}

// dagRunUniques are the unique constraints every engine has on dag_run once
// this revision has run.
var dagRunUniques = []snapshot.Key{
	{Name: "dag_run_dag_id_execution_date_key", Columns: []string{"dag_id", "execution_date"}},
	{Name: "dag_run_dag_id_run_id_key", Columns: []string{"dag_id", "run_id"}},
}

// dagRunUniquesBefore returns the unique constraints dag_run had on each
// engine before this revision. Earlier revisions left them unnamed on SQLite,
// named after the first column on MySQL and missing on SQL Server.
func dagRunUniquesBefore(dialect string) []snapshot.Key {
	switch platform.NormalizeDialect(dialect) {
	case platform.SQLite:
		return []snapshot.Key{
			{Columns: []string{"dag_id", "execution_date"}},
			{Columns: []string{"dag_id", "run_id"}},
		}
	case platform.MySQL, platform.MariaDB:
		return []snapshot.Key{
			{Name: "dag_id", Columns: []string{"dag_id", "execution_date"}},
			{Name: "dag_id_2", Columns: []string{"dag_id", "run_id"}},
		}
	case platform.MSSQL:
		return nil
	default:
		return dagRunUniques
	}
}

func dagRun(idType ast.DataType, uniques []snapshot.Key) *snapshot.Table {
	t := &snapshot.Table{
		Name: "dag_run",
		Columns: []snapshot.Column{
			{Name: "id", Type: integer, AutoInc: true},
			notNull("dag_id", idType),
			notNull("execution_date", utcDate),
			nullable("state", str(50)),
			notNull("run_id", idType),
			nullable("creating_job_id", integer),
			nullable("external_trigger", boolean),
			notNull("run_type", str(50)),
			nullable("conf", blob),
			nullable("end_date", utcDate),
			nullable("start_date", utcDate),
			nullable("last_scheduling_decision", utcDate),
			nullable("dag_hash", str(32)),
		},
		PrimaryKey: &snapshot.Key{Name: "dag_run_pkey", Columns: []string{"id"}},
		Indexes: []snapshot.Index{
			{Name: "dag_id_state", Columns: []string{"dag_id", "state"}},
			{Name: "idx_last_scheduling_decision", Columns: []string{"last_scheduling_decision"}},
		},
	}
	for _, u := range uniques {
		t.Uniques = append(t.Uniques, snapshot.Key{Name: u.Name, Columns: append([]string(nil), u.Columns...)})
	}
	return t
}

// DagRunBefore is dag_run as the previous revision left it. Its id columns
// carry no explicit collation.
func DagRunBefore(dialect string) *snapshot.Table {
	return dagRun(id(""), dagRunUniquesBefore(dialect))
}

// DagRunAfter is dag_run once this revision has run.
func DagRunAfter(collation string) *snapshot.Table {
	return dagRun(id(collation), dagRunUniques)
}

func taskInstanceColumns(collation string) []snapshot.Column {
	return []snapshot.Column{
		notNull("task_id", id(collation)),
		notNull("dag_id", id(collation)),
		notNull("execution_date", utcDate),
		nullable("start_date", utcDate),
		nullable("end_date", utcDate),
		nullable("duration", float),
		nullable("state", str(20)),
		nullable("try_number", integer),
		nullable("max_tries", integer),
		nullable("hostname", str(1000)),
		nullable("unixname", str(1000)),
		nullable("job_id", integer),
		notNull("pool", str(256)),
		nullable("pool_slots", integer),
		nullable("queue", str(256)),
		nullable("priority_weight", integer),
		nullable("operator", str(1000)),
		nullable("queued_dttm", utcDate),
		nullable("queued_by_job_id", integer),
		nullable("pid", integer),
		nullable("executor_config", blob),
		nullable("external_executor_id", id(collation)),
	}
}

// TaskInstanceBefore is task_instance keyed by execution date. SQL Server
// generated the primary key name, so the snapshot leaves it empty there.
func TaskInstanceBefore(dialect, collation string) *snapshot.Table {
	pkName := "task_instance_pkey"
	if platform.Lookup(dialect).RequiresConstraintLookup() {
		pkName = ""
	}
	return &snapshot.Table{
		Name:       "task_instance",
		Columns:    taskInstanceColumns(collation),
		PrimaryKey: &snapshot.Key{Name: pkName, Columns: []string{"dag_id", "task_id", "execution_date"}},
		Indexes: []snapshot.Index{
			{Name: "ti_dag_state", Columns: []string{"dag_id", "state"}},
			tiDagDateIndex,
			{Name: "ti_state", Columns: []string{"state"}},
			tiStateLookupByDate,
			{Name: "ti_pool", Columns: []string{"pool", "state", "priority_weight"}},
			{Name: "ti_job_id", Columns: []string{"job_id"}},
		},
	}
}

// TaskInstanceAfter is task_instance keyed by run id.
func TaskInstanceAfter(dialect, collation string) *snapshot.Table {
	var columns []snapshot.Column
	for _, col := range taskInstanceColumns(collation) {
		if col.Name != "execution_date" {
			columns = append(columns, col)
		}
	}
	columns = append(columns, notNull("run_id", id(collation)))

	return &snapshot.Table{
		Name:       "task_instance",
		Columns:    columns,
		PrimaryKey: &snapshot.Key{Name: "task_instance_pkey", Columns: []string{"dag_id", "task_id", "run_id"}},
		ForeignKeys: []snapshot.ForeignKey{
			taskInstanceDagRunFK,
		},
		Indexes: []snapshot.Index{
			{Name: "ti_dag_state", Columns: []string{"dag_id", "state"}},
			{Name: "ti_state", Columns: []string{"state"}},
			{Name: "ti_pool", Columns: []string{"pool", "state", "priority_weight"}},
			{Name: "ti_job_id", Columns: []string{"job_id"}},
			tiDagRunIndex,
			tiStateLookupByRun,
		},
	}
}

func taskRescheduleColumns(collation string) []snapshot.Column {
	return []snapshot.Column{
		{Name: "id", Type: integer, AutoInc: true},
		notNull("task_id", id(collation)),
		notNull("dag_id", id(collation)),
		notNull("execution_date", utcDate),
		notNull("try_number", integer),
		notNull("start_date", utcDate),
		notNull("end_date", utcDate),
		notNull("duration", integer),
		notNull("reschedule_date", utcDate),
	}
}

// TaskRescheduleBefore is task_reschedule referencing task instances by
// execution date. Engines that index foreign keys implicitly also have an
// index named after the foreign key.
func TaskRescheduleBefore(dialect, collation string) *snapshot.Table {
	t := &snapshot.Table{
		Name:       "task_reschedule",
		Columns:    taskRescheduleColumns(collation),
		PrimaryKey: &snapshot.Key{Name: "task_reschedule_pkey", Columns: []string{"id"}},
		ForeignKeys: []snapshot.ForeignKey{
			taskRescheduleByDateFK,
		},
		Indexes: []snapshot.Index{
			taskRescheduleByDateIndex,
		},
	}
	if platform.Lookup(dialect).IndexesForeignKeys() {
		t.Indexes = append(t.Indexes, snapshot.Index{
			Name:    taskRescheduleByDateFK.Name,
			Columns: append([]string(nil), taskRescheduleByDateFK.Columns...),
		})
	}
	return t
}

// TaskRescheduleAfter is task_reschedule referencing task instances and dag
// runs by run id. On engines that index foreign keys implicitly,
// task_reschedule_dr_fkey has an index of its own since no other index starts
// with (dag_id, run_id). The one task_instance_dag_run_fkey got is replaced
// by ti_dag_run as soon as that is created.
func TaskRescheduleAfter(dialect, collation string) *snapshot.Table {
	var columns []snapshot.Column
	for _, col := range taskRescheduleColumns(collation) {
		if col.Name != "execution_date" {
			columns = append(columns, col)
		}
	}
	columns = append(columns, notNull("run_id", id(collation)))

	d := platform.Lookup(dialect)
	dagRunFK := taskRescheduleDagRunFK(d)
	t := &snapshot.Table{
		Name:       "task_reschedule",
		Columns:    columns,
		PrimaryKey: &snapshot.Key{Name: "task_reschedule_pkey", Columns: []string{"id"}},
		ForeignKeys: []snapshot.ForeignKey{
			taskRescheduleTaskInstanceFK,
			dagRunFK,
		},
		Indexes: []snapshot.Index{
			taskRescheduleByRunIndex,
		},
	}
	if d.IndexesForeignKeys() {
		t.Indexes = append(t.Indexes, snapshot.Index{
			Name:    dagRunFK.Name,
			Columns: append([]string(nil), dagRunFK.Columns...),
		})
	}
	return t
}

var (
	taskInstanceDagRunFK = snapshot.ForeignKey{
		Name:       "task_instance_dag_run_fkey",
		Columns:    []string{"dag_id", "run_id"},
		RefTable:   "dag_run",
		RefColumns: []string{"dag_id", "run_id"},
		OnDelete:   "CASCADE",
	}
	taskRescheduleByDateFK = snapshot.ForeignKey{
		Name:       "task_reschedule_dag_task_date_fkey",
		Columns:    []string{"dag_id", "task_id", "execution_date"},
		RefTable:   "task_instance",
		RefColumns: []string{"dag_id", "task_id", "execution_date"},
		OnDelete:   "CASCADE",
	}
	taskRescheduleTaskInstanceFK = snapshot.ForeignKey{
		Name:       "task_reschedule_ti_fkey",
		Columns:    []string{"dag_id", "task_id", "run_id"},
		RefTable:   "task_instance",
		RefColumns: []string{"dag_id", "task_id", "run_id"},
		OnDelete:   "CASCADE",
	}

	tiDagDateIndex            = snapshot.Index{Name: "ti_dag_date", Columns: []string{"dag_id", "execution_date"}}
	tiDagRunIndex             = snapshot.Index{Name: "ti_dag_run", Columns: []string{"dag_id", "run_id"}}
	tiStateLookupByDate       = snapshot.Index{Name: "ti_state_lkp", Columns: []string{"dag_id", "task_id", "execution_date", "state"}}
	tiStateLookupByRun        = snapshot.Index{Name: "ti_state_lkp", Columns: []string{"dag_id", "task_id", "run_id", "state"}}
	taskRescheduleByDateIndex = snapshot.Index{Name: "idx_task_reschedule_dag_task_date", Columns: []string{"dag_id", "task_id", "execution_date"}}
	taskRescheduleByRunIndex  = snapshot.Index{Name: "idx_task_reschedule_dag_task_run", Columns: []string{"dag_id", "task_id", "run_id"}}
)

// taskRescheduleDagRunFK cascades deletes from dag_run unless the engine
// rejects a second cascade path to it, which SQL Server does.
func taskRescheduleDagRunFK(d platform.Dialect) snapshot.ForeignKey {
	onDelete := "CASCADE"
	if !d.SupportsCascadeOnSecondPath() {
		onDelete = "NO ACTION"
	}
	return snapshot.ForeignKey{
		Name:       "task_reschedule_dr_fkey",
		Columns:    []string{"dag_id", "run_id"},
		RefTable:   "dag_run",
		RefColumns: []string{"dag_id", "run_id"},
		OnDelete:   onDelete,
	}
}
