package ast

// NewPrimaryKeyConstraint creates a named table-level primary key constraint.
//
// Some dialects ignore the name (MySQL always calls it PRIMARY), but it is
// kept so that later migrations can refer to the constraint portably.
//
// Example:
//
//	pk := NewPrimaryKeyConstraint("task_instance_pkey", "dag_id", "task_id", "run_id")
func NewPrimaryKeyConstraint(name string, columns ...string) *ConstraintNode {
	return &ConstraintNode{
		Type:    PrimaryKeyConstraint,
		Name:    name,
		Columns: columns,
	}
}

// NewUniqueConstraint creates a table-level unique constraint with a name.
//
// An empty name renders an anonymous constraint, which is how older schemas
// on some engines were created.
//
// Example:
//
//	unique := NewUniqueConstraint("dag_run_dag_id_run_id_key", "dag_id", "run_id")
func NewUniqueConstraint(name string, columns ...string) *ConstraintNode {
	return &ConstraintNode{
		Type:    UniqueConstraint,
		Name:    name,
		Columns: columns,
	}
}

// NewForeignKeyConstraint creates a table-level foreign key constraint.
//
// Example:
//
//	ref := &ForeignKeyRef{
//		Table:    "dag_run",
//		Columns:  []string{"dag_id", "run_id"},
//		OnDelete: "CASCADE",
//	}
//	fk := NewForeignKeyConstraint("task_instance_dag_run_fkey", []string{"dag_id", "run_id"}, ref)
func NewForeignKeyConstraint(name string, columns []string, ref *ForeignKeyRef) *ConstraintNode {
	return &ConstraintNode{
		Type:      ForeignKeyConstraint,
		Name:      name,
		Columns:   columns,
		Reference: ref,
	}
}
