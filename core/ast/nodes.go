package ast

import (
	"fmt"
)

// Node represents any SQL AST node that can be visited by a Visitor.
//
// All AST nodes implement this interface to participate in the visitor pattern.
// The Accept method allows visitors to traverse the AST and generate
// dialect-specific SQL output.
type Node interface {
	// Accept implements the visitor pattern for rendering
	Accept(visitor Visitor) error
}

// Visitor renders or inspects AST nodes.
type Visitor interface {
	VisitCreateTable(node *CreateTableNode) error
	VisitAlterTable(node *AlterTableNode) error
	VisitColumn(node *ColumnNode) error
	VisitConstraint(node *ConstraintNode) error
	VisitIndex(node *IndexNode) error
	VisitDropIndex(node *DropIndexNode) error
	VisitDropTable(node *DropTableNode) error
	VisitRenameTable(node *RenameTableNode) error
	VisitInsertSelect(node *InsertSelectNode) error
	VisitComment(node *CommentNode) error
}

// ConstraintType identifies the kind of a table-level constraint.
type ConstraintType int

const (
	PrimaryKeyConstraint ConstraintType = iota
	UniqueConstraint
	ForeignKeyConstraint
)

func (t ConstraintType) String() string {
	switch t {
	case PrimaryKeyConstraint:
		return "PRIMARY KEY"
	case UniqueConstraint:
		return "UNIQUE"
	case ForeignKeyConstraint:
		return "FOREIGN KEY"
	default:
		return fmt.Sprintf("ConstraintType(%d)", int(t))
	}
}

// AlterTableNode represents ALTER TABLE statements with one or more operations.
//
// Renderers emit one statement per operation so that every statement can be
// executed on its own by drivers that reject multi-statement strings.
type AlterTableNode struct {
	// Name is the name of the table to alter
	Name string
	// Operations contains the list of operations to perform on the table
	Operations []AlterOperation
}

// NewAlterTable creates an ALTER TABLE node with the given operations.
func NewAlterTable(name string, operations ...AlterOperation) *AlterTableNode {
	return &AlterTableNode{
		Name:       name,
		Operations: operations,
	}
}

// Accept implements the Node interface for AlterTableNode.
func (n *AlterTableNode) Accept(visitor Visitor) error {
	return visitor.VisitAlterTable(n)
}

// AlterOperation is one change inside an ALTER TABLE statement.
type AlterOperation interface {
	alterOperation()
}

// AddColumnOperation adds a column.
type AddColumnOperation struct {
	Column *ColumnNode
}

// DropColumnOperation drops a column.
type DropColumnOperation struct {
	ColumnName string
}

// ModifyColumnOperation changes the type and/or the nullability of a column.
//
// Column carries the complete definition because some dialects (MySQL, SQL
// Server) restate the type even when only nullability changes.
type ModifyColumnOperation struct {
	Column      *ColumnNode
	SetType     bool
	SetNullable bool
}

// AddConstraintOperation adds a table-level constraint.
type AddConstraintOperation struct {
	Constraint *ConstraintNode
}

// DropConstraintOperation drops a named constraint. The type matters on MySQL,
// where each kind has its own DROP syntax.
type DropConstraintOperation struct {
	Name string
	Type ConstraintType
}

func (*AddColumnOperation) alterOperation()      {}
func (*DropColumnOperation) alterOperation()     {}
func (*ModifyColumnOperation) alterOperation()   {}
func (*AddConstraintOperation) alterOperation()  {}
func (*DropConstraintOperation) alterOperation() {}

// CreateTableNode represents a CREATE TABLE statement with all its components.
type CreateTableNode struct {
	// Name is the name of the table to create
	Name string
	// Columns contains all column definitions for the table
	Columns []*ColumnNode
	// Constraints contains table-level constraints (PRIMARY KEY, UNIQUE, FOREIGN KEY)
	Constraints []*ConstraintNode
}

// NewCreateTable creates a new CREATE TABLE node with the specified table name.
//
// Example:
//
//	table := NewCreateTable("dag_run")
func NewCreateTable(name string) *CreateTableNode {
	return &CreateTableNode{
		Name:        name,
		Columns:     make([]*ColumnNode, 0),
		Constraints: make([]*ConstraintNode, 0),
	}
}

// Accept implements the Node interface for CreateTableNode.
func (n *CreateTableNode) Accept(visitor Visitor) error {
	return visitor.VisitCreateTable(n)
}

// AddColumn adds a column to the CREATE TABLE statement and returns the table node for chaining.
//
// Example:
//
//	table.AddColumn(NewColumn("run_id", StringType(250)).SetNotNull())
func (n *CreateTableNode) AddColumn(column *ColumnNode) *CreateTableNode {
	n.Columns = append(n.Columns, column)
	return n
}

// AddConstraint adds a table-level constraint and returns the table node for chaining.
//
// Example:
//
//	table.AddConstraint(NewUniqueConstraint("dag_run_dag_id_run_id_key", "dag_id", "run_id"))
func (n *CreateTableNode) AddConstraint(constraint *ConstraintNode) *CreateTableNode {
	n.Constraints = append(n.Constraints, constraint)
	return n
}

// ColumnNode represents a table column definition.
type ColumnNode struct {
	// Name is the column name
	Name string
	// Type is the dialect-independent column type
	Type DataType
	// Nullable indicates whether the column allows NULL values (default: true)
	Nullable bool
	// AutoInc indicates whether this column is an auto-incrementing surrogate key
	AutoInc bool
}

// NewColumn creates a new column node with the specified name and data type.
//
// The column is created with nullable=true by default.
func NewColumn(name string, dataType DataType) *ColumnNode {
	return &ColumnNode{
		Name:     name,
		Type:     dataType,
		Nullable: true, // Default to nullable
	}
}

// Accept implements the Node interface for ColumnNode.
func (n *ColumnNode) Accept(visitor Visitor) error {
	return visitor.VisitColumn(n)
}

// SetNotNull marks the column as NOT NULL and returns the column for chaining.
func (n *ColumnNode) SetNotNull() *ColumnNode {
	n.Nullable = false
	return n
}

// SetNullable sets the nullability and returns the column for chaining.
func (n *ColumnNode) SetNullable(nullable bool) *ColumnNode {
	n.Nullable = nullable
	return n
}

// SetAutoIncrement marks the column as auto-incrementing and returns the column for chaining.
//
// Auto-increment behavior varies by database:
//   - MySQL/MariaDB: AUTO_INCREMENT
//   - PostgreSQL: SERIAL
//   - SQL Server: IDENTITY(1,1)
//   - SQLite: INTEGER PRIMARY KEY AUTOINCREMENT
func (n *ColumnNode) SetAutoIncrement() *ColumnNode {
	n.AutoInc = true
	n.Nullable = false
	return n
}

// ForeignKeyRef describes the referenced side of a foreign key.
type ForeignKeyRef struct {
	// Table is the referenced table
	Table string
	// Columns are the referenced columns, positionally matching the constraint columns
	Columns []string
	// OnDelete is the referential action (CASCADE, NO ACTION, ...); empty means the dialect default
	OnDelete string
}

// ConstraintNode represents table-level constraints (PRIMARY KEY, UNIQUE, FOREIGN KEY).
type ConstraintNode struct {
	// Type specifies the constraint type
	Type ConstraintType
	// Name is the constraint name (optional for some dialects and constraint types)
	Name string
	// Columns contains the list of column names involved in the constraint
	Columns []string
	// Reference contains foreign key reference information (only for FOREIGN KEY constraints)
	Reference *ForeignKeyRef
}

// Accept implements the Node interface for ConstraintNode.
func (n *ConstraintNode) Accept(visitor Visitor) error {
	return visitor.VisitConstraint(n)
}

// IndexNode represents a CREATE INDEX statement.
type IndexNode struct {
	// Name is the index name
	Name string
	// Table is the name of the table to index
	Table string
	// Columns contains the list of column names to include in the index
	Columns []string
	// Unique indicates whether this is a unique index
	Unique bool
}

// NewIndex creates a new index node.
//
// Example:
//
//	index := NewIndex("ti_dag_run", "task_instance", "dag_id", "run_id")
func NewIndex(name, table string, columns ...string) *IndexNode {
	return &IndexNode{
		Name:    name,
		Table:   table,
		Columns: columns,
	}
}

// Accept implements the Node interface for IndexNode.
func (n *IndexNode) Accept(visitor Visitor) error {
	return visitor.VisitIndex(n)
}

// SetUnique marks the index as unique and returns the index for chaining.
func (n *IndexNode) SetUnique() *IndexNode {
	n.Unique = true
	return n
}

// DropIndexNode represents a DROP INDEX statement.
//
// Different databases have different syntax for dropping indexes (MySQL and
// SQL Server need the table name, PostgreSQL and SQLite do not).
type DropIndexNode struct {
	// Name is the name of the index to drop
	Name string
	// Table is the name of the table the index belongs to
	Table string
}

// NewDropIndex creates a new DROP INDEX node.
func NewDropIndex(name, table string) *DropIndexNode {
	return &DropIndexNode{
		Name:  name,
		Table: table,
	}
}

// Accept implements the Node interface for DropIndexNode.
func (n *DropIndexNode) Accept(visitor Visitor) error {
	return visitor.VisitDropIndex(n)
}

// DropTableNode represents a DROP TABLE statement.
type DropTableNode struct {
	Name string
}

// NewDropTable creates a new DROP TABLE node.
func NewDropTable(name string) *DropTableNode {
	return &DropTableNode{Name: name}
}

// Accept implements the Node interface for DropTableNode.
func (n *DropTableNode) Accept(visitor Visitor) error {
	return visitor.VisitDropTable(n)
}

// RenameTableNode represents ALTER TABLE ... RENAME TO ...
type RenameTableNode struct {
	From string
	To   string
}

// NewRenameTable creates a new table rename node.
func NewRenameTable(from, to string) *RenameTableNode {
	return &RenameTableNode{From: from, To: to}
}

// Accept implements the Node interface for RenameTableNode.
func (n *RenameTableNode) Accept(visitor Visitor) error {
	return visitor.VisitRenameTable(n)
}

// InsertSelectNode copies rows between tables with identically named columns:
// INSERT INTO Table (Columns) SELECT Columns FROM Source.
type InsertSelectNode struct {
	Table   string
	Source  string
	Columns []string
}

// NewInsertSelect creates a new INSERT ... SELECT node.
func NewInsertSelect(table, source string, columns ...string) *InsertSelectNode {
	return &InsertSelectNode{
		Table:   table,
		Source:  source,
		Columns: columns,
	}
}

// Accept implements the Node interface for InsertSelectNode.
func (n *InsertSelectNode) Accept(visitor Visitor) error {
	return visitor.VisitInsertSelect(n)
}

// CommentNode represents SQL comments that can be included in generated scripts.
// Comments are kept in rendered scripts but never executed.
type CommentNode struct {
	// Text is the comment content
	Text string
}

// NewComment creates a new comment node.
func NewComment(text string) *CommentNode {
	return &CommentNode{Text: text}
}

// Accept implements the Node interface for CommentNode.
func (n *CommentNode) Accept(visitor Visitor) error {
	return visitor.VisitComment(n)
}

// StatementList represents a sequence of statements rendered in order.
type StatementList struct {
	// Statements contains the ordered list of SQL statements
	Statements []Node
}

// Accept implements the Node interface for StatementList.
//
// This method visits each statement in the list in order. If any statement
// fails to be visited, the process stops and returns the error.
func (sl *StatementList) Accept(visitor Visitor) error {
	for _, stmt := range sl.Statements {
		if err := stmt.Accept(visitor); err != nil {
			return fmt.Errorf("error visiting statement: %w", err)
		}
	}
	return nil
}
