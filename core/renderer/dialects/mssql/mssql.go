package mssql

import (
	"fmt"

	"github.com/stokaro/runkey/core/ast"
	"github.com/stokaro/runkey/core/platform"
	"github.com/stokaro/runkey/core/renderer/dialects/internal/bufwriter"
	"github.com/stokaro/runkey/core/renderer/dialects/internal/clause"
	"github.com/stokaro/runkey/core/renderer/types"
)

var (
	_ types.RenderVisitor = (*Renderer)(nil)
)

// Renderer provides SQL Server-specific SQL rendering
type Renderer struct {
	w bufwriter.Writer
}

// New creates a new SQL Server renderer
func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Dialect() string {
	return platform.MSSQL
}

func (r *Renderer) Reset() {
	r.w.Reset()
}

func (r *Renderer) Output() string {
	return r.w.String()
}

// Render renders an AST node to SQL and returns the result
func (r *Renderer) Render(node ast.Node) (string, error) {
	r.Reset()
	if err := node.Accept(r); err != nil {
		return "", err
	}
	return r.Output(), nil
}

// Statements renders an AST node into executable statements
func (r *Renderer) Statements(node ast.Node) ([]string, error) {
	r.Reset()
	if err := node.Accept(r); err != nil {
		return nil, err
	}
	return r.w.Statements(), nil
}

// ColumnType maps a dialect-independent type to SQL Server.
func ColumnType(t ast.DataType) string {
	var s string
	switch t.Kind {
	case ast.String:
		s = fmt.Sprintf("VARCHAR(%d)", t.Length)
	case ast.Text:
		s = "VARCHAR(max)"
	case ast.Integer:
		s = "INTEGER"
	case ast.Float:
		s = "FLOAT"
	case ast.Boolean:
		s = "BIT"
	case ast.Timestamp:
		precision := t.Precision
		if precision == 0 {
			precision = 6
		}
		s = fmt.Sprintf("DATETIME2(%d)", precision)
	case ast.Blob:
		s = "VARBINARY(max)"
	default:
		s = "VARCHAR(max)"
	}
	if t.Collation != "" {
		s += " COLLATE " + t.Collation
	}
	return s
}

func columnDefinition(col *ast.ColumnNode) string {
	def := col.Name + " " + ColumnType(col.Type)
	if col.AutoInc {
		def += " IDENTITY(1,1)"
	}
	if col.Nullable {
		def += " NULL"
	} else {
		def += " NOT NULL"
	}
	return def
}

// VisitCreateTable renders CREATE TABLE statements
func (r *Renderer) VisitCreateTable(node *ast.CreateTableNode) error {
	stmt, err := clause.CreateTable(node, columnDefinition, nil)
	if err != nil {
		return err
	}
	r.w.Statementf("%s", stmt)
	return nil
}

// VisitAlterTable renders one ALTER TABLE statement per operation.
// SQL Server restates the type when changing nullability.
func (r *Renderer) VisitAlterTable(node *ast.AlterTableNode) error {
	for _, op := range node.Operations {
		switch op := op.(type) {
		case *ast.AddColumnOperation:
			r.w.Statementf("ALTER TABLE %s ADD %s", node.Name, columnDefinition(op.Column))
		case *ast.DropColumnOperation:
			r.w.Statementf("ALTER TABLE %s DROP COLUMN %s", node.Name, op.ColumnName)
		case *ast.ModifyColumnOperation:
			null := "NOT NULL"
			if op.Column.Nullable {
				null = "NULL"
			}
			r.w.Statementf("ALTER TABLE %s ALTER COLUMN %s %s %s", node.Name, op.Column.Name, ColumnType(op.Column.Type), null)
		case *ast.AddConstraintOperation:
			def, err := clause.Constraint(op.Constraint)
			if err != nil {
				return fmt.Errorf("table %s: %w", node.Name, err)
			}
			r.w.Statementf("ALTER TABLE %s ADD %s", node.Name, def)
		case *ast.DropConstraintOperation:
			r.w.Statementf("ALTER TABLE %s DROP CONSTRAINT %s", node.Name, op.Name)
		default:
			return fmt.Errorf("unsupported alter operation %T", op)
		}
	}
	return nil
}

// VisitColumn is a no-op; columns are rendered as part of CREATE/ALTER TABLE
func (r *Renderer) VisitColumn(_ *ast.ColumnNode) error {
	return nil
}

// VisitConstraint is a no-op; constraints are rendered as part of CREATE/ALTER TABLE
func (r *Renderer) VisitConstraint(_ *ast.ConstraintNode) error {
	return nil
}

// VisitIndex renders a CREATE INDEX statement
func (r *Renderer) VisitIndex(node *ast.IndexNode) error {
	r.w.Statementf("%s", clause.CreateIndex(node))
	return nil
}

// VisitDropIndex renders DROP INDEX ... ON table
func (r *Renderer) VisitDropIndex(node *ast.DropIndexNode) error {
	if node.Table == "" {
		return fmt.Errorf("dropping index %s requires a table name on %s", node.Name, platform.MSSQL)
	}
	r.w.Statementf("DROP INDEX %s ON %s", node.Name, node.Table)
	return nil
}

// VisitDropTable renders a DROP TABLE statement
func (r *Renderer) VisitDropTable(node *ast.DropTableNode) error {
	r.w.Statementf("DROP TABLE %s", node.Name)
	return nil
}

// VisitRenameTable renders sp_rename
func (r *Renderer) VisitRenameTable(node *ast.RenameTableNode) error {
	r.w.Statementf("EXEC sp_rename '%s', '%s'", node.From, node.To)
	return nil
}

// VisitInsertSelect renders INSERT INTO ... SELECT
func (r *Renderer) VisitInsertSelect(node *ast.InsertSelectNode) error {
	r.w.Statementf("%s", clause.InsertSelect(node))
	return nil
}

// VisitComment renders a comment
func (r *Renderer) VisitComment(node *ast.CommentNode) error {
	r.w.Commentf("%s", node.Text)
	return nil
}
