// Package mysqllike renders SQL shared by MySQL and MariaDB.
package mysqllike

import (
	"fmt"

	"github.com/stokaro/runkey/core/ast"
	"github.com/stokaro/runkey/core/renderer/dialects/internal/bufwriter"
	"github.com/stokaro/runkey/core/renderer/dialects/internal/clause"
)

// Renderer provides SQL rendering common to the MySQL family
type Renderer struct {
	dialect string
	w       *bufwriter.Writer
}

// New creates a renderer for the named MySQL-family dialect writing to w
func New(dialect string, w *bufwriter.Writer) *Renderer {
	return &Renderer{
		dialect: dialect,
		w:       w,
	}
}

func (r *Renderer) Dialect() string {
	return r.dialect
}

func (r *Renderer) Reset() {
	r.w.Reset()
}

func (r *Renderer) Output() string {
	return r.w.String()
}

// Render renders an AST node to SQL and returns the result
func (r *Renderer) Render(node ast.Node, v ast.Visitor) (string, error) {
	r.Reset()
	if err := node.Accept(v); err != nil {
		return "", err
	}
	return r.Output(), nil
}

// Statements renders an AST node into executable statements
func (r *Renderer) Statements(node ast.Node, v ast.Visitor) ([]string, error) {
	r.Reset()
	if err := node.Accept(v); err != nil {
		return nil, err
	}
	return r.w.Statements(), nil
}

// ColumnType maps a dialect-independent type to MySQL.
func ColumnType(t ast.DataType) string {
	var s string
	switch t.Kind {
	case ast.String:
		s = fmt.Sprintf("VARCHAR(%d)", t.Length)
	case ast.Text:
		s = "TEXT"
	case ast.Integer:
		s = "INTEGER"
	case ast.Float:
		s = "FLOAT"
	case ast.Boolean:
		s = "BOOL"
	case ast.Timestamp:
		precision := t.Precision
		if precision == 0 {
			precision = 6
		}
		s = fmt.Sprintf("TIMESTAMP(%d)", precision)
	case ast.Blob:
		s = "BLOB"
	default:
		s = "TEXT"
	}
	if t.Collation != "" {
		s += " COLLATE " + t.Collation
	}
	return s
}

// ColumnDefinition renders a column; nullability is always explicit because
// MySQL gives TIMESTAMP columns implicit NOT NULL defaults otherwise.
func ColumnDefinition(col *ast.ColumnNode) string {
	def := col.Name + " " + ColumnType(col.Type)
	if col.Nullable {
		def += " NULL"
	} else {
		def += " NOT NULL"
	}
	if col.AutoInc {
		def += " AUTO_INCREMENT"
	}
	return def
}

// VisitCreateTable renders CREATE TABLE statements
func (r *Renderer) VisitCreateTable(node *ast.CreateTableNode) error {
	stmt, err := clause.CreateTable(node, ColumnDefinition, nil)
	if err != nil {
		return err
	}
	r.w.Statementf("%s", stmt)
	return nil
}

// VisitAlterTable renders one ALTER TABLE statement per operation
func (r *Renderer) VisitAlterTable(node *ast.AlterTableNode) error {
	for _, op := range node.Operations {
		switch op := op.(type) {
		case *ast.AddColumnOperation:
			r.w.Statementf("ALTER TABLE %s ADD COLUMN %s", node.Name, ColumnDefinition(op.Column))
		case *ast.DropColumnOperation:
			r.w.Statementf("ALTER TABLE %s DROP COLUMN %s", node.Name, op.ColumnName)
		case *ast.ModifyColumnOperation:
			r.w.Statementf("ALTER TABLE %s MODIFY %s", node.Name, ColumnDefinition(op.Column))
		case *ast.AddConstraintOperation:
			def, err := clause.Constraint(op.Constraint)
			if err != nil {
				return fmt.Errorf("table %s: %w", node.Name, err)
			}
			r.w.Statementf("ALTER TABLE %s ADD %s", node.Name, def)
		case *ast.DropConstraintOperation:
			switch op.Type {
			case ast.PrimaryKeyConstraint:
				r.w.Statementf("ALTER TABLE %s DROP PRIMARY KEY", node.Name)
			case ast.ForeignKeyConstraint:
				r.w.Statementf("ALTER TABLE %s DROP FOREIGN KEY %s", node.Name, op.Name)
			default:
				r.w.Statementf("ALTER TABLE %s DROP INDEX %s", node.Name, op.Name)
			}
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
		return fmt.Errorf("dropping index %s requires a table name on %s", node.Name, r.dialect)
	}
	r.w.Statementf("DROP INDEX %s ON %s", node.Name, node.Table)
	return nil
}

// VisitDropTable renders a DROP TABLE statement
func (r *Renderer) VisitDropTable(node *ast.DropTableNode) error {
	r.w.Statementf("DROP TABLE %s", node.Name)
	return nil
}

// VisitRenameTable renders RENAME TABLE
func (r *Renderer) VisitRenameTable(node *ast.RenameTableNode) error {
	r.w.Statementf("RENAME TABLE %s TO %s", node.From, node.To)
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
