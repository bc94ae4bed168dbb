package postgres

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/stokaro/runkey/core/ast"
	"github.com/stokaro/runkey/core/platform"
	"github.com/stokaro/runkey/core/renderer/dialects/internal/bufwriter"
	"github.com/stokaro/runkey/core/renderer/dialects/internal/clause"
	"github.com/stokaro/runkey/core/renderer/types"
)

var (
	_ types.RenderVisitor = (*Renderer)(nil)
)

// Renderer provides PostgreSQL-specific SQL rendering. It is also the
// renderer for engines without a dedicated one.
type Renderer struct {
	dialect string
	w       bufwriter.Writer
}

// New creates a new PostgreSQL renderer
func New() *Renderer {
	return NewNamed(platform.Postgres)
}

// NewNamed creates a PostgreSQL-syntax renderer reporting the given dialect name.
func NewNamed(dialect string) *Renderer {
	return &Renderer{dialect: dialect}
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

// ColumnType maps a dialect-independent type to PostgreSQL.
func ColumnType(t ast.DataType, autoInc bool) string {
	var s string
	switch t.Kind {
	case ast.String:
		s = fmt.Sprintf("VARCHAR(%d)", t.Length)
	case ast.Text:
		s = "TEXT"
	case ast.Integer:
		if autoInc {
			return "SERIAL"
		}
		s = "INTEGER"
	case ast.Float:
		s = "DOUBLE PRECISION"
	case ast.Boolean:
		s = "BOOLEAN"
	case ast.Timestamp:
		if t.Timezone {
			s = "TIMESTAMP WITH TIME ZONE"
		} else {
			s = "TIMESTAMP WITHOUT TIME ZONE"
		}
	case ast.Blob:
		s = "BYTEA"
	default:
		s = "TEXT"
	}
	if t.Collation != "" {
		s += " COLLATE " + pq.QuoteIdentifier(t.Collation)
	}
	return s
}

func columnDefinition(col *ast.ColumnNode) string {
	def := col.Name + " " + ColumnType(col.Type, col.AutoInc)
	if !col.Nullable {
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

// VisitAlterTable renders one ALTER TABLE statement per operation
func (r *Renderer) VisitAlterTable(node *ast.AlterTableNode) error {
	for _, op := range node.Operations {
		switch op := op.(type) {
		case *ast.AddColumnOperation:
			r.w.Statementf("ALTER TABLE %s ADD COLUMN %s", node.Name, columnDefinition(op.Column))
		case *ast.DropColumnOperation:
			r.w.Statementf("ALTER TABLE %s DROP COLUMN %s", node.Name, op.ColumnName)
		case *ast.ModifyColumnOperation:
			if op.SetType {
				r.w.Statementf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", node.Name, op.Column.Name, ColumnType(op.Column.Type, false))
			}
			if op.SetNullable {
				if op.Column.Nullable {
					r.w.Statementf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", node.Name, op.Column.Name)
				} else {
					r.w.Statementf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", node.Name, op.Column.Name)
				}
			}
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

// VisitDropIndex renders a DROP INDEX statement; PostgreSQL indexes are schema-scoped
func (r *Renderer) VisitDropIndex(node *ast.DropIndexNode) error {
	r.w.Statementf("DROP INDEX %s", node.Name)
	return nil
}

// VisitDropTable renders a DROP TABLE statement
func (r *Renderer) VisitDropTable(node *ast.DropTableNode) error {
	r.w.Statementf("DROP TABLE %s", node.Name)
	return nil
}

// VisitRenameTable renders ALTER TABLE ... RENAME TO
func (r *Renderer) VisitRenameTable(node *ast.RenameTableNode) error {
	r.w.Statementf("ALTER TABLE %s RENAME TO %s", node.From, node.To)
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
