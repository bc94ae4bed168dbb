package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stokaro/runkey/core/ast"
	"github.com/stokaro/runkey/core/platform"
	"github.com/stokaro/runkey/core/renderer/dialects/internal/bufwriter"
	"github.com/stokaro/runkey/core/renderer/dialects/internal/clause"
	"github.com/stokaro/runkey/core/renderer/types"
)

var (
	_ types.RenderVisitor = (*Renderer)(nil)
)

// ErrRequiresRebuild is returned for ALTER TABLE operations SQLite cannot
// perform in place. Callers recreate the table instead.
var ErrRequiresRebuild = errors.New("sqlite requires a table rebuild for this operation")

// Renderer provides SQLite-specific SQL rendering
type Renderer struct {
	w bufwriter.Writer
}

// New creates a new SQLite renderer
func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Dialect() string {
	return platform.SQLite
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

// ColumnType maps a dialect-independent type to SQLite. Only the built-in
// collating sequences are rendered; server collations have no meaning here.
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
		s = "BOOLEAN"
	case ast.Timestamp:
		s = "TIMESTAMP"
	case ast.Blob:
		s = "BLOB"
	default:
		s = "TEXT"
	}
	switch strings.ToUpper(t.Collation) {
	case "BINARY", "NOCASE", "RTRIM":
		s += " COLLATE " + strings.ToUpper(t.Collation)
	}
	return s
}

func columnDefinition(col *ast.ColumnNode) string {
	def := col.Name + " " + ColumnType(col.Type)
	if !col.Nullable {
		def += " NOT NULL"
	}
	if col.AutoInc {
		def += " PRIMARY KEY AUTOINCREMENT"
	}
	return def
}

// VisitCreateTable renders CREATE TABLE statements. An auto-increment column
// carries the primary key inline, so a matching table-level key is skipped.
func (r *Renderer) VisitCreateTable(node *ast.CreateTableNode) error {
	autoInc := ""
	for _, col := range node.Columns {
		if col.AutoInc {
			autoInc = col.Name
		}
	}
	skip := func(c *ast.ConstraintNode) bool {
		return autoInc != "" && c.Type == ast.PrimaryKeyConstraint &&
			len(c.Columns) == 1 && c.Columns[0] == autoInc
	}

	stmt, err := clause.CreateTable(node, columnDefinition, skip)
	if err != nil {
		return err
	}
	r.w.Statementf("%s", stmt)
	return nil
}

// VisitAlterTable renders the ALTER TABLE forms SQLite supports natively
func (r *Renderer) VisitAlterTable(node *ast.AlterTableNode) error {
	for _, op := range node.Operations {
		switch op := op.(type) {
		case *ast.AddColumnOperation:
			if op.Column.AutoInc {
				return fmt.Errorf("adding auto-increment column %s.%s: %w", node.Name, op.Column.Name, ErrRequiresRebuild)
			}
			r.w.Statementf("ALTER TABLE %s ADD COLUMN %s", node.Name, columnDefinition(op.Column))
		default:
			return fmt.Errorf("%T on table %s: %w", op, node.Name, ErrRequiresRebuild)
		}
	}
	return nil
}

// VisitColumn is a no-op; columns are rendered as part of CREATE/ALTER TABLE
func (r *Renderer) VisitColumn(_ *ast.ColumnNode) error {
	return nil
}

// VisitConstraint is a no-op; constraints are rendered as part of CREATE TABLE
func (r *Renderer) VisitConstraint(_ *ast.ConstraintNode) error {
	return nil
}

// VisitIndex renders a CREATE INDEX statement
func (r *Renderer) VisitIndex(node *ast.IndexNode) error {
	r.w.Statementf("%s", clause.CreateIndex(node))
	return nil
}

// VisitDropIndex renders a DROP INDEX statement
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
