// Package clause renders SQL fragments shared by all dialect renderers.
package clause

import (
	"fmt"
	"strings"

	"github.com/stokaro/runkey/core/ast"
)

// Columns renders a comma separated column list.
func Columns(columns []string) string {
	return strings.Join(columns, ", ")
}

// Constraint renders a table-level constraint clause as used in CREATE TABLE
// and ALTER TABLE ... ADD.
func Constraint(c *ast.ConstraintNode) (string, error) {
	if len(c.Columns) == 0 {
		return "", fmt.Errorf("constraint %q has no columns", c.Name)
	}

	var sb strings.Builder
	if c.Name != "" {
		sb.WriteString("CONSTRAINT ")
		sb.WriteString(c.Name)
		sb.WriteString(" ")
	}

	switch c.Type {
	case ast.PrimaryKeyConstraint:
		fmt.Fprintf(&sb, "PRIMARY KEY (%s)", Columns(c.Columns))
	case ast.UniqueConstraint:
		fmt.Fprintf(&sb, "UNIQUE (%s)", Columns(c.Columns))
	case ast.ForeignKeyConstraint:
		if c.Reference == nil {
			return "", fmt.Errorf("foreign key %q has no reference", c.Name)
		}
		if len(c.Reference.Columns) != len(c.Columns) {
			return "", fmt.Errorf("foreign key %q references %d columns with %d", c.Name, len(c.Reference.Columns), len(c.Columns))
		}
		fmt.Fprintf(&sb, "FOREIGN KEY (%s) REFERENCES %s (%s)", Columns(c.Columns), c.Reference.Table, Columns(c.Reference.Columns))
		if c.Reference.OnDelete != "" {
			sb.WriteString(" ON DELETE ")
			sb.WriteString(c.Reference.OnDelete)
		}
	default:
		return "", fmt.Errorf("unsupported constraint type: %s", c.Type)
	}

	return sb.String(), nil
}

// CreateIndex renders a CREATE [UNIQUE] INDEX statement.
func CreateIndex(n *ast.IndexNode) string {
	unique := ""
	if n.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", unique, n.Name, n.Table, Columns(n.Columns))
}

// InsertSelect renders INSERT INTO ... SELECT ... FROM ...
func InsertSelect(n *ast.InsertSelectNode) string {
	cols := Columns(n.Columns)
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", n.Table, cols, cols, n.Source)
}

// CreateTable renders CREATE TABLE with the given column definitions followed
// by the table constraints.
func CreateTable(n *ast.CreateTableNode, columnDef func(*ast.ColumnNode) string, skip func(*ast.ConstraintNode) bool) (string, error) {
	if len(n.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", n.Name)
	}

	parts := make([]string, 0, len(n.Columns)+len(n.Constraints))
	for _, col := range n.Columns {
		parts = append(parts, columnDef(col))
	}
	for _, c := range n.Constraints {
		if skip != nil && skip(c) {
			continue
		}
		def, err := Constraint(c)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", n.Name, err)
		}
		parts = append(parts, def)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", n.Name, strings.Join(parts, ",\n\t")), nil
}
