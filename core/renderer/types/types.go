package types

import (
	"github.com/stokaro/runkey/core/ast"
)

// RenderVisitor renders AST nodes into dialect-specific SQL.
type RenderVisitor interface {
	ast.Visitor

	// Dialect returns the dialect the renderer produces SQL for
	Dialect() string
	// Render renders a node into a script: statements terminated by ";" plus comments
	Render(node ast.Node) (string, error)
	// Statements renders a node into individually executable statements
	Statements(node ast.Node) ([]string, error)
	// Reset clears accumulated output
	Reset()
	// Output returns the script accumulated since the last Reset
	Output() string
}
