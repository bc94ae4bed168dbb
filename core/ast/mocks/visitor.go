package mocks

import (
	"errors"

	"github.com/stokaro/runkey/core/ast"
)

// MockVisitor implements the Visitor interface for testing
type MockVisitor struct {
	VisitedNodes []string
	ReturnError  bool
}

func (m *MockVisitor) visit(label string) error {
	m.VisitedNodes = append(m.VisitedNodes, label)
	if m.ReturnError {
		return errors.New("mock error")
	}
	return nil
}

func (m *MockVisitor) VisitCreateTable(node *ast.CreateTableNode) error {
	return m.visit("CreateTable:" + node.Name)
}

func (m *MockVisitor) VisitAlterTable(node *ast.AlterTableNode) error {
	return m.visit("AlterTable:" + node.Name)
}

func (m *MockVisitor) VisitColumn(node *ast.ColumnNode) error {
	return m.visit("Column:" + node.Name)
}

func (m *MockVisitor) VisitConstraint(node *ast.ConstraintNode) error {
	return m.visit("Constraint:" + node.Name)
}

func (m *MockVisitor) VisitIndex(node *ast.IndexNode) error {
	return m.visit("Index:" + node.Name)
}

func (m *MockVisitor) VisitDropIndex(node *ast.DropIndexNode) error {
	return m.visit("DropIndex:" + node.Name)
}

func (m *MockVisitor) VisitDropTable(node *ast.DropTableNode) error {
	return m.visit("DropTable:" + node.Name)
}

func (m *MockVisitor) VisitRenameTable(node *ast.RenameTableNode) error {
	return m.visit("RenameTable:" + node.From + "->" + node.To)
}

func (m *MockVisitor) VisitInsertSelect(node *ast.InsertSelectNode) error {
	return m.visit("InsertSelect:" + node.Source + "->" + node.Table)
}

func (m *MockVisitor) VisitComment(node *ast.CommentNode) error {
	return m.visit("Comment:" + node.Text)
}
