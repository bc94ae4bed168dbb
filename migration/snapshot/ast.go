package snapshot

import (
	"github.com/stokaro/runkey/core/ast"
)

// Node returns the column definition.
func (c Column) Node() *ast.ColumnNode {
	node := ast.NewColumn(c.Name, c.Type).SetNullable(c.Nullable)
	if c.AutoInc {
		node.SetAutoIncrement()
	}
	return node
}

// PrimaryKeyNode returns the constraint definition of a primary key.
func (k Key) PrimaryKeyNode() *ast.ConstraintNode {
	return ast.NewPrimaryKeyConstraint(k.Name, k.Columns...)
}

// UniqueNode returns the constraint definition of a unique key.
func (k Key) UniqueNode() *ast.ConstraintNode {
	return ast.NewUniqueConstraint(k.Name, k.Columns...)
}

// Node returns the constraint definition.
func (fk ForeignKey) Node() *ast.ConstraintNode {
	return ast.NewForeignKeyConstraint(fk.Name, fk.Columns, &ast.ForeignKeyRef{
		Table:    fk.RefTable,
		Columns:  fk.RefColumns,
		OnDelete: fk.OnDelete,
	})
}

// Node returns the CREATE INDEX statement for the index on table.
func (idx Index) Node(table string) *ast.IndexNode {
	node := ast.NewIndex(idx.Name, table, idx.Columns...)
	if idx.Unique {
		node.SetUnique()
	}
	return node
}

// CreateTable returns a CREATE TABLE statement for the snapshot under the
// given name, which differs from t.Name while a table is being rebuilt.
func (t *Table) CreateTable(name string) *ast.CreateTableNode {
	node := ast.NewCreateTable(name)
	for _, col := range t.Columns {
		node.AddColumn(col.Node())
	}
	if t.PrimaryKey != nil {
		node.AddConstraint(t.PrimaryKey.PrimaryKeyNode())
	}
	for _, u := range t.Uniques {
		node.AddConstraint(u.UniqueNode())
	}
	for _, fk := range t.ForeignKeys {
		node.AddConstraint(fk.Node())
	}
	return node
}

// CreateIndexes returns the CREATE INDEX statements for the secondary indexes.
func (t *Table) CreateIndexes() []ast.Node {
	nodes := make([]ast.Node, 0, len(t.Indexes))
	for _, idx := range t.Indexes {
		nodes = append(nodes, idx.Node(t.Name))
	}
	return nodes
}
