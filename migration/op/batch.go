package op

import (
	"github.com/stokaro/runkey/core/ast"
	"github.com/stokaro/runkey/migration/snapshot"
)

type step struct {
	node ast.Node
	// inPlace steps need no rebuild even on engines that rebuild tables
	inPlace bool
}

// Batch records the operations of one BatchAlterTable call. The first
// failing operation stops recording; BatchAlterTable reports its error.
type Batch struct {
	table    string
	model    *snapshot.Table
	steps    []step
	recreate bool
	err      error
}

func (b *Batch) inPlace() bool {
	for _, s := range b.steps {
		if !s.inPlace {
			return false
		}
	}
	return true
}

func (b *Batch) record(inPlace bool, node ast.Node, mutate func() error) {
	if b.err != nil {
		return
	}
	if err := mutate(); err != nil {
		b.err = err
		return
	}
	if node != nil {
		b.steps = append(b.steps, step{node: node, inPlace: inPlace})
	}
}

func (b *Batch) alter(op ast.AlterOperation) *ast.AlterTableNode {
	return ast.NewAlterTable(b.table, op)
}

// AddColumn adds a column
func (b *Batch) AddColumn(col snapshot.Column) {
	b.record(true, b.alter(&ast.AddColumnOperation{Column: col.Node()}), func() error {
		return b.model.AddColumn(col)
	})
}

// ColumnChange describes an AlterColumn change
type ColumnChange func(*snapshot.Column, *ast.ModifyColumnOperation)

// SetNullable changes the nullability of a column
func SetNullable(nullable bool) ColumnChange {
	return func(col *snapshot.Column, op *ast.ModifyColumnOperation) {
		col.Nullable = nullable
		op.SetNullable = true
	}
}

// SetType changes the type of a column
func SetType(t ast.DataType) ColumnChange {
	return func(col *snapshot.Column, op *ast.ModifyColumnOperation) {
		col.Type = t
		op.SetType = true
	}
}

// AlterColumn changes a column. The statement carries the full resulting
// definition because some engines restate it.
func (b *Batch) AlterColumn(name string, changes ...ColumnChange) {
	if b.err != nil {
		return
	}
	op := &ast.ModifyColumnOperation{}
	err := b.model.AlterColumn(name, func(col *snapshot.Column) {
		for _, change := range changes {
			change(col, op)
		}
	})
	if err != nil {
		b.err = err
		return
	}
	col, _ := b.model.Column(name)
	op.Column = col.Node()
	b.steps = append(b.steps, step{node: b.alter(op)})
}

// DropColumn drops a column
func (b *Batch) DropColumn(name string) {
	b.record(false, b.alter(&ast.DropColumnOperation{ColumnName: name}), func() error {
		return b.model.DropColumn(name)
	})
}

// DropConstraint drops a named unique or foreign key constraint
func (b *Batch) DropConstraint(name string) {
	if b.err != nil {
		return
	}
	kind, err := b.model.DropConstraint(name)
	if err != nil {
		b.err = err
		return
	}
	b.steps = append(b.steps, step{node: b.alter(&ast.DropConstraintOperation{Name: name, Type: kind})})
}

// DropPrimaryKey drops the primary key. The name is the one the server
// knows, which may differ from the snapshot's.
func (b *Batch) DropPrimaryKey(name string) {
	b.record(false, b.alter(&ast.DropConstraintOperation{Name: name, Type: ast.PrimaryKeyConstraint}), b.model.DropPrimaryKey)
}

// CreatePrimaryKey sets the primary key. On engines that rebuild tables it
// replaces any existing key.
func (b *Batch) CreatePrimaryKey(name string, columns ...string) {
	key := snapshot.Key{Name: name, Columns: columns}
	b.record(false, b.alter(&ast.AddConstraintOperation{Constraint: key.PrimaryKeyNode()}), func() error {
		return b.model.SetPrimaryKey(key)
	})
}

// CreateUnique adds a unique constraint
func (b *Batch) CreateUnique(name string, columns ...string) {
	key := snapshot.Key{Name: name, Columns: columns}
	b.record(false, b.alter(&ast.AddConstraintOperation{Constraint: key.UniqueNode()}), func() error {
		return b.model.AddUnique(key)
	})
}

// CreateForeignKey adds a foreign key
func (b *Batch) CreateForeignKey(fk snapshot.ForeignKey) {
	b.record(false, b.alter(&ast.AddConstraintOperation{Constraint: fk.Node()}), func() error {
		return b.model.AddForeignKey(fk)
	})
}

// CreateIndex creates a secondary index
func (b *Batch) CreateIndex(idx snapshot.Index) {
	b.record(true, idx.Node(b.table), func() error {
		return b.model.AddIndex(idx)
	})
}

// DropIndex drops a secondary index
func (b *Batch) DropIndex(name string) {
	b.record(true, ast.NewDropIndex(name, b.table), func() error {
		return b.model.DropIndex(name)
	})
}

// NameUniques renames the unique constraints of the snapshot. Only rebuilt
// tables pick up the names.
func (b *Batch) NameUniques(fn func(table string, key snapshot.Key) string) {
	b.record(false, nil, func() error {
		b.model.NameUniques(fn)
		return nil
	})
}
