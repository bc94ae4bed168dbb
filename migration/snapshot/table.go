// Package snapshot describes table shapes as they exist at a given schema
// revision. A migration mutates a copy of the shape alongside the DDL it
// issues, so engines that rebuild tables can recreate them from the model.
package snapshot

import (
	"errors"
	"fmt"
	"slices"

	"github.com/stokaro/runkey/core/ast"
)

var (
	// ErrNotFound is returned when a mutation names a column, constraint or index the table does not have.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when a mutation adds a name the table already has.
	ErrExists = errors.New("already exists")
	// ErrInUse is returned when dropping a column that a key or index still references.
	ErrInUse = errors.New("still referenced")
)

// Column is a column of a table snapshot.
type Column struct {
	Name     string
	Type     ast.DataType
	Nullable bool
	AutoInc  bool
}

// Key is a primary key or unique constraint. An empty name means the
// constraint was created without one.
type Key struct {
	Name    string
	Columns []string
}

// ForeignKey references another table.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   string
}

// Index is a secondary index.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Table is the shape of one table at one revision.
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  *Key
	Uniques     []Key
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Name:    t.Name,
		Columns: slices.Clone(t.Columns),
	}
	if t.PrimaryKey != nil {
		pk := cloneKey(*t.PrimaryKey)
		c.PrimaryKey = &pk
	}
	for _, u := range t.Uniques {
		c.Uniques = append(c.Uniques, cloneKey(u))
	}
	for _, fk := range t.ForeignKeys {
		fk.Columns = slices.Clone(fk.Columns)
		fk.RefColumns = slices.Clone(fk.RefColumns)
		c.ForeignKeys = append(c.ForeignKeys, fk)
	}
	for _, idx := range t.Indexes {
		idx.Columns = slices.Clone(idx.Columns)
		c.Indexes = append(c.Indexes, idx)
	}
	return c
}

func cloneKey(k Key) Key {
	return Key{Name: k.Name, Columns: slices.Clone(k.Columns)}
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		names = append(names, col.Name)
	}
	return names
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, error) {
	i := t.columnIndex(name)
	if i < 0 {
		return Column{}, fmt.Errorf("column %s.%s: %w", t.Name, name, ErrNotFound)
	}
	return t.Columns[i], nil
}

func (t *Table) columnIndex(name string) int {
	return slices.IndexFunc(t.Columns, func(c Column) bool { return c.Name == name })
}

func (t *Table) checkColumns(what string, columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("%s on %s has no columns", what, t.Name)
	}
	for _, name := range columns {
		if t.columnIndex(name) < 0 {
			return fmt.Errorf("%s on %s: column %s: %w", what, t.Name, name, ErrNotFound)
		}
	}
	return nil
}

// AddColumn appends a column.
func (t *Table) AddColumn(col Column) error {
	if t.columnIndex(col.Name) >= 0 {
		return fmt.Errorf("column %s.%s: %w", t.Name, col.Name, ErrExists)
	}
	t.Columns = append(t.Columns, col)
	return nil
}

// AlterColumn applies fn to the named column.
func (t *Table) AlterColumn(name string, fn func(*Column)) error {
	i := t.columnIndex(name)
	if i < 0 {
		return fmt.Errorf("column %s.%s: %w", t.Name, name, ErrNotFound)
	}
	fn(&t.Columns[i])
	t.Columns[i].Name = name
	return nil
}

// DropColumn removes a column. Keys and indexes using it must be dropped first.
func (t *Table) DropColumn(name string) error {
	i := t.columnIndex(name)
	if i < 0 {
		return fmt.Errorf("column %s.%s: %w", t.Name, name, ErrNotFound)
	}

	if t.PrimaryKey != nil && slices.Contains(t.PrimaryKey.Columns, name) {
		return fmt.Errorf("column %s.%s is in the primary key: %w", t.Name, name, ErrInUse)
	}
	for _, u := range t.Uniques {
		if slices.Contains(u.Columns, name) {
			return fmt.Errorf("column %s.%s is in unique constraint %q: %w", t.Name, name, u.Name, ErrInUse)
		}
	}
	for _, fk := range t.ForeignKeys {
		if slices.Contains(fk.Columns, name) {
			return fmt.Errorf("column %s.%s is in foreign key %s: %w", t.Name, name, fk.Name, ErrInUse)
		}
	}
	for _, idx := range t.Indexes {
		if slices.Contains(idx.Columns, name) {
			return fmt.Errorf("column %s.%s is in index %s: %w", t.Name, name, idx.Name, ErrInUse)
		}
	}

	t.Columns = slices.Delete(t.Columns, i, i+1)
	return nil
}

// SetPrimaryKey replaces the primary key.
func (t *Table) SetPrimaryKey(key Key) error {
	if err := t.checkColumns("primary key", key.Columns); err != nil {
		return err
	}
	key = cloneKey(key)
	t.PrimaryKey = &key
	return nil
}

// DropPrimaryKey removes the primary key whatever its name.
func (t *Table) DropPrimaryKey() error {
	if t.PrimaryKey == nil {
		return fmt.Errorf("primary key of %s: %w", t.Name, ErrNotFound)
	}
	t.PrimaryKey = nil
	return nil
}

// AddUnique adds a unique constraint.
func (t *Table) AddUnique(key Key) error {
	if err := t.checkColumns("unique constraint", key.Columns); err != nil {
		return err
	}
	if key.Name != "" && t.hasConstraint(key.Name) {
		return fmt.Errorf("constraint %s on %s: %w", key.Name, t.Name, ErrExists)
	}
	t.Uniques = append(t.Uniques, cloneKey(key))
	return nil
}

// NameUniques names every unique constraint with fn. It is used to give
// anonymous constraints the names later revisions refer to.
func (t *Table) NameUniques(fn func(table string, key Key) string) {
	for i := range t.Uniques {
		t.Uniques[i].Name = fn(t.Name, t.Uniques[i])
	}
}

// AddForeignKey adds a foreign key.
func (t *Table) AddForeignKey(fk ForeignKey) error {
	if err := t.checkColumns("foreign key", fk.Columns); err != nil {
		return err
	}
	if len(fk.RefColumns) != len(fk.Columns) {
		return fmt.Errorf("foreign key %s on %s references %d columns with %d", fk.Name, t.Name, len(fk.RefColumns), len(fk.Columns))
	}
	if t.hasConstraint(fk.Name) {
		return fmt.Errorf("constraint %s on %s: %w", fk.Name, t.Name, ErrExists)
	}
	fk.Columns = slices.Clone(fk.Columns)
	fk.RefColumns = slices.Clone(fk.RefColumns)
	t.ForeignKeys = append(t.ForeignKeys, fk)
	return nil
}

// DropConstraint removes a named unique or foreign key constraint and
// returns its kind.
func (t *Table) DropConstraint(name string) (ast.ConstraintType, error) {
	if i := slices.IndexFunc(t.Uniques, func(k Key) bool { return k.Name == name }); i >= 0 {
		t.Uniques = slices.Delete(t.Uniques, i, i+1)
		return ast.UniqueConstraint, nil
	}
	if i := slices.IndexFunc(t.ForeignKeys, func(fk ForeignKey) bool { return fk.Name == name }); i >= 0 {
		t.ForeignKeys = slices.Delete(t.ForeignKeys, i, i+1)
		return ast.ForeignKeyConstraint, nil
	}
	return 0, fmt.Errorf("constraint %s on %s: %w", name, t.Name, ErrNotFound)
}

func (t *Table) hasConstraint(name string) bool {
	if t.PrimaryKey != nil && t.PrimaryKey.Name == name {
		return true
	}
	for _, u := range t.Uniques {
		if u.Name == name {
			return true
		}
	}
	for _, fk := range t.ForeignKeys {
		if fk.Name == name {
			return true
		}
	}
	return false
}

// AddIndex adds a secondary index.
func (t *Table) AddIndex(idx Index) error {
	if err := t.checkColumns("index "+idx.Name, idx.Columns); err != nil {
		return err
	}
	if slices.ContainsFunc(t.Indexes, func(i Index) bool { return i.Name == idx.Name }) {
		return fmt.Errorf("index %s on %s: %w", idx.Name, t.Name, ErrExists)
	}
	idx.Columns = slices.Clone(idx.Columns)
	t.Indexes = append(t.Indexes, idx)
	return nil
}

// DropIndex removes a secondary index.
func (t *Table) DropIndex(name string) error {
	i := slices.IndexFunc(t.Indexes, func(idx Index) bool { return idx.Name == name })
	if i < 0 {
		return fmt.Errorf("index %s on %s: %w", name, t.Name, ErrNotFound)
	}
	t.Indexes = slices.Delete(t.Indexes, i, i+1)
	return nil
}

// HasIndex reports whether the table has the named index.
func (t *Table) HasIndex(name string) bool {
	return slices.ContainsFunc(t.Indexes, func(idx Index) bool { return idx.Name == name })
}
