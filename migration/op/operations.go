// Package op executes the schema operations of a migration against a
// connection, hiding how each engine carries them out.
package op

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/stokaro/runkey/core/ast"
	"github.com/stokaro/runkey/core/platform"
	"github.com/stokaro/runkey/core/renderer"
	"github.com/stokaro/runkey/core/renderer/types"
	"github.com/stokaro/runkey/dbschema"
	"github.com/stokaro/runkey/dbschema/sqlite"
	"github.com/stokaro/runkey/migration/snapshot"
)

var (
	// ErrUntracked is returned when altering a table whose snapshot was not registered.
	ErrUntracked = errors.New("table is not tracked")
	// ErrSchemaDrift is returned when a table about to be rebuilt does not
	// have the columns its snapshot describes.
	ErrSchemaDrift = errors.New("live table does not match its snapshot")
)

// Operations applies schema changes for one migration run.
type Operations struct {
	conn     *dbschema.DatabaseConnection
	dialect  platform.Dialect
	renderer types.RenderVisitor
	models   map[string]*snapshot.Table
	logger   *slog.Logger
}

// New creates Operations on conn tracking copies of the given table snapshots.
func New(conn *dbschema.DatabaseConnection, models ...*snapshot.Table) *Operations {
	o := &Operations{
		conn:     conn,
		dialect:  conn.Dialect(),
		renderer: renderer.New(conn.Info().Dialect),
		models:   make(map[string]*snapshot.Table),
		logger:   slog.Default(),
	}
	o.Track(models...)
	return o
}

// WithLogger sets the logger
func (o *Operations) WithLogger(l *slog.Logger) *Operations {
	tmp := *o
	tmp.logger = l
	return &tmp
}

// Dialect returns the dialect of the connection
func (o *Operations) Dialect() platform.Dialect {
	return o.dialect
}

// Conn returns the connection operations run on
func (o *Operations) Conn() *dbschema.DatabaseConnection {
	return o.conn
}

// Track registers copies of table snapshots, replacing earlier ones of the same name.
func (o *Operations) Track(models ...*snapshot.Table) {
	for _, m := range models {
		o.models[m.Name] = m.Clone()
	}
}

// Model returns a copy of the current snapshot of a tracked table.
func (o *Operations) Model(table string) (*snapshot.Table, error) {
	m, ok := o.models[table]
	if !ok {
		return nil, fmt.Errorf("%s: %w", table, ErrUntracked)
	}
	return m.Clone(), nil
}

// Comment adds a comment to rendered scripts. Nothing is sent to a live database.
func (o *Operations) Comment(ctx context.Context, text string) error {
	if !o.conn.Writer().IsDryRun() {
		return nil
	}
	return o.conn.Writer().ExecuteSQL(ctx, "-- "+text)
}

// Execute runs a data statement.
func (o *Operations) Execute(ctx context.Context, stmt sq.Sqlizer) error {
	if err := o.conn.Writer().Exec(ctx, stmt); err != nil {
		return err
	}
	o.logger.Debug("Executed statement", "statement", sq.DebugSqlizer(stmt))
	return nil
}

// AddColumn adds a column in place. Every supported engine can do this
// without rebuilding the table.
func (o *Operations) AddColumn(ctx context.Context, table string, col snapshot.Column) error {
	m, ok := o.models[table]
	if !ok {
		return fmt.Errorf("%s: %w", table, ErrUntracked)
	}
	updated := m.Clone()
	if err := updated.AddColumn(col); err != nil {
		return err
	}

	node := ast.NewAlterTable(table, &ast.AddColumnOperation{Column: col.Node()})
	if err := o.run(ctx, node); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, col.Name, err)
	}
	o.models[table] = updated
	return nil
}

// CreateIndex creates an index in place.
func (o *Operations) CreateIndex(ctx context.Context, table string, idx snapshot.Index) error {
	m, ok := o.models[table]
	if !ok {
		return fmt.Errorf("%s: %w", table, ErrUntracked)
	}
	updated := m.Clone()
	if err := updated.AddIndex(idx); err != nil {
		return err
	}

	if err := o.run(ctx, idx.Node(table)); err != nil {
		return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
	}
	o.models[table] = updated
	return nil
}

// BatchOption configures BatchAlterTable
type BatchOption func(*Batch)

// RecreateAlways rebuilds the table on engines that rebuild tables even when
// no operation requires it.
func RecreateAlways() BatchOption {
	return func(b *Batch) {
		b.recreate = true
	}
}

// BatchAlterTable collects the operations fn records against table and
// applies them. Engines that alter tables in place get one statement per
// operation, in order. Engines that cannot recreate the table from its
// updated snapshot and copy the rows across.
func (o *Operations) BatchAlterTable(ctx context.Context, table string, fn func(*Batch), opts ...BatchOption) error {
	m, ok := o.models[table]
	if !ok {
		return fmt.Errorf("%s: %w", table, ErrUntracked)
	}

	b := &Batch{
		table: table,
		model: m.Clone(),
	}
	for _, opt := range opts {
		opt(b)
	}
	fn(b)
	if b.err != nil {
		return fmt.Errorf("batch alter of %s: %w", table, b.err)
	}

	rebuild := o.dialect.RebuildsTables() && (b.recreate || !b.inPlace())
	o.logger.Debug("Altering table", "table", table, "operations", len(b.steps), "rebuild", rebuild)

	var err error
	if rebuild {
		err = o.rebuild(ctx, m, b.model)
	} else {
		nodes := make([]ast.Node, 0, len(b.steps))
		for _, s := range b.steps {
			nodes = append(nodes, s.node)
		}
		err = o.run(ctx, &ast.StatementList{Statements: nodes})
	}
	if err != nil {
		return fmt.Errorf("failed to alter table %s: %w", table, err)
	}

	o.models[table] = b.model
	return nil
}

// rebuild recreates a table with the shape of to, keeping the rows and the
// columns both shapes have.
func (o *Operations) rebuild(ctx context.Context, from, to *snapshot.Table) error {
	if err := o.checkDrift(ctx, from); err != nil {
		return err
	}

	tmp := "_tmp_" + to.Name
	var copied []string
	for _, name := range to.ColumnNames() {
		if slices.Contains(from.ColumnNames(), name) {
			copied = append(copied, name)
		}
	}

	nodes := []ast.Node{
		ast.NewComment("rebuild " + to.Name),
		to.CreateTable(tmp),
		ast.NewInsertSelect(tmp, to.Name, copied...),
		ast.NewDropTable(to.Name),
		ast.NewRenameTable(tmp, to.Name),
	}
	nodes = append(nodes, to.CreateIndexes()...)
	return o.run(ctx, &ast.StatementList{Statements: nodes})
}

// checkDrift compares the live columns with the snapshot the rebuild starts
// from. Rebuilding from a wrong snapshot would silently drop data.
func (o *Operations) checkDrift(ctx context.Context, model *snapshot.Table) error {
	if o.conn.IsOffline() {
		return nil
	}

	live, err := sqlite.NewSQLiteReader(o.conn).ReadTable(ctx, model.Name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", model.Name, err)
	}

	got := live.ColumnNames()
	want := model.ColumnNames()
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		return fmt.Errorf("%s has columns %v, expected %v: %w", model.Name, got, want, ErrSchemaDrift)
	}
	return nil
}

func (o *Operations) run(ctx context.Context, node ast.Node) error {
	w := o.conn.Writer()
	if w.IsDryRun() {
		sql, err := o.renderer.Render(node)
		if err != nil {
			return err
		}
		return w.WriteScript(sql)
	}

	stmts, err := o.renderer.Statements(node)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if err := w.ExecuteSQL(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
