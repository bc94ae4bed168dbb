// Package sqlite reads table shapes from SQLite databases.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stokaro/runkey/dbschema"
	"github.com/stokaro/runkey/dbschema/types"
)

// Reader reads schema from SQLite databases
type Reader struct {
	q dbschema.Querier
}

var (
	_ types.SchemaReader = (*Reader)(nil)
)

// NewSQLiteReader creates a new SQLite schema reader
func NewSQLiteReader(q dbschema.Querier) *Reader {
	return &Reader{q: q}
}

// ReadSchema reads every user table with its indexes and foreign keys
func (r *Reader) ReadSchema(ctx context.Context) (*types.DBSchema, error) {
	names, err := r.readTableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}

	schema := &types.DBSchema{}
	for _, name := range names {
		table, err := r.ReadTable(ctx, name)
		if err != nil {
			return nil, err
		}
		schema.Tables = append(schema.Tables, *table)

		indexes, err := r.readIndexes(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read indexes of %s: %w", name, err)
		}
		schema.Indexes = append(schema.Indexes, indexes...)

		constraints, err := r.readForeignKeys(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read foreign keys of %s: %w", name, err)
		}
		schema.Constraints = append(schema.Constraints, constraints...)
	}

	return schema, nil
}

// ReadTable reads the columns of one table. It returns an error when the
// table does not exist.
func (r *Reader) ReadTable(ctx context.Context, name string) (*types.DBTable, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", name, err)
	}
	defer rows.Close()

	table := &types.DBTable{Name: name, Type: "table"}
	for rows.Next() {
		var (
			col     types.DBColumn
			notNull bool
			pk      int
		)
		if err := rows.Scan(&col.OrdinalPosition, &col.Name, &col.DataType, &notNull, &col.ColumnDefault, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", name, err)
		}
		col.IsNullable = "YES"
		if notNull {
			col.IsNullable = "NO"
		}
		col.IsPrimaryKey = pk > 0
		table.Columns = append(table.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns of %s: %w", name, err)
	}

	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", name)
	}
	return table, nil
}

func (r *Reader) readTableNames(ctx context.Context) ([]string, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *Reader) readIndexes(ctx context.Context, table string) ([]types.DBIndex, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT name, "unique", origin FROM pragma_index_list(?) ORDER BY name`, table)
	if err != nil {
		return nil, err
	}

	var indexes []types.DBIndex
	for rows.Next() {
		idx := types.DBIndex{TableName: table}
		if err := rows.Scan(&idx.Name, &idx.IsUnique, &idx.Origin); err != nil {
			rows.Close()
			return nil, err
		}
		idx.IsPrimary = idx.Origin == "pk"
		indexes = append(indexes, idx)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Columns are read after the list is closed; a single-connection pool
	// cannot run a second query while the first one is open.
	for i := range indexes {
		columns, err := r.readIndexColumns(ctx, indexes[i].Name)
		if err != nil {
			return nil, err
		}
		indexes[i].Columns = columns
	}
	return indexes, nil
}

func (r *Reader) readIndexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT name FROM pragma_index_info(?) ORDER BY seqno`, index)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return nil, err
		}
		columns = append(columns, column)
	}
	return columns, rows.Err()
}

func (r *Reader) readForeignKeys(ctx context.Context, table string) ([]types.DBConstraint, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, "table", "from", "to", on_delete FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		constraints []types.DBConstraint
		lastID      = -1
	)
	for rows.Next() {
		var (
			id               int
			foreignTable     string
			from, deleteRule string
			to               sql.NullString
		)
		if err := rows.Scan(&id, &foreignTable, &from, &to, &deleteRule); err != nil {
			return nil, err
		}
		if id != lastID {
			constraints = append(constraints, types.DBConstraint{
				TableName:    table,
				Type:         "FOREIGN KEY",
				ForeignTable: &foreignTable,
				DeleteRule:   &deleteRule,
			})
			lastID = id
		}
		fk := &constraints[len(constraints)-1]
		fk.Columns = append(fk.Columns, from)
		fk.ForeignColumns = append(fk.ForeignColumns, to.String)
	}
	return constraints, rows.Err()
}
