package dbschema

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Constraint kinds as reported by INFORMATION_SCHEMA.TABLE_CONSTRAINTS.
const (
	PrimaryKey = "PRIMARY KEY"
	Unique     = "UNIQUE"
)

// ErrNoPrimaryKey is returned when the catalog has no primary key for a table.
var ErrNoPrimaryKey = errors.New("no primary key found")

// ConstraintMap maps constraint kind to constraint name to its columns.
type ConstraintMap map[string]map[string][]string

// TableConstraints reads the primary key and unique constraints of a table
// from INFORMATION_SCHEMA. Every call queries the catalog.
func TableConstraints(ctx context.Context, q Querier, placeholder sq.PlaceholderFormat, table string) (ConstraintMap, error) {
	query, args, err := sq.Select("tc.CONSTRAINT_NAME", "tc.CONSTRAINT_TYPE", "ccu.COLUMN_NAME").
		From("INFORMATION_SCHEMA.TABLE_CONSTRAINTS AS tc").
		Join("INFORMATION_SCHEMA.CONSTRAINT_COLUMN_USAGE AS ccu ON ccu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME").
		Where(sq.Eq{"tc.TABLE_NAME": table}).
		Where(sq.Or{
			sq.Eq{"tc.CONSTRAINT_TYPE": PrimaryKey},
			sq.Expr("UPPER(tc.CONSTRAINT_TYPE) = ?", Unique),
		}).
		PlaceholderFormat(placeholder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build constraint query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query constraints of %s: %w", table, err)
	}
	defer rows.Close()

	constraints := make(ConstraintMap)
	for rows.Next() {
		var name, kind, column string
		if err := rows.Scan(&name, &kind, &column); err != nil {
			return nil, fmt.Errorf("failed to scan constraint of %s: %w", table, err)
		}
		if constraints[kind] == nil {
			constraints[kind] = make(map[string][]string)
		}
		constraints[kind][name] = append(constraints[kind][name], column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating constraints of %s: %w", table, err)
	}

	return constraints, nil
}

// PrimaryKeyName returns the name of the table's primary key.
func (m ConstraintMap) PrimaryKeyName() (string, error) {
	for name := range m[PrimaryKey] {
		return name, nil
	}
	return "", ErrNoPrimaryKey
}
