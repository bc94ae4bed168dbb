package types

import (
	"context"

	sq "github.com/Masterminds/squirrel"
)

// DBSchema represents the part of a schema read from a database
type DBSchema struct {
	Tables      []DBTable      `json:"tables"`
	Indexes     []DBIndex      `json:"indexes"`
	Constraints []DBConstraint `json:"constraints"`
}

// Table returns the named table, or nil when it does not exist
func (s *DBSchema) Table(name string) *DBTable {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// TableIndexes returns the indexes defined on the named table
func (s *DBSchema) TableIndexes(table string) []DBIndex {
	var indexes []DBIndex
	for _, idx := range s.Indexes {
		if idx.TableName == table {
			indexes = append(indexes, idx)
		}
	}
	return indexes
}

// TableConstraints returns the constraints defined on the named table
func (s *DBSchema) TableConstraints(table string) []DBConstraint {
	var constraints []DBConstraint
	for _, c := range s.Constraints {
		if c.TableName == table {
			constraints = append(constraints, c)
		}
	}
	return constraints
}

// DBTable represents a database table
type DBTable struct {
	Name    string     `json:"name"`
	Type    string     `json:"type"` // table, view
	Columns []DBColumn `json:"columns"`
}

// ColumnNames returns the column names in ordinal order
func (t *DBTable) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		names = append(names, col.Name)
	}
	return names
}

// Column returns the named column, or nil when it does not exist
func (t *DBTable) Column(name string) *DBColumn {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// DBColumn represents a database column
type DBColumn struct {
	Name            string  `json:"name"`
	DataType        string  `json:"data_type"`
	IsNullable      string  `json:"is_nullable"`    // YES/NO
	ColumnDefault   *string `json:"column_default"` // Can be NULL
	OrdinalPosition int     `json:"ordinal_position"`
	IsPrimaryKey    bool    `json:"is_primary_key"` // Derived field
}

// DBIndex represents a database index
type DBIndex struct {
	Name      string   `json:"name"`
	TableName string   `json:"table_name"`
	Columns   []string `json:"columns"`
	IsUnique  bool     `json:"is_unique"`
	IsPrimary bool     `json:"is_primary"`
	Origin    string   `json:"origin"` // index, unique constraint or primary key
}

// DBConstraint represents a database constraint
type DBConstraint struct {
	Name           string   `json:"name"`
	TableName      string   `json:"table_name"`
	Type           string   `json:"type"` // PRIMARY KEY, FOREIGN KEY, UNIQUE
	Columns        []string `json:"columns"`
	ForeignTable   *string  `json:"foreign_table"`   // For foreign keys
	ForeignColumns []string `json:"foreign_columns"` // For foreign keys
	DeleteRule     *string  `json:"delete_rule"`     // CASCADE, RESTRICT, etc.
}

// DBInfo contains connection and metadata information
type DBInfo struct {
	Dialect string `json:"dialect"` // postgres, mysql, mariadb, sqlite, mssql
	Version string `json:"version"`
	URL     string `json:"url"` // database connection URL (for reference)
}

// SchemaReader interface for reading database schemas
type SchemaReader interface {
	ReadSchema(ctx context.Context) (*DBSchema, error)
}

// SchemaWriter interface for writing schemas to databases
type SchemaWriter interface {
	ExecuteSQL(ctx context.Context, sql string, args ...any) error
	Exec(ctx context.Context, stmt sq.Sqlizer) error
	BeginTransaction(ctx context.Context) error
	CommitTransaction() error
	RollbackTransaction() error
	InTransaction() bool
	SetDryRun(dryRun bool)
	IsDryRun() bool
}
