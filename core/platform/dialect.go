package platform

import (
	sq "github.com/Masterminds/squirrel"
)

// UpdateStyle describes how a dialect updates one table from values held in another.
type UpdateStyle int

const (
	// CorrelatedSubquery sets the column from a per-row subquery; used where
	// multi-table UPDATE is not available.
	CorrelatedSubquery UpdateStyle = iota
	// UpdateFrom is "UPDATE target SET .. FROM source WHERE ..".
	UpdateFrom
	// UpdateFromWithTarget is UpdateFrom with the target repeated in the FROM list.
	UpdateFromWithTarget
	// MultiTableUpdate is "UPDATE target, source SET target.col = .. WHERE ..".
	MultiTableUpdate
)

func (s UpdateStyle) String() string {
	switch s {
	case CorrelatedSubquery:
		return "correlated-subquery"
	case UpdateFrom:
		return "update-from"
	case UpdateFromWithTarget:
		return "update-from-with-target"
	case MultiTableUpdate:
		return "multi-table-update"
	default:
		return "unknown"
	}
}

// Dialect exposes the capabilities that DDL and DML generation depend on.
// A new engine is supported by implementing this interface rather than by
// adding name comparisons at call sites.
type Dialect interface {
	// Name returns the normalized platform name.
	Name() string
	// UpdateStyle returns the cross-table UPDATE form the engine accepts.
	UpdateStyle() UpdateStyle
	// RebuildsTables reports whether constraint and column alterations must be
	// done by recreating the table and copying its rows.
	RebuildsTables() bool
	// RequiresConstraintLookup reports whether primary key names are generated
	// by the server and must be read from the catalog before they can be dropped.
	RequiresConstraintLookup() bool
	// SupportsCascadeOnSecondPath reports whether a second ON DELETE CASCADE
	// path to the same parent row is accepted.
	SupportsCascadeOnSecondPath() bool
	// IndexesForeignKeys reports whether creating a foreign key implicitly
	// creates a same-named index that has to be dropped separately.
	IndexesForeignKeys() bool
	// PlaceholderFormat returns the bind parameter style of the driver.
	PlaceholderFormat() sq.PlaceholderFormat
}

type postgresDialect struct{}

func (postgresDialect) Name() string                            { return Postgres }
func (postgresDialect) UpdateStyle() UpdateStyle                { return UpdateFrom }
func (postgresDialect) RebuildsTables() bool                    { return false }
func (postgresDialect) RequiresConstraintLookup() bool          { return false }
func (postgresDialect) SupportsCascadeOnSecondPath() bool       { return true }
func (postgresDialect) IndexesForeignKeys() bool                { return false }
func (postgresDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.Dollar }

type mysqlDialect struct {
	name string
}

func (d mysqlDialect) Name() string                          { return d.name }
func (mysqlDialect) UpdateStyle() UpdateStyle                { return MultiTableUpdate }
func (mysqlDialect) RebuildsTables() bool                    { return false }
func (mysqlDialect) RequiresConstraintLookup() bool          { return false }
func (mysqlDialect) SupportsCascadeOnSecondPath() bool       { return true }
func (mysqlDialect) IndexesForeignKeys() bool                { return true }
func (mysqlDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.Question }

type sqliteDialect struct{}

func (sqliteDialect) Name() string                            { return SQLite }
func (sqliteDialect) UpdateStyle() UpdateStyle                { return CorrelatedSubquery }
func (sqliteDialect) RebuildsTables() bool                    { return true }
func (sqliteDialect) RequiresConstraintLookup() bool          { return false }
func (sqliteDialect) SupportsCascadeOnSecondPath() bool       { return true }
func (sqliteDialect) IndexesForeignKeys() bool                { return false }
func (sqliteDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.Question }

// SQL Server rejects a second cascading path to dag_run (error 1785).
type mssqlDialect struct{}

func (mssqlDialect) Name() string                            { return MSSQL }
func (mssqlDialect) UpdateStyle() UpdateStyle                { return UpdateFromWithTarget }
func (mssqlDialect) RebuildsTables() bool                    { return false }
func (mssqlDialect) RequiresConstraintLookup() bool          { return true }
func (mssqlDialect) SupportsCascadeOnSecondPath() bool       { return false }
func (mssqlDialect) IndexesForeignKeys() bool                { return false }
func (mssqlDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.AtP }

// genericDialect follows the default path for engines nothing else claims.
type genericDialect struct {
	postgresDialect
	name string
}

func (d genericDialect) Name() string { return d.name }

// Lookup returns the Dialect for a platform or driver name. Names that do not
// match a known engine get a generic dialect that follows the default path.
func Lookup(name string) Dialect {
	switch n := NormalizeDialect(name); n {
	case Postgres:
		return postgresDialect{}
	case MySQL, MariaDB:
		return mysqlDialect{name: n}
	case SQLite:
		return sqliteDialect{}
	case MSSQL:
		return mssqlDialect{}
	default:
		return genericDialect{name: n}
	}
}

// IsKnown reports whether Lookup resolves the name to a dedicated dialect.
func IsKnown(name string) bool {
	_, generic := Lookup(name).(genericDialect)
	return !generic
}
