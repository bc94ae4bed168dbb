// Package dbschema connects to the supported databases and executes schema
// changes against them, either live or as a rendered script.
package dbschema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"  // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"     // registers the "sqlite3" driver
	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	"github.com/stokaro/runkey/core/platform"
	"github.com/stokaro/runkey/dbschema/types"
)

// ErrOffline is returned when a statement needs a database but the
// connection only renders SQL.
var ErrOffline = errors.New("no database connection in offline mode")

// Querier runs read queries. DatabaseConnection implements it, routing
// through the active transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DatabaseConnection represents a connection to a database, or an offline
// stand-in that only renders SQL.
type DatabaseConnection struct {
	db      *sql.DB
	info    types.DBInfo
	dialect platform.Dialect
	writer  *Writer
}

// ConnectToDatabase connects to a database using the provided URL. The URL
// scheme selects the driver: postgres, mysql, mariadb, sqlite, sqlite3,
// sqlserver or mssql.
func ConnectToDatabase(dbURL string) (*DatabaseConnection, error) {
	scheme, rest, ok := strings.Cut(dbURL, "://")
	if !ok {
		return nil, fmt.Errorf("invalid database URL %q: missing scheme", redactURL(dbURL))
	}

	dialect := platform.NormalizeDialect(scheme)
	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case platform.Postgres:
		db, err = sql.Open("pgx", removePostgresPoolParams(dbURL))
	case platform.MySQL, platform.MariaDB:
		db, err = openMySQL(dbURL)
	case platform.SQLite:
		db, err = sql.Open("sqlite3", rest)
		if err == nil {
			// Every statement of a migration must see the same database,
			// which for in-memory databases means the same connection.
			db.SetMaxOpenConns(1)
		}
	case platform.MSSQL:
		db, err = sql.Open("sqlserver", sqlServerDSN(rest))
	default:
		return nil, fmt.Errorf("unsupported database scheme: %s", scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	version, err := serverVersion(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to read server version: %w", err)
	}

	conn := &DatabaseConnection{
		db: db,
		info: types.DBInfo{
			Dialect: dialect,
			Version: version,
			URL:     dbURL,
		},
		dialect: platform.Lookup(dialect),
	}
	conn.writer = newWriter(conn, nil)
	return conn, nil
}

// NewOfflineConnection returns a connection without a database. Its writer is
// permanently in dry-run mode and prints every statement to out.
func NewOfflineConnection(dialect string, out io.Writer) *DatabaseConnection {
	d := platform.Lookup(dialect)
	conn := &DatabaseConnection{
		info:    types.DBInfo{Dialect: d.Name()},
		dialect: d,
	}
	conn.writer = newWriter(conn, out)
	conn.writer.SetDryRun(true)
	return conn
}

// Close closes the database connection
func (c *DatabaseConnection) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Info returns database connection information
func (c *DatabaseConnection) Info() types.DBInfo {
	return c.info
}

// Dialect returns the capabilities of the connected engine
func (c *DatabaseConnection) Dialect() platform.Dialect {
	return c.dialect
}

// Writer returns a schema writer for this connection
func (c *DatabaseConnection) Writer() *Writer {
	return c.writer
}

// IsOffline reports whether the connection has no database behind it
func (c *DatabaseConnection) IsOffline() bool {
	return c.db == nil
}

// ExecContext executes a statement, inside the active transaction if there is one.
func (c *DatabaseConnection) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if c.db == nil {
		return nil, ErrOffline
	}
	if tx := c.writer.tx; tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return c.db.ExecContext(ctx, query, args...)
}

// QueryContext runs a query, inside the active transaction if there is one.
func (c *DatabaseConnection) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if c.db == nil {
		return nil, ErrOffline
	}
	if tx := c.writer.tx; tx != nil {
		return tx.QueryContext(ctx, query, args...)
	}
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query, inside the active transaction if
// there is one. Offline connections return ErrOffline from Scan.
func (c *DatabaseConnection) QueryRowContext(ctx context.Context, query string, args ...any) *Row {
	if c.db == nil {
		return &Row{err: ErrOffline}
	}
	if tx := c.writer.tx; tx != nil {
		return &Row{row: tx.QueryRowContext(ctx, query, args...)}
	}
	return &Row{row: c.db.QueryRowContext(ctx, query, args...)}
}

// Row wraps sql.Row so that offline connections can report ErrOffline.
type Row struct {
	row *sql.Row
	err error
}

// Scan copies the row columns into dest
func (r *Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return r.row.Scan(dest...)
}

func openMySQL(dbURL string) (*sql.DB, error) {
	cfg, err := mysqlConfig(dbURL)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL configuration: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// mysqlConfig translates a mysql:// or mariadb:// URL into a driver
// configuration. Query parameters are passed through as session variables.
func mysqlConfig(dbURL string) (*mysql.Config, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL URL: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.ParseTime = true
	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[key] = values[0]
	}
	return cfg, nil
}

// sqlServerDSN returns the go-mssqldb URL for what follows the scheme of a
// sqlserver:// or mssql:// URL.
func sqlServerDSN(rest string) string {
	return "sqlserver://" + rest
}

func serverVersion(ctx context.Context, db *sql.DB, dialect string) (string, error) {
	var query string
	switch dialect {
	case platform.Postgres:
		query = "SHOW server_version"
	case platform.MySQL, platform.MariaDB:
		query = "SELECT VERSION()"
	case platform.SQLite:
		query = "SELECT sqlite_version()"
	case platform.MSSQL:
		query = "SELECT CAST(SERVERPROPERTY('ProductVersion') AS VARCHAR(128))"
	default:
		return "", nil
	}

	var version string
	if err := db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return "", err
	}
	return version, nil
}

// removePostgresPoolParams removes pgxpool-specific parameters that the
// database/sql driver does not understand.
func removePostgresPoolParams(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return dbURL
	}
	if u.RawQuery == "" {
		return dbURL
	}

	q := u.Query()
	q.Del("pool_max_conns")
	q.Del("pool_min_conns")
	u.RawQuery = q.Encode()
	return u.String()
}

// redactURL hides the password of a URL for error messages.
func redactURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return dbURL
	}
	return u.Redacted()
}
