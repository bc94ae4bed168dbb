package dbschema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/stokaro/runkey/dbschema/types"
)

var (
	_ types.SchemaWriter = (*Writer)(nil)
)

// ErrNoTransaction is returned when committing or rolling back without an
// active transaction.
var ErrNoTransaction = errors.New("no active transaction")

// Writer executes schema changes. In dry-run mode statements are printed
// instead of executed.
type Writer struct {
	conn   *DatabaseConnection
	tx     *sql.Tx
	dryRun bool
	// inDryTx tracks BEGIN/COMMIT pairs in dry-run output
	inDryTx bool
	out     io.Writer
}

func newWriter(conn *DatabaseConnection, out io.Writer) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{
		conn: conn,
		out:  out,
	}
}

// SetDryRun enables or disables dry run mode
func (w *Writer) SetDryRun(dryRun bool) {
	w.dryRun = dryRun
}

// IsDryRun returns whether dry run mode is enabled
func (w *Writer) IsDryRun() bool {
	return w.dryRun
}

// SetOutput sets where dry-run statements are printed
func (w *Writer) SetOutput(out io.Writer) {
	w.out = out
}

// InTransaction reports whether a transaction is open
func (w *Writer) InTransaction() bool {
	return w.tx != nil || w.inDryTx
}

// ExecuteSQL executes a SQL statement
func (w *Writer) ExecuteSQL(ctx context.Context, query string, args ...any) error {
	if w.dryRun {
		return w.print(query)
	}
	if _, err := w.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Exec executes a statement built with squirrel. Builders are expected to use
// question mark placeholders; they are rewritten for the connected driver.
func (w *Writer) Exec(ctx context.Context, stmt sq.Sqlizer) error {
	if w.dryRun {
		return w.print(sq.DebugSqlizer(stmt))
	}

	query, args, err := stmt.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL: %w", err)
	}
	query, err = w.conn.Dialect().PlaceholderFormat().ReplacePlaceholders(query)
	if err != nil {
		return fmt.Errorf("failed to format placeholders: %w", err)
	}
	return w.ExecuteSQL(ctx, query, args...)
}

// BeginTransaction starts a new transaction
func (w *Writer) BeginTransaction(ctx context.Context) error {
	if w.InTransaction() {
		return errors.New("transaction already active")
	}
	if w.dryRun {
		w.inDryTx = true
		return w.print("BEGIN")
	}
	if w.conn.db == nil {
		return ErrOffline
	}

	tx, err := w.conn.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	w.tx = tx
	return nil
}

// CommitTransaction commits the current transaction
func (w *Writer) CommitTransaction() error {
	if w.inDryTx {
		w.inDryTx = false
		return w.print("COMMIT")
	}
	if w.tx == nil {
		return ErrNoTransaction
	}

	err := w.tx.Commit()
	w.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the current transaction
func (w *Writer) RollbackTransaction() error {
	if w.inDryTx {
		w.inDryTx = false
		return w.print("ROLLBACK")
	}
	if w.tx == nil {
		return ErrNoTransaction
	}

	err := w.tx.Rollback()
	w.tx = nil
	if err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// WriteScript prints an already rendered script in dry-run mode.
func (w *Writer) WriteScript(script string) error {
	if !w.dryRun {
		return errors.New("scripts can only be written in dry-run mode")
	}
	_, err := io.WriteString(w.out, script)
	return err
}

func (w *Writer) print(query string) error {
	query = strings.TrimSpace(query)
	if strings.HasPrefix(query, "--") {
		_, err := fmt.Fprintln(w.out, query)
		return err
	}
	_, err := fmt.Fprintf(w.out, "%s;\n", query)
	return err
}
