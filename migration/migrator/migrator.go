package migrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/hashicorp/go-multierror"

	"github.com/stokaro/runkey/dbschema"
)

// ErrUnknownRevision is returned when the database or a requested target is
// at a revision the chain does not contain.
var ErrUnknownRevision = errors.New("unknown revision")

// MigrationStatus represents the current state of migrations
type MigrationStatus struct {
	CurrentRevision   string   `json:"current_revision"`
	HeadRevision      string   `json:"head_revision"`
	PendingMigrations []string `json:"pending_migrations"`
	TotalMigrations   int      `json:"total_migrations"`
	HasPendingChanges bool     `json:"has_pending_changes"`
}

// Migrator applies and reverts a linear chain of revisions, recording the
// current one in alembic_version.
type Migrator struct {
	conn              *dbschema.DatabaseConnection
	migrationProvider MigrationProvider
	initialized       bool
	startingRevision  *string
	logger            *slog.Logger
}

// NewMigrator creates a new migrator with the given database connection
func NewMigrator(conn *dbschema.DatabaseConnection, provider MigrationProvider) *Migrator {
	return &Migrator{
		conn:              conn,
		migrationProvider: provider,
		logger:            slog.Default(),
	}
}

// WithLogger sets the logger for the migrator
func (m *Migrator) WithLogger(l *slog.Logger) *Migrator {
	tmp := *m
	tmp.logger = l
	return &tmp
}

// WithStartingRevision makes the migrator assume the database is at rev
// instead of reading alembic_version. Offline script rendering needs it to
// downgrade; upgrades start from the base of the chain otherwise.
func (m *Migrator) WithStartingRevision(rev string) *Migrator {
	tmp := *m
	tmp.startingRevision = &rev
	return &tmp
}

// MigrationProvider returns the migration provider
func (m *Migrator) MigrationProvider() MigrationProvider {
	return m.migrationProvider
}

// Initialize creates the version table if it doesn't exist
func (m *Migrator) Initialize(ctx context.Context) error {
	if m.initialized {
		return nil
	}

	schema := versionSchema(m.conn.Info().Dialect)
	if err := m.conn.Writer().ExecuteSQL(ctx, schema); err != nil {
		return fmt.Errorf("failed to create version table: %w", err)
	}

	m.initialized = true
	return nil
}

// GetCurrentRevision returns the revision the database is at. An empty
// version table means the database is at the base of the chain.
func (m *Migrator) GetCurrentRevision(ctx context.Context) (string, error) {
	chain, err := m.migrationProvider.Migrations()
	if err != nil {
		return "", err
	}
	if m.startingRevision != nil {
		return *m.startingRevision, nil
	}
	if m.conn.IsOffline() {
		return baseRevision(chain), nil
	}

	if err := m.Initialize(ctx); err != nil {
		return "", fmt.Errorf("failed to initialize version table: %w", err)
	}

	query, args, err := sq.Select("version_num").From(versionTable).ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build version query: %w", err)
	}
	rows, err := m.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("failed to get current revision: %w", err)
	}
	defer rows.Close()

	var revisions []string
	for rows.Next() {
		var rev string
		if err := rows.Scan(&rev); err != nil {
			return "", fmt.Errorf("failed to scan revision: %w", err)
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("error iterating revision rows: %w", err)
	}

	switch len(revisions) {
	case 0:
		return baseRevision(chain), nil
	case 1:
		return revisions[0], nil
	default:
		return "", fmt.Errorf("database has %d heads %v, only a linear chain is supported", len(revisions), revisions)
	}
}

// GetMigrationStatus returns information about the current migration status
func (m *Migrator) GetMigrationStatus(ctx context.Context) (*MigrationStatus, error) {
	chain, err := m.migrationProvider.Migrations()
	if err != nil {
		return nil, err
	}
	current, err := m.GetCurrentRevision(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current revision: %w", err)
	}
	pos, err := position(chain, current)
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{
		CurrentRevision:   current,
		HeadRevision:      headRevision(chain),
		PendingMigrations: []string{},
		TotalMigrations:   len(chain),
	}
	for _, mig := range chain[pos:] {
		status.PendingMigrations = append(status.PendingMigrations, mig.Revision)
	}
	status.HasPendingChanges = len(status.PendingMigrations) > 0
	return status, nil
}

// MigrateUp migrates the database up to the head revision
func (m *Migrator) MigrateUp(ctx context.Context) error {
	chain, err := m.migrationProvider.Migrations()
	if err != nil {
		return err
	}
	return m.MigrateTo(ctx, headRevision(chain))
}

// MigrateDown reverts the current revision
func (m *Migrator) MigrateDown(ctx context.Context) error {
	chain, err := m.migrationProvider.Migrations()
	if err != nil {
		return err
	}
	current, err := m.GetCurrentRevision(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current revision: %w", err)
	}
	pos, err := position(chain, current)
	if err != nil {
		return err
	}
	if pos == 0 {
		m.logger.Info("Already at base revision", "revision", current)
		return nil
	}
	return m.MigrateTo(ctx, chain[pos-1].DownRevision)
}

// MigrateTo migrates the database to a specific revision (up or down)
func (m *Migrator) MigrateTo(ctx context.Context, target string) error {
	chain, err := m.migrationProvider.Migrations()
	if err != nil {
		return err
	}
	if err := m.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize version table: %w", err)
	}

	current, err := m.GetCurrentRevision(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current revision: %w", err)
	}
	from, err := position(chain, current)
	if err != nil {
		return err
	}
	to, err := position(chain, target)
	if err != nil {
		return err
	}

	switch {
	case from == to:
		m.logger.Info("Already at target revision", "revision", target)
		return nil
	case from < to:
		m.logger.Info("Migrating up", "currentRevision", current, "targetRevision", target, "totalMigrations", len(chain))
		for _, mig := range chain[from:to] {
			if err := m.apply(ctx, mig, true); err != nil {
				return err
			}
		}
	default:
		m.logger.Info("Migrating down", "currentRevision", current, "targetRevision", target, "totalMigrations", len(chain))
		for i := from - 1; i >= to; i-- {
			if err := m.apply(ctx, chain[i], false); err != nil {
				return err
			}
		}
	}

	m.logger.Info("Migrated successfully", "targetRevision", target)
	return nil
}

// apply runs one migration and records the resulting revision in a single
// transaction.
func (m *Migrator) apply(ctx context.Context, mig *Migration, up bool) error {
	fn, revision, verb := mig.Up, mig.Revision, "apply"
	if !up {
		fn, revision, verb = mig.Down, mig.DownRevision, "revert"
	}
	m.logger.Info("Running migration", "action", verb, "revision", mig.Revision, "description", mig.Description)

	w := m.conn.Writer()
	if err := w.BeginTransaction(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction for migration %s: %w", mig.Revision, err)
	}

	if err := fn(ctx, m.conn); err != nil {
		return m.rollback(fmt.Errorf("failed to %s migration %s: %w", verb, mig.Revision, err))
	}
	if err := m.stamp(ctx, revision); err != nil {
		return m.rollback(fmt.Errorf("failed to record revision %s: %w", revision, err))
	}

	if err := w.CommitTransaction(); err != nil {
		return fmt.Errorf("failed to commit transaction for migration %s: %w", mig.Revision, err)
	}

	m.logger.Info("Ran migration", "action", verb, "revision", mig.Revision)
	return nil
}

// stamp replaces the recorded revision. An empty revision leaves the table empty.
func (m *Migrator) stamp(ctx context.Context, revision string) error {
	w := m.conn.Writer()
	if err := w.Exec(ctx, sq.Delete(versionTable)); err != nil {
		return err
	}
	if revision == "" {
		return nil
	}
	return w.Exec(ctx, sq.Insert(versionTable).Columns("version_num").Values(revision))
}

func (m *Migrator) rollback(err error) error {
	if rbErr := m.conn.Writer().RollbackTransaction(); rbErr != nil {
		return multierror.Append(err, fmt.Errorf("failed to roll back: %w", rbErr))
	}
	return err
}

// position returns how many migrations of the chain are applied at rev.
func position(chain []*Migration, rev string) (int, error) {
	if rev == baseRevision(chain) {
		return 0, nil
	}
	for i, mig := range chain {
		if mig.Revision == rev {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRevision, rev)
}

func baseRevision(chain []*Migration) string {
	if len(chain) == 0 {
		return ""
	}
	return chain[0].DownRevision
}

func headRevision(chain []*Migration) string {
	if len(chain) == 0 {
		return ""
	}
	return chain[len(chain)-1].Revision
}
