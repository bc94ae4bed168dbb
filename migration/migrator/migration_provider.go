package migrator

import (
	"errors"
	"fmt"
)

// ErrInvalidChain is returned when registered migrations do not form a single
// linear chain of revisions.
var ErrInvalidChain = errors.New("invalid revision chain")

// MigrationProvider provides a list of migrations
type MigrationProvider interface {
	// Migrations provides the migrations ordered from the oldest revision to the head
	Migrations() ([]*Migration, error)
}

// RegisteredMigrationProvider is a simple in-memory implementation of MigrationProvider
type RegisteredMigrationProvider struct {
	migrations []*Migration
}

// NewRegisteredMigrationProvider creates a new in-memory migration provider with the given migrations.
// The migrations are ordered by their down revisions when accessed through the Migrations() method.
func NewRegisteredMigrationProvider(migrations ...*Migration) *RegisteredMigrationProvider {
	return &RegisteredMigrationProvider{
		migrations: migrations,
	}
}

// Register adds a migration to the provider
func (p *RegisteredMigrationProvider) Register(migration *Migration) {
	p.migrations = append(p.migrations, migration)
}

// Migrations returns the registered migrations in chain order, starting with
// the one whose down revision is not registered. Duplicate revisions, two
// migrations sharing a down revision and disconnected migrations are errors.
func (p *RegisteredMigrationProvider) Migrations() ([]*Migration, error) {
	return orderChain(p.migrations)
}

func orderChain(migrations []*Migration) ([]*Migration, error) {
	if len(migrations) == 0 {
		return nil, nil
	}

	byRevision := make(map[string]*Migration, len(migrations))
	byDown := make(map[string]*Migration, len(migrations))
	for _, m := range migrations {
		if m.Revision == "" {
			return nil, fmt.Errorf("%w: migration %q has no revision", ErrInvalidChain, m.Description)
		}
		if _, ok := byRevision[m.Revision]; ok {
			return nil, fmt.Errorf("%w: duplicate revision %s", ErrInvalidChain, m.Revision)
		}
		byRevision[m.Revision] = m
		if other, ok := byDown[m.DownRevision]; ok {
			return nil, fmt.Errorf("%w: %s and %s both follow %q", ErrInvalidChain, other.Revision, m.Revision, m.DownRevision)
		}
		byDown[m.DownRevision] = m
	}

	var base *Migration
	for _, m := range migrations {
		if _, ok := byRevision[m.DownRevision]; ok {
			continue
		}
		if base != nil {
			return nil, fmt.Errorf("%w: %s and %s both start the chain", ErrInvalidChain, base.Revision, m.Revision)
		}
		base = m
	}
	if base == nil {
		return nil, fmt.Errorf("%w: revisions form a cycle", ErrInvalidChain)
	}

	ordered := make([]*Migration, 0, len(migrations))
	for m := base; m != nil; m = byDown[m.Revision] {
		ordered = append(ordered, m)
	}
	if len(ordered) != len(migrations) {
		return nil, fmt.Errorf("%w: %d migrations are not reachable from %s", ErrInvalidChain, len(migrations)-len(ordered), base.Revision)
	}
	return ordered, nil
}
