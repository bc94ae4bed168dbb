package versions

import (
	"log/slog"

	"github.com/stokaro/runkey/migration/migrator"
)

// Migration returns the revision for the migrator
func (r *ReKeyer) Migration() *migrator.Migration {
	return &migrator.Migration{
		Revision:     Revision,
		DownRevision: DownRevision,
		Description:  Description,
		Up:           r.Upgrade,
		Down:         r.Downgrade,
	}
}

// Migrations returns every registered revision, logging to logger.
func Migrations(opts Options, logger *slog.Logger) []*migrator.Migration {
	return []*migrator.Migration{
		New(opts).WithLogger(logger).Migration(),
	}
}
