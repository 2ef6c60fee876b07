package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/ledger"
	"bluetrust/registry-backend/internal/projects"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	id UUID PRIMARY KEY,
	kind TEXT NOT NULL,
	amount BIGINT NOT NULL,
	source UUID,
	destination UUID,
	reason TEXT,
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS project_snapshots (
	id UUID NOT NULL,
	issuer_id UUID NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	area_hectares DOUBLE PRECISION NOT NULL,
	planted_units BIGINT NOT NULL,
	survival_index INT NOT NULL,
	credits_issued BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	verified_at TIMESTAMPTZ,
	snapshot_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (id, snapshot_at)
);

CREATE INDEX IF NOT EXISTS idx_ledger_entries_recorded_at ON ledger_entries (recorded_at);
CREATE INDEX IF NOT EXISTS idx_project_snapshots_issuer ON project_snapshots (issuer_id);
`

// ArchiveStore persists ledger entries and project snapshots to Postgres for
// durable audit. The in-memory ledger remains authoritative; the archive is
// an append-only mirror flushed by the audit worker.
type ArchiveStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewArchiveStore connects to the archive database and ensures the schema.
func NewArchiveStore(databaseURL string, logger *zap.Logger) (*ArchiveStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to archive database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure archive schema: %w", err)
	}
	return &ArchiveStore{db: db, logger: logger}, nil
}

// Close releases the database connection pool.
func (s *ArchiveStore) Close() error {
	return s.db.Close()
}

// SaveEntries upserts a batch of ledger entries. Already-archived entries
// are skipped, so repeated flushes of the full audit log are safe.
func (s *ArchiveStore) SaveEntries(ctx context.Context, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	const stmt = `
		INSERT INTO ledger_entries (id, kind, amount, source, destination, reason, recorded_at)
		VALUES (:id, :kind, :amount, :source, :destination, :reason, :recorded_at)
		ON CONFLICT (id) DO NOTHING`
	for _, e := range entries {
		if _, err := tx.NamedExecContext(ctx, stmt, e); err != nil {
			return fmt.Errorf("failed to archive entry %s: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	s.logger.Debug("ledger entries archived", zap.Int("count", len(entries)))
	return nil
}

// SaveProjectSnapshot appends a point-in-time snapshot of a project.
func (s *ArchiveStore) SaveProjectSnapshot(ctx context.Context, p *projects.Project) error {
	const stmt = `
		INSERT INTO project_snapshots
			(id, issuer_id, name, status, area_hectares, planted_units, survival_index, credits_issued, created_at, verified_at)
		VALUES
			(:id, :issuer_id, :name, :status, :area_hectares, :planted_units, :survival_index, :credits_issued, :created_at, :verified_at)`
	if _, err := s.db.NamedExecContext(ctx, stmt, p); err != nil {
		return fmt.Errorf("failed to snapshot project %s: %w", p.ID, err)
	}
	return nil
}

// ArchivedTotals sums the archived mint and retire volumes.
type ArchivedTotals struct {
	Entries int64 `db:"entries"`
	Minted  int64 `db:"minted"`
	Retired int64 `db:"retired"`
}

// Totals aggregates the archived audit log. Minted minus retired bounds the
// volume that can still be circulating.
func (s *ArchiveStore) Totals(ctx context.Context) (ArchivedTotals, error) {
	const query = `
		SELECT
			count(*) AS entries,
			COALESCE(sum(amount) FILTER (WHERE kind = 'MINT'), 0) AS minted,
			COALESCE(sum(amount) FILTER (WHERE kind = 'RETIRE'), 0) AS retired
		FROM ledger_entries`
	var totals ArchivedTotals
	if err := s.db.GetContext(ctx, &totals, query); err != nil {
		return ArchivedTotals{}, fmt.Errorf("failed to aggregate archive: %w", err)
	}
	return totals, nil
}

// ArchivedEntryCount reports how many ledger entries the archive holds.
func (s *ArchiveStore) ArchivedEntryCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT count(*) FROM ledger_entries`); err != nil {
		return 0, fmt.Errorf("failed to count archived entries: %w", err)
	}
	return count, nil
}
