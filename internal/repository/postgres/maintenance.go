package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain/repositories"
)

// PostgresMaintenanceRepository implements the MaintenanceRepository interface
type PostgresMaintenanceRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewMaintenanceRepository creates a new maintenance repository
func NewMaintenanceRepository(config *RepositoryConfig) repositories.MaintenanceRepository {
	return &PostgresMaintenanceRepository{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

// knownTables guards DeleteAll/Counts, whose table names are interpolated
var knownTables = map[string]bool{
	TableUsers:               true,
	TableDepartments:         true,
	TableTags:                true,
	TableDocuments:           true,
	TableDocumentVersions:    true,
	TableDocumentTags:        true,
	TableDocumentPermissions: true,
}

// ClearLatestPointers nulls every document's latest-version pointer
func (r *PostgresMaintenanceRepository) ClearLatestPointers(ctx context.Context) error {
	query := fmt.Sprintf(`UPDATE %s SET latest_version_id = NULL WHERE latest_version_id IS NOT NULL`, TableDocuments)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("clear latest version pointers: %w", err)
	}

	r.logger.Debug("latest version pointers cleared", "rows", result.RowsAffected())
	return nil
}

// DeleteAll deletes every row of each table, in the given order
func (r *PostgresMaintenanceRepository) DeleteAll(ctx context.Context, tables ...string) error {
	executor := GetExecutor(ctx, r.pool)
	for _, table := range tables {
		if !knownTables[table] {
			return fmt.Errorf("delete all: unknown table %q", table)
		}

		result, err := executor.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, table))
		if err != nil {
			return fmt.Errorf("delete all from %s: %w", table, err)
		}
		r.logger.Debug("table cleared", "table", table, "rows", result.RowsAffected())
	}
	return nil
}

// Counts returns row counts per table
func (r *PostgresMaintenanceRepository) Counts(ctx context.Context, tables ...string) (map[string]int, error) {
	executor := GetExecutor(ctx, r.pool)
	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		if !knownTables[table] {
			return nil, fmt.Errorf("count: unknown table %q", table)
		}

		var n int
		if err := executor.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
