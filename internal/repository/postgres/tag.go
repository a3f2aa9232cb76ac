package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
)

// PostgresTagRepository implements the TagRepository interface
type PostgresTagRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewTagRepository creates a new tag repository
func NewTagRepository(config *RepositoryConfig) repositories.TagRepository {
	return &PostgresTagRepository{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

// GetByName retrieves a tag by exact name
func (r *PostgresTagRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE name = $1`, TableTags)

	var tag models.Tag
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, name).Scan(&tag.ID, &tag.Name)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("tag %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return &tag, nil
}

// Create inserts a tag. If a concurrent transaction created the same name
// first, the existing row's id is returned instead of a conflict.
func (r *PostgresTagRepository) Create(ctx context.Context, tag *models.Tag) error {
	// DO UPDATE (not DO NOTHING) so RETURNING yields the existing row
	query := fmt.Sprintf(`
		INSERT INTO %s (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, TableTags)

	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, tag.Name).Scan(&tag.ID); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// ListByDocuments returns each document's tags ordered by name
func (r *PostgresTagRepository) ListByDocuments(ctx context.Context, documentIDs []int64) (map[int64][]models.Tag, error) {
	result := make(map[int64][]models.Tag, len(documentIDs))
	if len(documentIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`
		SELECT dt.document_id, t.id, t.name
		FROM %s dt
		JOIN %s t ON t.id = dt.tag_id
		WHERE dt.document_id = ANY($1)
		ORDER BY dt.document_id, t.name
	`, TableDocumentTags, TableTags)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("list document tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID int64
		var tag models.Tag
		if err := rows.Scan(&docID, &tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scan document tag: %w", err)
		}
		result[docID] = append(result[docID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document tags: %w", err)
	}

	return result, nil
}
