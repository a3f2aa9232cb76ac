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

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewVersionRepository creates a new document version repository
func NewVersionRepository(config *RepositoryConfig) repositories.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

const versionColumns = `id, document_id, version_number, storage_path, file_name, uploaded_by_user_id, created_at`

// Create inserts a new version. created_at comes from the database default.
func (r *PostgresVersionRepository) Create(ctx context.Context, version *models.DocumentVersion) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, version_number, storage_path, file_name, uploaded_by_user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, TableDocumentVersions)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		version.DocumentID,
		version.VersionNumber,
		version.StoragePath,
		version.FileName,
		version.UploaderID,
	).Scan(&version.ID, &version.CreatedAt)

	if err != nil {
		switch {
		case IsPgDuplicateError(err):
			r.logger.Debug("version number collision",
				"document_id", version.DocumentID,
				"version", version.VersionNumber,
				"constraint", ConstraintName(err),
			)
			return &domain.ConflictError{
				Message:      fmt.Sprintf("version %d of document %d already exists", version.VersionNumber, version.DocumentID),
				ResourceType: "document_version",
				ResourceID:   fmt.Sprintf("%d/%d", version.DocumentID, version.VersionNumber),
			}
		case IsPgForeignKeyError(err):
			return fmt.Errorf("%w: unknown document or uploader (%s)", domain.ErrValidation, ConstraintName(err))
		case IsPgCheckError(err):
			return fmt.Errorf("%w: version number must be positive", domain.ErrValidation)
		}
		return fmt.Errorf("create document version: %w", err)
	}

	return nil
}

// GetByID retrieves a version by ID
func (r *PostgresVersionRepository) GetByID(ctx context.Context, id int64) (*models.DocumentVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, versionColumns, TableDocumentVersions)

	version, err := r.scanOne(ctx, query, id)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document version %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document version: %w", err)
	}
	return version, nil
}

// GetByNumber retrieves a specific version of a document
func (r *PostgresVersionRepository) GetByNumber(ctx context.Context, documentID int64, number int) (*models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE document_id = $1 AND version_number = $2
	`, versionColumns, TableDocumentVersions)

	version, err := r.scanOne(ctx, query, documentID, number)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("version %d of document %d: %w", number, documentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document version by number: %w", err)
	}
	return version, nil
}

// GetLatest follows the document's latest pointer
func (r *PostgresVersionRepository) GetLatest(ctx context.Context, documentID int64) (*models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT v.id, v.document_id, v.version_number, v.storage_path, v.file_name, v.uploaded_by_user_id, v.created_at
		FROM %s d
		JOIN %s v ON v.id = d.latest_version_id
		WHERE d.id = $1
	`, TableDocuments, TableDocumentVersions)

	version, err := r.scanOne(ctx, query, documentID)
	if err != nil {
		if IsPgNoRowsError(err) {
			// Covers both a missing document and an unset pointer
			return nil, fmt.Errorf("latest version of document %d: %w", documentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get latest version: %w", err)
	}
	return version, nil
}

// ListByDocument lists a document's versions newest first
func (r *PostgresVersionRepository) ListByDocument(ctx context.Context, documentID int64) ([]models.DocumentVersion, error) {
	byDoc, err := r.ListByDocuments(ctx, []int64{documentID})
	if err != nil {
		return nil, err
	}
	versions := byDoc[documentID]
	if versions == nil {
		versions = []models.DocumentVersion{}
	}
	return versions, nil
}

// ListByDocuments lists versions for several documents, newest first per document
func (r *PostgresVersionRepository) ListByDocuments(ctx context.Context, documentIDs []int64) (map[int64][]models.DocumentVersion, error) {
	result := make(map[int64][]models.DocumentVersion, len(documentIDs))
	if len(documentIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE document_id = ANY($1)
		ORDER BY document_id ASC, version_number DESC
	`, versionColumns, TableDocumentVersions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.DocumentVersion
		if err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.VersionNumber,
			&v.StoragePath,
			&v.FileName,
			&v.UploaderID,
			&v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		result[v.DocumentID] = append(result[v.DocumentID], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document versions: %w", err)
	}

	return result, nil
}

func (r *PostgresVersionRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*models.DocumentVersion, error) {
	var v models.DocumentVersion
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, args...).Scan(
		&v.ID,
		&v.DocumentID,
		&v.VersionNumber,
		&v.StoragePath,
		&v.FileName,
		&v.UploaderID,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
