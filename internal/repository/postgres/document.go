package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

// qb returns a squirrel builder using PostgreSQL placeholders
func qb() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Create inserts a new document row
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (title, created_by_user_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, TableDocuments)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, doc.Title, doc.CreatorID).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document '%s' already exists", doc.Title),
				ResourceType: "document",
				ResourceID:   doc.Title,
			}
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("%w: unknown creator %d", domain.ErrValidation, doc.CreatorID)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, title, created_by_user_id, latest_version_id, created_at
		FROM %s
		WHERE id = $1
	`, TableDocuments)

	doc, err := r.scanOne(ctx, query, id)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// GetByTitle retrieves a document by exact title.
// Titles are unique, so at most one row matches; the ORDER BY keeps
// "first match" well defined should that constraint ever be dropped.
func (r *PostgresDocumentRepository) GetByTitle(ctx context.Context, title string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, title, created_by_user_id, latest_version_id, created_at
		FROM %s
		WHERE title = $1
		ORDER BY id ASC
		LIMIT 1
	`, TableDocuments)

	doc, err := r.scanOne(ctx, query, title)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document '%s': %w", title, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document by title: %w", err)
	}
	return doc, nil
}

// SetLatestVersion moves the latest-version pointer
func (r *PostgresDocumentRepository) SetLatestVersion(ctx context.Context, documentID, versionID int64) error {
	query := fmt.Sprintf(`UPDATE %s SET latest_version_id = $1 WHERE id = $2`, TableDocuments)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, versionID, documentID)
	if err != nil {
		return fmt.Errorf("set latest version: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %d: %w", documentID, domain.ErrNotFound)
	}
	return nil
}

// ReplaceTags replaces the document's tag set.
// Duplicate tags in the input collapse to one association row.
func (r *PostgresDocumentRepository) ReplaceTags(ctx context.Context, documentID int64, tags []models.Tag) error {
	executor := GetExecutor(ctx, r.pool)

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, TableDocumentTags)
	if _, err := executor.Exec(ctx, deleteQuery, documentID); err != nil {
		return fmt.Errorf("clear document tags: %w", err)
	}

	if len(tags) == 0 {
		return nil
	}

	tagIDs := make([]int64, 0, len(tags))
	for _, t := range tags {
		tagIDs = append(tagIDs, t.ID)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (document_id, tag_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT (document_id, tag_id) DO NOTHING
	`, TableDocumentTags)
	if _, err := executor.Exec(ctx, insertQuery, documentID, tagIDs); err != nil {
		return fmt.Errorf("insert document tags: %w", err)
	}

	return nil
}

// Search filters documents by title substring (case-insensitive) and/or tag name.
func (r *PostgresDocumentRepository) Search(ctx context.Context, filter repositories.SearchFilter) ([]models.Document, error) {
	builder := qb().
		Select("d.id", "d.title", "d.created_by_user_id", "d.latest_version_id", "d.created_at").
		From(TableDocuments + " d").
		OrderBy("d.id ASC")

	if filter.Title != "" {
		builder = builder.Where(`d.title ILIKE ? ESCAPE '\'`, "%"+escapeLike(filter.Title)+"%")
	}

	if filter.Tag != "" {
		// EXISTS keeps one row per document regardless of how many tags match
		builder = builder.Where(sq.Expr(fmt.Sprintf(`EXISTS (
			SELECT 1 FROM %s dt
			JOIN %s t ON t.id = dt.tag_id
			WHERE dt.document_id = d.id AND t.name = ?
		)`, TableDocumentTags, TableTags), filter.Tag))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}

	r.logger.Debug("document search",
		"title", filter.Title,
		"tag", filter.Tag,
	)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	documents := []models.Document{}
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID,
			&doc.Title,
			&doc.CreatorID,
			&doc.LatestVersionID,
			&doc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return documents, nil
}

func (r *PostgresDocumentRepository) scanOne(ctx context.Context, query string, arg interface{}) (*models.Document, error) {
	var doc models.Document
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, arg).Scan(
		&doc.ID,
		&doc.Title,
		&doc.CreatorID,
		&doc.LatestVersionID,
		&doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// escapeLike escapes LIKE metacharacters so user input matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
