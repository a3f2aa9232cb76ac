package repositories

import (
	"context"

	"docvault/internal/domain/models"
)

// DocumentRepository defines data access operations for documents
type DocumentRepository interface {
	// Create inserts a document row (latest pointer unset)
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document row by ID (tags and versions not hydrated)
	GetByID(ctx context.Context, id int64) (*models.Document, error)

	// GetByTitle retrieves a document by exact title match
	GetByTitle(ctx context.Context, title string) (*models.Document, error)

	// SetLatestVersion moves the document's latest-version pointer
	SetLatestVersion(ctx context.Context, documentID, versionID int64) error

	// ReplaceTags replaces the document's tag set with the given tags
	ReplaceTags(ctx context.Context, documentID int64, tags []models.Tag) error

	// Search filters documents by case-insensitive title substring and/or exact tag name.
	// Empty filters are ignored. Results are ordered by id.
	Search(ctx context.Context, filter SearchFilter) ([]models.Document, error)
}

// SearchFilter holds optional search criteria. Empty fields mean "no filter".
type SearchFilter struct {
	Title string
	Tag   string
}

// VersionRepository defines data access operations for document versions
type VersionRepository interface {
	// Create inserts a version; CreatedAt is assigned by the database
	Create(ctx context.Context, version *models.DocumentVersion) error

	// GetByID retrieves a version by ID
	GetByID(ctx context.Context, id int64) (*models.DocumentVersion, error)

	// GetByNumber retrieves a specific version of a document
	GetByNumber(ctx context.Context, documentID int64, number int) (*models.DocumentVersion, error)

	// GetLatest follows the document's latest pointer.
	// Returns ErrNotFound if the document is missing or has no pointer.
	GetLatest(ctx context.Context, documentID int64) (*models.DocumentVersion, error)

	// ListByDocument lists versions newest first
	ListByDocument(ctx context.Context, documentID int64) ([]models.DocumentVersion, error)

	// ListByDocuments lists versions for several documents, newest first per document
	ListByDocuments(ctx context.Context, documentIDs []int64) (map[int64][]models.DocumentVersion, error)
}

// TagRepository defines data access operations for tags
type TagRepository interface {
	// GetByName retrieves a tag by exact, case-sensitive name
	GetByName(ctx context.Context, name string) (*models.Tag, error)

	// Create inserts a tag, returning the existing row's identity if the name is taken
	Create(ctx context.Context, tag *models.Tag) error

	// ListByDocuments returns the tag sets of several documents ordered by tag name
	ListByDocuments(ctx context.Context, documentIDs []int64) (map[int64][]models.Tag, error)
}
