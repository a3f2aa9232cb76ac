package services

import (
	"context"
	"io"

	"docvault/internal/domain/models"
)

// DocumentService handles the document versioning workflow
type DocumentService interface {
	// Upload stores content and records it as a new version of the document
	// with the given title, creating the document on first upload
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)

	// Search filters documents by title substring and/or tag name
	Search(ctx context.Context, req *SearchRequest) ([]models.Document, error)

	// GetDocument retrieves a document with its tags and versions
	GetDocument(ctx context.Context, documentID int64) (*models.Document, error)

	// ListVersions returns a document's versions newest first.
	// Returns domain.ErrNotFound if there are none.
	ListVersions(ctx context.Context, documentID int64) ([]models.DocumentVersion, error)

	// OpenLatest opens the content of the document's latest version
	OpenLatest(ctx context.Context, documentID int64) (*VersionContent, error)

	// OpenVersion opens the content of a specific version
	OpenVersion(ctx context.Context, documentID int64, number int) (*VersionContent, error)

	// ListDepartments returns all departments
	ListDepartments(ctx context.Context) ([]models.Department, error)
}

// TagResolver maps tag names to persisted tags, creating missing ones.
// It participates in the caller's transaction and never commits.
type TagResolver interface {
	Resolve(ctx context.Context, names []string) ([]models.Tag, error)
}

// UploadRequest represents a document upload
type UploadRequest struct {
	Title      string
	UploaderID int64
	FileName   string
	Tags       []string
	Content    io.Reader
}

// UploadResult describes the outcome of an upload
type UploadResult struct {
	Document    *models.Document
	Version     *models.DocumentVersion
	NewDocument bool
}

// SearchRequest represents a document search. Empty fields are ignored.
type SearchRequest struct {
	Title string `json:"q"`
	Tag   string `json:"tag"`
}

// VersionContent is an open blob plus the metadata needed to serve it.
// The caller must close Body.
type VersionContent struct {
	Version *models.DocumentVersion
	Body    io.ReadCloser
}
