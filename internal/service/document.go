package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docvault/internal/config"
	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
	"docvault/internal/domain/services"
)

// maxUploadAttempts bounds retries after a unique violation inside the upload transaction
const maxUploadAttempts = 2

// documentService implements the DocumentService interface
type documentService struct {
	docRepo     repositories.DocumentRepository
	versionRepo repositories.VersionRepository
	tagRepo     repositories.TagRepository
	deptRepo    repositories.DepartmentRepository
	tagResolver services.TagResolver
	txManager   repositories.TransactionManager
	locker      repositories.Locker
	blobs       services.BlobStore
	logger      *slog.Logger
}

// DocumentServiceDeps groups the collaborators of the document service
type DocumentServiceDeps struct {
	Documents   repositories.DocumentRepository
	Versions    repositories.VersionRepository
	Tags        repositories.TagRepository
	Departments repositories.DepartmentRepository
	TagResolver services.TagResolver
	TxManager   repositories.TransactionManager
	Locker      repositories.Locker
	Blobs       services.BlobStore
	Logger      *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(deps DocumentServiceDeps) services.DocumentService {
	resolver := deps.TagResolver
	if resolver == nil {
		resolver = NewTagResolver(deps.Tags)
	}
	return &documentService{
		docRepo:     deps.Documents,
		versionRepo: deps.Versions,
		tagRepo:     deps.Tags,
		deptRepo:    deps.Departments,
		tagResolver: resolver,
		txManager:   deps.TxManager,
		locker:      deps.Locker,
		blobs:       deps.Blobs,
		logger:      deps.Logger,
	}
}

// Upload stores the content, then records it as the next version of the
// document with req.Title in one transaction
func (s *documentService) Upload(ctx context.Context, req *services.UploadRequest) (*services.UploadResult, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Tags = normalizeTagNames(req.Tags)

	if err := s.validateUploadRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	locator, err := s.blobs.Store(ctx, req.Content, req.FileName)
	if err != nil {
		return nil, fmt.Errorf("store upload %q: %w: %w", req.FileName, domain.ErrStorage, err)
	}

	var result *services.UploadResult
	for attempt := 1; ; attempt++ {
		result, err = s.recordVersion(ctx, req, locator)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
		if attempt >= maxUploadAttempts {
			err = fmt.Errorf("upload %q: %w: %w", req.Title, domain.ErrIntegrity, err)
			break
		}
		s.logger.Warn("upload hit a unique violation, retrying",
			"title", req.Title,
			"attempt", attempt,
			"error", err,
		)
	}

	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), locator); delErr != nil {
			s.logger.Warn("failed to remove blob after aborted upload",
				"locator", locator,
				"error", delErr,
			)
		}
		return nil, err
	}

	s.logger.Info("document version uploaded",
		"document_id", result.Document.ID,
		"title", result.Document.Title,
		"version", result.Version.VersionNumber,
		"new_document", result.NewDocument,
		"uploader_id", req.UploaderID,
	)

	return result, nil
}

// recordVersion runs one attempt of the upload transaction
func (s *documentService) recordVersion(ctx context.Context, req *services.UploadRequest, locator string) (*services.UploadResult, error) {
	var result *services.UploadResult

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.locker.EnterShared(txCtx); err != nil {
			return err
		}
		if err := s.locker.LockTitle(txCtx, req.Title); err != nil {
			return err
		}

		doc, err := s.docRepo.GetByTitle(txCtx, req.Title)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("look up document by title: %w", err)
		}

		tags, err := s.tagResolver.Resolve(txCtx, req.Tags)
		if err != nil {
			return err
		}

		nextNumber := 1
		newDocument := doc == nil
		if newDocument {
			doc = &models.Document{
				Title:     req.Title,
				CreatorID: req.UploaderID,
			}
			if err := s.docRepo.Create(txCtx, doc); err != nil {
				return err
			}
		} else {
			latest, err := s.versionRepo.GetLatest(txCtx, doc.ID)
			switch {
			case err == nil:
				nextNumber = latest.VersionNumber + 1
			case errors.Is(err, domain.ErrNotFound):
				// no pointer yet, start at 1
			default:
				return fmt.Errorf("get latest version: %w", err)
			}
		}

		version := &models.DocumentVersion{
			DocumentID:    doc.ID,
			VersionNumber: nextNumber,
			StoragePath:   locator,
			FileName:      req.FileName,
			UploaderID:    req.UploaderID,
		}
		if err := s.versionRepo.Create(txCtx, version); err != nil {
			return err
		}

		if err := s.docRepo.SetLatestVersion(txCtx, doc.ID, version.ID); err != nil {
			return err
		}
		doc.LatestVersionID = &version.ID

		if err := s.docRepo.ReplaceTags(txCtx, doc.ID, tags); err != nil {
			return err
		}

		if err := s.hydrate(txCtx, []*models.Document{doc}); err != nil {
			return err
		}

		result = &services.UploadResult{
			Document:    doc,
			Version:     version,
			NewDocument: newDocument,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Search filters documents by title substring and/or exact tag name
func (s *documentService) Search(ctx context.Context, req *services.SearchRequest) ([]models.Document, error) {
	filter := repositories.SearchFilter{
		Title: strings.TrimSpace(req.Title),
		Tag:   strings.TrimSpace(req.Tag),
	}

	var docs []models.Document
	err := s.read(ctx, func(txCtx context.Context) error {
		found, err := s.docRepo.Search(txCtx, filter)
		if err != nil {
			return err
		}

		ptrs := make([]*models.Document, len(found))
		for i := range found {
			ptrs[i] = &found[i]
		}
		if err := s.hydrate(txCtx, ptrs); err != nil {
			return err
		}

		docs = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// GetDocument retrieves a document with its tags and versions
func (s *documentService) GetDocument(ctx context.Context, documentID int64) (*models.Document, error) {
	var doc *models.Document
	err := s.read(ctx, func(txCtx context.Context) error {
		found, err := s.docRepo.GetByID(txCtx, documentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return &domain.NotFoundError{Message: "Document not found"}
			}
			return err
		}
		if err := s.hydrate(txCtx, []*models.Document{found}); err != nil {
			return err
		}
		doc = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListVersions returns a document's versions newest first
func (s *documentService) ListVersions(ctx context.Context, documentID int64) ([]models.DocumentVersion, error) {
	var versions []models.DocumentVersion
	err := s.read(ctx, func(txCtx context.Context) error {
		var err error
		versions, err = s.versionRepo.ListByDocument(txCtx, documentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, &domain.NotFoundError{Message: "Document not found"}
	}
	return versions, nil
}

// OpenLatest opens the content of the document's latest version
func (s *documentService) OpenLatest(ctx context.Context, documentID int64) (*services.VersionContent, error) {
	var version *models.DocumentVersion
	err := s.read(ctx, func(txCtx context.Context) error {
		var err error
		version, err = s.versionRepo.GetLatest(txCtx, documentID)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "Document not found"}
		}
		return nil, err
	}
	return s.open(ctx, version)
}

// OpenVersion opens the content of a specific version
func (s *documentService) OpenVersion(ctx context.Context, documentID int64, number int) (*services.VersionContent, error) {
	if number < 1 {
		return nil, fmt.Errorf("%w: version number must be positive", domain.ErrValidation)
	}
	// version_number is an INTEGER column; larger numbers cannot exist
	if number > math.MaxInt32 {
		return nil, &domain.NotFoundError{Message: "Version not found"}
	}

	var version *models.DocumentVersion
	err := s.read(ctx, func(txCtx context.Context) error {
		var err error
		version, err = s.versionRepo.GetByNumber(txCtx, documentID, number)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Message: "Version not found"}
		}
		return nil, err
	}
	return s.open(ctx, version)
}

// ListDepartments returns all departments
func (s *documentService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var depts []models.Department
	err := s.read(ctx, func(txCtx context.Context) error {
		var err error
		depts, err = s.deptRepo.List(txCtx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return depts, nil
}

func (s *documentService) open(ctx context.Context, version *models.DocumentVersion) (*services.VersionContent, error) {
	body, err := s.blobs.Retrieve(ctx, version.StoragePath)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("version row points at a missing blob",
				"version_id", version.ID,
				"locator", version.StoragePath,
			)
			return nil, &domain.NotFoundError{Message: "File not found on server"}
		}
		return nil, fmt.Errorf("retrieve version %d: %w: %w", version.ID, domain.ErrStorage, err)
	}

	return &services.VersionContent{Version: version, Body: body}, nil
}

// read runs fn in a transaction that holds the maintenance gate in shared mode
func (s *documentService) read(ctx context.Context, fn repositories.TxFn) error {
	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.locker.EnterShared(txCtx); err != nil {
			return err
		}
		return fn(txCtx)
	})
}

// hydrate fills Tags and Versions with one batched query each
func (s *documentService) hydrate(ctx context.Context, docs []*models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]int64, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}

	tags, err := s.tagRepo.ListByDocuments(ctx, ids)
	if err != nil {
		return err
	}
	versions, err := s.versionRepo.ListByDocuments(ctx, ids)
	if err != nil {
		return err
	}

	for _, d := range docs {
		d.Tags = tags[d.ID]
		if d.Tags == nil {
			d.Tags = []models.Tag{}
		}
		d.Versions = versions[d.ID]
		if d.Versions == nil {
			d.Versions = []models.DocumentVersion{}
		}
	}
	return nil
}

// validateUploadRequest validates an upload request
func (s *documentService) validateUploadRequest(req *services.UploadRequest) error {
	if req.Content == nil {
		return errors.New("file: cannot be blank")
	}

	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxTitleLength),
		),
		validation.Field(&req.FileName,
			validation.Required,
			validation.Length(1, config.MaxFileNameLength),
		),
		validation.Field(&req.UploaderID, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.Tags,
			validation.Length(0, config.MaxTagsPerUpload),
			validation.Each(validation.Length(1, config.MaxTagNameLength)),
		),
	)
}

// normalizeTagNames trims each name and drops empty ones. Order and duplicates are kept.
func normalizeTagNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// SplitTagList splits a comma-separated tag field
func SplitTagList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return normalizeTagNames(strings.Split(raw, ","))
}
