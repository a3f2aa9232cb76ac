package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"docvault/internal/domain"
	"docvault/internal/domain/services"
	"docvault/internal/httputil"
	"docvault/internal/service"
)

// multipart parts beyond this are spilled to temp files by net/http
const uploadMemoryLimit = 8 << 20

// DocumentHandler handles document upload, search and download
type DocumentHandler struct {
	service        services.DocumentService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(service services.DocumentService, maxUploadBytes int64, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Upload stores a file as a new version of the titled document
// POST /documents/upload/
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUser(r)
	if user == nil {
		handleError(w, h.logger, &domain.UnauthorizedError{Message: "Not authenticated"})
		return
	}

	if h.maxUploadBytes > 0 {
		// headroom for the title and tags fields
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(1<<20))
	}
	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondErrorWithExtras(w, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit", map[string]interface{}{
				"max_bytes": h.maxUploadBytes,
			})
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	result, err := h.service.Upload(r.Context(), &services.UploadRequest{
		Title:      r.FormValue("title"),
		UploaderID: user.ID,
		FileName:   header.Filename,
		Tags:       service.SplitTagList(r.FormValue("tags")),
		Content:    file,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, newUploadResponse(result))
}

// Search lists documents filtered by title substring and tag
// GET /documents/search/?q=&tag=
func (h *DocumentHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	docs, err := h.service.Search(r.Context(), &services.SearchRequest{
		Title: query.Get("q"),
		Tag:   query.Get("tag"),
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, newDocumentResponses(docs))
}

// GetDocument returns one document with its tags and versions
// GET /documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetDocument(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, newDocumentResponse(doc))
}

// ListVersions returns a document's history, newest first
// GET /documents/{id}/versions/
func (h *DocumentHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	versions, err := h.service.ListVersions(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, newVersionResponses(versions))
}

// DownloadLatest streams the content of the latest version
// GET /documents/{id}/download/
func (h *DocumentHandler) DownloadLatest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	content, err := h.service.OpenLatest(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.serveContent(w, r, content)
}

// DownloadVersion streams the content of a historical version
// GET /documents/{id}/versions/{number}/download/
func (h *DocumentHandler) DownloadVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	number, ok := pathID(w, r, "number")
	if !ok {
		return
	}

	content, err := h.service.OpenVersion(r.Context(), id, int(number))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.serveContent(w, r, content)
}

func (h *DocumentHandler) serveContent(w http.ResponseWriter, r *http.Request, content *services.VersionContent) {
	defer content.Body.Close()

	name := content.Version.FileName
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("X-Document-Version", strconv.Itoa(content.Version.VersionNumber))
	w.WriteHeader(http.StatusOK)

	// headers are gone, so a mid-stream failure can only be logged
	if _, err := io.Copy(w, content.Body); err != nil {
		h.logger.Warn("download interrupted",
			"document_id", content.Version.DocumentID,
			"version", content.Version.VersionNumber,
			"error", err,
		)
	}
}

// ListDepartments returns every department
// GET /departments/
func (h *DocumentHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.service.ListDepartments(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, newDepartmentResponses(depts))
}

// Health reports liveness
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Time: time.Now().UTC()})
}
