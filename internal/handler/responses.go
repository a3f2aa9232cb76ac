package handler

import (
	"time"

	"docvault/internal/domain/models"
	"docvault/internal/domain/services"
)

// UserResponse is the public view of a user
type UserResponse struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	DepartmentID *int64 `json:"department_id"`
}

// TokenResponse is returned by login
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type TagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type VersionResponse struct {
	ID               int64     `json:"id"`
	VersionNumber    int       `json:"version_number"`
	FileName         string    `json:"file_name"`
	CreatedAt        time.Time `json:"created_at"`
	UploadedByUserID int64     `json:"uploaded_by_user_id"`
}

type DocumentResponse struct {
	ID              int64             `json:"id"`
	Title           string            `json:"title"`
	CreatedByUserID int64             `json:"created_by_user_id"`
	CreatedAt       time.Time         `json:"created_at"`
	LatestVersionID *int64            `json:"latest_version_id"`
	Tags            []TagResponse     `json:"tags"`
	Versions        []VersionResponse `json:"versions"`
}

// UploadResponse keeps the filename/document_id/title keys clients already read
type UploadResponse struct {
	Filename      string           `json:"filename"`
	DocumentID    int64            `json:"document_id"`
	Title         string           `json:"title"`
	VersionNumber int              `json:"version_number"`
	NewDocument   bool             `json:"new_document"`
	Document      DocumentResponse `json:"document"`
}

type DepartmentResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ResetResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
	}
}

func newVersionResponse(v *models.DocumentVersion) VersionResponse {
	return VersionResponse{
		ID:               v.ID,
		VersionNumber:    v.VersionNumber,
		FileName:         v.FileName,
		CreatedAt:        v.CreatedAt,
		UploadedByUserID: v.UploaderID,
	}
}

func newVersionResponses(versions []models.DocumentVersion) []VersionResponse {
	out := make([]VersionResponse, 0, len(versions))
	for i := range versions {
		out = append(out, newVersionResponse(&versions[i]))
	}
	return out
}

func newDocumentResponse(d *models.Document) DocumentResponse {
	tags := make([]TagResponse, 0, len(d.Tags))
	for _, t := range d.Tags {
		tags = append(tags, TagResponse{ID: t.ID, Name: t.Name})
	}
	return DocumentResponse{
		ID:              d.ID,
		Title:           d.Title,
		CreatedByUserID: d.CreatorID,
		CreatedAt:       d.CreatedAt,
		LatestVersionID: d.LatestVersionID,
		Tags:            tags,
		Versions:        newVersionResponses(d.Versions),
	}
}

func newDocumentResponses(docs []models.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, newDocumentResponse(&docs[i]))
	}
	return out
}

func newUploadResponse(res *services.UploadResult) UploadResponse {
	return UploadResponse{
		Filename:      res.Version.FileName,
		DocumentID:    res.Document.ID,
		Title:         res.Document.Title,
		VersionNumber: res.Version.VersionNumber,
		NewDocument:   res.NewDocument,
		Document:      newDocumentResponse(res.Document),
	}
}

func newDepartmentResponses(depts []models.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(depts))
	for _, d := range depts {
		out = append(out, DepartmentResponse{ID: d.ID, Name: d.Name})
	}
	return out
}
