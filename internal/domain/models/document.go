package models

import (
	"time"
)

type Tag struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Document is the lineage a title maps to. Versions and the latest pointer
// reference each other only by id.
type Document struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	CreatorID       int64     `json:"created_by_user_id" db:"created_by_user_id"`
	LatestVersionID *int64    `json:"latest_version_id" db:"latest_version_id"` // NULL only mid-upload or after reset
	CreatedAt       time.Time `json:"created_at" db:"created_at"`

	// Hydrated by the service layer, not stored on the row
	Tags     []Tag             `json:"tags"`
	Versions []DocumentVersion `json:"versions"` // Newest first
}

// DocumentVersion is immutable once inserted.
type DocumentVersion struct {
	ID            int64     `json:"id" db:"id"`
	DocumentID    int64     `json:"document_id" db:"document_id"`
	VersionNumber int       `json:"version_number" db:"version_number"`
	StoragePath   string    `json:"-" db:"storage_path"`
	FileName      string    `json:"file_name" db:"file_name"`
	UploaderID    int64     `json:"uploaded_by_user_id" db:"uploaded_by_user_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// TagNames returns the names of the document's tags in their current order
func (d *Document) TagNames() []string {
	names := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		names = append(names, t.Name)
	}
	return names
}

// LatestVersion returns the version the latest pointer designates, if it was hydrated
func (d *Document) LatestVersion() *DocumentVersion {
	if d.LatestVersionID == nil {
		return nil
	}
	for i := range d.Versions {
		if d.Versions[i].ID == *d.LatestVersionID {
			return &d.Versions[i]
		}
	}
	return nil
}
