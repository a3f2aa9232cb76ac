package repositories

import "context"

// MaintenanceRepository performs bulk operations used by the reset workflow.
// Every method must run inside a transaction.
type MaintenanceRepository interface {
	// ClearLatestPointers nulls every document's latest-version pointer,
	// breaking the documents <-> document_versions cycle
	ClearLatestPointers(ctx context.Context) error

	// DeleteAll deletes every row of the given tables, in order
	DeleteAll(ctx context.Context, tables ...string) error

	// Counts returns row counts per table
	Counts(ctx context.Context, tables ...string) (map[string]int, error)
}

// Table names shared by the maintenance workflow and the SQL repositories
const (
	TableUsers               = "users"
	TableDepartments         = "departments"
	TableTags                = "tags"
	TableDocuments           = "documents"
	TableDocumentVersions    = "document_versions"
	TableDocumentTags        = "document_tags"
	TableDocumentPermissions = "document_permissions"
)
