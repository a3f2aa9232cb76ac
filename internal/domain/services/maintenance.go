package services

import "context"

// MaintenanceService seeds and resets the database
type MaintenanceService interface {
	// Seed inserts the default departments if none exist. Idempotent.
	Seed(ctx context.Context) error

	// Reset wipes every table and re-seeds. Destructive.
	Reset(ctx context.Context) (*ResetResult, error)
}

// ResetResult reports the outcome of a reset
type ResetResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
