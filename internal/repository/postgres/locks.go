package postgres

import (
	"context"
	"errors"
	"fmt"

	"docvault/internal/domain/repositories"
)

// Advisory lock namespaces (first key of the two-key pg_advisory_* form)
const (
	lockNamespaceUpload      int32 = 0x646f6301 // per-title upload serialization
	lockNamespaceMaintenance int32 = 0x646f6302 // reset gate
)

var errLockOutsideTx = errors.New("advisory lock requires a transaction")

// AdvisoryLocker implements repositories.Locker with transaction-scoped
// PostgreSQL advisory locks.
type AdvisoryLocker struct{}

// NewAdvisoryLocker creates a new advisory locker
func NewAdvisoryLocker() repositories.Locker {
	return &AdvisoryLocker{}
}

// LockTitle blocks until no other transaction holds the lock for title.
// Works for titles that have no row yet, which a row lock cannot cover.
func (l *AdvisoryLocker) LockTitle(ctx context.Context, title string) error {
	return l.exec(ctx, "SELECT pg_advisory_xact_lock($1, hashtext($2))", lockNamespaceUpload, title)
}

// EnterShared takes the maintenance gate in shared mode
func (l *AdvisoryLocker) EnterShared(ctx context.Context) error {
	return l.exec(ctx, "SELECT pg_advisory_xact_lock_shared($1, 0)", lockNamespaceMaintenance)
}

// EnterExclusive takes the maintenance gate exclusively, waiting for shared holders
func (l *AdvisoryLocker) EnterExclusive(ctx context.Context) error {
	return l.exec(ctx, "SELECT pg_advisory_xact_lock($1, 0)", lockNamespaceMaintenance)
}

func (l *AdvisoryLocker) exec(ctx context.Context, query string, args ...interface{}) error {
	tx := repositories.GetTx(ctx)
	if tx == nil {
		return errLockOutsideTx
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}
	return nil
}
