package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions
type TransactionManager interface {
	// ExecTx executes a function within a transaction.
	// The function's context carries the transaction; repositories pick it up via GetTx.
	ExecTx(ctx context.Context, fn TxFn) error
}

// Locker provides transaction-scoped locks. Locks are released when the
// surrounding transaction commits or rolls back, so every method must be
// called with a context produced by ExecTx.
type Locker interface {
	// LockTitle serializes uploads that target the same document title
	LockTitle(ctx context.Context, title string) error

	// EnterShared takes the maintenance gate in shared mode (regular work)
	EnterShared(ctx context.Context) error

	// EnterExclusive takes the maintenance gate in exclusive mode (reset)
	EnterExclusive(ctx context.Context) error
}
