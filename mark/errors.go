package mark

import "errors"

var (
	// ErrNotInitialized indicates the repository has no ledger yet.
	ErrNotInitialized = errors.New("mark: repository not initialized, run 'gitmark init'")

	// ErrAlreadyInitialized indicates the ledger already exists.
	ErrAlreadyInitialized = errors.New("mark: ledger already exists")

	// ErrNoBaseKey indicates no base secret key is configured.
	ErrNoBaseKey = errors.New("mark: no base key configured")

	// ErrAdvancePending indicates a previous advance left a pending
	// marker that must be reconciled before a new one can start.
	ErrAdvancePending = errors.New("mark: previous advance pending, run 'gitmark reconcile'")

	// ErrOffline indicates the operation needs a blockchain service and
	// none is configured.
	ErrOffline = errors.New("mark: no blockchain service configured")
)
