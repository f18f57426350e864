package journal

import "errors"

var (
	// ErrNilParam indicates a required parameter was nil.
	ErrNilParam = errors.New("journal: nil parameter")

	// ErrPendingExists indicates a pending advance marker is already
	// present and must be resolved before starting another advance.
	ErrPendingExists = errors.New("journal: pending advance already exists")

	// ErrNoPending indicates no pending advance marker is stored.
	ErrNoPending = errors.New("journal: no pending advance")
)
