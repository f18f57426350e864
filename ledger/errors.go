package ledger

import "errors"

var (
	// ErrMalformed indicates the ledger file is not a valid JSON array of records.
	ErrMalformed = errors.New("ledger: malformed ledger")

	// ErrEmpty indicates the ledger has no records to spend.
	ErrEmpty = errors.New("ledger: empty ledger")

	// ErrNotFound indicates the ledger file does not exist.
	ErrNotFound = errors.New("ledger: ledger file not found")

	// ErrInvalidRecord indicates a record URI or its fields are malformed.
	ErrInvalidRecord = errors.New("ledger: invalid output record")
)
