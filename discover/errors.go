package discover

import "errors"

var (
	// ErrLookupFailed indicates a DNS query failed.
	ErrLookupFailed = errors.New("discover: dns lookup failed")

	// ErrDNSSECFailed indicates the upstream resolver did not vouch for
	// the response with the AD flag.
	ErrDNSSECFailed = errors.New("discover: dnssec validation failed")

	// ErrBadRecord indicates a malformed txo= TXT record.
	ErrBadRecord = errors.New("discover: bad txo record")

	// ErrFetchFailed indicates the ledger could not be downloaded.
	ErrFetchFailed = errors.New("discover: ledger fetch failed")

	// ErrBadLedger indicates the downloaded document is not a valid ledger.
	ErrBadLedger = errors.New("discover: invalid ledger document")
)
