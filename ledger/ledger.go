package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPath is the well-known ledger location relative to the repository root.
const DefaultPath = ".well-known/txo/txo.json"

// Ledger is an ordered, append-only sequence of output records.
// The zero value is an empty ledger.
type Ledger struct {
	records []*OutputRecord
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Load parses a JSON array of TXO record URIs.
func Load(data []byte) (*Ledger, error) {
	var uris []string
	if err := json.Unmarshal(data, &uris); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	records := make([]*OutputRecord, 0, len(uris))
	for i, uri := range uris {
		r, err := ParseRecord(uri)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformed, i, err)
		}
		records = append(records, r)
	}
	return &Ledger{records: records}, nil
}

// LoadFile reads and parses the ledger file at path.
// A missing file yields ErrNotFound so callers can distinguish
// "not initialized" from "corrupt".
func LoadFile(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("ledger: read %s: %w", path, err)
	}
	return Load(data)
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }

// Records returns the records in chronological order. The slice is shared;
// callers must not mutate it.
func (l *Ledger) Records() []*OutputRecord { return l.records }

// Current returns the last record, the only one valid to spend next.
func (l *Ledger) Current() (*OutputRecord, error) {
	if len(l.records) == 0 {
		return nil, ErrEmpty
	}
	return l.records[len(l.records)-1], nil
}

// Append returns a new ledger with r appended. Historical entries are
// never mutated or reordered.
func (l *Ledger) Append(r *OutputRecord) *Ledger {
	records := make([]*OutputRecord, len(l.records), len(l.records)+1)
	copy(records, l.records)
	return &Ledger{records: append(records, r)}
}

// CommitHashes returns the commit hashes present in the ledger, in order,
// skipping records without one.
func (l *Ledger) CommitHashes() []string {
	hashes := make([]string, 0, len(l.records))
	for _, r := range l.records {
		if r.CommitHash != "" {
			hashes = append(hashes, r.CommitHash)
		}
	}
	return hashes
}

// MarshalJSON serializes the ledger as the array of record URIs.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	uris := make([]string, len(l.records))
	for i, r := range l.records {
		uris[i] = r.URI()
	}
	return json.Marshal(uris)
}

// SaveFile writes the full ledger, pretty-printed, to path. The write goes
// to a temp file in the same directory followed by a rename, so a crash
// mid-write leaves the previous contents intact.
func (l *Ledger) SaveFile(path string) error {
	uris := make([]string, len(l.records))
	for i, r := range l.records {
		uris[i] = r.URI()
	}
	data, err := json.MarshalIndent(uris, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: marshal: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ledger: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".txo-*.json")
	if err != nil {
		return fmt.Errorf("ledger: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("ledger: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("ledger: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("ledger: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("ledger: rename into place: %w", err)
	}
	return nil
}
