package voucher

import (
	"fmt"
	"os"
	"strings"
)

// LoadFile reads a voucher URI from a file. Surrounding whitespace is
// ignored; the first non-empty line is parsed.
func LoadFile(path string) (*Voucher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("voucher: read %s: %w", path, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return Parse(line)
		}
	}
	return nil, fmt.Errorf("%w: empty voucher file %s", ErrInvalidFormat, path)
}

// SaveFile writes the voucher URI to path with 0600 permissions,
// replacing any previous credential. Overwriting the stored voucher
// before its successor is spendable is what makes redemption one-shot.
func (v *Voucher) SaveFile(path string) error {
	return os.WriteFile(path, []byte(v.URI()+"\n"), 0600)
}
