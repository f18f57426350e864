// Package discover locates a remote repository's published ledger. A
// _txo.{domain} TXT record may point at the ledger URL; otherwise the
// well-known path under the domain is used. Lookups can optionally
// require DNSSEC validation.
package discover

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/solidpayorg/gitmark-go/ledger"
)

// TXTPrefix marks the ledger URL inside a _txo TXT record,
// e.g. "txo=https://example.org/.well-known/txo/txo.json".
const TXTPrefix = "txo="

// txtLabel is the record name prefix queried under the domain.
const txtLabel = "_txo."

// Resolver defines the interface for DNS lookups.
// This allows tests to mock DNS resolution.
type Resolver interface {
	// LookupTXT looks up TXT records for the given name.
	LookupTXT(name string) ([]string, error)
}

// defaultResolver wraps the standard net package DNS functions.
type defaultResolver struct{}

func (d *defaultResolver) LookupTXT(name string) ([]string, error) {
	return net.LookupTXT(name)
}

// DefaultResolver is the production DNS resolver using the net package.
var DefaultResolver Resolver = &defaultResolver{}

// HTTPClient defines the interface for HTTP requests.
// This allows tests to mock HTTP calls.
type HTTPClient interface {
	Get(url string) (*http.Response, error)
}

// DefaultHTTPClient is the production HTTP client.
var DefaultHTTPClient HTTPClient = http.DefaultClient

// WellKnownURL returns the fallback ledger URL for a domain.
func WellKnownURL(domain string) string {
	return "https://" + domain + "/" + ledger.DefaultPath
}

// ResolveLedgerURL finds the ledger URL for a domain. It queries the
// _txo.{domain} TXT record for a txo= entry; when the record is absent
// the well-known URL is returned.
func ResolveLedgerURL(domain string) (string, error) {
	return ResolveLedgerURLWithResolver(domain, DefaultResolver)
}

// ResolveLedgerURLWithResolver resolves the ledger URL using the
// provided DNS resolver.
func ResolveLedgerURLWithResolver(domain string, resolver Resolver) (string, error) {
	if domain == "" {
		return "", fmt.Errorf("%w: empty domain", ErrLookupFailed)
	}

	txts, err := resolver.LookupTXT(txtLabel + domain)
	if err != nil {
		// Missing record is not fatal; the well-known path serves
		// domains that never published a TXT pointer.
		return WellKnownURL(domain), nil
	}

	for _, txt := range txts {
		txt = strings.TrimSpace(txt)
		if strings.HasPrefix(txt, TXTPrefix) {
			u := strings.TrimSpace(strings.TrimPrefix(txt, TXTPrefix))
			if u == "" {
				return "", fmt.Errorf("%w: empty txo= record for %s", ErrBadRecord, domain)
			}
			if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
				return "", fmt.Errorf("%w: txo= record for %s is not a URL: %q", ErrBadRecord, domain, u)
			}
			return u, nil
		}
	}

	return WellKnownURL(domain), nil
}

// FetchLedger downloads and parses the ledger at url.
func FetchLedger(url string) (*ledger.Ledger, error) {
	return FetchLedgerWithClient(url, DefaultHTTPClient)
}

// FetchLedgerWithClient downloads the ledger using the provided HTTP client.
func FetchLedgerWithClient(url string, client HTTPClient) (*ledger.Ledger, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrFetchFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned status %d", ErrFetchFailed, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrFetchFailed, err)
	}

	l, err := ledger.Load(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadLedger, url, err)
	}
	return l, nil
}

// ResolveAndFetch resolves the ledger URL for a domain and downloads it.
func ResolveAndFetch(domain string, resolver Resolver, client HTTPClient) (*ledger.Ledger, string, error) {
	if resolver == nil {
		resolver = DefaultResolver
	}
	if client == nil {
		client = DefaultHTTPClient
	}
	url, err := ResolveLedgerURLWithResolver(domain, resolver)
	if err != nil {
		return nil, "", err
	}
	l, err := FetchLedgerWithClient(url, client)
	if err != nil {
		return nil, url, err
	}
	return l, url, nil
}
