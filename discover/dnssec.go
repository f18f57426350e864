package discover

import (
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// defaultUpstream is the default recursive resolver for DNSSEC queries.
	defaultUpstream = "8.8.8.8:53"

	// dnssecTimeout is the timeout for DNSSEC queries.
	dnssecTimeout = 10 * time.Second

	// edns0BufSize is the EDNS0 UDP buffer size.
	edns0BufSize = 4096
)

// DNSSECResolver implements Resolver with DNSSEC validation. It relies
// on the upstream recursive resolver to perform validation and checks
// the AD (Authenticated Data) flag in responses.
type DNSSECResolver struct {
	// Upstream is the recursive resolver address (e.g., "8.8.8.8:53").
	Upstream string
}

// NewDNSSECResolver creates a new DNSSECResolver.
// If upstream is empty, it defaults to "8.8.8.8:53".
func NewDNSSECResolver(upstream string) *DNSSECResolver {
	if upstream == "" {
		upstream = defaultUpstream
	}
	return &DNSSECResolver{Upstream: upstream}
}

// LookupTXT looks up TXT records with DNSSEC validation.
func (r *DNSSECResolver) LookupTXT(name string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true
	msg.SetEdns0(edns0BufSize, true) // DO (DNSSEC OK) flag

	client := &dns.Client{Timeout: dnssecTimeout}
	resp, _, err := client.Exchange(msg, r.Upstream)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s TXT: %w", ErrLookupFailed, name, err)
	}

	if resp.Rcode != dns.RcodeSuccess && resp.Rcode != dns.RcodeNameError {
		return nil, fmt.Errorf("%w: query %s TXT: rcode %s",
			ErrLookupFailed, name, dns.RcodeToString[resp.Rcode])
	}

	// Require the AD flag. The recursive resolver validated DNSSEC.
	if !resp.AuthenticatedData {
		return nil, fmt.Errorf("%w: AD flag not set for %s TXT", ErrDNSSECFailed, name)
	}

	var txts []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			// TXT records may be split into multiple strings; join them.
			txts = append(txts, strings.Join(txt.Txt, ""))
		}
	}

	if len(txts) == 0 {
		return nil, fmt.Errorf("%w: no TXT records for %s", ErrLookupFailed, name)
	}

	return txts, nil
}
