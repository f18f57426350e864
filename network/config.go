package network

import "fmt"

// RPCConfig holds the connection parameters for a node's JSON-RPC interface.
type RPCConfig struct {
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
	Chain    string `json:"chain"`
}

// ChainPresets contains default RPC configurations for known chain
// identifiers. Mainnet ("bsv") is intentionally omitted so spending real
// funds always requires explicit configuration.
var ChainPresets = map[string]RPCConfig{
	"regtest": {URL: "http://localhost:18332", User: "gitmark", Password: "gitmark"},
	"tbsv":    {URL: "http://localhost:18332", User: "gitmark", Password: "gitmark"},
}

// ResolveConfig merges RPC configuration from three sources with
// decreasing priority:
//  1. explicit overrides (highest)
//  2. environment variables (GITMARK_RPC_URL, GITMARK_RPC_USER, GITMARK_RPC_PASS)
//  3. chain presets (regtest/tbsv only)
func ResolveConfig(overrides *RPCConfig, env map[string]string, chain string) (*RPCConfig, error) {
	result := RPCConfig{Chain: chain}

	if preset, ok := ChainPresets[chain]; ok {
		result = preset
		result.Chain = chain
	}

	if env != nil {
		if v := env["GITMARK_RPC_URL"]; v != "" {
			result.URL = v
		}
		if v := env["GITMARK_RPC_USER"]; v != "" {
			result.User = v
		}
		if v := env["GITMARK_RPC_PASS"]; v != "" {
			result.Password = v
		}
	}

	if overrides != nil {
		if overrides.URL != "" {
			result.URL = overrides.URL
		}
		if overrides.User != "" {
			result.User = overrides.User
		}
		if overrides.Password != "" {
			result.Password = overrides.Password
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("%w: %q requires explicit RPC configuration (set GITMARK_RPC_URL)", ErrUnknownChain, chain)
	}
	return &result, nil
}
