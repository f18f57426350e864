// Package git wraps the two repository collaborators gitmark depends on:
// the key/value configuration store (git config) and the version-control
// provider that stages, commits, and reports commit hashes.
//
// Production adapters shell out to the git binary; in-memory fakes back
// the tests. The core never touches git plumbing directly.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Scope selects where a configuration value lives.
type Scope int

const (
	// ScopeLocal is the repository-local configuration.
	ScopeLocal Scope = iota
	// ScopeGlobal is the user-global configuration.
	ScopeGlobal
)

// Canonical gitmark configuration keys. Earlier script generations used
// diverging names (nostr.privkey among them); only this namespace is
// read or written now.
const (
	KeyBase  = "gitmark.key"
	KeyChain = "gitmark.chain"
	KeyFee   = "gitmark.fee"
)

// ConfigStore is the persistent key/value store for the base key and
// chain settings.
type ConfigStore interface {
	// Get returns the value for key in the given scope.
	// Absent keys yield ErrKeyNotFound.
	Get(ctx context.Context, key string, scope Scope) (string, error)

	// Set writes the value for key in the given scope.
	Set(ctx context.Context, key, value string, scope Scope) error
}

// CLIConfigStore reads and writes configuration through `git config`.
type CLIConfigStore struct {
	// Dir is the repository working directory. Empty means the
	// process working directory.
	Dir string
}

// Get runs `git config [--global] --get <key>`.
func (s *CLIConfigStore) Get(ctx context.Context, key string, scope Scope) (string, error) {
	args := []string{"config"}
	if scope == ScopeGlobal {
		args = append(args, "--global")
	}
	args = append(args, "--get", key)

	out, err := s.run(ctx, args...)
	if err != nil {
		// git config --get exits 1 when the key is absent.
		var exitErr *exec.ExitError
		if asExitError(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		return "", fmt.Errorf("%w: config --get %s: %v", ErrGitFailed, key, err)
	}
	return strings.TrimSpace(out), nil
}

// Set runs `git config [--global] <key> <value>`.
func (s *CLIConfigStore) Set(ctx context.Context, key, value string, scope Scope) error {
	args := []string{"config"}
	if scope == ScopeGlobal {
		args = append(args, "--global")
	}
	args = append(args, key, value)

	if _, err := s.run(ctx, args...); err != nil {
		return fmt.Errorf("%w: config %s: %v", ErrGitFailed, key, err)
	}
	return nil
}

func (s *CLIConfigStore) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if s.Dir != "" {
		cmd.Dir = s.Dir
	}
	out, err := cmd.Output()
	return string(out), err
}

// MemConfigStore is an in-memory ConfigStore for tests.
type MemConfigStore struct {
	mu     sync.Mutex
	local  map[string]string
	global map[string]string
}

// NewMemConfigStore creates an empty in-memory store.
func NewMemConfigStore() *MemConfigStore {
	return &MemConfigStore{
		local:  make(map[string]string),
		global: make(map[string]string),
	}
}

func (s *MemConfigStore) Get(_ context.Context, key string, scope Scope) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.scoped(scope)[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return v, nil
}

func (s *MemConfigStore) Set(_ context.Context, key, value string, scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scoped(scope)[key] = value
	return nil
}

func (s *MemConfigStore) scoped(scope Scope) map[string]string {
	if scope == ScopeGlobal {
		return s.global
	}
	return s.local
}
