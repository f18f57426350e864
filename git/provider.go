package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// commitHashPattern matches a full 40- or 64-hex-char git object hash.
// gitmark folds hashes as 256-bit values, so SHA-1 repositories have
// their 20-byte hashes treated as left-padded 32-byte integers.
var commitHashPattern = regexp.MustCompile(`^[0-9a-f]{40}([0-9a-f]{24})?$`)

// Provider yields commit hashes from the underlying version-control
// system. The hash is an opaque, externally-timestamped identifier: the
// core never inspects it beyond hex validation.
type Provider interface {
	// CommitAll stages everything and commits with the given message,
	// returning the new HEAD hash. The commit is irreversible from the
	// core's point of view.
	CommitAll(ctx context.Context, message string) (string, error)

	// Head returns the current HEAD commit hash.
	Head(ctx context.Context) (string, error)
}

// CLIProvider shells out to the git binary.
type CLIProvider struct {
	Dir string // repository working directory; empty = process cwd
}

// CommitAll runs `git add -A` then `git commit -m <message>` and returns
// the resulting HEAD hash.
func (p *CLIProvider) CommitAll(ctx context.Context, message string) (string, error) {
	if message == "" {
		message = "gitmark"
	}
	if _, err := p.run(ctx, "add", "-A"); err != nil {
		return "", fmt.Errorf("%w: add: %v", ErrGitFailed, err)
	}
	if _, err := p.run(ctx, "commit", "-m", message); err != nil {
		return "", fmt.Errorf("%w: commit: %v", ErrGitFailed, err)
	}
	return p.Head(ctx)
}

// Head runs `git rev-parse HEAD`.
func (p *CLIProvider) Head(ctx context.Context) (string, error) {
	out, err := p.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("%w: rev-parse HEAD: %v", ErrGitFailed, err)
	}
	hash := strings.ToLower(strings.TrimSpace(out))
	if !commitHashPattern.MatchString(hash) {
		return "", fmt.Errorf("%w: unexpected HEAD %q", ErrGitFailed, hash)
	}
	return NormalizeHash(hash), nil
}

func (p *CLIProvider) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if p.Dir != "" {
		cmd.Dir = p.Dir
	}
	out, err := cmd.Output()
	return string(out), err
}

// NormalizeHash left-pads a 40-hex-char SHA-1 hash with zeros to the
// 64-hex-char width key evolution works in. 64-char hashes pass through.
func NormalizeHash(hash string) string {
	if len(hash) == 40 {
		return strings.Repeat("0", 24) + hash
	}
	return hash
}

// MemProvider is a scripted Provider for tests: each CommitAll pops the
// next hash from Hashes.
type MemProvider struct {
	Hashes []string
	next   int
}

// CommitAll returns the next scripted hash.
func (p *MemProvider) CommitAll(_ context.Context, _ string) (string, error) {
	if p.next >= len(p.Hashes) {
		return "", fmt.Errorf("%w: no scripted hashes left", ErrGitFailed)
	}
	h := NormalizeHash(p.Hashes[p.next])
	p.next++
	return h, nil
}

// Head returns the most recently committed hash.
func (p *MemProvider) Head(_ context.Context) (string, error) {
	if p.next == 0 {
		return "", fmt.Errorf("%w: no commits", ErrGitFailed)
	}
	return NormalizeHash(p.Hashes[p.next-1]), nil
}

// asExitError is errors.As with a concrete exec.ExitError target,
// split out so config.go reads cleanly.
func asExitError(err error, target **exec.ExitError) bool {
	return errors.As(err, target)
}
