package git

import "errors"

var (
	// ErrGitFailed indicates the git binary failed or produced
	// unexpected output.
	ErrGitFailed = errors.New("git: command failed")

	// ErrKeyNotFound indicates a configuration key is not set.
	ErrKeyNotFound = errors.New("git: config key not found")
)
