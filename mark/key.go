package mark

import (
	"context"
	"fmt"
	"os"

	"github.com/solidpayorg/gitmark-go/git"
	"github.com/solidpayorg/gitmark-go/keychain"
)

// ExportBaseKey seals the configured base key under a passphrase and
// writes the blob to path. The file is the portable backup of the only
// secret gitmark holds; losing both it and the git config strands the
// current output.
func (m *Mark) ExportBaseKey(ctx context.Context, path, passphrase string) error {
	base, err := m.baseKey(ctx)
	if err != nil {
		return err
	}
	blob, err := keychain.SealBaseKey(base, passphrase)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, blob, 0600); err != nil {
		return fmt.Errorf("write sealed key: %w", err)
	}
	return nil
}

// ImportBaseKey opens a sealed key file and stores the base key in git
// config, local scope by default or global when asked.
func (m *Mark) ImportBaseKey(ctx context.Context, path, passphrase string, global bool) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read sealed key: %w", err)
	}
	base, err := keychain.OpenBaseKey(blob, passphrase)
	if err != nil {
		return err
	}
	scope := git.ScopeLocal
	if global {
		scope = git.ScopeGlobal
	}
	return m.Config.Set(ctx, git.KeyBase, base, scope)
}
