package mark

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solidpayorg/gitmark-go/git"
	"github.com/solidpayorg/gitmark-go/keychain"
)

func TestExportImportBaseKey(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.cfg.Set(h.ctx, git.KeyBase, testBase, git.ScopeLocal))

	sealed := filepath.Join(t.TempDir(), "gitmark.key")
	require.NoError(t, h.mark.ExportBaseKey(h.ctx, sealed, "hunter2"))

	// A second repository picks the key up from the sealed file.
	h2 := newHarness(t)
	require.NoError(t, h2.mark.ImportBaseKey(h2.ctx, sealed, "hunter2", false))

	got, err := h2.cfg.Get(h2.ctx, git.KeyBase, git.ScopeLocal)
	require.NoError(t, err)
	assert.Equal(t, testBase, got)
}

func TestImportBaseKey_GlobalScope(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.cfg.Set(h.ctx, git.KeyBase, testBase, git.ScopeLocal))

	sealed := filepath.Join(t.TempDir(), "gitmark.key")
	require.NoError(t, h.mark.ExportBaseKey(h.ctx, sealed, "hunter2"))

	h2 := newHarness(t)
	require.NoError(t, h2.mark.ImportBaseKey(h2.ctx, sealed, "hunter2", true))

	_, err := h2.cfg.Get(h2.ctx, git.KeyBase, git.ScopeLocal)
	assert.ErrorIs(t, err, git.ErrKeyNotFound)
	got, err := h2.cfg.Get(h2.ctx, git.KeyBase, git.ScopeGlobal)
	require.NoError(t, err)
	assert.Equal(t, testBase, got)
}

func TestImportBaseKey_WrongPassphrase(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.cfg.Set(h.ctx, git.KeyBase, testBase, git.ScopeLocal))

	sealed := filepath.Join(t.TempDir(), "gitmark.key")
	require.NoError(t, h.mark.ExportBaseKey(h.ctx, sealed, "hunter2"))

	err := h.mark.ImportBaseKey(h.ctx, sealed, "*******", false)
	assert.ErrorIs(t, err, keychain.ErrOpenFailed)
}

func TestExportBaseKey_NoKey(t *testing.T) {
	h := newHarness(t)

	err := h.mark.ExportBaseKey(h.ctx, filepath.Join(t.TempDir(), "gitmark.key"), "hunter2")
	assert.ErrorIs(t, err, ErrNoBaseKey)
}
