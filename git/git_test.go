package git

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemConfigStore_Scopes(t *testing.T) {
	ctx := context.Background()
	store := NewMemConfigStore()

	require.NoError(t, store.Set(ctx, KeyBase, "local-key", ScopeLocal))
	require.NoError(t, store.Set(ctx, KeyBase, "global-key", ScopeGlobal))

	local, err := store.Get(ctx, KeyBase, ScopeLocal)
	require.NoError(t, err)
	assert.Equal(t, "local-key", local)

	global, err := store.Get(ctx, KeyBase, ScopeGlobal)
	require.NoError(t, err)
	assert.Equal(t, "global-key", global)
}

func TestMemConfigStore_Missing(t *testing.T) {
	store := NewMemConfigStore()

	_, err := store.Get(context.Background(), KeyChain, ScopeLocal)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestNormalizeHash(t *testing.T) {
	sha1 := strings.Repeat("ab", 20)
	got := NormalizeHash(sha1)
	assert.Len(t, got, 64)
	assert.Equal(t, strings.Repeat("0", 24)+sha1, got)

	sha256 := strings.Repeat("cd", 32)
	assert.Equal(t, sha256, NormalizeHash(sha256))
}

func TestMemProvider_Scripted(t *testing.T) {
	ctx := context.Background()
	p := &MemProvider{Hashes: []string{
		strings.Repeat("11", 32),
		strings.Repeat("22", 20), // SHA-1 width, normalized on return
	}}

	_, err := p.Head(ctx)
	assert.ErrorIs(t, err, ErrGitFailed)

	h1, err := p.CommitAll(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("11", 32), h1)

	head, err := p.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, h1, head)

	h2, err := p.CommitAll(ctx, "second")
	require.NoError(t, err)
	assert.Len(t, h2, 64)
	assert.True(t, strings.HasSuffix(h2, strings.Repeat("22", 20)))

	_, err = p.CommitAll(ctx, "exhausted")
	assert.ErrorIs(t, err, ErrGitFailed)
}
