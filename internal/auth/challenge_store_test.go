package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authcodelab/internal/cache"
)

func TestChallengeStore_OpenConsume(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewChallengeStore(cache.New(mr.Addr(), "", 0))
	ctx := context.Background()

	ok, err := store.Consume(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, ok, "no challenge before password step")

	require.NoError(t, store.Open(ctx, "Alice@Example.com"))

	ok, err = store.Consume(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = store.Consume(ctx, "alice@example.com")
	assert.False(t, ok, "challenge is single-use")
}

func TestChallengeStore_Expires(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewChallengeStore(cache.New(mr.Addr(), "", 0))
	ctx := context.Background()

	require.NoError(t, store.Open(ctx, "bob@example.com"))
	mr.FastForward(LoginChallengeTTL + time.Second)

	ok, err := store.Consume(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChallengeStore_SurfacesRedisFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewChallengeStore(cache.New(mr.Addr(), "", 0))
	mr.Close()

	assert.Error(t, store.Open(context.Background(), "carol@example.com"))
	_, err := store.Consume(context.Background(), "carol@example.com")
	assert.Error(t, err)
}
