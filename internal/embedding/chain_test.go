package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingProvider struct{ dims int }

func (p *failingProvider) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrUnavailable
}

func (p *failingProvider) Dimensions() int { return p.dims }

type countingProvider struct {
	inner Provider
	calls int
}

func (p *countingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.calls++
	return p.inner.Embed(ctx, text)
}

func (p *countingProvider) Dimensions() int { return p.inner.Dimensions() }

func TestChain_FallsBackWhenPrimaryFails(t *testing.T) {
	chain := NewChain(&failingProvider{dims: 64}, NewHash(64))

	vec, err := chain.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Len(t, vec, 64)
	assert.InDelta(t, 1.0, l2norm(vec), 1e-6)
}

func TestChain_NilPrimaryServesFallback(t *testing.T) {
	chain := NewChain(nil, NewHash(64))

	a, err := chain.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	b, err := chain.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCache_SecondCallServedFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	counted := &countingProvider{inner: NewHash(64)}
	cache := NewCache(counted, client, time.Hour)
	ctx := context.Background()

	a, err := cache.Embed(ctx, "my son loves math")
	require.NoError(t, err)
	b, err := cache.Embed(ctx, "my son loves math")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, counted.calls, "second call should hit the cache")
}

func TestCache_ExpiryFallsThroughToProvider(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	counted := &countingProvider{inner: NewHash(64)}
	cache := NewCache(counted, client, time.Minute)
	ctx := context.Background()

	_, err := cache.Embed(ctx, "my son loves math")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = cache.Embed(ctx, "my son loves math")
	require.NoError(t, err)
	assert.Equal(t, 2, counted.calls)
}

func TestCache_NilClientIsPassthrough(t *testing.T) {
	counted := &countingProvider{inner: NewHash(64)}
	cache := NewCache(counted, nil, time.Hour)

	_, err := cache.Embed(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, 1, counted.calls)
}
