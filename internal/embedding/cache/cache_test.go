package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Name() string           { return "fake" }
func (c *countingEmbedder) Prepare([]string) error { return nil }
func (c *countingEmbedder) Dimension() int         { return 2 }
func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float64{float64(len(text)), 1}, nil
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]float64, bool, error) {
	return nil, false, errors.New("down")
}
func (brokenStore) Set(context.Context, string, []float64) error { return errors.New("down") }

func TestEmbedder_CachesByText(t *testing.T) {
	inner := &countingEmbedder{}
	store := NewMemory()
	e := New(inner, store)
	ctx := context.Background()

	v1, err := e.Embed(ctx, "feels unheard")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "feels unheard")
	require.NoError(t, err)
	_, err = e.Embed(ctx, "other")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, "fake", e.Name())
}

func TestEmbedder_StoreFailuresDoNotFail(t *testing.T) {
	inner := &countingEmbedder{}
	e := New(inner, brokenStore{})

	v, err := e.Embed(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, v)
}

func TestEmbedder_InnerErrorPropagates(t *testing.T) {
	e := New(&countingEmbedder{err: errors.New("boom")}, NewMemory())
	_, err := e.Embed(context.Background(), "abc")
	assert.EqualError(t, err, "boom")
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	src := []float64{1, 2}
	require.NoError(t, m.Set(ctx, "k", src))
	src[0] = 99

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, got)
}

func TestVectorCodec(t *testing.T) {
	vec := []float64{0.25, -1.5, 3e-9}
	got, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestKey_DependsOnModel(t *testing.T) {
	assert.NotEqual(t, Key("a", "x"), Key("b", "x"))
	assert.Equal(t, Key("a", "x"), Key("a", "x"))
}
