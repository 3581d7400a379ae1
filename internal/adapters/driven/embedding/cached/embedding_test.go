package cached

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/adapters/driven/cache/memory"
)

// countingEmbedder returns len(text) as a one-element vector.
type countingEmbedder struct {
	calls [][]string
	err   error
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls = append(e.calls, texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

func (e *countingEmbedder) Dimensions() int            { return 1 }
func (e *countingEmbedder) ModelName() string          { return "counting" }
func (e *countingEmbedder) Ping(context.Context) error { return nil }
func (e *countingEmbedder) Close() error               { return nil }

// failingCache errors on every call.
type failingCache struct{}

func (failingCache) Get(context.Context, string, string) ([]float32, bool, error) {
	return nil, false, errors.New("cache down")
}
func (failingCache) Set(context.Context, string, string, []float32) error {
	return errors.New("cache down")
}
func (failingCache) Close() error { return nil }

func TestEmbedBatch_OnlyComputesMisses(t *testing.T) {
	inner := &countingEmbedder{}
	s := New(inner, memory.New(10))
	ctx := context.Background()

	_, err := s.Embed(ctx, "aa")
	require.NoError(t, err)

	out, err := s.EmbedBatch(ctx, []string{"aa", "bbb", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2}, {3}, {1}}, out)

	require.Len(t, inner.calls, 2)
	assert.Equal(t, []string{"bbb", "c"}, inner.calls[1])

	_, err = s.EmbedBatch(ctx, []string{"aa", "bbb"})
	require.NoError(t, err)
	assert.Len(t, inner.calls, 2, "fully cached batch must not reach the service")
}

func TestEmbed_CacheFailureFallsThrough(t *testing.T) {
	inner := &countingEmbedder{}
	s := New(inner, failingCache{})

	v, err := s.Embed(context.Background(), "abcd")
	require.NoError(t, err)
	assert.Equal(t, []float32{4}, v)
}

func TestEmbed_ServiceErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	s := New(&countingEmbedder{err: boom}, memory.New(10))

	_, err := s.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestDelegation(t *testing.T) {
	s := New(&countingEmbedder{}, memory.New(1))
	assert.Equal(t, "counting", s.ModelName())
	assert.Equal(t, 1, s.Dimensions())
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}
