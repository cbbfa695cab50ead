package rng

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draw(t *testing.T, key string, seed uint64) []float64 {
	t.Helper()
	r, err := New().Stream(context.Background(), key, seed)
	require.NoError(t, err)
	out := make([]float64, 5)
	for i := range out {
		out[i] = r.Float64()
	}
	return out
}

func TestStream_Deterministic(t *testing.T) {
	assert.Equal(t, draw(t, "a\x00b", 42), draw(t, "a\x00b", 42))
	assert.NotEqual(t, draw(t, "a\x00b", 42), draw(t, "a\x00c", 42))
	assert.NotEqual(t, draw(t, "a\x00b", 42), draw(t, "a\x00b", 43))
}

func TestSeededStream_IndependentOfPairStreams(t *testing.T) {
	s, err := New().SeededStream(context.Background(), "a\x00b", 42)
	require.NoError(t, err)
	assert.NotEqual(t, draw(t, "a\x00b", 42)[0], s.Float64())
}

func TestStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Stream(ctx, "k", 1)
	assert.ErrorIs(t, err, context.Canceled)
}
