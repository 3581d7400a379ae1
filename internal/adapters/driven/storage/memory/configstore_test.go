package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seeded(t *testing.T) {
	store := NewConfigStore(map[string]any{"engine.playbook": "strict"})

	assert.Equal(t, "strict", store.GetString("engine.playbook"))
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("engine.max_clause_chars", int64(1200)))
	require.NoError(t, store.Set("engine.workers", "8"))
	require.NoError(t, store.Set("engine.window_overlap", 0.25))
	require.NoError(t, store.Set("engine.similarity_threshold", "0.6"))
	require.NoError(t, store.Set("verbose", "true"))
	require.NoError(t, store.Set("watch.extensions", []any{".txt", 3, ".html"}))

	assert.Equal(t, 1200, store.GetInt("engine.max_clause_chars"))
	assert.Equal(t, 8, store.GetInt("engine.workers"))
	assert.InDelta(t, 0.25, store.GetFloat64("engine.window_overlap"), 1e-9)
	assert.InDelta(t, 0.6, store.GetFloat64("engine.similarity_threshold"), 1e-9)
	assert.True(t, store.GetBool("verbose"))
	assert.Equal(t, []string{".txt", ".html"}, store.GetStringSlice("watch.extensions"))
}

func TestConfigStore_MissingAndWrongType(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("engine.workers", true))

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("engine.workers"))
	assert.Zero(t, store.GetInt("engine.workers"))
	assert.Zero(t, store.GetFloat64("missing"))
	assert.False(t, store.GetBool("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_SliceIsCopied(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("k", []string{"a"}))

	got := store.GetStringSlice("k")
	got[0] = "b"

	assert.Equal(t, []string{"a"}, store.GetStringSlice("k"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Set("engine.workers", i)
			_ = store.GetInt("engine.workers")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("engine.workers")
	assert.True(t, ok)
}
