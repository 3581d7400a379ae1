package segmentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/segmentation/splitter"
)

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Names())

	r.Register("test", func(cfg map[string]any) (driven.ClauseProcessor, error) {
		name := "default"
		if n, ok := cfg["name"].(string); ok {
			name = n
		}
		return &mockProcessor{name: name}, nil
	})

	assert.True(t, r.Has("test"))
	assert.False(t, r.Has("missing"))

	proc, err := r.Build("test", map[string]any{"name": "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", proc.Name())
}

func TestRegistry_BuildUnknown(t *testing.T) {
	_, err := NewRegistry().Build("nope", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no processor named "nope"`)
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	assert.Equal(t, []string{ProcessorBound, ProcessorStructure}, r.Names())

	t.Run("structure", func(t *testing.T) {
		p, err := r.Build(ProcessorStructure, nil)
		require.NoError(t, err)
		assert.Equal(t, ProcessorStructure, p.Name())
	})

	t.Run("bound without config", func(t *testing.T) {
		p, err := r.Build(ProcessorBound, nil)
		require.NoError(t, err)
		b, ok := p.(*splitter.Bounder)
		require.True(t, ok)
		assert.Equal(t, splitter.DefaultMaxChars, b.MaxChars())
	})

	t.Run("bound with TOML-style numbers", func(t *testing.T) {
		p, err := r.Build(ProcessorBound, map[string]any{"max_chars": int64(900), "overlap": 0.1})
		require.NoError(t, err)
		assert.Equal(t, 900, p.(*splitter.Bounder).MaxChars())
	})
}

func TestGetInt(t *testing.T) {
	cfg := map[string]any{"a": 3, "b": int64(4), "c": 5.0, "d": "6"}
	assert.Equal(t, 3, getInt(cfg, "a"))
	assert.Equal(t, 4, getInt(cfg, "b"))
	assert.Equal(t, 5, getInt(cfg, "c"))
	assert.Equal(t, 0, getInt(cfg, "d"))
	assert.Equal(t, 0, getInt(cfg, "missing"))
}

func TestGetFloat(t *testing.T) {
	f, ok := getFloat(map[string]any{"x": 2}, "x")
	assert.True(t, ok)
	assert.InDelta(t, 2.0, f, 1e-9)

	_, ok = getFloat(map[string]any{"x": "0.2"}, "x")
	assert.False(t, ok)
}
