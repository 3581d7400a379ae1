package hugot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/vecmath"
)

func TestModelPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("models", "sentence-transformers_all-MiniLM-L6-v2"),
		ModelPath("models", DefaultModel))
}

func TestPrepareModel_UsesExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	want := ModelPath(dir, "org/model")
	require.NoError(t, os.MkdirAll(want, 0o755))

	got, err := PrepareModel(dir, "org/model")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// TestEmbeddingService downloads all-MiniLM-L6-v2 on first run.
func TestEmbeddingService(t *testing.T) {
	if testing.Short() || os.Getenv("CLAUSESENSE_HUGOT_TEST") == "" {
		t.Skip("set CLAUSESENSE_HUGOT_TEST to run the model test")
	}

	s, err := NewEmbeddingService(Config{ModelDir: filepath.Join(os.TempDir(), "clausesense-models")})
	require.NoError(t, err)
	defer func() { assert.NoError(t, s.Close()) }()

	vectors, err := s.EmbedBatch(context.Background(), []string{
		"Either party may terminate this Agreement for convenience.",
		"This contract can be ended by either side without cause.",
		"Invoices are payable within thirty days.",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Len(t, vectors[0], DefaultDimensions)

	assert.Greater(t,
		vecmath.Cosine(vectors[0], vectors[1]),
		vecmath.Cosine(vectors[0], vectors[2]))
}
