package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	assert.Contains(t, mimeTypes, "text/plain")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 5, New().Priority())
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		pages []string
	}{
		{"single page", "This is plain text content.", []string{"This is plain text content."}},
		{"form feed pages", "page one\fpage two\fpage three", []string{"page one", "page two", "page three"}},
		{"trailing form feed", "page one\fpage two\f", []string{"page one", "page two"}},
		{"byte order mark", "\xEF\xBB\xBFhello", []string{"hello"}},
		{"empty", "", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New().Extract(context.Background(), []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.pages, out.Pages)
			assert.Equal(t, "text/plain", out.MIMEType)
		})
	}
}

func TestExtract_Nil(t *testing.T) {
	out, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, out)
}
