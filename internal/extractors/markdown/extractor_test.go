package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	assert.Contains(t, mimeTypes, "text/markdown")
	assert.Contains(t, mimeTypes, "text/x-markdown")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestExtract(t *testing.T) {
	md := "# Master Services Agreement\n\n## 1. Term\n\nThis Agreement **automatically renews**.\n\f## 2. Fees\n\n- Net 30\n- See [schedule](http://x)"

	out, err := New().Extract(context.Background(), []byte(md))
	require.NoError(t, err)

	assert.Equal(t, "Master Services Agreement", out.Title)
	require.Len(t, out.Pages, 2)
	assert.Equal(t, "Master Services Agreement\n\n1. Term\n\nThis Agreement automatically renews.", out.Pages[0])
	assert.Equal(t, "2. Fees\n\nNet 30\nSee schedule", out.Pages[1])
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"heading", "### 4.2 Liability", "4.2 Liability"},
		{"bold and italic", "**bold** and *italic* and __under__", "bold and italic and under"},
		{"snake_case untouched", "see file_name here", "see file_name here"},
		{"inline code keeps text", "use `net 30`", "use net 30"},
		{"image removed", "see ![logo](logo.png) here", "see  here"},
		{"numbered list kept", "1. First clause\n2. Second clause", "1. First clause\n2. Second clause"},
		{"blockquote", "> quoted", "quoted"},
		{"horizontal rule", "a\n\n---\n\nb", "a\n\nb"},
		{"table", "| Fee | Amount |\n|-----|--------|\n| Setup | $100 |", "Fee Amount\n\nSetup $100"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripMarkdown(tc.input))
		})
	}
}

func TestExtract_Nil(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
