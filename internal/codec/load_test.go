package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/scribe/internal/document"
)

func blockTexts(s *document.EditorState) []string {
	var out []string
	for _, b := range s.Root().Children {
		out = append(out, b.TextContent())
	}
	return out
}

func TestLoadStructured(t *testing.T) {
	payload, err := ToJSON(sampleState(t))
	require.NoError(t, err)

	got := Load(payload)
	assert.Equal(t, SourceStructured, got.Source)
	assert.NoError(t, got.Err)
	assert.True(t, sampleState(t).Equal(got.State))
}

func TestLoadFallbacks(t *testing.T) {
	valid, err := ToJSON(sampleState(t))
	require.NoError(t, err)
	wrapped, err := json.Marshal(valid)
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload string
		source  Source
		texts   []string
		failed  bool
	}{
		{
			name:    "empty",
			payload: "  \n",
			source:  SourcePlain,
			texts:   []string{""},
		},
		{
			name:    "plain text",
			payload: "first line\n\nsecond line",
			source:  SourcePlain,
			texts:   []string{"first line", "second line"},
		},
		{
			name:    "legacy html",
			payload: "<p>Hello <strong>there</strong></p><p>again</p>",
			source:  SourceHTML,
			texts:   []string{"Hello there", "again"},
		},
		{
			name:    "text field",
			payload: `{"text":"one\ntwo"}`,
			source:  SourceText,
			texts:   []string{"one", "two"},
			failed:  true,
		},
		{
			name:    "text field with markup",
			payload: `{"text":"<p>fish &amp; chips</p><p>peas</p>"}`,
			source:  SourceText,
			texts:   []string{"fish & chips", "peas"},
			failed:  true,
		},
		{
			name:    "content envelope with html",
			payload: `{"content":"<h2>Title</h2><p>body</p>"}`,
			source:  SourceHTML,
			texts:   []string{"Title", "body"},
			failed:  true,
		},
		{
			name:    "unknown node in a lexical tree",
			payload: `{"root":{"type":"root","children":[{"type":"paragraph","children":[{"type":"text","text":"alpha"}]},{"type":"poll","children":[{"type":"text","text":"beta"}]}]}}`,
			source:  SourceText,
			texts:   []string{"alpha", "beta"},
			failed:  true,
		},
		{
			name:    "unrecognised json",
			payload: `{"not":"a document"}`,
			source:  SourceRaw,
			texts:   []string{`{"not":"a document"}`},
			failed:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Load(tt.payload)
			require.NotNil(t, got.State)
			assert.Equal(t, tt.source, got.Source)
			assert.Equal(t, tt.texts, blockTexts(got.State))
			if tt.failed {
				assert.ErrorIs(t, got.Err, document.ErrMalformedDocument)
			} else {
				assert.NoError(t, got.Err)
			}
		})
	}

	t.Run("json string envelope", func(t *testing.T) {
		got := Load(string(wrapped))
		assert.Equal(t, SourceStructured, got.Source)
		assert.True(t, sampleState(t).Equal(got.State))
	})
}

func TestPlainTextOf(t *testing.T) {
	assert.Equal(t, "Release notes\nPlain, bold red and a link\nquoted\nthirdnestedfourth\nfunc main() {}\nNameQtyapples3",
		PlainTextOf(sampleState(t)))
}
