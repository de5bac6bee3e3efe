package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/scribe/internal/document"
)

func join(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

func TestTokenizePreservesText(t *testing.T) {
	for _, tc := range []struct{ lang, code string }{
		{"javascript", "const x = 42; // answer"},
		{"go", "package main\n\nfunc main() {}"},
		{"python", "def f():\n    return 'hi'\n"},
		{"no-such-language", "plain words"},
	} {
		t.Run(tc.lang, func(t *testing.T) {
			assert.Equal(t, tc.code, join(Tokenize(tc.lang, tc.code)))
		})
	}
}

func TestTokenizeTypes(t *testing.T) {
	tokens := Tokenize("javascript", `const s = "hi";`)
	types := map[string]string{}
	for _, tok := range tokens {
		types[strings.TrimSpace(tok.Text)] = tok.Type
	}
	assert.Equal(t, "keyword", types["const"])
	assert.Equal(t, "string", types[`"hi"`])
}

func TestUnknownLanguageIsPlain(t *testing.T) {
	tokens := Tokenize("klingon", "qapla'")
	require.Len(t, tokens, 1)
	assert.Empty(t, tokens[0].Type)
	assert.Nil(t, Tokenize("go", ""))
}

func TestBlockProducesValidChildren(t *testing.T) {
	code := document.MustNew(document.KindCodeBlock, document.Attrs{Language: "go"}, document.Text("func main() { return }"))
	out := Block(code)
	require.NoError(t, document.Validate(out))
	assert.Equal(t, code.TextContent(), out.TextContent())
	assert.Equal(t, code.Key, out.Key)

	var sawSpan bool
	for _, c := range out.Children {
		if c.Kind == document.KindCodeHighlight {
			sawSpan = true
		}
	}
	assert.True(t, sawSpan)

	plain := Plain(out)
	require.Len(t, plain.Children, 1)
	assert.Equal(t, document.KindText, plain.Children[0].Kind)
}
