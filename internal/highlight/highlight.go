// Package highlight splits source code into typed spans for code blocks.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/starford/scribe/internal/document"
)

// DefaultLanguage is used for code blocks that do not name one.
const DefaultLanguage = "javascript"

// Token is a run of code with a Prism-style token type. Plain text has an
// empty Type.
type Token struct {
	Type string
	Text string
}

// Tokenize lexes code as language. Unknown languages yield a single plain
// token. Concatenating the token texts always gives back code.
func Tokenize(language, code string) []Token {
	if code == "" {
		return nil
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		return []Token{{Text: code}}
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return []Token{{Text: code}}
	}
	var out []Token
	for _, tok := range it.Tokens() {
		typ := tokenName(tok.Type)
		if n := len(out); n > 0 && out[n-1].Type == typ {
			out[n-1].Text += tok.Value
			continue
		}
		out = append(out, Token{Type: typ, Text: tok.Value})
	}
	return trimTo(out, code)
}

// trimTo drops text some lexers append (a trailing newline) so the tokens
// spell exactly code.
func trimTo(tokens []Token, code string) []Token {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
	}
	extra := b.Len() - len(code)
	for extra > 0 && len(tokens) > 0 {
		last := &tokens[len(tokens)-1]
		if len(last.Text) <= extra {
			extra -= len(last.Text)
			tokens = tokens[:len(tokens)-1]
			continue
		}
		last.Text = last.Text[:len(last.Text)-extra]
		extra = 0
	}
	return tokens
}

func tokenName(t chroma.TokenType) string {
	switch {
	case t == chroma.KeywordConstant:
		return "boolean"
	case t.InCategory(chroma.Keyword):
		return "keyword"
	case t == chroma.NameFunction || t == chroma.NameFunctionMagic:
		return "function"
	case t == chroma.NameClass:
		return "class-name"
	case t == chroma.NameBuiltin || t == chroma.NameBuiltinPseudo:
		return "builtin"
	case t == chroma.NameTag:
		return "tag"
	case t == chroma.NameAttribute:
		return "attr-name"
	case t == chroma.NameVariable:
		return "variable"
	case t == chroma.LiteralStringRegex:
		return "regex"
	case t.InSubCategory(chroma.LiteralString):
		return "string"
	case t.InSubCategory(chroma.LiteralNumber):
		return "number"
	case t.InCategory(chroma.Operator):
		return "operator"
	case t.InCategory(chroma.Punctuation):
		return "punctuation"
	case t.InCategory(chroma.Comment):
		return "comment"
	}
	return ""
}

// Nodes turns code into the children of a code block: code-highlight
// spans for typed tokens and plain text runs for the rest.
func Nodes(language, code string) []*document.Node {
	tokens := Tokenize(language, code)
	out := make([]*document.Node, 0, len(tokens))
	for _, t := range tokens {
		if t.Type == "" {
			out = append(out, document.Text(t.Text))
			continue
		}
		out = append(out, &document.Node{
			Kind:  document.KindCodeHighlight,
			Key:   document.NewKey(),
			Text:  t.Text,
			Attrs: document.Attrs{TokenType: t.Type},
		})
	}
	return out
}

// Block rebuilds code block n with freshly highlighted children.
func Block(n *document.Node) *document.Node {
	out := n.Clone()
	lang := n.Attrs.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	out.Children = Nodes(lang, n.TextContent())
	return out
}

// Plain rebuilds code block n with a single unhighlighted text run.
func Plain(n *document.Node) *document.Node {
	out := n.Clone()
	out.Children = nil
	if code := n.TextContent(); code != "" {
		out.Children = []*document.Node{document.Text(code)}
	}
	return out
}
