package docservice

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/codec"
	"github.com/starford/scribe/internal/document"
)

// Format names a content representation accepted or produced by the service.
type Format string

// Formats.
const (
	// FormatAuto runs the fallback loader: JSON state, then text extraction,
	// then legacy HTML, then the raw payload as text.
	FormatAuto     Format = "auto"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatText     Format = "text"
)

// ParseFormat normalises a format name. An empty name means FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case "md":
		return FormatMarkdown, nil
	case FormatAuto, FormatJSON, FormatMarkdown, FormatHTML, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", apperr.ErrInvalidInput, s)
}

// Decode builds an editor state from content in format f.
func Decode(f Format, content string) (*document.EditorState, error) {
	switch f {
	case FormatJSON:
		return codec.FromJSON(content)
	case FormatMarkdown:
		return codec.FromMarkdown(content)
	case FormatHTML:
		return codec.FromHTML(content)
	case FormatText:
		return codec.PlainText(content), nil
	case FormatAuto, "":
		return codec.Load(content).State, nil
	}
	return nil, fmt.Errorf("%w: unknown format %q", apperr.ErrInvalidInput, f)
}

// Encode renders s in format f. FormatAuto encodes as JSON.
func Encode(s *document.EditorState, f Format, html codec.HTMLOptions) (string, error) {
	switch f {
	case FormatJSON, FormatAuto, "":
		return codec.ToJSON(s)
	case FormatMarkdown:
		return codec.ToMarkdown(s)
	case FormatHTML:
		return codec.ToHTMLWithOptions(s, html)
	case FormatText:
		return codec.PlainTextOf(s), nil
	}
	return "", fmt.Errorf("%w: unknown format %q", apperr.ErrInvalidInput, f)
}

const maxTitleRunes = 80

// deriveTitle uses the first non-empty line of the document text.
func deriveTitle(s *document.EditorState) string {
	text := codec.PlainTextOf(s)
	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "Untitled"
	}
	if utf8.RuneCountInString(line) > maxTitleRunes {
		line = string([]rune(line)[:maxTitleRunes-1]) + "…"
	}
	return line
}
