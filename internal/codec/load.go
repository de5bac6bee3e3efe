package codec

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"

	"github.com/starford/scribe/internal/document"
)

// Source names the tier that produced a loaded document.
type Source string

// Load tiers, from most to least structured.
const (
	SourceStructured Source = "structured"
	SourceHTML       Source = "html"
	SourceText       Source = "text"
	SourcePlain      Source = "plain"
	SourceRaw        Source = "raw"
)

// maxUnwrap bounds how many JSON string or "content" envelopes Load peels
// off a payload.
const maxUnwrap = 3

var htmlTag = regexp.MustCompile(`(?i)<(p|div|h[1-6]|ul|ol|li|blockquote|pre|table|img|iframe|br|hr|strong|em|span|a)\b[^>]*>`)

// Loaded is the outcome of Load.
type Loaded struct {
	State  *document.EditorState
	Source Source
	// Err is the structured decode failure that caused a fallback, if any.
	Err error
}

// Load turns any persisted payload into a document and never fails. It
// tries the JSON editor state first, then best-effort text extraction from
// JSON it does not recognise, then legacy HTML, and finally shows the raw
// payload as plain text.
func Load(payload string) Loaded {
	return load(payload, 0)
}

func load(payload string, depth int) Loaded {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return Loaded{State: document.EmptyState(), Source: SourcePlain}
	}
	var structErr error
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, `"`) || strings.HasPrefix(trimmed, "[") {
		st, err := FromJSON(trimmed)
		if err == nil {
			return Loaded{State: st, Source: SourceStructured}
		}
		structErr = err
		if out, ok := extract(trimmed, depth); ok {
			if out.Err == nil && out.Source != SourceStructured {
				out.Err = structErr
			}
			return out
		}
		return Loaded{State: PlainText(payload), Source: SourceRaw, Err: structErr}
	}
	if htmlTag.MatchString(trimmed) {
		if st, err := FromHTML(trimmed); err == nil {
			return Loaded{State: st, Source: SourceHTML}
		}
	}
	return Loaded{State: PlainText(payload), Source: SourcePlain}
}

// extract scans JSON that is not an editor state for usable text: a JSON
// encoded string, a "text" or "content" field, or the text nodes of a
// root/children tree.
func extract(payload string, depth int) (Loaded, bool) {
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return Loaded{}, false
	}
	switch val := v.(type) {
	case string:
		if depth >= maxUnwrap {
			return Loaded{State: PlainText(val), Source: SourceText}, true
		}
		return load(val, depth+1), true
	case map[string]any:
		if s, ok := val["text"].(string); ok && strings.TrimSpace(s) != "" {
			if htmlTag.MatchString(s) {
				s = html.UnescapeString(StripTags(strings.NewReplacer("</p>", "\n", "<br>", "\n").Replace(s)))
			}
			return Loaded{State: PlainText(s), Source: SourceText}, true
		}
		if s, ok := val["content"].(string); ok && strings.TrimSpace(s) != "" {
			if depth >= maxUnwrap {
				return Loaded{State: PlainText(s), Source: SourceText}, true
			}
			return load(s, depth+1), true
		}
		if root, ok := val["root"].(map[string]any); ok {
			var b strings.Builder
			collectText(root, &b)
			if s := strings.TrimSpace(b.String()); s != "" {
				return Loaded{State: PlainText(s), Source: SourceText}, true
			}
		}
	}
	return Loaded{}, false
}

// collectText gathers "text" fields depth-first, ending paragraphs and
// headings with a newline.
func collectText(node map[string]any, b *strings.Builder) {
	if s, ok := node["text"].(string); ok {
		b.WriteString(s)
	}
	children, _ := node["children"].([]any)
	for _, c := range children {
		if m, ok := c.(map[string]any); ok {
			collectText(m, b)
		}
	}
	switch node["type"] {
	case "paragraph", "heading":
		b.WriteString("\n")
	}
}

// PlainText builds a document with one paragraph per non-empty line.
func PlainText(s string) *document.EditorState {
	var blocks []*document.Node
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		blocks = append(blocks, document.MustNew(document.KindParagraph, document.Attrs{}, document.Text(line)))
	}
	if len(blocks) == 0 {
		return document.EmptyState()
	}
	tree, err := document.NewTree(document.MustNew(document.KindRoot, document.Attrs{}, blocks...))
	if err != nil {
		return document.EmptyState()
	}
	return document.NewState(tree)
}

// PlainTextOf returns the text of s with one line per block, as used for
// search indexing and summaries.
func PlainTextOf(s *document.EditorState) string {
	var lines []string
	for _, b := range s.Root().Children {
		if t := strings.TrimSpace(b.TextContent()); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}
