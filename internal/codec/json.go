// Package codec converts editor states to and from their external forms:
// the persisted JSON editor state, read-only HTML, and Markdown.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/starford/scribe/internal/document"
)

// jsonDocument is the persisted editor state. The layout follows the
// Lexical serialization so payloads written by the browser editor load
// unchanged.
type jsonDocument struct {
	Root *jsonNode `json:"root"`
}

type jsonNode struct {
	Type     string      `json:"type"`
	Version  int         `json:"version"`
	Key      string      `json:"key,omitempty"`
	Children []*jsonNode `json:"children,omitempty"`

	Text   string          `json:"text,omitempty"`
	Format json.RawMessage `json:"format,omitempty"`
	Style  string          `json:"style,omitempty"`
	Mode   string          `json:"mode,omitempty"`
	Detail int             `json:"detail,omitempty"`

	Indent int    `json:"indent,omitempty"`
	Tag    string `json:"tag,omitempty"`

	ListType string `json:"listType,omitempty"`
	Start    int    `json:"start,omitempty"`
	Value    int    `json:"value,omitempty"`

	Language      string `json:"language,omitempty"`
	HighlightType string `json:"highlightType,omitempty"`

	URL    string `json:"url,omitempty"`
	Rel    string `json:"rel,omitempty"`
	Target string `json:"target,omitempty"`

	Src       string `json:"src,omitempty"`
	AltText   string `json:"altText,omitempty"`
	Width     pixels `json:"width,omitempty"`
	Height    pixels `json:"height,omitempty"`
	MaxWidth  pixels `json:"maxWidth,omitempty"`
	Alignment string `json:"alignment,omitempty"`

	Provider string `json:"provider,omitempty"`
	VideoID  string `json:"videoID,omitempty"`

	ColSpan         int    `json:"colSpan,omitempty"`
	RowSpan         int    `json:"rowSpan,omitempty"`
	HeaderState     int    `json:"headerState,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

// pixels is an image dimension. The browser editor writes fractional sizes
// after a resize and "inherit" for an unset size; both decode to whole
// pixels, "inherit" as 0.
type pixels int

func (p *pixels) UnmarshalJSON(data []byte) error {
	if string(data) == "null" || string(data) == `"inherit"` {
		*p = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("image size: %w", err)
	}
	*p = pixels(math.Round(f))
	return nil
}

// JSONOption tunes the JSON encoder.
type JSONOption func(*jsonOptions)

type jsonOptions struct {
	keys   bool
	indent string
}

// WithKeys emits node keys so that a live editing client can address nodes.
// Keys are ignored on decode.
func WithKeys() JSONOption {
	return func(o *jsonOptions) { o.keys = true }
}

// WithIndent pretty-prints the output.
func WithIndent(indent string) JSONOption {
	return func(o *jsonOptions) { o.indent = indent }
}

// EncodeJSON writes s as a JSON editor state.
func EncodeJSON(w io.Writer, s *document.EditorState, opts ...JSONOption) error {
	var o jsonOptions
	for _, opt := range opts {
		opt(&o)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if o.indent != "" {
		enc.SetIndent("", o.indent)
	}
	return enc.Encode(jsonDocument{Root: toJSONNode(s.Root(), s.Schema(), o.keys)})
}

// ToJSON returns s as a JSON editor state.
func ToJSON(s *document.EditorState, opts ...JSONOption) (string, error) {
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, s, opts...); err != nil {
		return "", fmt.Errorf("encode editor state: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func toJSONNode(n *document.Node, version int, keys bool) *jsonNode {
	out := &jsonNode{Type: string(n.Kind), Version: version}
	if keys {
		out.Key = string(n.Key)
	}
	a := n.Attrs
	switch n.Kind {
	case document.KindText:
		out.Text = n.Text
		out.Format = json.RawMessage(fmt.Sprint(uint32(n.Format)))
		out.Style = n.Style.String()
		out.Mode = "normal"
	case document.KindCodeHighlight:
		out.Text = n.Text
		out.HighlightType = a.TokenType
	case document.KindHeading:
		out.Tag = fmt.Sprintf("h%d", a.Level)
	case document.KindList:
		out.ListType = string(a.ListType)
		out.Start = a.Start
		out.Indent = a.Indent
		out.Tag = "ul"
		if a.ListType == document.ListNumber {
			out.Tag = "ol"
		}
	case document.KindCodeBlock:
		out.Language = a.Language
	case document.KindLink:
		out.URL = a.URL
		out.Rel = "noopener noreferrer"
	case document.KindImage:
		out.Src = a.Src
		out.AltText = a.Alt
		out.Width = pixels(a.Width)
		out.Height = pixels(a.Height)
		out.MaxWidth = pixels(a.MaxWidth)
		out.Alignment = string(a.Alignment)
	case document.KindVideoEmbed:
		out.Provider = a.Provider
		out.VideoID = a.VideoID
	case document.KindTableCell:
		out.ColSpan = a.ColSpan
		out.RowSpan = a.RowSpan
		out.BackgroundColor = a.Background
		if a.Header {
			out.HeaderState = 1
		}
	}
	if len(n.Children) > 0 {
		out.Children = make([]*jsonNode, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = toJSONNode(c, version, keys)
		}
	}
	return out
}

// DecodeJSON reads a JSON editor state. Any payload that is not a
// recognised document fails with document.ErrMalformedDocument.
func DecodeJSON(r io.Reader) (*document.EditorState, error) {
	var doc jsonDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, document.Wrap("decode-json", document.ErrMalformedDocument, err)
	}
	if doc.Root == nil {
		return nil, document.Errorf("decode-json", document.ErrMalformedDocument, "missing root")
	}
	if doc.Root.Type != string(document.KindRoot) {
		return nil, document.Errorf("decode-json", document.ErrMalformedDocument, "top node has type %q, want root", doc.Root.Type)
	}
	root, err := fromJSONNode(doc.Root)
	if err != nil {
		return nil, err
	}
	tree, err := document.NewTree(root)
	if err != nil {
		return nil, document.Wrap("decode-json", document.ErrMalformedDocument, err)
	}
	return document.NewState(tree), nil
}

// FromJSON parses a JSON editor state.
func FromJSON(payload string) (*document.EditorState, error) {
	return DecodeJSON(strings.NewReader(payload))
}

func fromJSONNode(j *jsonNode) (*document.Node, error) {
	if j == nil {
		return nil, document.Errorf("decode-json", document.ErrMalformedDocument, "null node")
	}
	n := &document.Node{Key: document.NewKey()}
	switch j.Type {
	case "linebreak":
		n.Kind, n.Text = document.KindText, "\n"
		return n, nil
	case "tab":
		n.Kind, n.Text = document.KindText, "\t"
		return n, nil
	case "horizontalrule":
		n.Kind = document.KindSeparator
		return n, nil
	case "autolink":
		n.Kind = document.KindLink
	case "readonly-image":
		n.Kind = document.KindImage
	default:
		n.Kind = document.Kind(j.Type)
	}
	if !document.Known(n.Kind) {
		return nil, document.Errorf("decode-json", document.ErrMalformedDocument, "unknown node type %q", j.Type)
	}
	switch n.Kind {
	case document.KindText:
		n.Text = j.Text
		n.Style = document.ParseStyle(j.Style)
		if len(j.Format) > 0 {
			var f uint32
			if err := json.Unmarshal(j.Format, &f); err != nil {
				return nil, document.Wrap("decode-json", document.ErrMalformedDocument, fmt.Errorf("text format: %w", err))
			}
			n.Format = document.Format(f)
		}
	case document.KindCodeHighlight:
		n.Text = j.Text
		n.Attrs.TokenType = j.HighlightType
	case document.KindHeading:
		var level int
		if _, err := fmt.Sscanf(j.Tag, "h%d", &level); err != nil {
			return nil, document.Errorf("decode-json", document.ErrMalformedDocument, "heading tag %q", j.Tag)
		}
		n.Attrs.Level = clampHeading(level)
	case document.KindList:
		n.Attrs.ListType = document.ListType(j.ListType)
		if n.Attrs.ListType == "" && j.Tag == "ol" {
			n.Attrs.ListType = document.ListNumber
		} else if n.Attrs.ListType == "" || n.Attrs.ListType == "check" {
			n.Attrs.ListType = document.ListBullet
		}
		n.Attrs.Start = j.Start
		n.Attrs.Indent = j.Indent
	case document.KindCodeBlock:
		n.Attrs.Language = strings.ToLower(j.Language)
	case document.KindLink:
		n.Attrs.URL = j.URL
	case document.KindImage:
		n.Attrs.Src = j.Src
		n.Attrs.Alt = j.AltText
		n.Attrs.Width = int(j.Width)
		n.Attrs.Height = int(j.Height)
		n.Attrs.MaxWidth = int(j.MaxWidth)
		n.Attrs.Alignment = document.Alignment(j.Alignment)
	case document.KindVideoEmbed:
		n.Attrs.Provider = j.Provider
		if n.Attrs.Provider == "" {
			n.Attrs.Provider = document.ProviderYouTube
		}
		n.Attrs.VideoID = j.VideoID
	case document.KindTableCell:
		n.Attrs.ColSpan = max(j.ColSpan, 1)
		n.Attrs.RowSpan = max(j.RowSpan, 1)
		n.Attrs.Background = j.BackgroundColor
		n.Attrs.Header = j.HeaderState != 0
	}
	if len(j.Children) > 0 {
		if document.IsLeaf(n.Kind) {
			return nil, document.Errorf("decode-json", document.ErrMalformedDocument, "%s cannot have children", j.Type)
		}
		n.Children = make([]*document.Node, 0, len(j.Children))
		for _, c := range j.Children {
			child, err := fromJSONNode(c)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
	}
	return n, nil
}

func clampHeading(level int) int {
	return min(max(level, 1), 3)
}
