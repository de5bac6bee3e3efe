package document

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ProviderYouTube is the only video-embed provider the renderer knows.
const ProviderYouTube = "youtube"

var (
	languagePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9+#._-]*$`)
	videoIDPattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	colorPattern    = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]+|rgba?\([0-9., %]+\))$`)
)

// safeURL admits relative references and the http, https and mailto schemes.
// Control characters and spaces are dropped before parsing, the way browsers
// do, so "java\tscript:" is still seen as a script URL.
var safeURL = validation.By(func(value any) error {
	s, _ := value.(string)
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x21 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	u, err := url.Parse(cleaned)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return nil
	}
	return fmt.Errorf("must not use the %s scheme", strings.ToLower(u.Scheme))
})

// ValidateAttrs checks the kind-specific attributes of n. Failures wrap
// ErrValidation.
func ValidateAttrs(n *Node) error {
	if n == nil {
		return newError("validate", ErrValidation, "", "nil node")
	}
	if !Known(n.Kind) {
		return newError("validate", ErrValidation, n.Key, "unknown kind %q", n.Kind)
	}
	a := &n.Attrs
	var err error
	switch n.Kind {
	case KindHeading:
		err = validation.ValidateStruct(a,
			validation.Field(&a.Level, validation.Required, validation.Min(1), validation.Max(3)),
		)
	case KindList:
		err = validation.ValidateStruct(a,
			validation.Field(&a.ListType, validation.Required, validation.In(ListBullet, ListNumber)),
			validation.Field(&a.Start, validation.Min(0)),
			validation.Field(&a.Indent, validation.Min(0)),
		)
	case KindCodeBlock:
		err = validation.ValidateStruct(a,
			validation.Field(&a.Language, validation.Match(languagePattern)),
		)
	case KindCodeHighlight:
		err = validation.ValidateStruct(a,
			validation.Field(&a.TokenType, validation.Required),
		)
	case KindLink:
		err = validation.ValidateStruct(a,
			validation.Field(&a.URL, validation.Required, safeURL),
		)
	case KindImage:
		err = validation.ValidateStruct(a,
			validation.Field(&a.Src, validation.Required, safeURL),
			validation.Field(&a.Width, validation.Min(0)),
			validation.Field(&a.Height, validation.Min(0)),
			validation.Field(&a.MaxWidth, validation.Min(0)),
			validation.Field(&a.Alignment, validation.In(AlignLeft, AlignCenter, AlignRight)),
		)
	case KindVideoEmbed:
		err = validation.ValidateStruct(a,
			validation.Field(&a.Provider, validation.Required, validation.In(ProviderYouTube)),
			validation.Field(&a.VideoID, validation.Required, validation.Match(videoIDPattern)),
		)
	case KindTableCell:
		err = validation.ValidateStruct(a,
			validation.Field(&a.RowSpan, validation.Required, validation.Min(1)),
			validation.Field(&a.ColSpan, validation.Required, validation.Min(1)),
			validation.Field(&a.Background, validation.Match(colorPattern)),
		)
	case KindText:
		if !n.Format.Valid() {
			err = fmt.Errorf("format: unknown bits in %d", n.Format)
		}
	}
	if err != nil {
		return &Error{Op: "validate", Kind: ErrValidation, Key: n.Key, Detail: string(n.Kind), Cause: err}
	}
	return nil
}

// ValidateChildren checks that every direct child of n is allowed under n's
// kind. Failures wrap ErrStructural.
func ValidateChildren(n *Node) error {
	if IsLeaf(n.Kind) && len(n.Children) > 0 {
		return newError("validate", ErrStructural, n.Key, "%s is a leaf and cannot hold children", n.Kind)
	}
	for _, c := range n.Children {
		if c == nil {
			return newError("validate", ErrStructural, n.Key, "nil child under %s", n.Kind)
		}
		if !Accepts(n.Kind, c.Kind) {
			return newError("validate", ErrStructural, c.Key, "%s is not allowed under %s", c.Kind, n.Kind)
		}
	}
	return nil
}

// Validate checks attributes and child kinds of the whole subtree at n.
func Validate(n *Node) error {
	if err := ValidateAttrs(n); err != nil {
		return err
	}
	if err := ValidateChildren(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// New builds a node of the given kind with a fresh key, validating its
// attributes and children.
func New(kind Kind, attrs Attrs, children ...*Node) (*Node, error) {
	if kind == KindVideoEmbed && attrs.Provider == "" {
		attrs.Provider = ProviderYouTube
	}
	n := &Node{Kind: kind, Key: NewKey(), Attrs: attrs}
	if len(children) > 0 {
		n.Children = append([]*Node(nil), children...)
	}
	if err := ValidateAttrs(n); err != nil {
		return nil, err
	}
	if err := ValidateChildren(n); err != nil {
		return nil, err
	}
	return n, nil
}

// MustNew is like New but panics on error. Intended for fixed shapes.
func MustNew(kind Kind, attrs Attrs, children ...*Node) *Node {
	n, err := New(kind, attrs, children...)
	if err != nil {
		panic(err)
	}
	return n
}

// Text returns an unformatted text run.
func Text(s string) *Node {
	return &Node{Kind: KindText, Key: NewKey(), Text: s}
}

// FormattedText returns a text run carrying format bits and inline style.
func FormattedText(s string, f Format, style Style) *Node {
	return &Node{Kind: KindText, Key: NewKey(), Text: s, Format: f, Style: style.Clone()}
}

// Paragraph returns a paragraph holding the given inline children.
func Paragraph(children ...*Node) (*Node, error) {
	return New(KindParagraph, Attrs{}, children...)
}

// Heading returns a heading of the given level.
func Heading(level int, children ...*Node) (*Node, error) {
	return New(KindHeading, Attrs{Level: level}, children...)
}

// Cell returns a table cell with unit spans.
func Cell(header bool, children ...*Node) (*Node, error) {
	return New(KindTableCell, Attrs{RowSpan: 1, ColSpan: 1, Header: header}, children...)
}

// NewTable builds a rows x cols table whose cells each hold one empty
// paragraph. When headerRow is set the first row is made of header cells.
func NewTable(rows, cols int, headerRow bool) (*Node, error) {
	if rows < 1 || cols < 1 {
		return nil, newError("new-table", ErrValidation, "", "table needs at least one row and one column, got %dx%d", rows, cols)
	}
	trs := make([]*Node, 0, rows)
	for r := 0; r < rows; r++ {
		cells := make([]*Node, 0, cols)
		for c := 0; c < cols; c++ {
			cell, err := Cell(headerRow && r == 0, MustNew(KindParagraph, Attrs{}))
			if err != nil {
				return nil, err
			}
			cells = append(cells, cell)
		}
		tr, err := New(KindTableRow, Attrs{}, cells...)
		if err != nil {
			return nil, err
		}
		trs = append(trs, tr)
	}
	return New(KindTable, Attrs{}, trs...)
}

// checkRectangular reports an ErrInvariant when the rows of table hold
// differing numbers of cells.
func checkRectangular(table *Node) error {
	if table == nil || table.Kind != KindTable || len(table.Children) == 0 {
		return nil
	}
	want := len(table.Children[0].Children)
	for i, row := range table.Children {
		if len(row.Children) != want {
			return newError("table", ErrInvariant, table.Key, "row %d has %d cells, want %d", i, len(row.Children), want)
		}
	}
	return nil
}
