package codec

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/scribe/internal/document"
)

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// FromMarkdown imports Markdown (CommonMark plus GFM tables and
// strikethrough). Imported images default to left alignment with a 400px
// maximum width, as the authoring shortcuts produce them.
func FromMarkdown(src string) (*document.EditorState, error) {
	source := []byte(src)
	doc := markdownParser.Parse(text.NewReader(source))
	im := &mdImporter{source: source}
	blocks := im.blocks(doc)
	if len(blocks) == 0 {
		blocks = append(blocks, document.MustNew(document.KindParagraph, document.Attrs{}))
	}
	root, err := document.New(document.KindRoot, document.Attrs{}, blocks...)
	if err != nil {
		return nil, document.Wrap("decode-markdown", document.ErrMalformedDocument, err)
	}
	tree, err := document.NewTree(root)
	if err != nil {
		return nil, document.Wrap("decode-markdown", document.ErrMalformedDocument, err)
	}
	return document.NewState(tree), nil
}

type mdImporter struct {
	source  []byte
	hoisted []*document.Node
}

type mdInline struct {
	format document.Format
}

func (im *mdImporter) blocks(parent ast.Node) []*document.Node {
	var out []*document.Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, im.block(c)...)
	}
	return out
}

func (im *mdImporter) block(n ast.Node) []*document.Node {
	var out []*document.Node
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if b := im.special(n); b != nil {
			return []*document.Node{b}
		}
		if p, err := document.Paragraph(im.inlines(n, mdInline{})...); err == nil && len(p.Children) > 0 {
			out = append(out, document.MergeAdjacent(p))
		}
	case *ast.Heading:
		if h, err := document.Heading(clampHeading(n.Level), im.inlines(n, mdInline{})...); err == nil {
			out = append(out, document.MergeAdjacent(h))
		}
	case *ast.Blockquote:
		var children []*document.Node
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if len(children) > 0 {
				children = append(children, document.Text("\n"))
			}
			children = append(children, im.inlines(c, mdInline{})...)
		}
		if q, err := document.New(document.KindQuote, document.Attrs{}, children...); err == nil {
			out = append(out, document.MergeAdjacent(q))
		}
	case *ast.List:
		if l := im.list(n, 0); l != nil {
			out = append(out, l)
		}
	case *ast.FencedCodeBlock:
		out = append(out, im.code(string(n.Language(im.source)), n.Lines()))
	case *ast.CodeBlock:
		out = append(out, im.code("", n.Lines()))
	case *ast.ThematicBreak:
		out = append(out, document.MustNew(document.KindSeparator, document.Attrs{}))
	case *east.Table:
		if t := im.table(n); t != nil {
			out = append(out, t)
		}
	case *ast.HTMLBlock:
		var raw strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			raw.Write(seg.Value(im.source))
		}
		if st, err := FromHTML(raw.String()); err == nil {
			for _, b := range st.Root().Children {
				if b.Kind == document.KindParagraph && len(b.Children) == 0 {
					continue
				}
				out = append(out, b.DeepClone(true))
			}
		}
	default:
		out = append(out, im.blocks(n)...)
	}
	out = append(out, im.hoisted...)
	im.hoisted = nil
	return out
}

// special recognises paragraphs that stand for a block decorator: a lone
// image, or a lone link to a YouTube video.
func (im *mdImporter) special(n ast.Node) *document.Node {
	only := n.FirstChild()
	if only == nil || only.NextSibling() != nil {
		return nil
	}
	switch c := only.(type) {
	case *ast.Image:
		return im.image(c)
	case *ast.Link:
		if id := YouTubeID(string(c.Destination)); id != "" && strings.Contains(string(c.Destination), "youtu") {
			v, err := document.New(document.KindVideoEmbed, document.Attrs{VideoID: id})
			if err == nil {
				return v
			}
		}
	}
	return nil
}

func (im *mdImporter) image(n *ast.Image) *document.Node {
	alt := string(plainText(n, im.source))
	img, err := document.New(document.KindImage, document.Attrs{
		Src:       string(n.Destination),
		Alt:       alt,
		MaxWidth:  400,
		Alignment: document.AlignLeft,
	})
	if err != nil {
		return nil
	}
	return img
}

func (im *mdImporter) list(n *ast.List, depth int) *document.Node {
	attrs := document.Attrs{ListType: document.ListBullet, Indent: depth}
	if n.IsOrdered() {
		attrs.ListType = document.ListNumber
		attrs.Start = n.Start
	}
	var items []*document.Node
	for li := n.FirstChild(); li != nil; li = li.NextSibling() {
		var children []*document.Node
		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				if nested := im.list(sub, depth+1); nested != nil {
					children = append(children, nested)
				}
				continue
			}
			if len(children) > 0 && children[len(children)-1].Kind != document.KindList {
				children = append(children, document.Text("\n"))
			}
			children = append(children, im.inlines(c, mdInline{})...)
		}
		if item, err := document.New(document.KindListItem, document.Attrs{}, children...); err == nil {
			items = append(items, document.MergeAdjacent(item))
		}
	}
	list, err := document.New(document.KindList, attrs, items...)
	if err != nil {
		return nil
	}
	return list
}

func (im *mdImporter) code(lang string, lines *text.Segments) *document.Node {
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(im.source))
	}
	var children []*document.Node
	if code := strings.TrimSuffix(buf.String(), "\n"); code != "" {
		children = append(children, document.Text(code))
	}
	block, err := document.New(document.KindCodeBlock, document.Attrs{Language: strings.ToLower(lang)}, children...)
	if err != nil {
		block = document.MustNew(document.KindCodeBlock, document.Attrs{}, children...)
	}
	return block
}

func (im *mdImporter) table(n *east.Table) *document.Node {
	var rows []*document.Node
	for r := n.FirstChild(); r != nil; r = r.NextSibling() {
		_, header := r.(*east.TableHeader)
		var cells []*document.Node
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			p, err := document.Paragraph(im.inlines(c, mdInline{})...)
			if err != nil {
				p = document.MustNew(document.KindParagraph, document.Attrs{})
			}
			cell, err := document.Cell(header, document.MergeAdjacent(p))
			if err != nil {
				return nil
			}
			cells = append(cells, cell)
		}
		row, err := document.New(document.KindTableRow, document.Attrs{}, cells...)
		if err != nil {
			return nil
		}
		rows = append(rows, row)
	}
	table, err := document.New(document.KindTable, document.Attrs{}, rows...)
	if err != nil {
		return nil
	}
	return table
}

// inlines converts the inline children of n into text runs and links.
func (im *mdImporter) inlines(n ast.Node, ctx mdInline) []*document.Node {
	var out []*document.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, im.inline(c, &ctx)...)
	}
	return out
}

func (im *mdImporter) inline(n ast.Node, ctx *mdInline) []*document.Node {
	switch n := n.(type) {
	case *ast.Text:
		s := string(literal(n.Segment.Value(im.source)))
		switch {
		case n.HardLineBreak():
			s += "\n"
		case n.SoftLineBreak():
			s += " "
		}
		if s == "" {
			return nil
		}
		return []*document.Node{document.FormattedText(s, ctx.format, nil)}
	case *ast.String:
		return []*document.Node{document.FormattedText(string(n.Value), ctx.format, nil)}
	case *ast.CodeSpan:
		return []*document.Node{document.FormattedText(string(plainText(n, im.source)), ctx.format|document.FormatCode, nil)}
	case *ast.Emphasis:
		inner := *ctx
		if n.Level >= 2 {
			inner.format |= document.FormatBold
		} else {
			inner.format |= document.FormatItalic
		}
		return im.inlines(n, inner)
	case *east.Strikethrough:
		inner := *ctx
		inner.format |= document.FormatStrikethrough
		return im.inlines(n, inner)
	case *ast.Link:
		return im.link(string(n.Destination), im.inlines(n, *ctx))
	case *ast.AutoLink:
		url := string(n.URL(im.source))
		return im.link(url, []*document.Node{document.FormattedText(string(n.Label(im.source)), ctx.format, nil)})
	case *ast.Image:
		if img := im.image(n); img != nil {
			im.hoisted = append(im.hoisted, img)
		}
		return nil
	case *ast.RawHTML:
		var raw strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			raw.Write(seg.Value(im.source))
		}
		switch strings.ToLower(strings.ReplaceAll(raw.String(), " ", "")) {
		case "<u>":
			ctx.format |= document.FormatUnderline
		case "</u>":
			ctx.format &^= document.FormatUnderline
		case "<br>", "<br/>":
			return []*document.Node{document.FormattedText("\n", ctx.format, nil)}
		}
		return nil
	}
	return im.inlines(n, *ctx)
}

func (im *mdImporter) link(url string, children []*document.Node) []*document.Node {
	var texts []*document.Node
	for _, c := range children {
		if c.Kind == document.KindText {
			texts = append(texts, c)
		} else {
			texts = append(texts, c.Children...)
		}
	}
	if l, err := document.New(document.KindLink, document.Attrs{URL: url}, texts...); err == nil {
		return []*document.Node{l}
	}
	return texts
}

// plainText concatenates the literal text below n.
func plainText(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(literal(t.Segment.Value(source)))
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.Write(plainText(c, source))
		}
	}
	return buf.Bytes()
}

// literal resolves backslash escapes and character references.
func literal(v []byte) []byte {
	v = util.UnescapePunctuations(v)
	v = util.ResolveNumericReferences(v)
	return util.ResolveEntityNames(v)
}
