package codec

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/scribe/internal/document"
)

var (
	whitespace    = regexp.MustCompile(`[\t\n\r ]+`)
	languageClass = regexp.MustCompile(`(?:^|\s)language-([a-z0-9+#._-]+)`)
)

// FromHTML imports a legacy HTML payload. Markup the model cannot express
// is flattened to text; unsafe links and images are dropped.
func FromHTML(payload string) (*document.EditorState, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(payload), body)
	if err != nil {
		return nil, document.Wrap("decode-html", document.ErrMalformedDocument, err)
	}
	im := &htmlImporter{}
	im.blocks(nodes)
	im.flush()
	if len(im.out) == 0 {
		im.out = append(im.out, document.MustNew(document.KindParagraph, document.Attrs{}))
	}
	root, err := document.New(document.KindRoot, document.Attrs{}, im.out...)
	if err != nil {
		return nil, document.Wrap("decode-html", document.ErrMalformedDocument, err)
	}
	tree, err := document.NewTree(root)
	if err != nil {
		return nil, document.Wrap("decode-html", document.ErrMalformedDocument, err)
	}
	return document.NewState(tree), nil
}

type htmlImporter struct {
	out     []*document.Node
	pending []*document.Node // loose inline content waiting for a paragraph
	hoisted []*document.Node // blocks found inside inline content
}

type inlineCtx struct {
	format document.Format
	style  document.Style
}

func (im *htmlImporter) emit(n *document.Node) {
	if n != nil {
		im.out = append(im.out, n)
	}
}

func (im *htmlImporter) flush() {
	if len(im.pending) > 0 {
		if p, err := document.Paragraph(trimInline(im.pending)...); err == nil && p.TextContent() != "" {
			im.emit(document.MergeAdjacent(p))
		}
		im.pending = nil
	}
	for _, b := range im.hoisted {
		im.emit(b)
	}
	im.hoisted = nil
}

func (im *htmlImporter) blocks(nodes []*html.Node) {
	for _, n := range nodes {
		im.block(n)
	}
}

func childList(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func (im *htmlImporter) block(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) != "" {
			im.pending = append(im.pending, im.inline(n, inlineCtx{})...)
		}
		return
	case html.ElementNode:
	default:
		return
	}
	switch n.DataAtom {
	case atom.P:
		im.flush()
		im.pending = im.inlineChildren(n, inlineCtx{})
		im.flush()
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		im.flush()
		level, _ := strconv.Atoi(n.Data[1:])
		if h, err := document.Heading(clampHeading(level), trimInline(im.inlineChildren(n, inlineCtx{}))...); err == nil {
			im.emit(document.MergeAdjacent(h))
		}
		im.flush()
	case atom.Blockquote:
		im.flush()
		im.emit(im.quote(n))
		im.flush()
	case atom.Ul, atom.Ol:
		im.flush()
		im.emit(im.list(n))
		im.flush()
	case atom.Pre:
		im.flush()
		im.emit(codeBlock(n))
	case atom.Table:
		im.flush()
		im.emit(im.table(n))
		im.flush()
	case atom.Img:
		im.flush()
		im.emit(imageFrom(n))
	case atom.Iframe:
		im.flush()
		im.emit(videoFrom(n))
	case atom.Hr:
		im.flush()
		im.emit(document.MustNew(document.KindSeparator, document.Attrs{}))
	case atom.Div, atom.Section, atom.Article, atom.Main, atom.Figure, atom.Body, atom.Header, atom.Footer:
		im.flush()
		im.blocks(childList(n))
		im.flush()
	case atom.Script, atom.Style, atom.Head, atom.Title:
	default:
		im.pending = append(im.pending, im.inline(n, inlineCtx{})...)
	}
}

func (im *htmlImporter) inlineChildren(n *html.Node, ctx inlineCtx) []*document.Node {
	var out []*document.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, im.inline(c, ctx)...)
	}
	return out
}

// inline converts n to text runs and links. Block-only content found on the
// way (images, embeds) is hoisted to follow the enclosing block.
func (im *htmlImporter) inline(n *html.Node, ctx inlineCtx) []*document.Node {
	switch n.Type {
	case html.TextNode:
		text := whitespace.ReplaceAllString(n.Data, " ")
		if text == "" {
			return nil
		}
		return []*document.Node{document.FormattedText(text, ctx.format, ctx.style)}
	case html.ElementNode:
	default:
		return nil
	}
	switch n.DataAtom {
	case atom.Br:
		return []*document.Node{document.FormattedText("\n", ctx.format, ctx.style)}
	case atom.Strong, atom.B:
		ctx.format |= document.FormatBold
	case atom.Em, atom.I:
		ctx.format |= document.FormatItalic
	case atom.U, atom.Ins:
		ctx.format |= document.FormatUnderline
	case atom.S, atom.Strike, atom.Del:
		ctx.format |= document.FormatStrikethrough
	case atom.Code:
		ctx.format |= document.FormatCode
	case atom.Span, atom.Font, atom.Mark:
		ctx.style = mergeManagedStyle(ctx.style, attr(n, "style"))
	case atom.A:
		href := attr(n, "href")
		var texts []*document.Node
		for _, c := range im.inlineChildren(n, ctx) {
			if c.Kind == document.KindText {
				texts = append(texts, c)
			} else {
				texts = append(texts, c.Children...)
			}
		}
		if link, err := document.New(document.KindLink, document.Attrs{URL: href}, texts...); err == nil && href != "" {
			return []*document.Node{link}
		}
		return texts
	case atom.Img:
		if img := imageFrom(n); img != nil {
			im.hoisted = append(im.hoisted, img)
		}
		return nil
	case atom.Iframe:
		if v := videoFrom(n); v != nil {
			im.hoisted = append(im.hoisted, v)
		}
		return nil
	case atom.Script, atom.Style:
		return nil
	}
	return im.inlineChildren(n, ctx)
}

func (im *htmlImporter) quote(n *html.Node) *document.Node {
	var children []*document.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.P {
			if len(children) > 0 {
				children = append(children, document.Text("\n"))
			}
			children = append(children, im.inlineChildren(c, inlineCtx{})...)
			continue
		}
		children = append(children, im.inline(c, inlineCtx{})...)
	}
	q, err := document.New(document.KindQuote, document.Attrs{}, trimInline(children)...)
	if err != nil {
		return nil
	}
	return document.MergeAdjacent(q)
}

func (im *htmlImporter) list(n *html.Node) *document.Node {
	attrs := document.Attrs{ListType: document.ListBullet}
	if n.DataAtom == atom.Ol {
		attrs.ListType = document.ListNumber
		if start, err := strconv.Atoi(attr(n, "start")); err == nil && start > 0 {
			attrs.Start = start
		}
	}
	var items []*document.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Li {
			continue
		}
		var children []*document.Node
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			if cc.Type == html.ElementNode && (cc.DataAtom == atom.Ul || cc.DataAtom == atom.Ol) {
				if nested := im.list(cc); nested != nil {
					nested.Attrs.Indent = attrs.Indent + 1
					children = append(children, nested)
				}
				continue
			}
			if cc.Type == html.ElementNode && cc.DataAtom == atom.P {
				children = append(children, im.inlineChildren(cc, inlineCtx{})...)
				continue
			}
			children = append(children, im.inline(cc, inlineCtx{})...)
		}
		if item, err := document.New(document.KindListItem, document.Attrs{}, trimInline(children)...); err == nil {
			items = append(items, document.MergeAdjacent(item))
		}
	}
	if len(items) == 0 {
		return nil
	}
	list, err := document.New(document.KindList, attrs, items...)
	if err != nil {
		return nil
	}
	return list
}

func codeBlock(n *html.Node) *document.Node {
	lang := ""
	var text strings.Builder
	var walk func(*html.Node)
	walk = func(h *html.Node) {
		if h.Type == html.TextNode {
			text.WriteString(h.Data)
		}
		if h.Type == html.ElementNode {
			if h.DataAtom == atom.Br {
				text.WriteString("\n")
			}
			if lang == "" {
				if dl := attr(h, "data-language"); dl != "" {
					lang = strings.ToLower(dl)
				} else if m := languageClass.FindStringSubmatch(attr(h, "class")); m != nil {
					lang = m[1]
				}
			}
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	var children []*document.Node
	if code := strings.TrimSuffix(text.String(), "\n"); code != "" {
		children = append(children, document.Text(code))
	}
	block, err := document.New(document.KindCodeBlock, document.Attrs{Language: lang}, children...)
	if err != nil {
		block, _ = document.New(document.KindCodeBlock, document.Attrs{}, children...)
	}
	return block
}

func (im *htmlImporter) table(n *html.Node) *document.Node {
	var rows [][]*document.Node
	var collect func(*html.Node)
	collect = func(h *html.Node) {
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Thead, atom.Tbody, atom.Tfoot:
				collect(c)
			case atom.Tr:
				var cells []*document.Node
				for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
					if cc.Type == html.ElementNode && (cc.DataAtom == atom.Td || cc.DataAtom == atom.Th) {
						cells = append(cells, im.cell(cc))
					}
				}
				if len(cells) > 0 {
					rows = append(rows, cells)
				}
			}
		}
	}
	collect(n)
	if len(rows) == 0 {
		return nil
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	trs := make([]*document.Node, 0, len(rows))
	for _, cells := range rows {
		for len(cells) < width {
			pad, _ := document.Cell(false, document.MustNew(document.KindParagraph, document.Attrs{}))
			cells = append(cells, pad)
		}
		trs = append(trs, document.MustNew(document.KindTableRow, document.Attrs{}, cells...))
	}
	table, err := document.New(document.KindTable, document.Attrs{}, trs...)
	if err != nil {
		return nil
	}
	return table
}

func (im *htmlImporter) cell(h *html.Node) *document.Node {
	attrs := document.Attrs{RowSpan: 1, ColSpan: 1, Header: h.DataAtom == atom.Th}
	if v, err := strconv.Atoi(attr(h, "colspan")); err == nil && v > 0 {
		attrs.ColSpan = v
	}
	if v, err := strconv.Atoi(attr(h, "rowspan")); err == nil && v > 0 {
		attrs.RowSpan = v
	}
	if bg := document.ParseStyle(attr(h, "style"))[document.StyleBackgroundColor]; bg != "" {
		attrs.Background = bg
	}
	saved := im.hoisted
	im.hoisted = nil
	inline := trimInline(im.inlineChildren(h, inlineCtx{}))
	p, err := document.Paragraph(inline...)
	if err != nil {
		p = document.MustNew(document.KindParagraph, document.Attrs{})
	}
	children := append([]*document.Node{document.MergeAdjacent(p)}, im.hoisted...)
	im.hoisted = saved
	cell, err := document.New(document.KindTableCell, attrs, children...)
	if err != nil {
		attrs.Background = ""
		cell = document.MustNew(document.KindTableCell, attrs, children...)
	}
	return cell
}

func imageFrom(n *html.Node) *document.Node {
	attrs := document.Attrs{Src: attr(n, "src"), Alt: attr(n, "alt")}
	attrs.Width, _ = strconv.Atoi(attr(n, "width"))
	attrs.Height, _ = strconv.Atoi(attr(n, "height"))
	style := document.ParseStyle(attr(n, "style"))
	switch {
	case style["float"] == "left":
		attrs.Alignment = document.AlignLeft
	case style["float"] == "right":
		attrs.Alignment = document.AlignRight
	case strings.Contains(style["margin"], "auto"):
		attrs.Alignment = document.AlignCenter
	}
	if mw := strings.TrimSuffix(style["max-width"], "px"); mw != "" {
		attrs.MaxWidth, _ = strconv.Atoi(mw)
	}
	img, err := document.New(document.KindImage, attrs)
	if err != nil {
		return nil
	}
	return img
}

func videoFrom(n *html.Node) *document.Node {
	id := attr(n, "data-lexical-youtube")
	if id == "" {
		id = YouTubeID(attr(n, "src"))
	}
	if id == "" {
		return nil
	}
	v, err := document.New(document.KindVideoEmbed, document.Attrs{VideoID: id})
	if err != nil {
		return nil
	}
	return v
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// mergeManagedStyle layers the toolbar-managed properties of css over base.
func mergeManagedStyle(base document.Style, css string) document.Style {
	parsed := document.ParseStyle(css)
	props := make(map[string]string)
	for _, p := range document.StyleProperties {
		if v, ok := parsed[p]; ok {
			props[p] = v
		}
	}
	if len(props) == 0 {
		return base
	}
	return base.Patch(props)
}

// trimInline drops leading and trailing whitespace-only runs left over from
// markup indentation.
func trimInline(nodes []*document.Node) []*document.Node {
	for len(nodes) > 0 && isBlankRun(nodes[0]) {
		nodes = nodes[1:]
	}
	for len(nodes) > 0 && isBlankRun(nodes[len(nodes)-1]) {
		nodes = nodes[:len(nodes)-1]
	}
	return nodes
}

func isBlankRun(n *document.Node) bool {
	return n.Kind == document.KindText && strings.TrimSpace(n.Text) == ""
}
