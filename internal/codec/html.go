package codec

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/starford/scribe/internal/document"
	"github.com/starford/scribe/internal/highlight"
)

// YouTubeEmbedURL is the privacy-enhanced player address for a video id.
func YouTubeEmbedURL(id string) string {
	return "https://www.youtube-nocookie.com/embed/" + id
}

// HTMLOptions controls post-processing of rendered HTML.
type HTMLOptions struct {
	// Sanitize passes the output through the user-content policy.
	Sanitize bool
	// Minify strips insignificant whitespace and attribute quotes.
	Minify bool
}

// ToHTML renders s as read-only HTML. It is a pure function of the state.
func ToHTML(s *document.EditorState) string {
	return RenderHTML(s.Root())
}

// ToHTMLWithOptions renders s and applies the requested post-processing.
func ToHTMLWithOptions(s *document.EditorState, opts HTMLOptions) (string, error) {
	out := ToHTML(s)
	if opts.Sanitize {
		out = Sanitize(out)
	}
	if opts.Minify {
		m, err := Minify(out)
		if err != nil {
			return "", fmt.Errorf("minify html: %w", err)
		}
		out = m
	}
	return out, nil
}

// RenderHTML renders any subtree.
func RenderHTML(n *document.Node) string {
	var w htmlWriter
	w.node(n, false)
	return w.b.String()
}

type htmlWriter struct {
	b strings.Builder
}

func (w *htmlWriter) s(parts ...string) {
	for _, p := range parts {
		w.b.WriteString(p)
	}
}

func (w *htmlWriter) children(n *document.Node, inCode bool) {
	for _, c := range n.Children {
		w.node(c, inCode)
	}
}

func (w *htmlWriter) node(n *document.Node, inCode bool) {
	a := n.Attrs
	switch n.Kind {
	case document.KindRoot:
		w.children(n, false)
	case document.KindParagraph:
		w.s("<p>")
		if n.TextContent() == "" {
			w.s("<br>")
		} else {
			w.children(n, false)
		}
		w.s("</p>")
	case document.KindHeading:
		tag := "h" + strconv.Itoa(a.Level)
		w.s("<", tag, ">")
		w.children(n, false)
		w.s("</", tag, ">")
	case document.KindQuote:
		w.s("<blockquote>")
		w.children(n, false)
		w.s("</blockquote>")
	case document.KindList:
		if a.ListType == document.ListNumber {
			if a.Start > 1 {
				w.s(`<ol start="`, strconv.Itoa(a.Start), `">`)
			} else {
				w.s("<ol>")
			}
			w.children(n, false)
			w.s("</ol>")
			return
		}
		w.s("<ul>")
		w.children(n, false)
		w.s("</ul>")
	case document.KindListItem:
		w.s("<li>")
		w.children(n, false)
		w.s("</li>")
	case document.KindCodeBlock:
		lang := a.Language
		if lang == "" {
			lang = highlight.DefaultLanguage
		}
		esc := html.EscapeString(lang)
		w.s(`<pre><code class="language-`, esc, `" data-language="`, esc, `">`)
		w.children(n, true)
		w.s("</code></pre>")
	case document.KindCodeHighlight:
		w.s(`<span class="token `, html.EscapeString(a.TokenType), `">`, html.EscapeString(n.Text), "</span>")
	case document.KindText:
		w.text(n, inCode)
	case document.KindLink:
		w.s(`<a href="`, html.EscapeString(a.URL), `" rel="noopener noreferrer">`)
		w.children(n, false)
		w.s("</a>")
	case document.KindImage:
		w.image(a)
	case document.KindVideoEmbed:
		id := html.EscapeString(a.VideoID)
		w.s(`<div class="video-embed"><iframe width="560" height="315" src="`, YouTubeEmbedURL(id),
			`" frameborder="0" allowfullscreen data-lexical-youtube="`, id, `"></iframe></div>`)
	case document.KindTable:
		w.s("<table><tbody>")
		w.children(n, false)
		w.s("</tbody></table>")
	case document.KindTableRow:
		w.s("<tr>")
		w.children(n, false)
		w.s("</tr>")
	case document.KindTableCell:
		w.cell(n)
	case document.KindSeparator:
		w.s("<hr>")
	}
}

func (w *htmlWriter) text(n *document.Node, inCode bool) {
	body := html.EscapeString(n.Text)
	if inCode {
		w.s(body)
		return
	}
	body = strings.ReplaceAll(body, "\n", "<br>")
	type tag struct {
		f    document.Format
		name string
	}
	var open, close []string
	for _, t := range []tag{
		{document.FormatBold, "strong"},
		{document.FormatItalic, "em"},
		{document.FormatUnderline, "u"},
		{document.FormatStrikethrough, "s"},
		{document.FormatCode, "code"},
	} {
		if n.Format.Has(t.f) {
			open = append(open, "<"+t.name+">")
			close = append([]string{"</" + t.name + ">"}, close...)
		}
	}
	if css := n.Style.String(); css != "" {
		open = append([]string{`<span style="` + html.EscapeString(css) + `">`}, open...)
		close = append(close, "</span>")
	}
	w.s(open...)
	w.s(body)
	w.s(close...)
}

func (w *htmlWriter) image(a document.Attrs) {
	w.s(`<img src="`, html.EscapeString(a.Src), `" alt="`, html.EscapeString(a.Alt), `"`)
	if a.Width > 0 {
		w.s(` width="`, strconv.Itoa(a.Width), `"`)
	}
	if a.Height > 0 {
		w.s(` height="`, strconv.Itoa(a.Height), `"`)
	}
	if style := imageStyle(a); style != "" {
		w.s(` style="`, style, `"`)
	}
	w.s(">")
}

// imageStyle expresses alignment and maximum width as layout style.
func imageStyle(a document.Attrs) string {
	var parts []string
	if a.MaxWidth > 0 {
		parts = append(parts, fmt.Sprintf("max-width: %dpx;", a.MaxWidth))
	}
	switch a.Alignment {
	case document.AlignCenter:
		parts = append(parts, "display: block;", "margin: 0 auto;")
	case document.AlignLeft:
		parts = append(parts, "float: left;", "margin: 0 1em 1em 0;")
	case document.AlignRight:
		parts = append(parts, "float: right;", "margin: 0 0 1em 1em;")
	}
	return strings.Join(parts, " ")
}

func (w *htmlWriter) cell(n *document.Node) {
	a := n.Attrs
	tag := "td"
	if a.Header {
		tag = "th"
	}
	w.s("<", tag)
	if a.ColSpan > 1 {
		w.s(` colspan="`, strconv.Itoa(a.ColSpan), `"`)
	}
	if a.RowSpan > 1 {
		w.s(` rowspan="`, strconv.Itoa(a.RowSpan), `"`)
	}
	if a.Background != "" {
		w.s(` style="background-color: `, html.EscapeString(a.Background), `;"`)
	}
	w.s(">")
	w.children(n, false)
	w.s("</", tag, ">")
}
