package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/scribe/internal/document"
)

func TestToHTMLLowering(t *testing.T) {
	out := ToHTML(sampleState(t))

	for _, want := range []string{
		"<h2>Release notes</h2>",
		`<p>Plain, <span style="color: #F97316;"><strong>bold red</strong></span> and <a href="https://example.com" rel="noopener noreferrer">a link</a></p>`,
		"<blockquote><em>quoted</em></blockquote>",
		`<ol start="3"><li>third<ul><li>nested</li></ul></li><li>fourth</li></ol>`,
		`<pre><code class="language-go" data-language="go"><span class="token keyword">func</span> main() {}</code></pre>`,
		`<img src="/img/cat.png" alt="cat" width="320" height="200" style="max-width: 500px; display: block; margin: 0 auto;">`,
		`<iframe width="560" height="315" src="https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ"`,
		"<table><tbody><tr><th><p>Name</p></th><th><p>Qty</p></th></tr>",
		`<td style="background-color: #BFDBFE;"><p>apples</p></td>`,
		"<hr>",
	} {
		assert.Contains(t, out, want)
	}
}

func TestToHTMLEscapesAndBreaks(t *testing.T) {
	p := document.MustNew(document.KindParagraph, document.Attrs{},
		document.Text("a < b\nc"),
		document.FormattedText("x", document.FormatUnderline|document.FormatStrikethrough|document.FormatCode, nil),
	)
	tree, err := document.NewTree(document.MustNew(document.KindRoot, document.Attrs{}, p, document.MustNew(document.KindParagraph, document.Attrs{})))
	require.NoError(t, err)

	out := ToHTML(document.NewState(tree))
	assert.Equal(t, "<p>a &lt; b<br>c<u><s><code>x</code></s></u></p><p><br></p>", out)
}

func TestToHTMLIsPure(t *testing.T) {
	st := sampleState(t)
	before, err := ToJSON(st)
	require.NoError(t, err)
	assert.Equal(t, ToHTML(st), ToHTML(st))
	after, err := ToJSON(st)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestToHTMLWithOptions(t *testing.T) {
	st := sampleState(t)

	sanitized, err := ToHTMLWithOptions(st, HTMLOptions{Sanitize: true})
	require.NoError(t, err)
	assert.Contains(t, sanitized, "<h2>Release notes</h2>")
	assert.Contains(t, sanitized, "youtube-nocookie.com/embed/dQw4w9WgXcQ")
	assert.Contains(t, sanitized, `class="token keyword"`)

	minified, err := ToHTMLWithOptions(st, HTMLOptions{Minify: true})
	require.NoError(t, err)
	assert.Contains(t, minified, "Release notes")
	assert.LessOrEqual(t, len(minified), len(ToHTML(st)))
}

func TestSanitizeDropsScripts(t *testing.T) {
	out := Sanitize(`<p onclick="x()">hi<script>alert(1)</script></p><iframe src="https://evil.example/embed/x"></iframe>`)
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "evil.example")
	assert.Contains(t, out, "hi")
}

func TestFromHTML(t *testing.T) {
	st, err := FromHTML(`
		<h2>Title</h2>
		<p>Some <strong>bold</strong> and <span style="color: red; position: fixed">red</span> text<br>next
		   <a href="https://example.com">link</a> <a href="javascript:void(0)">bad</a></p>
		<ul><li>one<ul><li>deep</li></ul></li><li>two</li></ul>
		<pre><code class="language-python">print("hi")</code></pre>
		<p><img src="/a.png" alt="A" style="float: right"></p>
		<iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe>
		<table><tr><th>h1</th><th>h2</th></tr><tr><td style="background-color: #fff">c1</td></tr></table>
		<hr>`)
	require.NoError(t, err)

	blocks := st.Root().Children
	kinds := make([]document.Kind, 0, len(blocks))
	for _, b := range blocks {
		kinds = append(kinds, b.Kind)
	}
	assert.Equal(t, []document.Kind{
		document.KindHeading, document.KindParagraph, document.KindList, document.KindCodeBlock,
		document.KindImage, document.KindVideoEmbed, document.KindTable, document.KindSeparator,
	}, kinds)

	p := blocks[1]
	var bold, red, link bool
	for _, c := range p.Children {
		switch {
		case c.Kind == document.KindText && c.Text == "bold":
			bold = c.Format.Has(document.FormatBold)
		case c.Kind == document.KindText && c.Text == "red":
			red = c.Style[document.StyleColor] == "red" && c.Style["position"] == ""
		case c.Kind == document.KindLink:
			link = c.Attrs.URL == "https://example.com"
		}
	}
	assert.True(t, bold)
	assert.True(t, red)
	assert.True(t, link)
	assert.Contains(t, p.TextContent(), "bad")

	assert.Equal(t, "python", blocks[3].Attrs.Language)
	assert.Equal(t, `print("hi")`, blocks[3].TextContent())
	assert.Equal(t, document.AlignRight, blocks[4].Attrs.Alignment)
	assert.Equal(t, "dQw4w9WgXcQ", blocks[5].Attrs.VideoID)

	table := blocks[6]
	require.Len(t, table.Children, 2)
	assert.Len(t, table.Children[1].Children, 2, "short rows are padded")
	assert.True(t, table.Children[0].Children[0].Attrs.Header)
	assert.Equal(t, "#fff", table.Children[1].Children[0].Attrs.Background)
}

func TestHTMLRoundTripKeepsStructure(t *testing.T) {
	st := sampleState(t)
	back, err := FromHTML(ToHTML(st))
	require.NoError(t, err)
	require.Len(t, back.Root().Children, len(st.Root().Children))
	for i, b := range back.Root().Children {
		assert.Equal(t, st.Root().Children[i].Kind, b.Kind, "block %d", i)
	}
	assert.Equal(t, PlainTextOf(st), PlainTextOf(back))
}
