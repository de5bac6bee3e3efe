package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/scribe/internal/document"
)

func TestDefaultRegistryNames(t *testing.T) {
	names := DefaultRegistry().Names()
	assert.Len(t, names, 31)
	for _, want := range []string{CmdFormatText, CmdInsertTable, CmdDeleteNode, CmdUndo, CmdRedo} {
		assert.Contains(t, names, want)
	}
}

func TestSetTextColorSplitsRun(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.DispatchAt(CmdSetTextColor, document.Span(f.text, 6, f.text, 11), Payload{"color": "#ff0000"}))

	p := f.s.State().Root().Children[0]
	require.Len(t, p.Children, 2)
	assert.Equal(t, "hello ", p.Children[0].Text)
	assert.Empty(t, p.Children[0].Style)
	assert.Equal(t, "world", p.Children[1].Text)
	assert.Equal(t, "#ff0000", p.Children[1].Style[document.StyleColor])
	assert.Equal(t, "#ff0000", document.GetStyleValue(f.s.State().Tree(), f.s.Selection(), document.StyleColor))
}

func TestSetStyle(t *testing.T) {
	f := newFixture(t)
	sel := document.Span(f.text, 0, f.text, 11)
	require.NoError(t, f.s.DispatchAt(CmdSetStyle, sel, Payload{"properties": map[string]any{
		"font-size":   "18px",
		"font-family": "Georgia, serif",
	}}))
	run := f.s.State().Root().Children[0].Children[0]
	assert.Equal(t, "18px", run.Style[document.StyleFontSize])
	assert.Equal(t, "Georgia, serif", run.Style[document.StyleFontFamily])

	err := f.s.Dispatch(CmdSetStyle, Payload{"properties": map[string]any{"position": "fixed"}})
	assert.ErrorIs(t, err, document.ErrValidation)

	require.NoError(t, f.s.Dispatch(CmdSetFontSize, Payload{"size": ""}))
	run = f.s.State().Root().Children[0].Children[0]
	assert.NotContains(t, run.Style, document.StyleFontSize)
}

func TestFormatListToggles(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.Dispatch(CmdFormatList, Payload{"listType": "number"}))
	list := f.s.State().Root().Children[0]
	require.Equal(t, document.KindList, list.Kind)
	assert.Equal(t, document.ListNumber, list.Attrs.ListType)
	assert.Equal(t, 1, list.Attrs.Start)
	require.Len(t, list.Children, 1)
	assert.Equal(t, "hello world", list.TextContent())

	require.NoError(t, f.s.Dispatch(CmdFormatList, Payload{"listType": "bullet"}))
	assert.Equal(t, document.ListBullet, f.s.State().Root().Children[0].Attrs.ListType)

	require.NoError(t, f.s.Dispatch(CmdFormatList, Payload{"listType": "bullet"}))
	p := f.s.State().Root().Children[0]
	assert.Equal(t, document.KindParagraph, p.Kind)
	assert.Equal(t, "hello world", p.TextContent())
}

func TestFormatQuoteAndParagraph(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.Dispatch(CmdFormatQuote, nil))
	assert.Equal(t, document.KindQuote, f.s.State().Root().Children[0].Kind)
	require.NoError(t, f.s.Dispatch(CmdFormatParagraph, nil))
	assert.Equal(t, document.KindParagraph, f.s.State().Root().Children[0].Kind)
}

func TestRetypeQuoteWithImageFails(t *testing.T) {
	text := document.Text("quoted")
	img := document.MustNew(document.KindImage, document.Attrs{Src: "https://example.com/a.png"})
	quote := document.MustNew(document.KindQuote, document.Attrs{}, text, img)
	tree, err := document.NewTree(document.MustNew(document.KindRoot, document.Attrs{}, quote))
	require.NoError(t, err)
	s := NewSession(document.NewState(tree))
	require.NoError(t, s.Select(document.Caret(text.Key, 2)))

	err = s.Dispatch(CmdFormatParagraph, nil)
	assert.ErrorIs(t, err, document.ErrNotApplicable)
	assert.Equal(t, []document.Kind{document.KindQuote}, rootKinds(s))
	got := s.State().Root().Children[0]
	require.Len(t, got.Children, 2)
	assert.Equal(t, document.KindImage, got.Children[1].Kind)
}

func TestCodeBlockCommands(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.Dispatch(CmdFormatCodeBlock, nil))
	code := f.s.State().Root().Children[0]
	require.Equal(t, document.KindCodeBlock, code.Kind)
	assert.Equal(t, "javascript", code.Attrs.Language)
	assert.Equal(t, "hello world", code.TextContent())

	require.NoError(t, f.s.Dispatch(CmdSetCodeLanguage, Payload{"language": "Python"}))
	code = f.s.State().Root().Children[0]
	assert.Equal(t, "python", code.Attrs.Language)
	assert.Equal(t, "hello world", code.TextContent())

	err := f.s.Dispatch(CmdSetCodeLanguage, Payload{"language": "not a language!"})
	assert.ErrorIs(t, err, document.ErrValidation)
	require.NoError(t, f.s.Dispatch(CmdHighlightCode, nil))
}

func TestFormatCodeBlockHighlights(t *testing.T) {
	p := document.MustNew(document.KindParagraph, document.Attrs{}, document.Text("func main() {}"))
	tree, err := document.NewTree(document.MustNew(document.KindRoot, document.Attrs{}, p))
	require.NoError(t, err)
	s := NewSession(document.NewState(tree))

	require.NoError(t, s.Dispatch(CmdFormatCodeBlock, Payload{"language": "go"}))
	code := s.State().Root().Children[0]
	assert.Equal(t, "func main() {}", code.TextContent())
	var keyword bool
	for _, c := range code.Children {
		if c.Kind == document.KindCodeHighlight && c.Text == "func" {
			keyword = c.Attrs.TokenType == "keyword"
		}
	}
	assert.True(t, keyword)

	plain := NewSession(document.NewState(tree), WithHighlight(false))
	require.NoError(t, plain.Dispatch(CmdFormatCodeBlock, Payload{"language": "go"}))
	code = plain.State().Root().Children[0]
	require.Len(t, code.Children, 1)
	assert.Equal(t, document.KindText, code.Children[0].Kind)
}

func TestInsertText(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.DispatchAt(CmdInsertText, document.Caret(f.text, 5), Payload{"text": ","}))
	assert.Equal(t, "hello, world", f.s.State().Root().Children[0].TextContent())
	assert.Equal(t, document.Caret(f.text, 6), f.s.Selection())

	require.NoError(t, f.s.DispatchAt(CmdInsertText, document.Span(f.text, 7, f.text, 12), Payload{"text": "there"}))
	assert.Equal(t, "hello, there", f.s.State().Root().Children[0].TextContent())

	require.NoError(t, f.s.DispatchAt(CmdInsertText, document.Caret(f.cells[0][0], 0), Payload{"text": "A1"}))
	cell, err := f.s.State().Tree().Resolve(f.cells[0][0])
	require.NoError(t, err)
	assert.Equal(t, "A1", cell.TextContent())

	assert.ErrorIs(t, f.s.Dispatch(CmdInsertText, nil), document.ErrValidation)
}

func TestInsertNodeKinds(t *testing.T) {
	for kind, payload := range map[document.Kind]Payload{
		document.KindParagraph:  {},
		document.KindHeading:    {"level": 2},
		document.KindQuote:      {},
		document.KindCodeBlock:  {"language": "go"},
		document.KindList:       {"listType": "number"},
		document.KindSeparator:  {},
		document.KindImage:      {"src": "/a.png"},
		document.KindVideoEmbed: {"videoId": "dQw4w9WgXcQ"},
		document.KindTable:      {"rows": 1, "columns": 1},
	} {
		t.Run(string(kind), func(t *testing.T) {
			f := newFixture(t)
			payload["kind"] = string(kind)
			require.NoError(t, f.s.Dispatch(CmdInsertNode, payload))
			root := f.s.State().Root()
			assert.Equal(t, kind, root.Children[1].Kind)
			assert.Equal(t, document.KindTable, root.Children[2].Kind)
		})
	}

	f := newFixture(t)
	err := f.s.Dispatch(CmdInsertNode, Payload{"kind": "text"})
	assert.ErrorIs(t, err, document.ErrValidation)
}

func TestImageCommands(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.Dispatch(CmdInsertImage, Payload{"src": "/cat.png", "altText": "cat"}))

	sel, ok := f.s.Selection().(*document.NodeSelection)
	require.True(t, ok)
	img, err := f.s.State().Tree().Resolve(sel.Key)
	require.NoError(t, err)
	assert.Equal(t, 500, img.Attrs.MaxWidth)
	assert.Equal(t, document.AlignCenter, img.Attrs.Alignment)

	require.NoError(t, f.s.Dispatch(CmdSetImageAlignment, Payload{"alignment": "right"}))
	require.NoError(t, f.s.Dispatch(CmdResizeImage, Payload{"width": 320.0, "height": 200.0}))
	img, err = f.s.State().Tree().Resolve(sel.Key)
	require.NoError(t, err)
	assert.Equal(t, document.AlignRight, img.Attrs.Alignment)
	assert.Equal(t, 320, img.Attrs.Width)
	assert.Equal(t, 200, img.Attrs.Height)
	assert.Equal(t, 500, img.Attrs.MaxWidth)

	assert.ErrorIs(t, f.s.Dispatch(CmdSetImageAlignment, Payload{"alignment": "middle"}), document.ErrValidation)
	assert.ErrorIs(t, f.s.Dispatch(CmdResizeImage, Payload{"width": -1}), document.ErrValidation)
	assert.ErrorIs(t, f.s.Dispatch(CmdInsertImage, Payload{"src": "javascript:x"}), document.ErrValidation)
}

func TestInsertVideo(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.Dispatch(CmdInsertVideo, Payload{"url": "https://youtu.be/dQw4w9WgXcQ"}))
	video := f.s.State().Root().Children[1]
	assert.Equal(t, document.KindVideoEmbed, video.Kind)
	assert.Equal(t, "dQw4w9WgXcQ", video.Attrs.VideoID)
	assert.Equal(t, document.Select(video.Key), f.s.Selection())
}

func TestInsertIntoEmptyParagraphReplacesIt(t *testing.T) {
	s := NewSession(document.EmptyState())
	require.NoError(t, s.Dispatch(CmdInsertSeparator, nil))
	assert.Equal(t, []document.Kind{document.KindSeparator, document.KindParagraph}, rootKinds(s))
}

func TestTableCommands(t *testing.T) {
	f := newFixture(t)
	shape := func() []int {
		table, err := f.s.State().Tree().Resolve(f.table)
		require.NoError(t, err)
		var out []int
		for _, row := range table.Children {
			out = append(out, len(row.Children))
		}
		return out
	}

	require.NoError(t, f.s.DispatchAt(CmdInsertTableRow, document.Caret(f.cells[0][0], 0), nil))
	assert.Equal(t, []int{2, 2, 2}, shape())

	require.NoError(t, f.s.Dispatch(CmdInsertTableColumn, Payload{"after": false}))
	assert.Equal(t, []int{3, 3, 3}, shape())

	require.NoError(t, f.s.DispatchAt(CmdSetCellBackground, document.Span(f.cells[0][0], 0, f.cells[1][1], 0), Payload{"color": "#BFDBFE"}))
	table, err := f.s.State().Tree().Resolve(f.table)
	require.NoError(t, err)
	var colored int
	for _, row := range table.Children {
		for _, cell := range row.Children {
			if cell.Attrs.Background == "#BFDBFE" {
				colored++
			}
		}
	}
	assert.Equal(t, 4, colored)

	require.NoError(t, f.s.DispatchAt(CmdRemoveTableColumn, document.Caret(f.cells[0][0], 0), nil))
	assert.Equal(t, []int{2, 2, 2}, shape())
	require.NoError(t, f.s.Dispatch(CmdRemoveTableRow, nil))
	assert.Equal(t, []int{2, 2}, shape())
	require.NoError(t, f.s.Dispatch(CmdRemoveTableRow, nil))
	assert.Equal(t, []int{2}, shape())

	err = f.s.Dispatch(CmdRemoveTableRow, nil)
	assert.ErrorIs(t, err, document.ErrNotApplicable)
}

func TestToggleLink(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.DispatchAt(CmdToggleLink, document.Span(f.text, 0, f.text, 5), Payload{"url": "https://example.com"}))
	p := f.s.State().Root().Children[0]
	require.Len(t, p.Children, 2)
	link := p.Children[0]
	assert.Equal(t, document.KindLink, link.Kind)
	assert.Equal(t, "hello", link.TextContent())
	assert.Equal(t, " world", p.Children[1].Text)

	require.NoError(t, f.s.Dispatch(CmdToggleLink, Payload{"url": "https://example.org"}))
	assert.Equal(t, "https://example.org", f.s.State().Root().Children[0].Children[0].Attrs.URL)

	require.NoError(t, f.s.Dispatch(CmdToggleLink, Payload{"url": ""}))
	p = f.s.State().Root().Children[0]
	for _, c := range p.Children {
		assert.Equal(t, document.KindText, c.Kind)
	}
	assert.Equal(t, "hello world", p.TextContent())

	err := f.s.DispatchAt(CmdToggleLink, document.Caret(f.text, 1), Payload{"url": "https://example.com"})
	assert.ErrorIs(t, err, document.ErrNotApplicable)
}

func TestDeleteNode(t *testing.T) {
	s := NewSession(document.EmptyState())
	require.NoError(t, s.Dispatch(CmdDeleteNode, nil))
	assert.Equal(t, []document.Kind{document.KindParagraph}, rootKinds(s))

	f := newFixture(t)
	require.NoError(t, f.s.DispatchAt(CmdDeleteNode, document.Select(f.table), nil))
	assert.Equal(t, []document.Kind{document.KindParagraph}, rootKinds(f.s))
}

func TestPayload(t *testing.T) {
	p := Payload{"n": 2.0, "frac": 2.5, "s": "7", "bad": "x", "b": "true", "m": map[string]any{"color": "red", "k": 1}}

	n, err := p.Int("n", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = p.Int("s", 0)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	n, err = p.Int("missing", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	_, err = p.Int("frac", 0)
	assert.ErrorIs(t, err, document.ErrValidation)
	_, err = p.Int("bad", 0)
	assert.ErrorIs(t, err, document.ErrValidation)

	assert.True(t, p.Bool("b", false))
	assert.True(t, p.Bool("missing", true))

	_, err = p.StringMap("m")
	assert.ErrorIs(t, err, document.ErrValidation)
	_, err = p.StringMap("missing")
	assert.ErrorIs(t, err, document.ErrValidation)
}
