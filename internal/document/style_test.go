package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchStyleSplitsAtBoundary(t *testing.T) {
	run := FormattedText("hello world", 0, Style{StyleColor: "red"})
	p := para(t, run)
	tr := treeOf(t, p)

	next, sel, err := PatchStyle(tr, Span(run.Key, 6, run.Key, 11), map[string]string{StyleColor: "blue"})
	require.NoError(t, err)

	got, _ := next.Resolve(p.Key)
	require.Len(t, got.Children, 2)
	assert.Equal(t, "hello ", got.Children[0].Text)
	assert.Equal(t, "red", got.Children[0].Style[StyleColor])
	assert.Equal(t, run.Key, got.Children[0].Key)
	assert.Equal(t, "world", got.Children[1].Text)
	assert.Equal(t, "blue", got.Children[1].Style[StyleColor])
	assert.Equal(t, "hello world", got.TextContent())

	rs := sel.(*RangeSelection)
	assert.Equal(t, Point{Key: got.Children[1].Key, Offset: 0}, rs.Anchor)
	assert.Equal(t, Point{Key: got.Children[1].Key, Offset: 5}, rs.Focus)

	// The original tree still holds one run.
	orig, _ := tr.Resolve(p.Key)
	assert.Len(t, orig.Children, 1)
}

func TestPatchStyleMiddleAndRemoval(t *testing.T) {
	run := FormattedText("abcdef", FormatBold, Style{StyleFontSize: "15px"})
	p := para(t, run)
	tr := treeOf(t, p)

	next, _, err := PatchStyle(tr, Span(run.Key, 2, run.Key, 4), map[string]string{StyleFontSize: ""})
	require.NoError(t, err)
	got, _ := next.Resolve(p.Key)
	require.Len(t, got.Children, 3)
	assert.Equal(t, []string{"ab", "cd", "ef"}, []string{got.Children[0].Text, got.Children[1].Text, got.Children[2].Text})
	assert.Empty(t, got.Children[1].Style)
	assert.True(t, got.Children[1].Format.Has(FormatBold))
}

func TestPatchStyleMergesEqualNeighbours(t *testing.T) {
	a := FormattedText("red ", 0, Style{StyleColor: "red"})
	b := Text("plain")
	p := para(t, a, b)
	tr := treeOf(t, p)

	next, sel, err := PatchStyle(tr, Span(b.Key, 0, b.Key, 5), map[string]string{StyleColor: "red"})
	require.NoError(t, err)
	got, _ := next.Resolve(p.Key)
	require.Len(t, got.Children, 1)
	assert.Equal(t, "red plain", got.Children[0].Text)

	rs := sel.(*RangeSelection)
	assert.Equal(t, Point{Key: a.Key, Offset: 4}, rs.Anchor)
	assert.Equal(t, Point{Key: a.Key, Offset: 9}, rs.Focus)
}

func TestPatchStyleAcrossBlocksBackwards(t *testing.T) {
	a, b := Text("first"), Text("second")
	pa, pb := para(t, a), para(t, b)
	tr := treeOf(t, pa, pb)

	next, sel, err := PatchStyle(tr, Span(b.Key, 3, a.Key, 2), map[string]string{StyleBackgroundColor: "#BFDBFE"})
	require.NoError(t, err)
	ga, _ := next.Resolve(pa.Key)
	gb, _ := next.Resolve(pb.Key)
	require.Len(t, ga.Children, 2)
	require.Len(t, gb.Children, 2)
	assert.Equal(t, "rst", ga.Children[1].Text)
	assert.Equal(t, "sec", gb.Children[0].Text)
	assert.Equal(t, "#BFDBFE", gb.Children[0].Style[StyleBackgroundColor])

	rs := sel.(*RangeSelection)
	assert.Equal(t, gb.Children[0].Key, rs.Anchor.Key, "backward selection keeps its direction")
	assert.Equal(t, ga.Children[1].Key, rs.Focus.Key)
}

func TestPatchStyleCollapsedIsNoop(t *testing.T) {
	run := Text("abc")
	tr := treeOf(t, para(t, run))
	next, _, err := PatchStyle(tr, Caret(run.Key, 1), map[string]string{StyleColor: "red"})
	require.NoError(t, err)
	assert.Same(t, tr, next)
}

func TestPatchStyleStaleSelection(t *testing.T) {
	tr := treeOf(t, para(t, Text("abc")))
	_, _, err := PatchStyle(tr, Span("gone", 0, "gone", 1), map[string]string{StyleColor: "red"})
	assert.ErrorIs(t, err, ErrStaleSelection)
}

func TestToggleFormat(t *testing.T) {
	a := FormattedText("bold", FormatBold, nil)
	b := Text("plain")
	p := para(t, a, b)
	tr := treeOf(t, p)
	sel := Span(a.Key, 0, b.Key, 5)

	next, sel2, err := ToggleFormat(tr, sel, FormatBold)
	require.NoError(t, err)
	got, _ := next.Resolve(p.Key)
	require.Len(t, got.Children, 1, "both runs become bold and merge")
	assert.True(t, got.Children[0].Format.Has(FormatBold))

	next, _, err = ToggleFormat(next, sel2, FormatBold)
	require.NoError(t, err)
	got, _ = next.Resolve(p.Key)
	assert.False(t, got.Children[0].Format.Has(FormatBold))
}

func TestClearFormattingConvertsHeading(t *testing.T) {
	run := FormattedText("Title", FormatItalic|FormatUnderline, Style{StyleColor: "red", StyleFontFamily: "Georgia"})
	h, err := Heading(2, run)
	require.NoError(t, err)
	tr := treeOf(t, h)
	sel := Span(run.Key, 0, run.Key, 5)

	once, sel1, err := ClearFormatting(tr, sel)
	require.NoError(t, err)
	block := once.Root().Children[0]
	assert.Equal(t, KindParagraph, block.Kind)
	assert.Zero(t, block.Attrs)
	assert.Zero(t, block.Children[0].Format)
	assert.Empty(t, block.Children[0].Style)

	twice, _, err := ClearFormatting(once, sel1)
	require.NoError(t, err)
	assert.True(t, Equal(once.Root(), twice.Root()))
}

func TestClearFormattingOnEmptyHeading(t *testing.T) {
	h, err := Heading(2)
	require.NoError(t, err)
	tr := treeOf(t, h)

	next, _, err := ClearFormatting(tr, Caret(h.Key, 0))
	require.NoError(t, err)
	require.Len(t, next.Root().Children, 1)
	assert.Equal(t, KindParagraph, next.Root().Children[0].Kind)
	assert.Equal(t, h.Key, next.Root().Children[0].Key)
}

func TestGetStyleValue(t *testing.T) {
	a := FormattedText("a", 0, Style{StyleColor: "red"})
	b := FormattedText("b", 0, Style{StyleColor: "red"})
	c := FormattedText("c", 0, Style{StyleColor: "blue", StyleFontSize: "15px"})
	tr := treeOf(t, para(t, a, b, c))

	assert.Equal(t, "red", GetStyleValue(tr, Span(a.Key, 0, b.Key, 1), StyleColor))
	assert.Equal(t, "", GetStyleValue(tr, Span(a.Key, 0, c.Key, 1), StyleColor))
	assert.Equal(t, "15px", GetStyleValue(tr, Caret(c.Key, 0), StyleFontSize))
	assert.Equal(t, "", GetStyleValue(tr, Caret("stale", 0), StyleColor))

	first, uniform, err := StyleValue(tr, Span(a.Key, 0, c.Key, 1), StyleColor)
	require.NoError(t, err)
	assert.Equal(t, "red", first)
	assert.False(t, uniform)
}

func TestParseStyleRoundTrip(t *testing.T) {
	s := ParseStyle("color: #F97316; background-color:#BFDBFE;; bogus")
	assert.Equal(t, Style{StyleColor: "#F97316", StyleBackgroundColor: "#BFDBFE"}, s)
	assert.Equal(t, "background-color: #BFDBFE; color: #F97316;", s.String())
	assert.Nil(t, ParseStyle("  "))
}
