package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSelection(t *testing.T) {
	run := Text("abc")
	p := para(t, run)
	img := MustNew(KindImage, Attrs{Src: "/a.png"})
	tr := treeOf(t, p, img)

	tests := []struct {
		name string
		sel  Selection
		want error
	}{
		{"caret", Caret(run.Key, 3), nil},
		{"element point", Caret(p.Key, 1), nil},
		{"node", Select(img.Key), nil},
		{"offset too far", Caret(run.Key, 4), ErrStaleSelection},
		{"missing key", Caret("x", 0), ErrStaleSelection},
		{"inside image", Caret(img.Key, 0), ErrStaleSelection},
		{"root node selection", Select(tr.Root().Key), ErrStaleSelection},
		{"nil", nil, ErrNotApplicable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSelection(tr, tt.sel)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInitialSelection(t *testing.T) {
	tr := EmptyTree()
	sel := InitialSelection(tr)
	require.IsType(t, &RangeSelection{}, sel)
	assert.Equal(t, tr.Root().Children[0].Key, sel.(*RangeSelection).Anchor.Key)

	run := Text("x")
	tr = treeOf(t, para(t, run))
	assert.Equal(t, Caret(run.Key, 0), InitialSelection(tr))
}

func TestSelectedRunsElementPoints(t *testing.T) {
	a, b := Text("ab"), Text("cd")
	p := para(t, a, b)
	tr := treeOf(t, p)

	runs, err := SelectedRuns(tr, Span(p.Key, 0, p.Key, 2))
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].Full())
	assert.True(t, runs[1].Full())

	start, end, backward := Ordered(tr, Span(b.Key, 1, a.Key, 1))
	assert.True(t, backward)
	assert.Equal(t, Point{Key: a.Key, Offset: 1}, start)
	assert.Equal(t, Point{Key: b.Key, Offset: 1}, end)
}

func TestSelectedBlocks(t *testing.T) {
	a, b, c := Text("a"), Text("b"), Text("c")
	pa, pb, pc := para(t, a), para(t, b), para(t, c)
	tr := treeOf(t, pa, pb, pc)

	blocks, err := SelectedBlocks(tr, Span(a.Key, 0, b.Key, 1))
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, pa.Key, blocks[0].Key)
	assert.Equal(t, pb.Key, blocks[1].Key)

	blocks, err = SelectedBlocks(tr, Caret(tr.Root().Key, 2))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, pc.Key, blocks[0].Key)
}
