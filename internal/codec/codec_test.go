package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/scribe/internal/document"
)

// sampleState builds a document that uses every node kind.
func sampleState(t *testing.T) *document.EditorState {
	t.Helper()
	n := func(kind document.Kind, attrs document.Attrs, children ...*document.Node) *document.Node {
		node, err := document.New(kind, attrs, children...)
		require.NoError(t, err)
		return node
	}
	text := document.Text
	styled := document.FormattedText

	table := n(document.KindTable, document.Attrs{},
		n(document.KindTableRow, document.Attrs{},
			n(document.KindTableCell, document.Attrs{RowSpan: 1, ColSpan: 1, Header: true}, n(document.KindParagraph, document.Attrs{}, text("Name"))),
			n(document.KindTableCell, document.Attrs{RowSpan: 1, ColSpan: 1, Header: true}, n(document.KindParagraph, document.Attrs{}, text("Qty"))),
		),
		n(document.KindTableRow, document.Attrs{},
			n(document.KindTableCell, document.Attrs{RowSpan: 1, ColSpan: 1, Background: "#BFDBFE"}, n(document.KindParagraph, document.Attrs{}, text("apples"))),
			n(document.KindTableCell, document.Attrs{RowSpan: 1, ColSpan: 1}, n(document.KindParagraph, document.Attrs{}, text("3"))),
		),
	)

	root := n(document.KindRoot, document.Attrs{},
		n(document.KindHeading, document.Attrs{Level: 2}, text("Release notes")),
		n(document.KindParagraph, document.Attrs{},
			text("Plain, "),
			styled("bold red", document.FormatBold, document.Style{document.StyleColor: "#F97316"}),
			text(" and "),
			n(document.KindLink, document.Attrs{URL: "https://example.com"}, text("a link")),
		),
		n(document.KindQuote, document.Attrs{}, styled("quoted", document.FormatItalic, nil)),
		n(document.KindList, document.Attrs{ListType: document.ListNumber, Start: 3},
			n(document.KindListItem, document.Attrs{}, text("third"),
				n(document.KindList, document.Attrs{ListType: document.ListBullet, Indent: 1},
					n(document.KindListItem, document.Attrs{}, text("nested")),
				),
			),
			n(document.KindListItem, document.Attrs{}, text("fourth")),
		),
		n(document.KindCodeBlock, document.Attrs{Language: "go"},
			&document.Node{Kind: document.KindCodeHighlight, Text: "func", Attrs: document.Attrs{TokenType: "keyword"}},
			text(" main() {}"),
		),
		n(document.KindImage, document.Attrs{Src: "/img/cat.png", Alt: "cat", Width: 320, Height: 200, MaxWidth: 500, Alignment: document.AlignCenter}),
		n(document.KindVideoEmbed, document.Attrs{VideoID: "dQw4w9WgXcQ"}),
		table,
		n(document.KindSeparator, document.Attrs{}),
	)
	tree, err := document.NewTree(root)
	require.NoError(t, err)
	return document.NewState(tree)
}
