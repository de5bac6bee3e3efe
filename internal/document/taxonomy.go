package document

// Kind is the type of a node.
type Kind string

// Node kinds.
const (
	KindRoot          Kind = "root"
	KindParagraph     Kind = "paragraph"
	KindHeading       Kind = "heading"
	KindQuote         Kind = "quote"
	KindList          Kind = "list"
	KindListItem      Kind = "listitem"
	KindCodeBlock     Kind = "code"
	KindCodeHighlight Kind = "code-highlight"
	KindLink          Kind = "link"
	KindText          Kind = "text"
	KindImage         Kind = "image"
	KindVideoEmbed    Kind = "youtube"
	KindTable         Kind = "table"
	KindTableRow      Kind = "tablerow"
	KindTableCell     Kind = "tablecell"
	KindSeparator     Kind = "separator"
)

type kindSpec struct {
	leaf     bool
	block    bool // may appear directly under root
	inline   bool // may appear inside a paragraph
	children []Kind
}

var inlineKinds = []Kind{KindText, KindLink}

var blockKinds = []Kind{
	KindParagraph, KindHeading, KindQuote, KindList, KindCodeBlock,
	KindTable, KindImage, KindVideoEmbed, KindSeparator,
}

var kindSpecs = map[Kind]kindSpec{
	KindRoot:          {children: blockKinds},
	KindParagraph:     {block: true, children: inlineKinds},
	KindHeading:       {block: true, children: inlineKinds},
	KindQuote:         {block: true, children: []Kind{KindText, KindLink, KindParagraph, KindList, KindImage, KindVideoEmbed, KindCodeBlock}},
	KindList:          {block: true, children: []Kind{KindListItem}},
	KindListItem:      {children: []Kind{KindText, KindLink, KindList}},
	KindCodeBlock:     {block: true, children: []Kind{KindText, KindCodeHighlight}},
	KindCodeHighlight: {leaf: true},
	KindLink:          {inline: true, children: []Kind{KindText}},
	KindText:          {leaf: true, inline: true},
	KindImage:         {leaf: true, block: true},
	KindVideoEmbed:    {leaf: true, block: true},
	KindTable:         {block: true, children: []Kind{KindTableRow}},
	KindTableRow:      {children: []Kind{KindTableCell}},
	KindTableCell:     {children: []Kind{KindParagraph, KindText, KindLink, KindList, KindImage}},
	KindSeparator:     {leaf: true, block: true},
}

func spec(k Kind) kindSpec { return kindSpecs[k] }

// Known reports whether k is part of the taxonomy.
func Known(k Kind) bool {
	_, ok := kindSpecs[k]
	return ok
}

// IsLeaf reports whether nodes of kind k never have children.
func IsLeaf(k Kind) bool { return spec(k).leaf }

// IsBlockKind reports whether k may be a direct child of the root.
func IsBlockKind(k Kind) bool { return spec(k).block }

// Accepts reports whether a node of kind parent may hold a child of kind child.
func Accepts(parent, child Kind) bool {
	for _, k := range spec(parent).children {
		if k == child {
			return true
		}
	}
	return false
}

// IsTextBlock reports whether k holds inline content directly (the blocks a
// caret can sit in).
func IsTextBlock(k Kind) bool {
	switch k {
	case KindParagraph, KindHeading, KindQuote, KindListItem, KindCodeBlock, KindTableCell:
		return true
	}
	return false
}

// Kinds returns every node kind in taxonomy order.
func Kinds() []Kind {
	return []Kind{
		KindRoot, KindParagraph, KindHeading, KindQuote, KindList, KindListItem,
		KindCodeBlock, KindCodeHighlight, KindLink, KindText, KindImage,
		KindVideoEmbed, KindTable, KindTableRow, KindTableCell, KindSeparator,
	}
}
