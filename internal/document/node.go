// Package document implements the rich-text document model: the node
// taxonomy, an immutable keyed tree, the selection model, text styling and
// editor state snapshots.
//
// Nodes are treated as immutable once they are part of a Tree. Every edit
// produces a new Tree that shares untouched subtrees with the old one, so an
// EditorState handed to a codec or a listener never changes underneath it.
package document

import (
	"strconv"
	"sync/atomic"
)

// Key identifies a node within an editing session. Keys are process-local
// and are not persisted by the codecs.
type Key string

var keySeq atomic.Uint64

// NewKey returns a fresh process-unique key.
func NewKey() Key {
	return Key(strconv.FormatUint(keySeq.Add(1), 10))
}

// Alignment is the horizontal placement of an image.
type Alignment string

// Image alignments.
const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// ListType distinguishes ordered from unordered lists.
type ListType string

// List types, named as in the Lexical editor state.
const (
	ListBullet ListType = "bullet"
	ListNumber ListType = "number"
)

// Attrs holds the kind-specific attributes of a node. Only the fields that
// belong to the node's kind are meaningful; the rest stay zero.
type Attrs struct {
	// heading
	Level int
	// list
	ListType ListType
	Start    int
	Indent   int
	// code-block
	Language string
	// code-highlight
	TokenType string
	// link
	URL string
	// image
	Src       string
	Alt       string
	Width     int
	Height    int
	MaxWidth  int
	Alignment Alignment
	// video-embed
	Provider string
	VideoID  string
	// table-cell
	RowSpan    int
	ColSpan    int
	Background string
	Header     bool
}

// Node is an element of the document tree.
type Node struct {
	Kind     Kind
	Key      Key
	Text     string // text and code-highlight content
	Format   Format // text only
	Style    Style  // text only
	Attrs    Attrs
	Children []*Node
}

// IsText reports whether n is a plain text run.
func (n *Node) IsText() bool { return n != nil && n.Kind == KindText }

// IsBlock reports whether n is a block-level kind.
func (n *Node) IsBlock() bool { return n != nil && spec(n.Kind).block }

// TextContent concatenates the text of every run and highlight span below n.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Kind == KindText || n.Kind == KindCodeHighlight {
		return n.Text
	}
	var out []byte
	for _, c := range n.Children {
		out = append(out, c.TextContent()...)
	}
	return string(out)
}

// Clone returns a shallow copy of n with its own Style map and children
// slice. Children themselves are shared.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Style = n.Style.Clone()
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		copy(out.Children, n.Children)
	}
	return &out
}

// DeepClone copies the whole subtree. When rekey is true every copied node
// receives a fresh key.
func (n *Node) DeepClone(rekey bool) *Node {
	if n == nil {
		return nil
	}
	out := n.Clone()
	if rekey {
		out.Key = NewKey()
	}
	for i, c := range out.Children {
		out.Children[i] = c.DeepClone(rekey)
	}
	return out
}

// withChildren returns a copy of n that owns the given children slice.
func (n *Node) withChildren(children []*Node) *Node {
	out := n.Clone()
	out.Children = children
	return out
}

// Equal reports whether two subtrees have the same kinds, text, formats,
// styles, attributes and child order. Keys are ignored.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Text != b.Text || a.Format != b.Format || a.Attrs != b.Attrs {
		return false
	}
	if !a.Style.Equal(b.Style) || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
