package document

import (
	"slices"
	"unicode/utf8"
)

// Selection is where the next command applies. It is either a
// *RangeSelection or a *NodeSelection.
type Selection interface {
	selection()
	// Keys lists the node keys the selection refers to.
	Keys() []Key
}

// Point is a position in the tree. For text runs Offset counts characters;
// for element nodes it is a child index.
type Point struct {
	Key    Key `json:"key"`
	Offset int `json:"offset"`
}

// RangeSelection spans from Anchor to Focus. Focus may precede Anchor.
type RangeSelection struct {
	Anchor Point `json:"anchor"`
	Focus  Point `json:"focus"`
}

// NodeSelection targets a single node such as an image or a table.
type NodeSelection struct {
	Key Key `json:"key"`
}

func (*RangeSelection) selection() {}
func (*NodeSelection) selection()  {}

func (s *RangeSelection) Keys() []Key {
	if s.Anchor.Key == s.Focus.Key {
		return []Key{s.Anchor.Key}
	}
	return []Key{s.Anchor.Key, s.Focus.Key}
}

func (s *NodeSelection) Keys() []Key { return []Key{s.Key} }

// Caret returns a collapsed selection.
func Caret(key Key, offset int) *RangeSelection {
	p := Point{Key: key, Offset: offset}
	return &RangeSelection{Anchor: p, Focus: p}
}

// Span returns a selection from anchor to focus.
func Span(anchorKey Key, anchorOffset int, focusKey Key, focusOffset int) *RangeSelection {
	return &RangeSelection{
		Anchor: Point{Key: anchorKey, Offset: anchorOffset},
		Focus:  Point{Key: focusKey, Offset: focusOffset},
	}
}

// IsCollapsed reports whether anchor and focus coincide.
func (s *RangeSelection) IsCollapsed() bool { return s.Anchor == s.Focus }

// Select returns a node selection.
func Select(key Key) *NodeSelection { return &NodeSelection{Key: key} }

// runeLen is the offset range of a text run.
func runeLen(s string) int { return utf8.RuneCountInString(s) }

// pointLimit is the largest valid offset at n.
func pointLimit(n *Node) int {
	if n.Kind == KindText {
		return runeLen(n.Text)
	}
	return len(n.Children)
}

// CheckSelection verifies that sel still resolves against t: every key is
// present and every offset is within bounds. Failures wrap
// ErrStaleSelection.
func CheckSelection(t *Tree, sel Selection) error {
	switch s := sel.(type) {
	case nil:
		return newError("selection", ErrNotApplicable, "", "no selection")
	case *NodeSelection:
		if !t.Contains(s.Key) {
			return newError("selection", ErrStaleSelection, s.Key, "node is gone")
		}
		if s.Key == t.root.Key {
			return newError("selection", ErrStaleSelection, s.Key, "the root cannot be node-selected")
		}
	case *RangeSelection:
		for _, p := range []Point{s.Anchor, s.Focus} {
			n, err := t.Resolve(p.Key)
			if err != nil {
				return newError("selection", ErrStaleSelection, p.Key, "point no longer resolves")
			}
			if IsLeaf(n.Kind) && n.Kind != KindText {
				return newError("selection", ErrStaleSelection, p.Key, "point inside %s", n.Kind)
			}
			if p.Offset < 0 || p.Offset > pointLimit(n) {
				return newError("selection", ErrStaleSelection, p.Key, "offset %d out of range", p.Offset)
			}
		}
	default:
		return newError("selection", ErrNotApplicable, "", "unsupported selection %T", sel)
	}
	return nil
}

// InitialSelection is the caret a freshly loaded document starts with: the
// start of the first text run, or the first text block when there is none.
func InitialSelection(t *Tree) Selection {
	for n := range t.Walk() {
		if n.Kind == KindText {
			return Caret(n.Key, 0)
		}
		if n.Kind != KindRoot && IsTextBlock(n.Kind) && len(n.Children) == 0 {
			return Caret(n.Key, 0)
		}
	}
	return Caret(t.root.Key, 0)
}

// boundary is a point mapped onto the pre-order sequence.
type boundary struct {
	Point
	pos  int
	text bool
}

// normalize turns element points into text points where a text run sits at
// the same place, so that points can be ordered by pre-order position.
func normalize(t *Tree, p Point) boundary {
	n, _ := t.Resolve(p.Key)
	if n.Kind == KindText {
		return boundary{Point: p, pos: t.Position(p.Key), text: true}
	}
	if p.Offset < len(n.Children) {
		for d := range WalkFrom(n.Children[p.Offset]) {
			if d.Kind == KindText {
				return boundary{Point: Point{Key: d.Key}, pos: t.Position(d.Key), text: true}
			}
		}
		return boundary{Point: p, pos: t.Position(n.Children[p.Offset].Key)}
	}
	if p.Offset > 0 {
		var last *Node
		for d := range WalkFrom(n.Children[p.Offset-1]) {
			if d.Kind == KindText {
				last = d
			}
		}
		if last != nil {
			return boundary{Point: Point{Key: last.Key, Offset: runeLen(last.Text)}, pos: t.Position(last.Key), text: true}
		}
	}
	return boundary{Point: p, pos: t.Position(p.Key)}
}

func (b boundary) before(o boundary) bool {
	if b.pos != o.pos {
		return b.pos < o.pos
	}
	return b.Offset < o.Offset
}

// Ordered returns the start and end points of a range selection in document
// order, together with whether the selection runs backwards.
func Ordered(t *Tree, s *RangeSelection) (start, end Point, backward bool) {
	a, f := normalize(t, s.Anchor), normalize(t, s.Focus)
	if f.before(a) {
		return f.Point, a.Point, true
	}
	return a.Point, f.Point, false
}

// RunSpan is the part of a text run covered by a selection, in characters.
type RunSpan struct {
	Node       *Node
	Start, End int
}

// Full reports whether the span covers the entire run.
func (r RunSpan) Full() bool { return r.Start == 0 && r.End == runeLen(r.Node.Text) }

// Empty reports whether the span covers no characters.
func (r RunSpan) Empty() bool { return r.Start == r.End }

// SelectedRuns returns the text runs intersected by sel in document order.
// A collapsed caret inside a run yields that run with an empty span. A node
// selection yields every run below the selected node.
func SelectedRuns(t *Tree, sel Selection) ([]RunSpan, error) {
	if err := CheckSelection(t, sel); err != nil {
		return nil, err
	}
	if ns, ok := sel.(*NodeSelection); ok {
		n, _ := t.Resolve(ns.Key)
		var out []RunSpan
		for d := range WalkFrom(n) {
			if d.Kind == KindText {
				out = append(out, RunSpan{Node: d, Start: 0, End: runeLen(d.Text)})
			}
		}
		return out, nil
	}
	rs := sel.(*RangeSelection)
	a, f := normalize(t, rs.Anchor), normalize(t, rs.Focus)
	if f.before(a) {
		a, f = f, a
	}
	var out []RunSpan
	for n := range t.Walk() {
		if n.Kind != KindText {
			continue
		}
		pos := t.Position(n.Key)
		if pos < a.pos || pos > f.pos {
			continue
		}
		span := RunSpan{Node: n, Start: 0, End: runeLen(n.Text)}
		if a.text && n.Key == a.Key {
			span.Start = a.Offset
		}
		if f.text && n.Key == f.Key {
			span.End = f.Offset
		}
		if span.Start > span.End {
			continue
		}
		out = append(out, span)
	}
	return out, nil
}

// SelectedBlocks returns the blocks directly under the root that the
// selection touches, in document order.
func SelectedBlocks(t *Tree, sel Selection) ([]*Node, error) {
	if err := CheckSelection(t, sel); err != nil {
		return nil, err
	}
	if ns, ok := sel.(*NodeSelection); ok {
		if b := t.TopLevel(ns.Key); b != nil {
			return []*Node{b}, nil
		}
		return nil, nil
	}
	rs := sel.(*RangeSelection)
	start, end, _ := Ordered(t, rs)
	first, last := topLevelIndex(t, start), topLevelIndex(t, end)
	if first < 0 || last < 0 {
		return nil, nil
	}
	return slices.Clone(t.root.Children[first : last+1]), nil
}

// topLevelIndex returns the index under the root of the block holding p.
// Element points on the root itself address the child at their offset.
func topLevelIndex(t *Tree, p Point) int {
	if p.Key == t.root.Key {
		switch {
		case len(t.root.Children) == 0:
			return -1
		case p.Offset >= len(t.root.Children):
			return len(t.root.Children) - 1
		}
		return p.Offset
	}
	b := t.TopLevel(p.Key)
	if b == nil {
		return -1
	}
	i, _ := t.IndexOf(b.Key)
	return i
}

// AnchorBlock returns the innermost text block holding the selection anchor,
// or the selected node for a node selection.
func AnchorBlock(t *Tree, sel Selection) *Node {
	switch s := sel.(type) {
	case *NodeSelection:
		n, _ := t.Resolve(s.Key)
		return n
	case *RangeSelection:
		return t.Closest(s.Anchor.Key, func(k Kind) bool { return k != KindRoot && IsTextBlock(k) })
	}
	return nil
}
