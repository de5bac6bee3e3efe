package document

// PatchStyle applies props to every text run intersected by sel. Runs that
// are only partly covered are split at the selection boundary so that the
// uncovered remainder keeps its original style. An empty value removes the
// property. The returned selection covers the patched characters.
func PatchStyle(t *Tree, sel Selection, props map[string]string) (*Tree, Selection, error) {
	return transformRuns(t, sel, "patch-style", func(n *Node) {
		n.Style = n.Style.Patch(props)
	})
}

// ToggleFormat adds f to every intersected run, or removes it when every
// run already carries it.
func ToggleFormat(t *Tree, sel Selection, f Format) (*Tree, Selection, error) {
	runs, err := SelectedRuns(t, sel)
	if err != nil {
		return nil, nil, err
	}
	all := true
	for _, r := range runs {
		if !r.Empty() && !r.Node.Format.Has(f) {
			all = false
			break
		}
	}
	return transformRuns(t, sel, "toggle-format", func(n *Node) {
		if all {
			n.Format &^= f
		} else {
			n.Format |= f
		}
	})
}

// ClearFormatting drops every format bit and style property from the
// intersected runs and turns intersected headings into paragraphs. Applying
// it twice yields the same document as applying it once.
func ClearFormatting(t *Tree, sel Selection) (*Tree, Selection, error) {
	nt, nsel, err := transformRuns(t, sel, "clear-formatting", func(n *Node) {
		n.Format = 0
		n.Style = nil
	})
	if err != nil {
		return nil, nil, err
	}
	blocks, err := SelectedBlocks(nt, nsel)
	if err != nil {
		return nil, nil, err
	}
	for _, b := range blocks {
		if b.Kind != KindHeading {
			continue
		}
		p := b.Clone()
		p.Kind = KindParagraph
		p.Attrs = Attrs{}
		if nt, err = nt.Replace(b.Key, p); err != nil {
			return nil, nil, err
		}
	}
	if Equal(nt.Root(), t.Root()) {
		return t, sel, nil
	}
	return nt, nsel, nil
}

// StyleValue reports the value of prop on the first selected run and
// whether every selected run agrees on it. A missing property reads as "".
// With a collapsed caret the run under the caret decides.
func StyleValue(t *Tree, sel Selection, prop string) (first string, uniform bool, err error) {
	runs, err := SelectedRuns(t, sel)
	if err != nil {
		return "", false, err
	}
	covered := runs[:0:0]
	for _, r := range runs {
		if !r.Empty() {
			covered = append(covered, r)
		}
	}
	if len(covered) == 0 {
		covered = runs
	}
	if len(covered) == 0 {
		return "", true, nil
	}
	first = covered[0].Node.Style[prop]
	for _, r := range covered[1:] {
		if r.Node.Style[prop] != first {
			return first, false, nil
		}
	}
	return first, true, nil
}

// GetStyleValue returns the value of prop when it is uniform across the
// selection and "" otherwise. It never fails.
func GetStyleValue(t *Tree, sel Selection, prop string) string {
	v, uniform, err := StyleValue(t, sel, prop)
	if err != nil || !uniform {
		return ""
	}
	return v
}

// HasFormat reports whether every covered run carries f.
func HasFormat(t *Tree, sel Selection, f Format) bool {
	runs, err := SelectedRuns(t, sel)
	if err != nil || len(runs) == 0 {
		return false
	}
	for _, r := range runs {
		if !r.Node.Format.Has(f) {
			return false
		}
	}
	return true
}

type shift struct {
	into Key
	by   int
}

// transformRuns splits every partly covered run into up to three runs and
// applies fn to the covered part. Afterwards adjacent runs with equal format
// and style are merged and the selection is remapped onto the result.
func transformRuns(t *Tree, sel Selection, op string, fn func(*Node)) (*Tree, Selection, error) {
	runs, err := SelectedRuns(t, sel)
	if err != nil {
		return nil, nil, err
	}
	spans := make(map[Key]RunSpan)
	var parents []Key
	seen := make(map[Key]bool)
	for _, r := range runs {
		if r.Empty() {
			continue
		}
		spans[r.Node.Key] = r
		p, _ := t.Parent(r.Node.Key)
		if !seen[p.Key] {
			seen[p.Key] = true
			parents = append(parents, p.Key)
		}
	}
	if len(spans) == 0 {
		return t, sel, nil
	}

	var first, last *Node
	remap := make(map[Key]shift)
	cur := t
	for _, pk := range parents {
		parent, err := cur.Resolve(pk)
		if err != nil {
			return nil, nil, err
		}
		children := make([]*Node, 0, len(parent.Children)+2)
		for _, c := range parent.Children {
			span, ok := spans[c.Key]
			if !ok {
				children = append(children, c)
				continue
			}
			text := []rune(c.Text)
			mid := c.Clone()
			mid.Text = string(text[span.Start:span.End])
			if span.Start > 0 {
				pre := c.Clone()
				pre.Text = string(text[:span.Start])
				children = append(children, pre)
				mid.Key = NewKey()
			}
			fn(mid)
			children = append(children, mid)
			if first == nil {
				first = mid
			}
			last = mid
			if span.End < len(text) {
				post := c.Clone()
				post.Key = NewKey()
				post.Text = string(text[span.End:])
				children = append(children, post)
			}
		}
		children = mergeRuns(children, remap)
		if cur, err = cur.Replace(pk, parent.withChildren(children)); err != nil {
			return nil, nil, &Error{Op: op, Kind: ErrInvariant, Key: pk, Cause: err}
		}
	}

	switch s := sel.(type) {
	case *RangeSelection:
		start := follow(Point{Key: first.Key}, remap)
		end := follow(Point{Key: last.Key, Offset: runeLen(last.Text)}, remap)
		_, _, backward := Ordered(t, s)
		if backward {
			return cur, &RangeSelection{Anchor: end, Focus: start}, nil
		}
		return cur, &RangeSelection{Anchor: start, Focus: end}, nil
	default:
		return cur, sel, nil
	}
}

func follow(p Point, remap map[Key]shift) Point {
	for {
		s, ok := remap[p.Key]
		if !ok {
			return p
		}
		p = Point{Key: s.into, Offset: p.Offset + s.by}
	}
}

func mergeable(a, b *Node) bool {
	return a.Kind == KindText && b.Kind == KindText && a.Format == b.Format && a.Style.Equal(b.Style)
}

// mergeRuns joins adjacent text runs that look identical, recording in remap
// where the characters of every absorbed run went.
func mergeRuns(children []*Node, remap map[Key]shift) []*Node {
	out := make([]*Node, 0, len(children))
	for _, c := range children {
		if n := len(out); n > 0 && mergeable(out[n-1], c) {
			prev := out[n-1]
			merged := prev.Clone()
			merged.Text = prev.Text + c.Text
			remap[c.Key] = shift{into: prev.Key, by: runeLen(prev.Text)}
			out[n-1] = merged
			continue
		}
		out = append(out, c)
	}
	return out
}

// MergeAdjacent returns a copy of n whose adjacent equal text runs are
// joined. Used by importers that produce fragmented runs.
func MergeAdjacent(n *Node) *Node {
	if len(n.Children) < 2 {
		return n
	}
	return n.withChildren(mergeRuns(n.Children, make(map[Key]shift)))
}
