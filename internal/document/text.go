package document

// InsertText types s at sel. A range within one run is replaced by s; a
// caret inside a run splices s into it; a caret on a text block adds a new
// run at that child index. The returned caret follows the inserted text.
func InsertText(t *Tree, sel Selection, s string) (*Tree, Selection, error) {
	if err := CheckSelection(t, sel); err != nil {
		return nil, nil, err
	}
	rs, ok := sel.(*RangeSelection)
	if !ok {
		return nil, nil, newError("insert-text", ErrNotApplicable, "", "text cannot replace a selected node")
	}
	start, end, _ := Ordered(t, rs)
	if start.Key != end.Key {
		return nil, nil, newError("insert-text", ErrNotApplicable, "", "selection spans more than one text run")
	}
	n, err := t.Resolve(start.Key)
	if err != nil {
		return nil, nil, err
	}
	if s == "" && start == end {
		return t, sel, nil
	}

	if n.Kind == KindText {
		text := []rune(n.Text)
		run := n.Clone()
		run.Text = string(text[:start.Offset]) + s + string(text[end.Offset:])
		nt, err := t.Replace(n.Key, run)
		if err != nil {
			return nil, nil, err
		}
		return nt, Caret(n.Key, start.Offset+runeLen(s)), nil
	}

	if start != end {
		return nil, nil, newError("insert-text", ErrNotApplicable, n.Key, "selection spans whole nodes")
	}
	run := Text(s)
	nt, err := t.Insert(n.Key, start.Offset, run)
	if err != nil {
		return nil, nil, err
	}
	return nt, Caret(run.Key, runeLen(s)), nil
}
