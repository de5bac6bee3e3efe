package document

// ToggleLink wraps the selected characters in a link to url. When every
// selected run already sits in one link only its URL changes. An empty url
// unwraps every link the selection touches.
func ToggleLink(t *Tree, sel Selection, url string) (*Tree, Selection, error) {
	runs, err := SelectedRuns(t, sel)
	if err != nil {
		return nil, nil, err
	}
	var covered []RunSpan
	for _, r := range runs {
		if !r.Empty() {
			covered = append(covered, r)
		}
	}
	if url == "" {
		return unlink(t, sel, runs)
	}
	if len(covered) == 0 {
		return nil, nil, newError("toggle-link", ErrNotApplicable, "", "select the text to link")
	}

	parent, _ := t.Parent(covered[0].Node.Key)
	for _, r := range covered[1:] {
		if p, _ := t.Parent(r.Node.Key); p.Key != parent.Key {
			return nil, nil, newError("toggle-link", ErrNotApplicable, "", "selection spans more than one block")
		}
	}
	if parent.Kind == KindLink {
		link := parent.Clone()
		link.Attrs.URL = url
		if err := ValidateAttrs(link); err != nil {
			return nil, nil, err
		}
		nt, err := t.Replace(parent.Key, link)
		if err != nil {
			return nil, nil, err
		}
		return nt, sel, nil
	}
	if !Accepts(parent.Kind, KindLink) {
		return nil, nil, newError("toggle-link", ErrNotApplicable, parent.Key, "links are not allowed in %s", parent.Kind)
	}

	spans := make(map[Key]RunSpan, len(covered))
	for _, r := range covered {
		spans[r.Node.Key] = r
	}
	link := &Node{Kind: KindLink, Key: NewKey(), Attrs: Attrs{URL: url}}
	if err := ValidateAttrs(link); err != nil {
		return nil, nil, err
	}
	children := make([]*Node, 0, len(parent.Children)+3)
	var tail []*Node
	for _, c := range parent.Children {
		span, ok := spans[c.Key]
		if !ok {
			if len(link.Children) > 0 && len(link.Children) < len(covered) {
				return nil, nil, newError("toggle-link", ErrNotApplicable, c.Key, "selection crosses a %s", c.Kind)
			}
			if len(link.Children) == len(covered) {
				tail = append(tail, c)
			} else {
				children = append(children, c)
			}
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
		link.Children = append(link.Children, mid)
		if span.End < len(text) {
			post := c.Clone()
			post.Key = NewKey()
			post.Text = string(text[span.End:])
			tail = append(tail, post)
		}
	}
	children = append(children, link)
	children = append(children, tail...)

	nt, err := t.Replace(parent.Key, parent.withChildren(children))
	if err != nil {
		return nil, nil, err
	}
	first, last := link.Children[0], link.Children[len(link.Children)-1]
	start := Point{Key: first.Key}
	end := Point{Key: last.Key, Offset: runeLen(last.Text)}
	if rs, ok := sel.(*RangeSelection); ok {
		if _, _, backward := Ordered(t, rs); backward {
			return nt, &RangeSelection{Anchor: end, Focus: start}, nil
		}
	}
	return nt, &RangeSelection{Anchor: start, Focus: end}, nil
}

// unlink replaces every link holding one of runs with the link's text.
// Text runs keep their keys so the selection stays valid.
func unlink(t *Tree, sel Selection, runs []RunSpan) (*Tree, Selection, error) {
	seen := make(map[Key]bool)
	cur := t
	for _, r := range runs {
		p, _ := t.Parent(r.Node.Key)
		if p == nil || p.Kind != KindLink || seen[p.Key] {
			continue
		}
		seen[p.Key] = true
		holder, err := cur.Parent(p.Key)
		if err != nil {
			return nil, nil, err
		}
		children := make([]*Node, 0, len(holder.Children)+len(p.Children))
		for _, c := range holder.Children {
			if c.Key == p.Key {
				children = append(children, p.Children...)
				continue
			}
			children = append(children, c)
		}
		if cur, err = cur.Replace(holder.Key, holder.withChildren(children)); err != nil {
			return nil, nil, err
		}
	}
	return cur, sel, nil
}
