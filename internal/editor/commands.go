package editor

import (
	"github.com/starford/scribe/internal/document"
)

func notApplicable(cmd, format string, args ...any) error {
	return document.Errorf(cmd, document.ErrNotApplicable, format, args...)
}

// anchorKey is the key the selection starts from.
func anchorKey(sel document.Selection) document.Key {
	switch s := sel.(type) {
	case *document.RangeSelection:
		return s.Anchor.Key
	case *document.NodeSelection:
		return s.Key
	}
	return ""
}

// closest finds the nearest node of kind at or above the selection anchor.
func closest(ctx Context, kind document.Kind) *document.Node {
	return ctx.Tree().Closest(anchorKey(ctx.Selection), func(k document.Kind) bool { return k == kind })
}

// selectedNode returns the node of a node selection when it has one of the
// given kinds.
func selectedNode(ctx Context, kinds ...document.Kind) (*document.Node, bool) {
	ns, ok := ctx.Selection.(*document.NodeSelection)
	if !ok {
		return nil, false
	}
	n, err := ctx.Tree().Resolve(ns.Key)
	if err != nil {
		return nil, false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return n, true
		}
	}
	return nil, false
}

// keepOr returns sel when it still resolves in t and a caret on fallback
// otherwise.
func keepOr(t *document.Tree, sel document.Selection, fallback document.Key) document.Selection {
	if document.CheckSelection(t, sel) == nil {
		return sel
	}
	return caretAt(t, fallback)
}

// caretAt places a caret at the start of the node with key.
func caretAt(t *document.Tree, key document.Key) document.Selection {
	n, err := t.Resolve(key)
	if err != nil {
		return document.InitialSelection(t)
	}
	for d := range document.WalkFrom(n) {
		if d.Kind == document.KindText {
			return document.Caret(d.Key, 0)
		}
	}
	if document.IsLeaf(n.Kind) {
		return document.Select(n.Key)
	}
	return document.Caret(n.Key, 0)
}

// styled applies a tree/selection style primitive as a command result.
func styled(ctx Context, fn func(*document.Tree, document.Selection) (*document.Tree, document.Selection, error)) (Result, error) {
	t, sel, err := fn(ctx.Tree(), ctx.Selection)
	if err != nil {
		return Result{}, err
	}
	return Result{Tree: t, Selection: sel}, nil
}
