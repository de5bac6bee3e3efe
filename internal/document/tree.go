package document

import (
	"iter"
	"slices"
)

type entry struct {
	node   *Node
	parent Key // empty for the root
	index  int // position among the parent's children
	pos    int // pre-order position
}

// Tree is an immutable document tree with a key index. Edits return a new
// Tree that shares every untouched subtree with the receiver.
type Tree struct {
	root  *Node
	index map[Key]entry
}

// NewTree indexes root after validating the whole subtree. Nodes without a
// key receive one.
func NewTree(root *Node) (*Tree, error) {
	if root == nil || root.Kind != KindRoot {
		return nil, newError("tree", ErrStructural, "", "tree must be rooted at a root node")
	}
	assignKeys(root)
	if err := Validate(root); err != nil {
		return nil, err
	}
	return buildTree(root)
}

// EmptyTree returns a root holding one empty paragraph.
func EmptyTree() *Tree {
	t, err := NewTree(MustNew(KindRoot, Attrs{}, MustNew(KindParagraph, Attrs{})))
	if err != nil {
		panic(err)
	}
	return t
}

func assignKeys(n *Node) {
	if n.Key == "" {
		n.Key = NewKey()
	}
	for _, c := range n.Children {
		if c != nil {
			assignKeys(c)
		}
	}
}

func buildTree(root *Node) (*Tree, error) {
	t := &Tree{root: root, index: make(map[Key]entry)}
	pos := 0
	var walk func(n *Node, parent Key, idx int) error
	walk = func(n *Node, parent Key, idx int) error {
		if n.Key == "" {
			return newError("tree", ErrInvariant, "", "node of kind %s has no key", n.Kind)
		}
		if _, dup := t.index[n.Key]; dup {
			return newError("tree", ErrInvariant, n.Key, "duplicate key")
		}
		t.index[n.Key] = entry{node: n, parent: parent, index: idx, pos: pos}
		pos++
		for i, c := range n.Children {
			if err := walk(c, n.Key, i); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, "", 0); err != nil {
		return nil, err
	}
	return t, nil
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.index) }

// Contains reports whether key resolves in t.
func (t *Tree) Contains(key Key) bool {
	_, ok := t.index[key]
	return ok
}

// Resolve returns the current node for key.
func (t *Tree) Resolve(key Key) (*Node, error) {
	e, ok := t.index[key]
	if !ok {
		return nil, newError("resolve", ErrNotFound, key, "")
	}
	return e.node, nil
}

// Parent returns the parent of key, or nil for the root.
func (t *Tree) Parent(key Key) (*Node, error) {
	e, ok := t.index[key]
	if !ok {
		return nil, newError("parent", ErrNotFound, key, "")
	}
	if e.parent == "" {
		return nil, nil
	}
	return t.index[e.parent].node, nil
}

// IndexOf returns the position of key among its siblings.
func (t *Tree) IndexOf(key Key) (int, error) {
	e, ok := t.index[key]
	if !ok {
		return 0, newError("index", ErrNotFound, key, "")
	}
	return e.index, nil
}

// Position returns the pre-order position of key, or -1 when absent.
func (t *Tree) Position(key Key) int {
	e, ok := t.index[key]
	if !ok {
		return -1
	}
	return e.pos
}

// Ancestors returns the chain from the root down to key's parent.
func (t *Tree) Ancestors(key Key) []*Node {
	var out []*Node
	e, ok := t.index[key]
	for ok && e.parent != "" {
		e, ok = t.index[e.parent]
		out = append(out, e.node)
	}
	slices.Reverse(out)
	return out
}

// Closest returns the nearest node at or above key whose kind satisfies
// match.
func (t *Tree) Closest(key Key, match func(Kind) bool) *Node {
	e, ok := t.index[key]
	for ok {
		if match(e.node.Kind) {
			return e.node
		}
		if e.parent == "" {
			return nil
		}
		e, ok = t.index[e.parent]
	}
	return nil
}

// TopLevel returns the direct child of the root that contains key.
func (t *Tree) TopLevel(key Key) *Node {
	e, ok := t.index[key]
	for ok && e.parent != "" {
		if e.parent == t.root.Key {
			return e.node
		}
		e, ok = t.index[e.parent]
	}
	return nil
}

// Walk yields every node in pre-order. The sequence is lazy and can be
// ranged over any number of times.
func (t *Tree) Walk() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		walkNode(t.root, yield)
	}
}

// WalkFrom yields the subtree rooted at n in pre-order.
func WalkFrom(n *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if n != nil {
			walkNode(n, yield)
		}
	}
}

func walkNode(n *Node, yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, c := range n.Children {
		if !walkNode(c, yield) {
			return false
		}
	}
	return true
}

// Insert places node as child number index of parentKey.
func (t *Tree) Insert(parentKey Key, index int, node *Node) (*Tree, error) {
	parent, err := t.Resolve(parentKey)
	if err != nil {
		return nil, err
	}
	if err := t.checkIncoming("insert", parent, node); err != nil {
		return nil, err
	}
	if index < 0 || index > len(parent.Children) {
		return nil, newError("insert", ErrInvariant, parentKey, "index %d out of range [0,%d]", index, len(parent.Children))
	}
	children := slices.Insert(slices.Clone(parent.Children), index, node)
	return t.commit("insert", parentKey, parent.withChildren(children), node)
}

// Append places node after the last child of parentKey.
func (t *Tree) Append(parentKey Key, node *Node) (*Tree, error) {
	parent, err := t.Resolve(parentKey)
	if err != nil {
		return nil, err
	}
	return t.Insert(parentKey, len(parent.Children), node)
}

// Remove detaches the subtree at key. Siblings close the gap.
func (t *Tree) Remove(key Key) (*Tree, error) {
	e, ok := t.index[key]
	if !ok {
		return nil, newError("remove", ErrNotFound, key, "")
	}
	if e.parent == "" {
		return nil, newError("remove", ErrInvariant, key, "cannot remove the root")
	}
	parent := t.index[e.parent].node
	children := slices.Delete(slices.Clone(parent.Children), e.index, e.index+1)
	return t.commit("remove", parent.Key, parent.withChildren(children), nil)
}

// Replace swaps the subtree at key for node, keeping its position.
func (t *Tree) Replace(key Key, node *Node) (*Tree, error) {
	e, ok := t.index[key]
	if !ok {
		return nil, newError("replace", ErrNotFound, key, "")
	}
	if e.parent == "" {
		if node == nil || node.Kind != KindRoot {
			return nil, newError("replace", ErrStructural, key, "root can only be replaced by a root")
		}
		if err := Validate(node); err != nil {
			return nil, err
		}
		return t.commit("replace", "", node, node)
	}
	parent := t.index[e.parent].node
	if err := t.checkIncoming("replace", parent, node); err != nil {
		return nil, err
	}
	children := slices.Clone(parent.Children)
	children[e.index] = node
	return t.commit("replace", parent.Key, parent.withChildren(children), node)
}

// Move detaches key and inserts it as child number index of parentKey.
// index counts positions after the node has been detached.
func (t *Tree) Move(key, parentKey Key, index int) (*Tree, error) {
	node, err := t.Resolve(key)
	if err != nil {
		return nil, err
	}
	if _, err := t.Resolve(parentKey); err != nil {
		return nil, err
	}
	if key == parentKey || t.isAncestor(key, parentKey) {
		return nil, newError("move", ErrInvariant, key, "cannot move a node into its own subtree")
	}
	detached, err := t.Remove(key)
	if err != nil {
		return nil, err
	}
	return detached.Insert(parentKey, index, node)
}

func (t *Tree) isAncestor(ancestor, key Key) bool {
	e, ok := t.index[key]
	for ok && e.parent != "" {
		if e.parent == ancestor {
			return true
		}
		e, ok = t.index[e.parent]
	}
	return false
}

func (t *Tree) checkIncoming(op string, parent, node *Node) error {
	if node == nil {
		return newError(op, ErrStructural, parent.Key, "nil node")
	}
	if !Accepts(parent.Kind, node.Kind) {
		return newError(op, ErrStructural, node.Key, "%s is not allowed under %s", node.Kind, parent.Kind)
	}
	assignKeys(node)
	return Validate(node)
}

// commit rebuilds the path from the root down to the replaced node and
// re-indexes the result. incoming is the subtree being added, if any.
func (t *Tree) commit(op string, key Key, replacement *Node, incoming *Node) (*Tree, error) {
	root := replacement
	if key != "" {
		root = t.rebuildPath(key, replacement)
	}
	nt, err := buildTree(root)
	if err != nil {
		if de, ok := err.(*Error); ok {
			de.Op = op
		}
		return nil, err
	}
	for _, table := range nt.touchedTables(key, incoming) {
		if err := checkRectangular(table); err != nil {
			return nil, err
		}
	}
	return nt, nil
}

func (t *Tree) rebuildPath(key Key, replacement *Node) *Node {
	cur := replacement
	e := t.index[key]
	for e.parent != "" {
		pe := t.index[e.parent]
		children := slices.Clone(pe.node.Children)
		children[e.index] = cur
		cur = pe.node.withChildren(children)
		e = pe
	}
	return cur
}

// touchedTables lists the tables an edit at key can have reshaped: tables on
// the path to key and tables inside the incoming subtree.
func (t *Tree) touchedTables(key Key, incoming *Node) []*Node {
	var out []*Node
	if key != "" {
		if n := t.Closest(key, func(k Kind) bool { return k == KindTable }); n != nil {
			out = append(out, n)
		}
	}
	for n := range WalkFrom(incoming) {
		if n.Kind == KindTable {
			out = append(out, n)
		}
	}
	return out
}
