package document

// SchemaVersion is the version written into serialized editor states.
const SchemaVersion = 1

// EditorState is an immutable snapshot of a document. Commands never change
// a state; they produce the next one.
type EditorState struct {
	tree    *Tree
	version uint64
	schema  int
}

// NewState wraps t as the first snapshot of a session.
func NewState(t *Tree) *EditorState {
	return &EditorState{tree: t, version: 1, schema: SchemaVersion}
}

// EmptyState holds a single empty paragraph.
func EmptyState() *EditorState {
	return NewState(EmptyTree())
}

// Tree returns the snapshot's tree.
func (s *EditorState) Tree() *Tree { return s.tree }

// Root is shorthand for s.Tree().Root().
func (s *EditorState) Root() *Node { return s.tree.root }

// Version counts the commits that led to this snapshot.
func (s *EditorState) Version() uint64 { return s.version }

// Schema returns the schema version of the snapshot.
func (s *EditorState) Schema() int { return s.schema }

// Next returns the snapshot that follows s with tree t.
func (s *EditorState) Next(t *Tree) *EditorState {
	return &EditorState{tree: t, version: s.version + 1, schema: s.schema}
}

// Equal reports whether both snapshots hold structurally equal trees.
func (s *EditorState) Equal(o *EditorState) bool {
	if s == nil || o == nil {
		return s == o
	}
	return Equal(s.tree.root, o.tree.root)
}
