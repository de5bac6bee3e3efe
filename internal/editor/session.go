package editor

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/starford/scribe/internal/codec"
	"github.com/starford/scribe/internal/document"
)

// DefaultHistoryDepth bounds the undo stack when no depth is configured.
const DefaultHistoryDepth = 100

// Change is delivered to listeners after every committed command, undo and
// redo.
type Change struct {
	Command   string
	State     *document.EditorState
	Selection document.Selection
}

// Listener observes committed changes. Listeners run synchronously after the
// session lock is released and must not block.
type Listener func(Change)

type snapshot struct {
	state     *document.EditorState
	selection document.Selection
}

// Session owns one editing session: the current state and selection, the
// undo and redo stacks and the change listeners. It is safe for concurrent
// use; commands are applied one at a time.
type Session struct {
	mu        sync.Mutex
	registry  *Registry
	state     *document.EditorState
	selection document.Selection
	undo      []snapshot
	redo      []snapshot
	depth     int
	highlight bool
	log       *slog.Logger

	listenersMu sync.Mutex
	listeners   []subscription
	nextID      int
}

type subscription struct {
	id int
	fn Listener
}

// Option configures a Session.
type Option func(*Session)

// WithRegistry replaces the default command registry.
func WithRegistry(r *Registry) Option {
	return func(s *Session) {
		s.registry = r
	}
}

// WithHistoryDepth bounds the undo stack. Non-positive values keep the
// default.
func WithHistoryDepth(depth int) Option {
	return func(s *Session) {
		if depth > 0 {
			s.depth = depth
		}
	}
}

// WithHighlight turns code tokenising on or off for code-block commands.
func WithHighlight(on bool) Option {
	return func(s *Session) {
		s.highlight = on
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// NewSession starts a session on state with the caret at the start of the
// document.
func NewSession(state *document.EditorState, opts ...Option) *Session {
	if state == nil {
		state = document.EmptyState()
	}
	s := &Session{
		state:     state,
		selection: document.InitialSelection(state.Tree()),
		depth:     DefaultHistoryDepth,
		highlight: true,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = DefaultRegistry()
	}
	return s
}

// State returns the current snapshot.
func (s *Session) State() *document.EditorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Selection returns the current selection.
func (s *Session) Selection() document.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Select replaces the selection after checking it against the current
// tree. Selecting is not an undoable change.
func (s *Session) Select(sel document.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := document.CheckSelection(s.state.Tree(), sel); err != nil {
		return err
	}
	s.selection = sel
	return nil
}

// CanUndo reports whether there is a change to undo.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether there is an undone change to redo.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Dispatch runs command name at the current selection.
func (s *Session) Dispatch(name string, payload Payload) error {
	return s.DispatchAt(name, nil, payload)
}

// DispatchAt runs command name at sel, or at the current selection when sel
// is nil. A failed command leaves the state, the selection and both history
// stacks exactly as they were.
func (s *Session) DispatchAt(name string, sel document.Selection, payload Payload) error {
	switch name {
	case CmdUndo:
		s.Undo()
		return nil
	case CmdRedo:
		s.Redo()
		return nil
	}
	h, ok := s.registry.Lookup(name)
	if !ok {
		return document.Errorf(name, document.ErrNotApplicable, "unknown command %q", name)
	}

	s.mu.Lock()
	if sel == nil {
		sel = s.selection
	}
	tree := s.state.Tree()
	if err := document.CheckSelection(tree, sel); err != nil {
		s.mu.Unlock()
		return err
	}
	res, err := h(Context{State: s.state, Selection: sel, Payload: payload, Highlight: s.highlight})
	if err != nil {
		s.mu.Unlock()
		s.log.Debug("command rejected", slog.String("command", name), slog.String("error", err.Error()))
		return err
	}
	if res.Tree == nil || res.Tree == tree {
		if res.Selection != nil && document.CheckSelection(tree, res.Selection) == nil {
			s.selection = res.Selection
		}
		s.mu.Unlock()
		return nil
	}

	next := res.Selection
	if next == nil || document.CheckSelection(res.Tree, next) != nil {
		next = document.InitialSelection(res.Tree)
	}
	s.undo = append(s.undo, snapshot{state: s.state, selection: sel})
	if len(s.undo) > s.depth {
		s.undo = s.undo[len(s.undo)-s.depth:]
	}
	s.redo = nil
	s.state = s.state.Next(res.Tree)
	s.selection = next
	change := Change{Command: name, State: s.state, Selection: next}
	s.mu.Unlock()

	s.log.Debug("command applied", slog.String("command", name), slog.Uint64("version", change.State.Version()))
	s.notify(change)
	return nil
}

// Undo restores the state before the last committed command. It reports
// whether anything changed; an empty history is not an error.
func (s *Session) Undo() bool {
	return s.travel(CmdUndo, &s.undo, &s.redo)
}

// Redo re-applies the last undone command.
func (s *Session) Redo() bool {
	return s.travel(CmdRedo, &s.redo, &s.undo)
}

func (s *Session) travel(name string, from, to *[]snapshot) bool {
	s.mu.Lock()
	if len(*from) == 0 {
		s.mu.Unlock()
		return false
	}
	last := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]
	*to = append(*to, snapshot{state: s.state, selection: s.selection})
	s.state, s.selection = last.state, last.selection
	change := Change{Command: name, State: s.state, Selection: s.selection}
	s.mu.Unlock()

	s.notify(change)
	return true
}

// Subscribe registers l for every committed change and returns a function
// that removes it. Listeners run in subscription order.
func (s *Session) Subscribe(l Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, fn: l})
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool { return sub.id == id })
	}
}

func (s *Session) notify(c Change) {
	s.listenersMu.Lock()
	ls := slices.Clone(s.listeners)
	s.listenersMu.Unlock()
	for _, l := range ls {
		l.fn(c)
	}
}

// DocumentJSON serialises the current state for persistence.
func (s *Session) DocumentJSON() (string, error) {
	return codec.ToJSON(s.State())
}

// DocumentHTML renders the current state for read-only display.
func (s *Session) DocumentHTML() string {
	return codec.ToHTML(s.State())
}
