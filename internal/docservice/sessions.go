package docservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/codec"
	"github.com/starford/scribe/internal/document"
	"github.com/starford/scribe/internal/editor"
	"github.com/starford/scribe/internal/sse"
)

// SessionView is a snapshot of an editing session. State carries node keys
// so clients can address selections.
type SessionView struct {
	ID         string             `json:"id"`
	DocumentID string             `json:"document_id"`
	Version    uint64             `json:"version"`
	CanUndo    bool               `json:"can_undo"`
	CanRedo    bool               `json:"can_redo"`
	Dirty      bool               `json:"dirty"`
	Selection  document.Selection `json:"-"`
	State      string             `json:"-"`
	HTML       string             `json:"html"`
}

type session struct {
	mu           sync.Mutex
	id           string
	docID        string
	baseChecksum string
	saved        *document.EditorState
	editor       *editor.Session
	unsubscribe  func()
}

func (sess *session) close() {
	if sess.unsubscribe != nil {
		sess.unsubscribe()
	}
}

// OpenSession starts an editing session on a stored document.
func (s *Service) OpenSession(ctx context.Context, docID string) (*SessionView, error) {
	row, err := s.store.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	loaded := codec.Load(row.Content)
	if loaded.Err != nil {
		s.log.Warn("document content fell back while opening session",
			slog.String("document_id", docID),
			slog.String("source", string(loaded.Source)),
			slog.String("error", loaded.Err.Error()))
	}

	sess := &session{
		id:           uuid.NewString(),
		docID:        docID,
		baseChecksum: row.Checksum,
		saved:        loaded.State,
		editor: editor.NewSession(loaded.State,
			editor.WithHistoryDepth(s.opts.HistoryDepth),
			editor.WithHighlight(s.opts.Highlight),
			editor.WithLogger(s.log.With(slog.String("document_id", docID))),
		),
	}
	sess.unsubscribe = sess.editor.Subscribe(func(c editor.Change) {
		s.pub.PublishChange(sse.Change{
			SessionID:  sess.id,
			DocumentID: docID,
			Command:    c.Command,
			Version:    c.State.Version(),
		})
	})
	s.sessions.SetDefault(sess.id, sess)
	s.log.Info("session opened", slog.String("session_id", sess.id), slog.String("document_id", docID))
	return s.view(sess)
}

// Session returns the current view of an open session.
func (s *Service) Session(_ context.Context, sid string) (*SessionView, error) {
	sess, err := s.lookup(sid)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess)
}

// Select moves the selection of a session.
func (s *Service) Select(_ context.Context, sid string, sel document.Selection) (*SessionView, error) {
	return s.withSession(sid, func(sess *session) error {
		return sess.editor.Select(sel)
	})
}

// Dispatch runs a command in a session. A nil sel uses the session's
// current selection.
func (s *Service) Dispatch(_ context.Context, sid, command string, sel document.Selection, payload editor.Payload) (*SessionView, error) {
	return s.withSession(sid, func(sess *session) error {
		return sess.editor.DispatchAt(command, sel, payload)
	})
}

// Undo reverts the last committed command of a session.
func (s *Service) Undo(_ context.Context, sid string) (*SessionView, error) {
	return s.withSession(sid, func(sess *session) error {
		sess.editor.Undo()
		return nil
	})
}

// Redo re-applies the last undone command of a session.
func (s *Service) Redo(_ context.Context, sid string) (*SessionView, error) {
	return s.withSession(sid, func(sess *session) error {
		sess.editor.Redo()
		return nil
	})
}

// SaveSession writes the session state back to its document. It fails with
// apperr.ErrConflict when the document changed since the session opened or
// last saved.
func (s *Service) SaveSession(ctx context.Context, sid string) (*Document, error) {
	sess, err := s.lookup(sid)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	row, err := s.store.Get(ctx, sess.docID)
	if err != nil {
		return nil, err
	}
	if row.Checksum != sess.baseChecksum {
		return nil, fmt.Errorf("document %s changed since the session started: %w", sess.docID, apperr.ErrConflict)
	}
	st := sess.editor.State()
	if st == sess.saved {
		return toDocument(row), nil
	}
	doc, err := s.persist(ctx, *row, st)
	if err != nil {
		return nil, err
	}
	sess.baseChecksum = doc.Checksum
	sess.saved = st
	s.pub.PublishDocumentEvent("updated", doc.ID)
	return doc, nil
}

// CloseSession discards a session and its history.
func (s *Service) CloseSession(_ context.Context, sid string) error {
	if _, err := s.lookup(sid); err != nil {
		return err
	}
	s.sessions.Delete(sid)
	return nil
}

func (s *Service) lookup(sid string) (*session, error) {
	v, ok := s.sessions.Get(sid)
	if !ok {
		return nil, apperr.ErrSessionNotFound
	}
	sess := v.(*session)
	// Touch to extend the idle expiry.
	s.sessions.SetDefault(sid, sess)
	return sess, nil
}

func (s *Service) withSession(sid string, fn func(*session) error) (*SessionView, error) {
	sess, err := s.lookup(sid)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := fn(sess); err != nil {
		return nil, err
	}
	return s.view(sess)
}

func (s *Service) view(sess *session) (*SessionView, error) {
	st := sess.editor.State()
	state, err := codec.ToJSON(st, codec.WithKeys())
	if err != nil {
		return nil, err
	}
	html, err := codec.ToHTMLWithOptions(st, s.opts.HTML)
	if err != nil {
		return nil, err
	}
	return &SessionView{
		ID:         sess.id,
		DocumentID: sess.docID,
		Version:    st.Version(),
		CanUndo:    sess.editor.CanUndo(),
		CanRedo:    sess.editor.CanRedo(),
		Dirty:      st != sess.saved,
		Selection:  sess.editor.Selection(),
		State:      state,
		HTML:       html,
	}, nil
}

func (s *Service) closeSessionsFor(docID string) {
	for id, item := range s.sessions.Items() {
		if sess, ok := item.Object.(*session); ok && sess.docID == docID {
			s.sessions.Delete(id)
		}
	}
}
