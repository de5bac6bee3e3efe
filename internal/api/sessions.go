package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/scribe/internal/docservice"
	"github.com/starford/scribe/internal/editor"
)

// OpenSession handles POST /api/documents/{id}/sessions.
//
//	@Summary		Start an editing session on a document
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		201	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/sessions [post]
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := h.svc.OpenSession(r.Context(), id)
	if err != nil {
		writeError(w, "open session", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse(view))
}

// GetSession handles GET /api/sessions/{sid}.
//
//	@Summary		Get the state, selection and HTML of a session
//	@Tags			sessions
//	@Produce		json
//	@Param			sid	path		string	true	"Session id"
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sid} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.sessionView(w, r, "get session", h.svc.Session)
}

// Select handles PUT /api/sessions/{sid}/selection.
//
//	@Summary		Move the selection of a session
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			sid		path		string			true	"Session id"
//	@Param			body	body		SelectRequest	true	"New selection"
//	@Success		200		{object}	SessionResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sid}/selection [put]
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	var req SelectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Selection == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("selection is required"))
		return
	}
	sel, err := req.Selection.selection()
	if err != nil {
		writeError(w, "select", err)
		return
	}
	view, err := h.svc.Select(r.Context(), sid, sel)
	if err != nil {
		writeError(w, "select", err, slog.String("session_id", sid))
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(view))
}

// Dispatch handles POST /api/sessions/{sid}/commands.
//
//	@Summary		Run an editor command
//	@Description	A failed command leaves the session unchanged. Stale selections
//	@Description	answer 409; commands that do not apply or carry invalid
//	@Description	values answer 422.
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			sid		path		string			true	"Session id"
//	@Param			body	body		CommandRequest	true	"Command"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sid}/commands [post]
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	var req CommandRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Command == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("command is required"))
		return
	}
	sel, err := req.Selection.selection()
	if err != nil {
		writeError(w, "dispatch", err)
		return
	}
	view, err := h.svc.Dispatch(r.Context(), sid, req.Command, sel, req.Payload)
	if err != nil {
		writeError(w, "dispatch", err, slog.String("session_id", sid), slog.String("command", req.Command))
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(view))
}

// Undo handles POST /api/sessions/{sid}/undo.
//
//	@Summary		Undo the last command
//	@Tags			sessions
//	@Produce		json
//	@Param			sid	path		string	true	"Session id"
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sid}/undo [post]
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.sessionView(w, r, "undo", h.svc.Undo)
}

// Redo handles POST /api/sessions/{sid}/redo.
//
//	@Summary		Redo the last undone command
//	@Tags			sessions
//	@Produce		json
//	@Param			sid	path		string	true	"Session id"
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sid}/redo [post]
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	h.sessionView(w, r, "redo", h.svc.Redo)
}

// SaveSession handles POST /api/sessions/{sid}/save.
//
//	@Summary		Write the session state back to its document
//	@Tags			sessions
//	@Produce		json
//	@Param			sid	path		string	true	"Session id"
//	@Success		200	{object}	Document
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sid}/save [post]
func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	doc, err := h.svc.SaveSession(r.Context(), sid)
	if err != nil {
		writeError(w, "save session", err, slog.String("session_id", sid))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// CloseSession handles DELETE /api/sessions/{sid}.
//
//	@Summary		Discard a session
//	@Tags			sessions
//	@Param			sid	path	string	true	"Session id"
//	@Success		204	"Session closed"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{sid} [delete]
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	if err := h.svc.CloseSession(r.Context(), sid); err != nil {
		writeError(w, "close session", err, slog.String("session_id", sid))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Commands handles GET /api/commands.
//
//	@Summary		List editor command names
//	@Tags			sessions
//	@Produce		json
//	@Success		200	{object}	CommandsResponse
//	@Security		BearerAuth
//	@Router			/commands [get]
func (h *Handler) Commands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CommandsResponse{Commands: editor.DefaultRegistry().Names()})
}

type sessionFunc func(ctx context.Context, sid string) (*docservice.SessionView, error)

func (h *Handler) sessionView(w http.ResponseWriter, r *http.Request, op string, fn sessionFunc) {
	sid := chi.URLParam(r, "sid")
	view, err := fn(r.Context(), sid)
	if err != nil {
		writeError(w, op, err, slog.String("session_id", sid))
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(view))
}
