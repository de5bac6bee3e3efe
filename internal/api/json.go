package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/document"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
	// Kind classifies document and command failures.
	Kind string `json:"kind,omitempty" example:"stale_selection"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// errorKinds maps document error kinds to HTTP statuses. Order matters:
// the first match wins.
var errorKinds = []struct {
	err    error
	name   string
	status int
}{
	{document.ErrStaleSelection, "stale_selection", http.StatusConflict},
	{document.ErrNotApplicable, "not_applicable", http.StatusUnprocessableEntity},
	{document.ErrValidation, "validation", http.StatusUnprocessableEntity},
	{document.ErrStructural, "structural", http.StatusUnprocessableEntity},
	{document.ErrInvariant, "invariant", http.StatusUnprocessableEntity},
	{document.ErrNotFound, "node_not_found", http.StatusUnprocessableEntity},
	{document.ErrMalformedDocument, "malformed_document", http.StatusBadRequest},
}

// writeError maps service and document errors to responses. Unknown errors
// are logged and reported as 500.
func writeError(w http.ResponseWriter, op string, err error, attrs ...slog.Attr) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	case errors.Is(err, apperr.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
		return
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		return
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			writeJSON(w, k.status, errResponse{Error: err.Error(), Kind: k.name})
			return
		}
	}
	args := append([]any{slog.String("error", err.Error())}, attrsToAny(attrs)...)
	slog.Error(op+" failed", args...)
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

func attrsToAny(attrs []slog.Attr) []any {
	out := make([]any, len(attrs))
	for i, a := range attrs {
		out[i] = a
	}
	return out
}
