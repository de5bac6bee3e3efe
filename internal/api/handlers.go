package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/scribe/internal/docservice"
	"github.com/starford/scribe/internal/store"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

func parseFormat(w http.ResponseWriter, s string) (docservice.Format, bool) {
	f, err := docservice.ParseFormat(s)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return "", false
	}
	return f, true
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List documents with optional pagination and filtering
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			kind	query		string	false	"Filter by kind"
//	@Param			sort	query		string	false	"Sort field"	Enums(updated, created, title)
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.List(r.Context(), store.ListQuery{
		Limit:  limit,
		Offset: offset,
		Kind:   q.Get("kind"),
		Sort:   q.Get("sort"),
	})
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	if items == nil {
		items = []DocumentSummary{}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// GetDocument handles GET /api/documents/{id}.
//
//	@Summary		Get a single document
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{object}	Document
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get document", err, slog.String("id", id))
		return
	}
	w.Header().Set("ETag", strconv.Quote(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Create a document from JSON, Markdown, HTML or text content
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	true	"Document to create"
//	@Success		201		{object}	Document
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	format, ok := parseFormat(w, req.Format)
	if !ok {
		return
	}
	doc, err := h.svc.Create(r.Context(), docservice.CreateInput{
		Title:   req.Title,
		Kind:    req.Kind,
		Format:  format,
		Content: req.Content,
	})
	if err != nil {
		writeError(w, "create document", err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(doc.Checksum))
	writeJSON(w, http.StatusCreated, doc)
}

// UpdateDocument handles PUT /api/documents/{id}.
//
//	@Summary		Update a document with optimistic concurrency
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string					true	"Document id"
//	@Param			If-Match	header		string					false	"Checksum for optimistic concurrency"
//	@Param			body		body		UpdateDocumentRequest	true	"Changes"
//	@Success		200			{object}	Document
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [put]
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == nil && req.Content == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("title or content is required"))
		return
	}
	format, ok := parseFormat(w, req.Format)
	if !ok {
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	doc, err := h.svc.Update(r.Context(), id, docservice.UpdateInput{
		Title:   req.Title,
		Format:  format,
		Content: req.Content,
		IfMatch: ifMatch,
	})
	if err != nil {
		writeError(w, "update document", err, slog.String("id", id))
		return
	}
	w.Header().Set("ETag", strconv.Quote(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/{id}.
//
//	@Summary		Delete a document
//	@Tags			documents
//	@Param			id	path	string	true	"Document id"
//	@Success		204	"Document deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, "delete document", err, slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DocumentHTML handles GET /api/documents/{id}/html.
//
//	@Summary		Render a document as HTML
//	@Tags			documents
//	@Produce		html
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{string}	string
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/html [get]
func (h *Handler) DocumentHTML(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, docservice.FormatHTML, "text/html; charset=utf-8")
}

// DocumentMarkdown handles GET /api/documents/{id}/markdown.
//
//	@Summary		Export a document as Markdown
//	@Tags			documents
//	@Produce		plain
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{string}	string
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/markdown [get]
func (h *Handler) DocumentMarkdown(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, docservice.FormatMarkdown, "text/markdown; charset=utf-8")
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, f docservice.Format, contentType string) {
	id := chi.URLParam(r, "id")
	out, err := h.svc.Export(r.Context(), id, f)
	if err != nil {
		writeError(w, "export document", err, slog.String("id", id), slog.String("format", string(f)))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: searchResults(results)})
}

// Render handles POST /api/render.
//
//	@Summary		Render any stored payload with the fallback loader
//	@Tags			render
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenderRequest	true	"Payload and target format"
//	@Success		200		{object}	RenderResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/render [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	to := docservice.FormatHTML
	if req.To != "" {
		var ok bool
		if to, ok = parseFormat(w, req.To); !ok {
			return
		}
	}
	out, err := h.svc.Render(r.Context(), req.Payload, to)
	if err != nil {
		writeError(w, "render", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
