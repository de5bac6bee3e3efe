package api

import (
	"encoding/json"
	"fmt"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/docservice"
	"github.com/starford/scribe/internal/document"
	"github.com/starford/scribe/internal/editor"
	"github.com/starford/scribe/internal/store"
)

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Title   string `json:"title,omitempty" example:"Release notes"`
	Kind    string `json:"kind,omitempty" example:"document"`
	Format  string `json:"format,omitempty" example:"markdown" enums:"auto,json,markdown,html,text"`
	Content string `json:"content" example:"# Hello\nWorld"`
}

// UpdateDocumentRequest is the request body for updating a document.
type UpdateDocumentRequest struct {
	Title   *string `json:"title,omitempty" example:"Renamed"`
	Format  string  `json:"format,omitempty" example:"html"`
	Content *string `json:"content,omitempty" example:"<p>Updated</p>"`
}

// Document is the full document response type (aliased from the domain layer).
type Document = docservice.Document

// DocumentSummary is a lightweight item in a list response.
type DocumentSummary = docservice.Summary

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentSummary `json:"documents" validate:"required"`
	Total     int               `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	ID      string `json:"id" example:"0b5c..." validate:"required"`
	Title   string `json:"title" example:"Hello" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// RenderRequest converts an arbitrary stored payload.
type RenderRequest struct {
	Payload string `json:"payload"`
	To      string `json:"to,omitempty" example:"html"`
}

// RenderResponse is the outcome of a render.
type RenderResponse = docservice.Rendered

// PointDTO is a position in the document.
type PointDTO struct {
	Key    string `json:"key" validate:"required"`
	Offset int    `json:"offset"`
}

// SelectionDTO is the wire form of a selection. Type "range" uses Anchor and
// Focus; type "node" uses Key.
type SelectionDTO struct {
	Type   string    `json:"type" example:"range" enums:"range,node"`
	Anchor *PointDTO `json:"anchor,omitempty"`
	Focus  *PointDTO `json:"focus,omitempty"`
	Key    string    `json:"key,omitempty"`
}

func (d *SelectionDTO) selection() (document.Selection, error) {
	if d == nil {
		return nil, nil
	}
	switch d.Type {
	case "node":
		if d.Key == "" {
			return nil, fmt.Errorf("%w: node selection needs a key", apperr.ErrInvalidInput)
		}
		return document.Select(document.Key(d.Key)), nil
	case "range", "":
		if d.Anchor == nil {
			return nil, fmt.Errorf("%w: range selection needs an anchor", apperr.ErrInvalidInput)
		}
		focus := d.Focus
		if focus == nil {
			focus = d.Anchor
		}
		return document.Span(document.Key(d.Anchor.Key), d.Anchor.Offset, document.Key(focus.Key), focus.Offset), nil
	}
	return nil, fmt.Errorf("%w: unknown selection type %q", apperr.ErrInvalidInput, d.Type)
}

func selectionDTO(sel document.Selection) *SelectionDTO {
	switch s := sel.(type) {
	case *document.RangeSelection:
		return &SelectionDTO{
			Type:   "range",
			Anchor: &PointDTO{Key: string(s.Anchor.Key), Offset: s.Anchor.Offset},
			Focus:  &PointDTO{Key: string(s.Focus.Key), Offset: s.Focus.Offset},
		}
	case *document.NodeSelection:
		return &SelectionDTO{Type: "node", Key: string(s.Key)}
	}
	return nil
}

// CommandRequest runs one editor command.
type CommandRequest struct {
	Command   string         `json:"command" example:"format-text" validate:"required"`
	Selection *SelectionDTO  `json:"selection,omitempty"`
	Payload   editor.Payload `json:"payload,omitempty"`
}

// SelectRequest moves the session selection.
type SelectRequest struct {
	Selection *SelectionDTO `json:"selection" validate:"required"`
}

// SessionResponse is the state of an editing session. State is the keyed
// JSON document.
type SessionResponse struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	Version    uint64          `json:"version"`
	CanUndo    bool            `json:"can_undo"`
	CanRedo    bool            `json:"can_redo"`
	Dirty      bool            `json:"dirty"`
	Selection  *SelectionDTO   `json:"selection"`
	State      json.RawMessage `json:"state" swaggertype:"object"`
	HTML       string          `json:"html"`
}

func sessionResponse(v *docservice.SessionView) SessionResponse {
	return SessionResponse{
		ID:         v.ID,
		DocumentID: v.DocumentID,
		Version:    v.Version,
		CanUndo:    v.CanUndo,
		CanRedo:    v.CanRedo,
		Dirty:      v.Dirty,
		Selection:  selectionDTO(v.Selection),
		State:      json.RawMessage(v.State),
		HTML:       v.HTML,
	}
}

// CommandsResponse lists the registered command names.
type CommandsResponse struct {
	Commands []string `json:"commands"`
}

func searchResults(in []store.SearchResult) []SearchResult {
	out := make([]SearchResult, len(in))
	for i, r := range in {
		out[i] = SearchResult{ID: r.ID, Title: r.Title, Snippet: r.Snippet}
	}
	return out
}
