// Package editor runs named commands against an editing session: it
// resolves the selection, checks that the command applies, builds the next
// document tree and commits it with undo history.
package editor

import (
	"slices"
	"sync"

	"github.com/starford/scribe/internal/document"
)

// Context is what a command handler sees. Handlers must not keep it.
type Context struct {
	State     *document.EditorState
	Selection document.Selection
	Payload   Payload
	// Highlight asks code-block commands to tokenise their content.
	Highlight bool
}

// Tree is shorthand for c.State.Tree().
func (c Context) Tree() *document.Tree { return c.State.Tree() }

// Result is the outcome of a handler. Returning the context's own tree
// means the command changed nothing and nothing is committed.
type Result struct {
	Tree      *document.Tree
	Selection document.Selection
}

// Handler applies one command. It must be pure: same context, same result.
type Handler func(Context) (Result, error)

// Registry maps command names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Lookup returns the handler for name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names lists the registered commands plus undo and redo, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []string{CmdUndo, CmdRedo}
	for name := range r.handlers {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Command names.
const (
	CmdFormatText         = "format-text"
	CmdSetStyle           = "set-style"
	CmdSetTextColor       = "set-text-color"
	CmdSetBackgroundColor = "set-background-color"
	CmdSetFontFamily      = "set-font-family"
	CmdSetFontSize        = "set-font-size"
	CmdClearFormatting    = "clear-formatting"
	CmdFormatParagraph    = "format-paragraph"
	CmdFormatHeading      = "format-heading"
	CmdFormatQuote        = "format-quote"
	CmdFormatList         = "format-list"
	CmdFormatCodeBlock    = "format-code-block"
	CmdSetCodeLanguage    = "set-code-language"
	CmdHighlightCode      = "highlight-code"
	CmdInsertText         = "insert-text"
	CmdInsertNode         = "insert-node"
	CmdInsertImage        = "insert-image"
	CmdInsertVideo        = "insert-video"
	CmdInsertSeparator    = "insert-separator"
	CmdInsertTable        = "insert-table"
	CmdInsertTableRow     = "insert-table-row"
	CmdInsertTableColumn  = "insert-table-column"
	CmdRemoveTableRow     = "remove-table-row"
	CmdRemoveTableColumn  = "remove-table-column"
	CmdSetCellBackground  = "set-cell-background"
	CmdToggleLink         = "toggle-link"
	CmdSetImageAlignment  = "set-image-alignment"
	CmdResizeImage        = "resize-image"
	CmdDeleteNode         = "delete-node"
	CmdUndo               = "undo"
	CmdRedo               = "redo"
)

// DefaultRegistry returns a registry holding every built-in command.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(CmdFormatText, formatText)
	r.Register(CmdSetStyle, setStyle)
	r.Register(CmdSetTextColor, setStyleProperty(document.StyleColor, "color", colorRule))
	r.Register(CmdSetBackgroundColor, setStyleProperty(document.StyleBackgroundColor, "color", colorRule))
	r.Register(CmdSetFontFamily, setStyleProperty(document.StyleFontFamily, "family", fontFamilyRule))
	r.Register(CmdSetFontSize, setStyleProperty(document.StyleFontSize, "size", fontSizeRule))
	r.Register(CmdClearFormatting, clearFormatting)

	r.Register(CmdFormatParagraph, formatParagraph)
	r.Register(CmdFormatHeading, formatHeading)
	r.Register(CmdFormatQuote, formatQuote)
	r.Register(CmdFormatList, formatList)
	r.Register(CmdFormatCodeBlock, formatCodeBlock)
	r.Register(CmdSetCodeLanguage, setCodeLanguage)
	r.Register(CmdHighlightCode, highlightCode)

	r.Register(CmdInsertText, insertText)
	r.Register(CmdInsertNode, insertNode)
	r.Register(CmdInsertImage, insertKind(document.KindImage))
	r.Register(CmdInsertVideo, insertKind(document.KindVideoEmbed))
	r.Register(CmdInsertSeparator, insertKind(document.KindSeparator))
	r.Register(CmdInsertTable, insertKind(document.KindTable))

	r.Register(CmdInsertTableRow, insertTableRow)
	r.Register(CmdInsertTableColumn, insertTableColumn)
	r.Register(CmdRemoveTableRow, removeTableRow)
	r.Register(CmdRemoveTableColumn, removeTableColumn)
	r.Register(CmdSetCellBackground, setCellBackground)

	r.Register(CmdToggleLink, toggleLink)
	r.Register(CmdSetImageAlignment, setImageAlignment)
	r.Register(CmdResizeImage, resizeImage)
	r.Register(CmdDeleteNode, deleteNode)
	return r
}
