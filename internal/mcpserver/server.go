// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes scribe documents to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/docservice"
	"github.com/starford/scribe/internal/store"
)

const contractURI = "scribe://document-format"

// Server wraps the MCP server with scribe tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all scribe tools registered.
func New(svc *docservice.Service, version string) *Server {
	s := &Server{svc: svc}
	if version == "" {
		version = "dev"
	}

	s.mcp = server.NewMCPServer(
		"Scribe",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document titles and text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List documents, most recently updated first."),
		mcp.WithString("kind", mcp.Description("Optional kind filter (document or draft)")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read a document as Markdown, HTML, plain text or the structured JSON state."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("format",
			mcp.Description("Output format"),
			mcp.Enum("markdown", "html", "text", "json"),
		),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a new document. Content is Markdown unless format says otherwise. "+
			"Read the contract first via the get_document_contract tool or the "+contractURI+" resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Document content")),
		mcp.WithString("title", mcp.Description("Optional title; derived from the content when empty")),
		mcp.WithString("format",
			mcp.Description("Input format (default markdown)"),
			mcp.Enum("markdown", "html", "text", "json"),
		),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("render_content",
		mcp.WithDescription("Render any stored payload (structured JSON, legacy HTML or plain text) into another format."),
		mcp.WithString("payload", mcp.Required(), mcp.Description("Raw stored content")),
		mcp.WithString("to",
			mcp.Description("Target format (default html)"),
			mcp.Enum("markdown", "html", "text", "json"),
		),
	), s.renderContent)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the scribe document format contract. "+
			"Call this before creating documents to ensure correct structure."),
	), s.getDocumentContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Document Format Contract",
			mcp.WithResourceDescription("Blocks, inline formatting and Markdown conventions scribe documents follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("document not found")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func formatArg(req mcp.CallToolRequest, key string, def docservice.Format) (docservice.Format, error) {
	raw := req.GetString(key, "")
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	return docservice.ParseFormat(raw)
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return toolError(err), nil
	}
	if results == nil {
		results = []store.SearchResult{}
	}
	return toolJSON(results)
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.svc.List(ctx, store.ListQuery{
		Kind:  req.GetString("kind", ""),
		Limit: req.GetInt("limit", 50),
	})
	if err != nil {
		return toolError(err), nil
	}
	if items == nil {
		items = []docservice.Summary{}
	}
	return toolJSON(map[string]any{"documents": items, "total": total})
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := formatArg(req, "format", docservice.FormatMarkdown)
	if err != nil {
		return toolError(err), nil
	}
	out, err := s.svc.Export(ctx, id, format)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := formatArg(req, "format", docservice.FormatMarkdown)
	if err != nil {
		return toolError(err), nil
	}
	doc, err := s.svc.Create(ctx, docservice.CreateInput{
		Title:   req.GetString("title", ""),
		Format:  format,
		Content: content,
	})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%s)", doc.ID, doc.Title)), nil
}

func (s *Server) renderContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, err := req.RequireString("payload")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := formatArg(req, "to", docservice.FormatHTML)
	if err != nil {
		return toolError(err), nil
	}
	out, err := s.svc.Render(ctx, payload, to)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(out.Output), nil
}

func (s *Server) getDocumentContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
