package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
)

const (
	toolSearch      = "legal_search"
	toolAsk         = "legal_ask"
	toolIndexStatus = "legal_index_status"
)

type SearchOutput struct {
	Query   string                   `json:"query"`
	Count   int                      `json:"count"`
	Cached  bool                     `json:"cached"`
	Results []domain.RetrievalResult `json:"results"`
}

func (s *Server) registerTools() {
	s.server.AddTool(mcp.NewTool(toolSearch,
		mcp.WithDescription("Search Colombian labor-law documents (laws, decrees, rulings) by relevance."),
		mcp.WithString("query", mcp.Required(), mcp.Description("search text, at least 3 characters")),
		mcp.WithString("document_type", mcp.Description("optional filter: sentencia, ley, decreto, resolucion, circular, concepto, otro")),
		mcp.WithString("category", mcp.Description("optional category filter, e.g. Licencias")),
		mcp.WithNumber("limit", mcp.Description("maximum number of results (default 10, max 100)")),
	), s.handleSearch)

	if s.ports.Assistant != nil {
		s.server.AddTool(mcp.NewTool(toolAsk,
			mcp.WithDescription("Answer a labor-law question with cited sources and a confidence score."),
			mcp.WithString("question", mcp.Required(), mcp.Description("the question in Spanish")),
		), s.handleAsk)
	}

	if s.ports.Index != nil {
		s.server.AddTool(mcp.NewTool(toolIndexStatus,
			mcp.WithDescription("Report the state of the relevance index."),
		), s.handleIndexStatus)
	}
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query := domain.SearchQuery{
		Text:     text,
		Category: req.GetString("category", ""),
		Limit:    req.GetInt("limit", 0),
	}
	if raw := req.GetString("document_type", ""); raw != "" {
		docType, err := domain.ParseDocumentType(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		query.Type = docType
	}

	results, err := s.ports.Retriever.Search(ctx, query)
	if err != nil {
		s.logger.Warn("mcp_search_failed", "error", err)
		return nil, fmt.Errorf("search: %w", err)
	}
	if results == nil {
		results = []domain.RetrievalResult{}
	}
	return jsonResult(SearchOutput{
		Query:   text,
		Count:   len(results),
		Cached:  len(results) > 0 && results[0].FromCache,
		Results: results,
	})
}

func (s *Server) handleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.ports.Assistant.Ask(ctx, question))
}

func (s *Server) handleIndexStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.ports.Index.Status())
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
