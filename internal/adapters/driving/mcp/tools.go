package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the natural-language question about the course"`
	Image    string `json:"image,omitempty" jsonschema:"optional base64-encoded image attached to the question"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer string       `json:"answer"`
	Links  []LinkOutput `json:"links"`
}

// LinkOutput is one cited source.
type LinkOutput struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Question string `json:"question" jsonschema:"the question to retrieve course material for"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieved chunk.
type SearchResultOutput struct {
	ChunkID string  `json:"chunk_id"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.inner, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about the course with cited sources",
	}, s.handleAsk)

	mcp.AddTool(s.inner, &mcp.Tool{
		Name:        "search",
		Description: "Retrieve the course material passages most relevant to a question",
	}, s.handleSearch)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answers.Ask(ctx, input.Question, input.Image)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer: answer.Text,
		Links:  make([]LinkOutput, len(answer.Links)),
	}
	for i, l := range answer.Links {
		output.Links[i] = LinkOutput{Title: l.Title, URL: l.URL}
	}
	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Answers.Retrieve(ctx, input.Question)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			ChunkID: results[i].ID,
			Title:   results[i].Title,
			URL:     results[i].URL,
			Score:   results[i].Score,
			Content: results[i].Content,
		}
	}
	return nil, output, nil
}
