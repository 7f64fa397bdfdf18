package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/karthik738/AssessmentRecommendation/internal/retrieval"
)

const maxLimit = 50

type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type RecommendArgs struct {
	Query string `json:"query"`
	Limit *int   `json:"limit,omitempty"`
}

type GetAssessmentArgs struct {
	Name string `json:"name"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"inputSchema"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var tools = []Tool{
	{
		Name: "recommend_assessments",
		Description: `Recommends SHL assessments for a hiring need. Pass a job description, a role title or a list of skills; results are ordered best match first.

USAGE EXAMPLES:
- recommend_assessments(query="Java developer who collaborates with business teams, 40 minutes max")
- recommend_assessments(query="numerical reasoning for graduates", limit=3)`,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]string{
					"type":        "string",
					"description": "Free-text hiring need",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Max results to return",
					"minimum":     1,
					"maximum":     maxLimit,
				},
			},
			"required": []string{"query"},
		},
	},
	{
		Name:        "list_assessments",
		Description: `Lists the names of every assessment in the loaded catalog.`,
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	},
	{
		Name: "get_assessment",
		Description: `Returns the full catalog entry for one assessment by exact name (case-insensitive).

USAGE EXAMPLE:
get_assessment(name="Verify Numerical Reasoning")`,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]string{
					"type":        "string",
					"description": "Assessment name as listed by list_assessments",
				},
			},
			"required": []string{"name"},
		},
	},
}

func (h *Handler) callTool(ctx context.Context, id interface{}, params CallParams) *JSONRPCResponse {
	switch params.Name {
	case "recommend_assessments":
		var args RecommendArgs
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			resp := makeErrorResponse(id, ErrInvalidParams, "Invalid recommend arguments")
			return &resp
		}
		if strings.TrimSpace(args.Query) == "" {
			resp := makeErrorResponse(id, ErrInvalidParams, "Query is required")
			return &resp
		}
		if args.Limit != nil && (*args.Limit < 1 || *args.Limit > maxLimit) {
			resp := makeErrorResponse(id, ErrInvalidParams, fmt.Sprintf("Limit must be between 1 and %d", maxLimit))
			return &resp
		}

		results, err := h.recommender.Recommend(ctx, args.Query)
		if err != nil {
			slog.ErrorContext(ctx, "recommend tool failed", "error", err)
			if errors.Is(err, retrieval.ErrEmbedding) {
				return textResult(id, "Error: "+err.Error(), true)
			}
			resp := makeErrorResponse(id, ErrInternal, "Recommendation failed: "+err.Error())
			return &resp
		}
		if args.Limit != nil && len(results) > *args.Limit {
			results = results[:*args.Limit]
		}

		slog.InfoContext(ctx, "tool execution completed", "tool", params.Name, "result_count", len(results))
		return textResult(id, formatRecommendations(results), false)

	case "list_assessments":
		store := h.catalog.Store()
		if store == nil || store.Len() == 0 {
			return textResult(id, "No assessments loaded.", false)
		}
		data, err := json.MarshalIndent(store.Names(), "", "  ")
		if err != nil {
			return textResult(id, "Error marshalling results", true)
		}
		return textResult(id, string(data), false)

	case "get_assessment":
		var args GetAssessmentArgs
		if err := json.Unmarshal(params.Arguments, &args); err != nil || strings.TrimSpace(args.Name) == "" {
			resp := makeErrorResponse(id, ErrInvalidParams, "name is required")
			return &resp
		}
		store := h.catalog.Store()
		if store == nil {
			return textResult(id, "No assessments loaded.", true)
		}
		rec, ok := store.Find(args.Name)
		if !ok {
			return textResult(id, fmt.Sprintf("No assessment named %q.", args.Name), true)
		}
		return textResult(id, fmt.Sprintf("Assessment: %s\nSource: %s\n\n%s", rec.Name, rec.SourceURL, rec.Text), false)
	}

	slog.WarnContext(ctx, "tool not found", "tool", params.Name)
	resp := makeErrorResponse(id, ErrMethodNotFound, "Method not found: "+params.Name)
	return &resp
}

func textResult(id interface{}, text string, isError bool) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: ToolResult{
			Content: []ToolContent{{Type: "text", Text: text}},
			IsError: isError,
		},
	}
}

func formatRecommendations(results []retrieval.Recommendation) string {
	if len(results) == 0 {
		return "No results found."
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "Result %d: %s\n", i+1, r.Name)
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
		if r.Duration != "" {
			fmt.Fprintf(&b, "Duration: %s\n", r.Duration)
		}
		fmt.Fprintf(&b, "Remote Testing: %s\nAdaptive/IRT: %s\n", r.RemoteTesting, r.AdaptiveIRT)
		if len(r.TestTypes) > 0 {
			fmt.Fprintf(&b, "Test Types: %s\n", strings.Join(r.TestTypes, ", "))
		}
		if r.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", r.Description)
		}
		b.WriteString("\n---\n")
	}
	b.WriteString("\nUse get_assessment(name=\"...\") to read the full catalog entry.\n")
	return b.String()
}
