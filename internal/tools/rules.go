package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/replan-rag/internal/models"
)

// maxRules bounds top_k and limit arguments.
const maxRules = 50

// RulesInput defines the input schema for the retrieve_rules tool.
type RulesInput struct {
	Target  string `json:"target" jsonschema:"target structure JSON with target_structure.relationship and target_structure.placements"`
	Current string `json:"current,omitempty" jsonschema:"observed structure JSON in the same shape as target"`
	TopK    int    `json:"top_k,omitempty" jsonschema:"selection bound, enforced rules may exceed it"`
}

// NewRulesHandler creates the retrieve_rules tool handler.
func NewRulesHandler(deps *Dependencies) mcp.ToolHandlerFor[RulesInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RulesInput) (*mcp.CallToolResult, any, error) {
		r, errResult := parseRequest(input.Target, input.Current)
		if errResult != nil {
			return errResult, nil, nil
		}

		k := input.TopK
		if k <= 0 {
			k = deps.TopK
		}
		if k > maxRules {
			return ErrorResult(fmt.Sprintf("top_k must be 1-%d", maxRules), "Reduce top_k"), nil, nil
		}

		sel, err := deps.Pipeline.Retriever.RetrieveAndFilterRules(ctx, r.Target.Structure(), r.Current.Structure(), k)
		if err != nil {
			deps.Logger.Error("rule retrieval failed", "error", err)
			return ErrorResult("Rule retrieval failed", "Check the embedding provider"), nil, nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Scenario: %s (%s)\n", sel.Classification.Scenario, sel.Classification.ReplacementType)
		fmt.Fprintf(&sb, "Selected %d rules:\n", len(sel.Rules))
		writeRules(&sb, sel.Rules, true)
		return TextResult(sb.String()), nil, nil
	}
}

// SearchInput defines the input schema for the search_rules tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"free-text query"`
	Limit int    `json:"limit,omitempty" jsonschema:"max results, default 5"`
}

// NewSearchHandler creates the search_rules tool handler.
func NewSearchHandler(deps *Dependencies) mcp.ToolHandlerFor[SearchInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(input.Query) == "" {
			return ErrorResult("Query cannot be empty", "Provide a search query"), nil, nil
		}
		limit := input.Limit
		if limit <= 0 {
			limit = 5
		}
		if limit > maxRules {
			return ErrorResult(fmt.Sprintf("Limit must be 1-%d", maxRules), "Reduce limit value"), nil, nil
		}

		results, err := deps.Pipeline.Index.RetrieveRelevantRules(ctx, input.Query, limit)
		if err != nil {
			deps.Logger.Error("rule search failed", "error", err)
			return ErrorResult("Search failed", "Check the embedding provider"), nil, nil
		}
		if len(results) == 0 {
			return TextResult("No rules found."), nil, nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Found %d rules:\n", len(results))
		writeRules(&sb, results, false)
		return TextResult(sb.String()), nil, nil
	}
}

func writeRules(sb *strings.Builder, rules []models.ScoredRule, withContent bool) {
	for i, r := range rules {
		score := "enforced"
		if r.Score != nil {
			score = fmt.Sprintf("%.3f", *r.Score)
		}
		fmt.Fprintf(sb, "\n%d. %s [%s] (%s)\n", i+1, r.Title, r.ID, score)
		if withContent {
			fmt.Fprintf(sb, "%s\n", strings.TrimSpace(r.Content))
		}
	}
}
