package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ClassifyInput defines the input schema for the classify_scenario tool.
type ClassifyInput struct {
	Target  string `json:"target" jsonschema:"target structure JSON with target_structure.relationship and target_structure.placements"`
	Current string `json:"current,omitempty" jsonschema:"observed structure JSON in the same shape as target"`
}

// NewClassifyHandler creates the classify_scenario tool handler.
func NewClassifyHandler(deps *Dependencies) mcp.ToolHandlerFor[ClassifyInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ClassifyInput) (*mcp.CallToolResult, any, error) {
		r, errResult := parseRequest(input.Target, input.Current)
		if errResult != nil {
			return errResult, nil, nil
		}

		cls, err := deps.Pipeline.Classifier.Classify(ctx, r.Target.Structure(), r.Current.Structure())
		if err != nil {
			deps.Logger.Error("classification failed", "error", err)
			return ErrorResult("Classification failed", "Check the embedding provider"), nil, nil
		}

		result, err := JSONResult(cls)
		return result, nil, err
	}
}
