package tools

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/replan-rag/internal/validate"
)

// PromptInput defines the input schema for the build_prompt tool.
type PromptInput struct {
	Target  string `json:"target" jsonschema:"target structure JSON with target_structure.relationship and target_structure.placements"`
	Current string `json:"current,omitempty" jsonschema:"observed structure JSON in the same shape as target"`
}

// NewPromptHandler creates the build_prompt tool handler. It returns the
// selection and both prompts so the caller can generate with its own model.
func NewPromptHandler(deps *Dependencies) mcp.ToolHandlerFor[PromptInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PromptInput) (*mcp.CallToolResult, any, error) {
		r, errResult := parseRequest(input.Target, input.Current)
		if errResult != nil {
			return errResult, nil, nil
		}

		prepared, err := deps.Replan.Prepare(ctx, r)
		if err != nil {
			if errors.Is(err, validate.ErrSchema) {
				return ErrorResult(err.Error(), "Fix the target structure"), nil, nil
			}
			deps.Logger.Error("prompt preparation failed", "error", err)
			return ErrorResult("Prompt preparation failed", "Check the embedding provider"), nil, nil
		}

		result, err := JSONResult(prepared)
		return result, nil, err
	}
}
