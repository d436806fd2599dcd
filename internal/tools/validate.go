package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/raphaelgruber/replan-rag/internal/validate"
)

// ValidateInput defines the input schema for the validate_output tool.
type ValidateInput struct {
	Output string `json:"output" jsonschema:"generated text containing the JSON plan or structure"`
	Target string `json:"target,omitempty" jsonschema:"target structure JSON to verify the declared final structure against"`
}

// validateOutput is the validate_output success payload.
type validateOutput struct {
	Result *models.Result   `json:"result"`
	Report *validate.Report `json:"report,omitempty"`
}

var kindHints = map[string]string{
	"format":      "Return a single JSON object",
	"schema":      "Check required fields, positions per relationship and buffer slots",
	"consistency": "Each position may receive one object, each object one position",
}

// NewValidateHandler creates the validate_output tool handler.
func NewValidateHandler(deps *Dependencies) mcp.ToolHandlerFor[ValidateInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ValidateInput) (*mcp.CallToolResult, any, error) {
		if input.Output == "" {
			return ErrorResult("Output cannot be empty", "Provide the generated text"), nil, nil
		}

		result, err := validate.ParseResult(input.Output)
		if err != nil {
			kind := validate.Kind(err)
			deps.Logger.Debug("output rejected", "kind", kind, "error", err)
			return ErrorResult(err.Error(), kindHints[kind]), nil, nil
		}

		out := validateOutput{Result: result}
		if input.Target != "" {
			target, err := models.ParseSpec([]byte(input.Target))
			if err != nil {
				return ErrorResult("Target is not valid JSON: "+err.Error(), ""), nil, nil
			}
			report := validate.VerifyTarget(result, target)
			out.Report = &report
		}

		res, err := JSONResult(out)
		return res, nil, err
	}
}
