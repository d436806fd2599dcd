package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/raphaelgruber/replan-rag/internal/service"
)

// parseRequest decodes the target and current arguments. A non-nil result
// is the error to return to the client.
func parseRequest(target, current string) (service.Request, *mcp.CallToolResult) {
	if target == "" {
		return service.Request{}, ErrorResult("Target cannot be empty", "Provide the target structure JSON")
	}
	spec, err := models.ParseSpec([]byte(target))
	if err != nil {
		return service.Request{}, ErrorResult("Target is not valid JSON: "+err.Error(), "")
	}
	if spec.Structure() == nil {
		return service.Request{}, ErrorResult("Target has no structure", "Wrap it as {\"target_structure\": {...}}")
	}

	req := service.Request{Target: spec}
	if current != "" {
		req.Current, err = models.ParseSpec([]byte(current))
		if err != nil {
			return service.Request{}, ErrorResult("Current state is not valid JSON: "+err.Error(), "")
		}
	}
	return req, nil
}
