// Package tools exposes the replan pipeline as MCP tools.
package tools

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/replan-rag/internal/service"
)

// Dependencies are shared by every tool handler.
type Dependencies struct {
	Pipeline *service.Pipeline
	Replan   *service.ReplanService
	Logger   *slog.Logger

	// TopK is used when a call does not pass top_k.
	TopK int
}

// RegisterAll adds the classify, retrieve, search, prompt and validate
// tools to server.
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "classify_scenario",
		Description: "Classify an object rearrangement request into a scenario label",
	}, NewClassifyHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "retrieve_rules",
		Description: "Select the domain rules a rearrangement plan should follow, with mandatory rules enforced",
	}, NewRulesHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_rules",
		Description: "Rank rule documents by similarity to a free-text query",
	}, NewSearchHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_prompt",
		Description: "Render the system and user prompts for a rearrangement request",
	}, NewPromptHandler(deps))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_output",
		Description: "Validate a generated plan or structure and optionally verify it against the target",
	}, NewValidateHandler(deps))
}
