package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func textContent(text string) []mcp.Content {
	return []mcp.Content{&mcp.TextContent{Text: text}}
}

// ErrorResult reports a tool-level failure the calling model can read and
// act on. A non-empty hint is appended as a second sentence.
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	if hint != "" {
		msg += ". " + hint
	}
	return &mcp.CallToolResult{Content: textContent(msg), IsError: true}
}

// TextResult wraps plain text.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: textContent(text)}
}

// JSONResult wraps v rendered as indented JSON.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return TextResult(string(data)), nil
}
