package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	maxArgLogLen         = 200
	slowRequestThreshold = time.Second
)

// LoggingMiddleware logs every request with its duration. Tool calls also
// log the tool name, truncated arguments and whether the tool reported an
// error. Failures log at ERROR, slow requests at WARN, the rest at DEBUG.
func LoggingMiddleware(logger *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)
			elapsed := time.Since(start)

			attrs := append([]any{"method", method, "duration_ms", elapsed.Milliseconds()}, toolAttrs(req, result)...)
			level, msg := slog.LevelDebug, "request completed"
			switch {
			case err != nil:
				attrs = append(attrs, "error", err.Error())
				level, msg = slog.LevelError, "request failed"
			case elapsed > slowRequestThreshold:
				level, msg = slog.LevelWarn, "slow request"
			}
			logger.Log(ctx, level, msg, attrs...)
			return result, err
		}
	}
}

func toolAttrs(req mcp.Request, result mcp.Result) []any {
	var attrs []any
	if p, ok := req.GetParams().(*mcp.CallToolParamsRaw); ok && p != nil {
		attrs = append(attrs, "tool", p.Name)
		if len(p.Arguments) > 0 {
			attrs = append(attrs, "args", truncate(string(p.Arguments), maxArgLogLen))
		}
	}
	if r, ok := result.(*mcp.CallToolResult); ok && r != nil && r.IsError {
		attrs = append(attrs, "tool_error", true)
	}
	return attrs
}

// truncate cuts s to at most n bytes, marking the cut with "...".
func truncate(s string, n int) string {
	switch {
	case len(s) <= n:
		return s
	case n < 3:
		return s[:n]
	}
	return s[:n-3] + "..."
}
