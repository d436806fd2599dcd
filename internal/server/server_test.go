package server_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/replan-rag/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the server goroutine to log into.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type echoInput struct {
	Text string `json:"text" jsonschema:"text to echo"`
}

func connect(t *testing.T, srv *server.Server) (*mcp.ClientSession, context.Context) {
	t.Helper()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	go func() {
		_ = srv.Serve(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err, "client should connect successfully")
	t.Cleanup(func() { _ = session.Close() })
	return session, ctx
}

func TestServerCreation(t *testing.T) {
	srv := server.New("test-version", nil)
	require.NotNil(t, srv)
	require.NotNil(t, srv.MCP())
}

func TestServerInitialize(t *testing.T) {
	srv := server.New("0.1.0-test", nil)

	session, _ := connect(t, srv)

	initResult := session.InitializeResult()
	require.NotNil(t, initResult)
	assert.Equal(t, server.Name, initResult.ServerInfo.Name)
	assert.Equal(t, "0.1.0-test", initResult.ServerInfo.Version)
}

func TestLoggingMiddlewareLogsToolCalls(t *testing.T) {
	var logs syncBuffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	srv := server.New("0.1.0-test", logger)
	mcp.AddTool(srv.MCP(), &mcp.Tool{Name: "echo", Description: "echoes text"},
		func(ctx context.Context, req *mcp.CallToolRequest, in echoInput) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: in.Text}}}, nil, nil
		})

	session, ctx := connect(t, srv)

	for i := 0; i < 3; i++ {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "echo",
			Arguments: map[string]any{"text": strings.Repeat("x", 300)},
		})
		require.NoError(t, err, "request %d should succeed", i)
		require.Len(t, res.Content, 1)
	}

	out := logs.String()
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, "method=tools/call")
	assert.Contains(t, out, "tool=echo")
	assert.Contains(t, out, "...", "long arguments are truncated")
	assert.NotContains(t, out, strings.Repeat("x", 300))
}
