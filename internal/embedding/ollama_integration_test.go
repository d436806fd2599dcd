//go:build integration

package embedding_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/raphaelgruber/replan-rag/internal/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startOllama runs an Ollama container with the default embedding model
// pulled and returns its base URL.
func startOllama(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "ollama/ollama:latest",
		ExposedPorts: []string{"11434/tcp"},
		WaitingFor:   wait.ForHTTP("/").WithPort("11434/tcp").WithStartupTimeout(2 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start ollama container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	code, out, err := container.Exec(ctx, []string{"ollama", "pull", embedding.DefaultOllamaModel})
	require.NoError(t, err)
	if code != 0 {
		logs, _ := io.ReadAll(out)
		t.Fatalf("pull model: exit %d: %s", code, logs)
	}

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "11434")
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

func TestOllamaEmbedding(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	baseURL := startOllama(t)
	client, err := embedding.NewOllamaClient(baseURL, "", 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	t.Run("single", func(t *testing.T) {
		emb, err := client.Embed(ctx, "bottom layer wrong object replacement")
		require.NoError(t, err)
		assert.Len(t, emb, client.Dimension())
	})

	t.Run("batch", func(t *testing.T) {
		texts := []string{
			"replace bottom object clear entire stack",
			"incorrect bottom object clear entire stack",
			"buffer slots for object rearrangement",
		}
		embs, err := client.EmbedBatch(ctx, texts)
		require.NoError(t, err)
		require.Len(t, embs, len(texts))

		near, err := embedding.CosineSimilarity(embs[0], embs[1])
		require.NoError(t, err)
		far, err := embedding.CosineSimilarity(embs[0], embs[2])
		require.NoError(t, err)
		t.Logf("similar: %.4f, different: %.4f", near, far)
		assert.Greater(t, near, far)
	})
}
