package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/raphaelgruber/replan-rag/internal/config"
	"github.com/raphaelgruber/replan-rag/internal/embedding"
	"github.com/raphaelgruber/replan-rag/internal/knowledge"
	"github.com/raphaelgruber/replan-rag/internal/llm"
	"github.com/raphaelgruber/replan-rag/internal/metrics"
	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/raphaelgruber/replan-rag/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator returns its replies in order and repeats the last one.
type scriptedGenerator struct {
	replies []string
	calls   int
	system  string
}

func (g *scriptedGenerator) GenerateWithSystem(_ context.Context, systemPrompt, _ string) (llm.Completion, error) {
	g.system = systemPrompt
	reply := g.replies[min(g.calls, len(g.replies)-1)]
	g.calls++
	return llm.Completion{Text: reply, InputTokens: 100, OutputTokens: 50}, nil
}

type failingGenerator struct{}

func (failingGenerator) GenerateWithSystem(context.Context, string, string) (llm.Completion, error) {
	return llm.Completion{}, errors.New("connection refused")
}

func step(n int, action, object, from, to string) string {
	return `{"step": ` + string(rune('0'+n)) + `, "action": "` + action + `", "object": "` + object +
		`", "from": ` + from + `, "to": ` + to + `}`
}

const finalBlueGreenRed = `"final_expected": {"target_structure": {"relationship": "stacked", "placements": [
	{"position": "bottom", "object": "blue cube"},
	{"position": "middle", "object": "green cube"},
	{"position": "top", "object": "red cube"}]}}`

func planOutput(steps ...string) string {
	return "```json\n{\"status\": \"success\", \"plan\": [" + strings.Join(steps, ",\n") + "],\n" + finalBlueGreenRed + "}\n```"
}

var (
	bottomReplacementPlan = planOutput(
		step(1, "move_to_buffer", "red cube", `{"type": "stack", "position": "top"}`, `{"type": "buffer", "slot": "B1"}`),
		step(2, "move_to_buffer", "green cube", `{"type": "stack", "position": "middle"}`, `{"type": "buffer", "slot": "B2"}`),
		step(3, "move_to_position", "yellow cube", `{"type": "stack", "position": "bottom"}`, `{"type": "scattered"}`),
		step(4, "move_to_position", "blue cube", `{"type": "scattered"}`, `{"type": "stack", "position": "bottom"}`),
		step(5, "move_from_buffer", "green cube", `{"type": "buffer", "slot": "B2"}`, `{"type": "stack", "position": "middle"}`),
		step(6, "move_from_buffer", "red cube", `{"type": "buffer", "slot": "B1"}`, `{"type": "stack", "position": "top"}`),
	)

	// Restores top before middle.
	outOfOrderPlan = planOutput(
		step(1, "move_to_buffer", "red cube", `{"type": "stack", "position": "top"}`, `{"type": "buffer", "slot": "B1"}`),
		step(2, "move_to_buffer", "green cube", `{"type": "stack", "position": "middle"}`, `{"type": "buffer", "slot": "B2"}`),
		step(3, "move_to_position", "yellow cube", `{"type": "stack", "position": "bottom"}`, `{"type": "scattered"}`),
		step(4, "move_to_position", "blue cube", `{"type": "scattered"}`, `{"type": "stack", "position": "bottom"}`),
		step(5, "move_from_buffer", "red cube", `{"type": "buffer", "slot": "B1"}`, `{"type": "stack", "position": "top"}`),
		step(6, "move_from_buffer", "green cube", `{"type": "buffer", "slot": "B2"}`, `{"type": "stack", "position": "middle"}`),
	)

	// Two objects sent to the bottom layer.
	conflictingPlan = planOutput(
		step(1, "move_to_position", "blue cube", `{"type": "scattered"}`, `{"type": "stack", "position": "bottom"}`),
		step(2, "move_to_position", "yellow cube", `{"type": "scattered"}`, `{"type": "stack", "position": "bottom"}`),
	)
)

func spec(pairs ...string) *models.Spec {
	s := &models.Structure{Relationship: models.RelStacked}
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Placements = append(s.Placements, models.Placement{Position: pairs[i], Object: pairs[i+1]})
	}
	return &models.Spec{TargetStructure: s}
}

func bottomReplacementRequest() Request {
	return Request{
		Target:  spec("bottom", "blue cube", "middle", "green cube", "top", "red cube"),
		Current: spec("bottom", "yellow cube", "middle", "green cube", "top", "red cube"),
	}
}

func newTestService(t *testing.T, gen Generator, opts Options) *ReplanService {
	t.Helper()
	ctx := context.Background()

	base, err := knowledge.Default()
	require.NoError(t, err)

	p, err := NewPipelineWith(ctx, base, embedding.NewHashEmbedder(0), 0, PipelineOptions{Metrics: opts.Metrics})
	require.NoError(t, err)

	return NewReplanService(p.Retriever, p.Prompts, gen, opts)
}

func TestReplanBottomReplacement(t *testing.T) {
	collector := metrics.NewCollector()
	gen := &scriptedGenerator{replies: []string{bottomReplacementPlan}}
	svc := newTestService(t, gen, Options{TopK: 3, Metrics: collector})

	out, err := svc.Replan(context.Background(), bottomReplacementRequest())
	require.NoError(t, err)

	assert.Len(t, out.RunID, 8)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, models.ScenarioStackReplacementBottom, out.Selection.Classification.Scenario)
	assert.Equal(t, models.ReplacementBottomOnly, out.Selection.Classification.ReplacementType)

	require.NotNil(t, out.Result)
	assert.Equal(t, models.StatusSuccess, out.Result.Status)
	require.Len(t, out.Result.Plan, 6)
	assert.Equal(t, "blue cube", out.Result.Plan[3].Object)
	assert.True(t, out.Report.Passed)
	assert.Nil(t, out.Report.Failure)

	assert.Equal(t, gen.system, out.SystemPrompt)
	assert.Contains(t, out.SystemPrompt, "Critical physical constraint rules")
	assert.Contains(t, out.UserPrompt, `"yellow cube"`)

	snap := collector.Snapshot()
	assert.Equal(t, int64(1), snap.Outcomes["ok"])
	var names []string
	for _, op := range snap.Operations {
		names = append(names, op.Name)
	}
	assert.Contains(t, names, metrics.OpEmbedding)
	assert.Contains(t, names, metrics.OpGenerate)
	assert.Contains(t, names, metrics.OpVerify)
}

func TestReplanOutOfOrderRestore(t *testing.T) {
	collector := metrics.NewCollector()
	svc := newTestService(t, &scriptedGenerator{replies: []string{outOfOrderPlan}}, Options{Metrics: collector})

	out, err := svc.Replan(context.Background(), bottomReplacementRequest())
	require.NoError(t, err, "a target mismatch is reported, not returned")

	assert.False(t, out.Report.Passed)
	require.NotNil(t, out.Report.Failure)
	assert.Equal(t, validate.MismatchOrder, out.Report.Failure.Kind)
	assert.Equal(t, int64(1), collector.Snapshot().Outcomes["target_mismatch"])
}

func TestReplanRetriesFormatErrors(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"Sure! Here is the plan you asked for.", bottomReplacementPlan}}
	svc := newTestService(t, gen, Options{MaxAttempts: 3})

	out, err := svc.Replan(context.Background(), bottomReplacementRequest())
	require.NoError(t, err)

	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, 2, gen.calls)
	assert.True(t, out.Report.Passed)
}

func TestReplanValidationErrors(t *testing.T) {
	tests := []struct {
		name         string
		reply        string
		maxAttempts  int
		wantErr      error
		wantAttempts int
	}{
		{"format exhausts attempts", "no json here", 2, validate.ErrFormat, 2},
		{"schema exhausts attempts", `{"status": "success"}`, 2, validate.ErrSchema, 2},
		{"consistency is not retried", conflictingPlan, 3, validate.ErrConsistency, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{replies: []string{tt.reply}}
			svc := newTestService(t, gen, Options{MaxAttempts: tt.maxAttempts})

			out, err := svc.Replan(context.Background(), bottomReplacementRequest())
			require.Error(t, err)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.wantErr)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantAttempts, verr.Attempts)
			assert.Equal(t, tt.reply, verr.Raw)
			assert.Equal(t, tt.wantAttempts, gen.calls)
		})
	}
}

func TestReplanGeneratorFailure(t *testing.T) {
	svc := newTestService(t, failingGenerator{}, Options{})

	_, err := svc.Replan(context.Background(), bottomReplacementRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestReplanRequiresGenerator(t *testing.T) {
	svc := newTestService(t, nil, Options{})

	_, err := svc.Replan(context.Background(), bottomReplacementRequest())
	assert.Error(t, err)
}

func TestPrepareRejectsInvalidTarget(t *testing.T) {
	svc := newTestService(t, nil, Options{})

	tests := []struct {
		name   string
		target *models.Spec
	}{
		{"missing", nil},
		{"missing middle", spec("bottom", "a", "top", "b", "left", "c")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Prepare(context.Background(), Request{Target: tt.target})
			assert.ErrorIs(t, err, validate.ErrSchema)
		})
	}
}

func TestNewEmbedder(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantErr  bool
		wantType any
	}{
		{"hash skips cache", config.Config{EmbedProvider: config.ProviderHash, CacheDir: t.TempDir()}, false, &embedding.HashEmbedder{}},
		{"ollama cached", config.Config{EmbedProvider: config.ProviderOllama, OllamaHost: "http://localhost:11434", CacheDir: t.TempDir()}, false, &embedding.CachedEmbedder{}},
		{"ollama uncached", config.Config{EmbedProvider: config.ProviderOllama, OllamaHost: "http://localhost:11434"}, false, &embedding.OllamaClient{}},
		{"voyage without key", config.Config{EmbedProvider: config.ProviderVoyage}, true, nil},
		{"openai without key", config.Config{EmbedProvider: config.ProviderOpenAI}, true, nil},
		{"unknown", config.Config{EmbedProvider: "bogus"}, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb, err := NewEmbedder(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, emb)
		})
	}
}
