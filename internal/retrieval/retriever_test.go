package retrieval

import (
	"context"
	"testing"

	"github.com/raphaelgruber/replan-rag/internal/embedding"
	"github.com/raphaelgruber/replan-rag/internal/knowledge"
	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/raphaelgruber/replan-rag/internal/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetriever(t *testing.T) *Retriever {
	t.Helper()
	ctx := context.Background()

	base, err := knowledge.Default()
	require.NoError(t, err)

	emb := embedding.NewHashEmbedder(0)
	ix, err := NewIndex(ctx, emb, base.Rules, IndexOptions{})
	require.NoError(t, err)

	cls, err := scenario.NewClassifier(ctx, emb, scenario.Options{})
	require.NoError(t, err)

	return NewRetriever(ix, cls, nil)
}

func TestRetrieveAndFilterRulesBottomReplacement(t *testing.T) {
	r := newTestRetriever(t)
	current := structure(models.RelStacked, "bottom", "yellow", "middle", "green", "top", "red")

	sel, err := r.RetrieveAndFilterRules(context.Background(), stackedTarget(), current, 3)
	require.NoError(t, err)

	assert.Equal(t, models.ScenarioStackReplacementBottom, sel.Classification.Scenario)
	assert.Equal(t, models.ReplacementBottomOnly, sel.Classification.ReplacementType)
	assert.Contains(t, sel.Query, "scenario: stack_replacement_bottom")

	// Enforced rules outnumber k, so only they are returned.
	got := ids(sel.Rules)
	assert.Len(t, got, 10)
	for _, want := range []string{
		"pattern_rules/stack_replacement_bottom.md",
		"core_rules/coordinate_free_actions.md",
		"core_rules/unified_output_format.md",
		"core_rules/execution_order.md",
		"pattern_rules/stack_replacement.md",
		"relationship_rules/stacked.md",
	} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, "pattern_rules/stack_replacement_middle.md")
	assert.NotContains(t, got, "relationship_rules/separated_left_right.md")
}

func TestRetrieveAndFilterRulesDefaultK(t *testing.T) {
	r := newTestRetriever(t)
	target := structure(models.RelPyramid, "bottom left", "a", "bottom right", "b", "top", "c")

	sel, err := r.RetrieveAndFilterRules(context.Background(), target, nil, 0)
	require.NoError(t, err)

	// Baseline plus the pyramid rule are all enforced.
	assert.Len(t, sel.Rules, 6)
	assert.Contains(t, ids(sel.Rules), "relationship_rules/pyramid.md")
}
