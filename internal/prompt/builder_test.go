package prompt_test

import (
	"strings"
	"testing"

	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/raphaelgruber/replan-rag/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapTemplates map[string]string

func (m mapTemplates) Template(name string) (string, bool) {
	t, ok := m[name]
	return t, ok
}

func stacked() *models.Structure {
	return &models.Structure{Relationship: models.RelStacked, Placements: []models.Placement{
		{Position: "bottom", Object: "blue"},
		{Position: "top", Object: "red"},
	}}
}

func TestSelectVariant(t *testing.T) {
	tests := []struct {
		name   string
		target *models.Structure
		rtype  models.ReplacementType
		want   prompt.Variant
	}{
		{"legacy", nil, models.ReplacementNone, prompt.VariantLegacy},
		{"bottom", stacked(), models.ReplacementBottomOnly, prompt.VariantStackBottom},
		{"middle", stacked(), models.ReplacementMiddleOnly, prompt.VariantStackMiddle},
		{"top", stacked(), models.ReplacementTopOnly, prompt.VariantStackTop},
		{"multiple", stacked(), models.ReplacementMultiple, prompt.VariantStackMultiple},
		{"extension", stacked(), models.ReplacementExtension, prompt.VariantStackExtend},
		{"build", stacked(), models.ReplacementNone, prompt.VariantStackBuild},
		{"single stack", &models.Structure{Relationship: models.RelStackedRight}, models.ReplacementNone, prompt.VariantStackBuild},
		{"separation", &models.Structure{Relationship: models.RelSeparatedFrontBack}, models.ReplacementNone, prompt.VariantSeparation},
		{"pyramid", &models.Structure{Relationship: models.RelPyramid}, models.ReplacementNone, prompt.VariantGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, prompt.SelectVariant(tt.target, tt.rtype))
		})
	}
}

func TestSystemOrdersPriorityRules(t *testing.T) {
	rules := []models.ScoredRule{
		{Rule: models.Rule{ID: "a", Title: "Json Structure", Content: "schema", Category: models.CategoryJSONStructure}},
		{Rule: models.Rule{ID: "b", Title: "Bottom Replacement", Content: "clear all", Category: models.CategoryStackReplacementBottom}},
		{Rule: models.Rule{ID: "c", Content: "untitled", Category: models.CategoryNone}},
		{Rule: models.Rule{ID: "d", Title: "Execution Order", Content: "bottom first", Category: models.CategoryExecutionOrder}},
	}

	sys := prompt.NewBuilder(nil).System(stacked(), models.ReplacementBottomOnly, rules)

	critical := strings.Index(sys, "## Critical physical constraint rules")
	supporting := strings.Index(sys, "## Additional supporting rules")
	require.Positive(t, critical)
	require.Greater(t, supporting, critical)

	bottom := strings.Index(sys, "### Bottom Replacement")
	order := strings.Index(sys, "### Execution Order")
	schema := strings.Index(sys, "### Json Structure")
	untitled := strings.Index(sys, "### c")

	assert.True(t, critical < bottom && bottom < order && order < supporting)
	assert.True(t, supporting < schema && schema < untitled)
	assert.Contains(t, sys, "carries the whole stack")
	assert.Contains(t, sys, "ONLY the JSON object")
}

func TestSystemTemplateOverride(t *testing.T) {
	b := prompt.NewBuilder(mapTemplates{
		"system_stack_bottom_only": "  custom bottom guidance\n",
		"system_separation":        "   ",
	})

	assert.Equal(t, "custom bottom guidance", b.Guidance(prompt.VariantStackBottom))
	assert.Contains(t, b.Guidance(prompt.VariantSeparation), "side by side", "blank override falls back")
	assert.Contains(t, b.System(stacked(), models.ReplacementBottomOnly, nil), "custom bottom guidance")
}

func TestUser(t *testing.T) {
	target := &models.Spec{TargetStructure: stacked()}

	got, err := prompt.User(target, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "TARGET_SPEC:\n{\n  \"target_structure\": {"))
	assert.Contains(t, got, `"object": "blue"`)
	assert.Contains(t, got, "CURRENT_STATE:\n{}")
	assert.True(t, strings.HasSuffix(got, "Output ONLY the JSON."))
}
