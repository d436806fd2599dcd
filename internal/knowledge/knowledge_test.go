package knowledge

import (
	"testing"
	"testing/fstest"

	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"kb/core_rules/execution_order.md":              {Data: []byte("# Execution Order\n\n**Query Intent**: order\n")},
		"kb/relationship_rules/stacked.md":              {Data: []byte("# Stacked\n")},
		"kb/relationship_rules/separated_front_back.md": {Data: []byte("# Front Back\n")},
		"kb/pattern_rules/custom.md":                    {Data: []byte("---\ncategory: physical_constraint\nfamily: separation\n---\n# Custom\n")},
		"kb/prompt_templates/system_bottom_only.md":     {Data: []byte("clear everything")},
		"kb/notes.txt": {Data: []byte("ignored")},
	}

	base, err := Load(fsys, "kb")
	require.NoError(t, err)
	require.Len(t, base.Rules, 4)

	ids := make([]string, len(base.Rules))
	for i, r := range base.Rules {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{
		"core_rules/execution_order.md",
		"pattern_rules/custom.md",
		"relationship_rules/separated_front_back.md",
		"relationship_rules/stacked.md",
	}, ids, "rules load in lexical path order")

	order, ok := base.Rule("core_rules/execution_order.md")
	require.True(t, ok)
	assert.Equal(t, models.CategoryExecutionOrder, order.Category)
	assert.Equal(t, models.GroupCore, order.Group)
	assert.Equal(t, "order", order.QueryIntent)

	stacked, _ := base.Rule("relationship_rules/stacked.md")
	assert.Equal(t, models.CategoryRelationship, stacked.Category)
	assert.Equal(t, models.RelStacked, stacked.Relationship)
	assert.Equal(t, models.FamilyStacking, stacked.Family)

	custom, _ := base.Rule("pattern_rules/custom.md")
	assert.Equal(t, models.CategoryPhysicalConstraint, custom.Category)
	assert.Equal(t, models.FamilySeparation, custom.Family)

	tmpl, ok := base.Template("system_bottom_only")
	require.True(t, ok)
	assert.Equal(t, "clear everything", tmpl)

	_, ok = base.Rule("missing.md")
	assert.False(t, ok)
}

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		path string
		want models.Family
	}{
		{"relationship_rules/stacked.md", models.FamilyStacking},
		{"relationship_rules/separated_left_right.md", models.FamilySeparation},
		{"relationship_rules/stacked_and_separated_left.md", models.FamilyNone},
		{"relationship_rules/separate_horizontal.md", models.FamilyNone},
		{"core_rules/execution_order.md", models.FamilyNone},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FamilyOf(tt.path))
		})
	}
}

func TestDefaultCorpus(t *testing.T) {
	base, err := Default()
	require.NoError(t, err)

	categories := make(map[models.Category]int)
	relationships := make(map[models.Relationship]bool)
	for _, r := range base.Rules {
		assert.NotEmpty(t, r.Title, r.ID)
		assert.NotEmpty(t, r.QueryIntent, r.ID)
		categories[r.Category]++
		if r.Category == models.CategoryRelationship {
			relationships[r.Relationship] = true
		}
	}

	for _, c := range []models.Category{
		models.CategoryCoordinateFreeActions,
		models.CategoryUnifiedOutputFormat,
		models.CategoryExecutionOrder,
		models.CategoryBottomUpBuilding,
		models.CategoryJSONStructure,
		models.CategoryStackingExtension,
		models.CategoryStackingExtensionExamples,
		models.CategoryStackReplacement,
		models.CategoryStackReplacementMiddle,
		models.CategoryStackReplacementBottom,
		models.CategoryPhysicalConstraint,
	} {
		assert.Equal(t, 1, categories[c], "category %s", c)
	}
	assert.True(t, relationships[models.RelStacked])
	assert.True(t, relationships[models.RelPyramid])

	replacement, ok := base.Rule("pattern_rules/stack_replacement_bottom.md")
	require.True(t, ok)
	assert.Equal(t, models.FamilyStacking, replacement.Family)
}

func TestLoadDir(t *testing.T) {
	_, err := LoadDir(t.TempDir() + "/missing")
	assert.Error(t, err)

	base, err := LoadDir("")
	require.NoError(t, err)
	assert.NotEmpty(t, base.Rules)
}

func TestLoadMalformedFrontmatter(t *testing.T) {
	fsys := fstest.MapFS{
		"kb/core_rules/broken.md": {Data: []byte("---\ncategory: [unterminated\n---\n# Broken\n")},
	}

	_, err := Load(fsys, "kb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "core_rules/broken.md")
}
