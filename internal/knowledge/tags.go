package knowledge

import (
	"path"
	"strings"

	"github.com/raphaelgruber/replan-rag/internal/models"
)

// categoryByName maps document base names to categories. Names not listed
// carry no category and are only reachable through similarity.
var categoryByName = map[string]models.Category{
	"coordinate_free_actions":     models.CategoryCoordinateFreeActions,
	"unified_output_format":       models.CategoryUnifiedOutputFormat,
	"execution_order":             models.CategoryExecutionOrder,
	"bottom_up_building":          models.CategoryBottomUpBuilding,
	"json_structure":              models.CategoryJSONStructure,
	"stacking_extension":          models.CategoryStackingExtension,
	"stacking_extension_examples": models.CategoryStackingExtensionExamples,
	"stack_replacement":           models.CategoryStackReplacement,
	"stack_replacement_middle":    models.CategoryStackReplacementMiddle,
	"stack_replacement_bottom":    models.CategoryStackReplacementBottom,
	"physical_constraints":        models.CategoryPhysicalConstraint,
}

// Tag fills in the group, category, family and relationship a rule's path
// implies. Values already set from frontmatter are kept.
func Tag(rule models.Rule) models.Rule {
	name := strings.TrimSuffix(path.Base(rule.ID), path.Ext(rule.ID))

	if rule.Group == "" {
		if first, _, ok := strings.Cut(rule.ID, "/"); ok {
			rule.Group = models.Group(first)
		}
	}

	if rule.Group == models.GroupRelationship {
		if rule.Category == "" {
			rule.Category = models.CategoryRelationship
		}
		if rule.Relationship == "" {
			rule.Relationship = models.Relationship(name)
		}
	}
	if rule.Category == "" {
		rule.Category = categoryByName[name]
	}

	if rule.Family == "" {
		rule.Family = FamilyOf(rule.ID)
	}
	return rule
}

// FamilyOf classifies a path as stacking or separation. Paths naming both,
// like the combined relationships, belong to neither.
func FamilyOf(p string) models.Family {
	p = strings.ToLower(p)
	stacked := strings.Contains(p, "stacked")
	separated := strings.Contains(p, "separated")
	switch {
	case stacked && !separated:
		return models.FamilyStacking
	case separated && !stacked:
		return models.FamilySeparation
	}
	return models.FamilyNone
}
