package models

// Category is the typed tag assigned to a rule document at load time.
// Retrieval selects rules by category instead of matching path fragments.
type Category string

// Rule categories.
const (
	CategoryNone                      Category = ""
	CategoryCoordinateFreeActions     Category = "coordinate_free_actions"
	CategoryUnifiedOutputFormat       Category = "unified_output_format"
	CategoryExecutionOrder            Category = "execution_order"
	CategoryBottomUpBuilding          Category = "bottom_up_building"
	CategoryJSONStructure             Category = "json_structure"
	CategoryStackingExtension         Category = "stacking_extension"
	CategoryStackingExtensionExamples Category = "stacking_extension_examples"
	CategoryStackReplacement          Category = "stack_replacement"
	CategoryStackReplacementMiddle    Category = "stack_replacement_middle"
	CategoryStackReplacementBottom    Category = "stack_replacement_bottom"
	CategoryPhysicalConstraint        Category = "physical_constraint"
	CategoryRelationship              Category = "relationship"
)

// IsPriority reports whether rules of this category encode physical
// constraints that prompts list ahead of supporting rules.
func (c Category) IsPriority() bool {
	switch c {
	case CategoryStackReplacement, CategoryStackReplacementMiddle, CategoryStackReplacementBottom,
		CategoryStackingExtension, CategoryStackingExtensionExamples, CategoryPhysicalConstraint,
		CategoryCoordinateFreeActions, CategoryExecutionOrder:
		return true
	}
	return false
}

// Group is the top-level section of the knowledge base a rule lives in.
type Group string

// Knowledge base groups.
const (
	GroupCore         Group = "core_rules"
	GroupPattern      Group = "pattern_rules"
	GroupScenario     Group = "scenario_rules"
	GroupRelationship Group = "relationship_rules"
	GroupOutputFormat Group = "output_format"
)

// Family marks rules that only apply to one relationship family.
type Family string

const (
	FamilyNone       Family = ""
	FamilyStacking   Family = "stacking"
	FamilySeparation Family = "separation"
)

// Rule is an immutable rule document from the knowledge base.
type Rule struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	QueryIntent  string       `json:"query_intent,omitempty"`
	Content      string       `json:"content"`
	Searchable   string       `json:"-"`
	Category     Category     `json:"category,omitempty"`
	Group        Group        `json:"group,omitempty"`
	Family       Family       `json:"family,omitempty"`
	Relationship Relationship `json:"relationship,omitempty"`
}

// ScoredRule is a per-query copy of a rule with its similarity score.
// Score is nil for rules injected by policy rather than by ranking.
type ScoredRule struct {
	Rule
	Score *float64 `json:"score,omitempty"`
}
