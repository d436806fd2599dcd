package models

// Scenario is a coarse label that biases rule retrieval.
type Scenario string

// Scenario labels.
const (
	ScenarioStackReplacementTop      Scenario = "stack_replacement_top"
	ScenarioStackReplacementMiddle   Scenario = "stack_replacement_middle"
	ScenarioStackReplacementBottom   Scenario = "stack_replacement_bottom"
	ScenarioStackReplacementMultiple Scenario = "stack_replacement_multiple"
	ScenarioStackedBuilding          Scenario = "stacked_building"
	ScenarioSingleObjectPlacement    Scenario = "single_object_placement"
	ScenarioSeparatedArrangement     Scenario = "separated_arrangement"
	ScenarioObjectReordering         Scenario = "object_reordering"
	ScenarioBufferManagement         Scenario = "buffer_management"
	ScenarioLegacyFormat             Scenario = "legacy_format"
	ScenarioAlreadyCorrect           Scenario = "already_correct"
)

// ReplacementType grades how invasive a stack correction is.
type ReplacementType string

// Replacement types.
const (
	ReplacementNone       ReplacementType = "none"
	ReplacementTopOnly    ReplacementType = "top_only"
	ReplacementMiddleOnly ReplacementType = "middle_only"
	ReplacementBottomOnly ReplacementType = "bottom_only"
	ReplacementMultiple   ReplacementType = "multiple"
	ReplacementExtension  ReplacementType = "extension"
)

// Scenario returns the replacement scenario a deterministic replacement type
// maps to, and false for none.
func (t ReplacementType) Scenario() (Scenario, bool) {
	switch t {
	case ReplacementTopOnly:
		return ScenarioStackReplacementTop, true
	case ReplacementMiddleOnly:
		return ScenarioStackReplacementMiddle, true
	case ReplacementBottomOnly:
		return ScenarioStackReplacementBottom, true
	case ReplacementMultiple:
		return ScenarioStackReplacementMultiple, true
	case ReplacementExtension:
		return ScenarioStackedBuilding, true
	}
	return "", false
}
