package models

// Status of a generated action plan.
type Status string

const (
	StatusSuccess Status = "success"
	StatusBlocked Status = "blocked"
)

// FinalExpected declares the structure a plan is supposed to produce. It
// accepts both the nested target_structure shape and the legacy flat
// relationship/placements shape.
type FinalExpected struct {
	TargetStructure *Structure   `json:"target_structure,omitempty"`
	Relationship    Relationship `json:"relationship,omitempty"`
	Placements      []Placement  `json:"placements,omitempty"`
}

// Structure returns the declared structure, preferring target_structure over
// the legacy shape. It returns nil when neither is present.
func (f *FinalExpected) Structure() *Structure {
	if f == nil {
		return nil
	}
	if f.TargetStructure != nil {
		return f.TargetStructure
	}
	if f.Relationship != "" && f.Placements != nil {
		return &Structure{Relationship: f.Relationship, Placements: f.Placements}
	}
	return nil
}

// Result is a validated generation output: either a bare structure or an
// action plan with a status.
type Result struct {
	Status          Status         `json:"status,omitempty"`
	Plan            Plan           `json:"plan,omitempty"`
	FinalExpected   *FinalExpected `json:"final_expected,omitempty"`
	TargetStructure *Structure     `json:"target_structure,omitempty"`
	Reason          string         `json:"reason,omitempty"`
}

// IsBareStructure reports whether the result only carries a structure.
func (r *Result) IsBareStructure() bool {
	return r != nil && r.Status == "" && r.TargetStructure != nil
}
