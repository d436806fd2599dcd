package validate

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/raphaelgruber/replan-rag/internal/models"
)

// MismatchKind names the way a result disagrees with its target.
type MismatchKind string

const (
	MismatchRelationship MismatchKind = "relationship"
	MismatchMissing      MismatchKind = "missing_position"
	MismatchObject       MismatchKind = "object"
	MismatchObjectList   MismatchKind = "object_list"
	MismatchOrder        MismatchKind = "order"
)

// Mismatch describes the first disagreement found by VerifyTarget.
type Mismatch struct {
	Kind     MismatchKind `json:"kind"`
	Position string       `json:"position,omitempty"`
	Expected string       `json:"expected,omitempty"`
	Got      string       `json:"got,omitempty"`
}

func (m Mismatch) String() string {
	switch m.Kind {
	case MismatchRelationship:
		return fmt.Sprintf("relationship mismatch: expected %s, got %s", m.Expected, m.Got)
	case MismatchMissing:
		return fmt.Sprintf("missing position: %s", m.Position)
	case MismatchObject:
		return fmt.Sprintf("object mismatch at %s: expected %s, got %s", m.Position, m.Expected, m.Got)
	case MismatchObjectList:
		return fmt.Sprintf("object list mismatch: expected %s, got %s", m.Expected, m.Got)
	case MismatchOrder:
		return fmt.Sprintf("stacked order invalid: %s", m.Got)
	}
	return string(m.Kind)
}

// Report is the outcome of a target consistency check. A failed report is
// not an error: the result stays usable and the caller decides what to do.
type Report struct {
	Passed bool `json:"passed"`

	// Skipped is set when there was nothing to compare, which passes.
	Skipped bool `json:"skipped,omitempty"`

	// Source names the field the compared structure was taken from.
	Source  string    `json:"source,omitempty"`
	Failure *Mismatch `json:"failure,omitempty"`
}

// VerifyTarget checks that the structure a result declares reproduces the
// target structure.
//
// The compared structure is final_expected.target_structure, then the legacy
// final_expected relationship/placements shape, then the result's own
// target_structure. Relationships must match. When the target names
// positions, every target (position, object) pair must appear in the result;
// extra result positions are tolerated. Otherwise the ordered object lists
// must be equal. For stacked targets the plan must also build bottom-up.
func VerifyTarget(result *models.Result, target *models.Spec) Report {
	want := target.Structure()
	if want == nil || result == nil {
		return Report{Passed: true, Skipped: true}
	}

	got, source := comparedStructure(result)
	if got == nil {
		return Report{Passed: true, Skipped: true}
	}

	if m := compareStructures(want, got); m != nil {
		return fail(source, *m)
	}

	if want.Relationship == models.RelStacked && len(result.Plan) > 0 {
		if m := checkBuildOrder(result.Plan); m != nil {
			return fail(source, *m)
		}
	}

	slog.Debug("target consistency passed", "source", source)
	return Report{Passed: true, Source: source}
}

func comparedStructure(result *models.Result) (*models.Structure, string) {
	if fe := result.FinalExpected; fe != nil {
		if fe.TargetStructure != nil {
			return fe.TargetStructure, "final_expected.target_structure"
		}
		if s := fe.Structure(); s != nil {
			return s, "final_expected"
		}
	}
	if result.TargetStructure != nil {
		return result.TargetStructure, "target_structure"
	}
	return nil, ""
}

func compareStructures(want, got *models.Structure) *Mismatch {
	if got.Relationship != want.Relationship {
		return &Mismatch{
			Kind:     MismatchRelationship,
			Expected: string(want.Relationship),
			Got:      string(got.Relationship),
		}
	}

	wantMap := want.PositionMap()
	if len(wantMap) == 0 {
		wantObjects, gotObjects := want.Objects(), got.Objects()
		if !slices.Equal(wantObjects, gotObjects) {
			return &Mismatch{
				Kind:     MismatchObjectList,
				Expected: fmt.Sprint(wantObjects),
				Got:      fmt.Sprint(gotObjects),
			}
		}
		return nil
	}

	gotMap := got.PositionMap()
	for _, pos := range want.Positions() {
		obj, ok := gotMap[pos]
		if !ok {
			return &Mismatch{Kind: MismatchMissing, Position: pos, Expected: wantMap[pos]}
		}
		if obj != wantMap[pos] {
			return &Mismatch{Kind: MismatchObject, Position: pos, Expected: wantMap[pos], Got: obj}
		}
	}
	return nil
}

// checkBuildOrder requires the first placement into each stack layer to
// happen in bottom, middle, top order. Buffer and scattered moves are ignored.
func checkBuildOrder(plan models.Plan) *Mismatch {
	first := make(map[string]int)
	for i, a := range plan {
		if a.To == nil || a.To.Type != models.EndpointStack {
			continue
		}
		if _, seen := first[a.To.Position]; !seen {
			first[a.To.Position] = i
		}
	}

	prevLayer, prevIdx := "", -1
	for _, layer := range models.StackLayers {
		idx, ok := first[layer]
		if !ok {
			continue
		}
		if idx < prevIdx {
			return &Mismatch{
				Kind: MismatchOrder,
				Got:  fmt.Sprintf("%s placed at action %d before %s at action %d", layer, idx+1, prevLayer, prevIdx+1),
			}
		}
		prevLayer, prevIdx = layer, idx
	}
	return nil
}

func fail(source string, m Mismatch) Report {
	slog.Warn("target consistency failed", "kind", string(m.Kind), "source", source, "detail", m.String())
	return Report{Passed: false, Source: source, Failure: &m}
}
