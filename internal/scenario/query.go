package scenario

import (
	"fmt"
	"slices"
	"strings"

	"github.com/raphaelgruber/replan-rag/internal/models"
)

// replacementHints are appended to the classifier query so the structural
// grading reaches the embedding comparison.
var replacementHints = map[models.ReplacementType]string{
	models.ReplacementTopOnly:    "top layer simple replacement direct access",
	models.ReplacementMiddleOnly: "middle layer blocked replacement clear above first",
	models.ReplacementBottomOnly: "bottom layer complex replacement clear entire stack",
	models.ReplacementExtension:  "stack extension add new layer",
	models.ReplacementMultiple:   "multiple layer replacement complex rebuild",
}

// BuildQuery renders the structural difference between target and current
// as the natural-language text the classifier embeds.
func BuildQuery(target, current *models.Structure, rtype models.ReplacementType) string {
	targetRel := target.Rel()
	currentRel := current.Rel()
	if currentRel == "" {
		currentRel = models.RelNone
	}

	var parts []string
	if targetRel != "" {
		parts = append(parts, "target relationship "+string(targetRel))
	}
	if objs := target.Objects(); len(objs) > 0 {
		parts = append(parts, "target objects "+strings.Join(objs, " "))
	}
	parts = append(parts, "current relationship "+string(currentRel))
	if objs := current.Objects(); len(objs) > 0 {
		parts = append(parts, "current objects "+strings.Join(objs, " "))
	}

	switch {
	case targetRel == models.RelStacked:
		parts = append(parts, stackedAnalysis(target, current)...)
	case targetRel.IsSingleStack():
		parts = append(parts, "single object stack placement")
		if currentRel == targetRel && firstObject(target) == firstObject(current) {
			parts = append(parts, "single object already correct")
		} else {
			parts = append(parts, "single object needs update")
		}
	case targetRel.IsSeparation():
		parts = append(parts, separationAnalysis(target, current)...)
	case targetRel == models.RelPyramid:
		parts = append(parts, "pyramid arrangement bottom pair top single")
	default:
		parts = append(parts, "general object reordering")
	}

	query := strings.Join(parts, " ") + " object reordering planning"
	if hint, ok := replacementHints[rtype]; ok {
		query += " " + hint
	}
	return query
}

// ExpectedStackPositions returns bottom and top for a two-layer target and
// all three layers otherwise.
func ExpectedStackPositions(target map[string]string) []string {
	if len(target) == 2 {
		return []string{models.PosBottom, models.PosTop}
	}
	return models.StackLayers
}

func stackedAnalysis(target, current *models.Structure) []string {
	parts := []string{"stacked arrangement vertical tower building"}
	if current.Rel() != models.RelStacked {
		return append(parts, "different relationship need stacking")
	}

	t := target.PositionMap()
	c := current.PositionMap()
	expected := ExpectedStackPositions(t)

	if missing := missingPositions(expected, c); len(missing) > 0 {
		return append(parts, "missing stack positions "+strings.Join(missing, " "))
	}

	var wrong, details []string
	var mismatched []string
	for _, pos := range expected {
		if t[pos] != "" && c[pos] != "" && t[pos] != c[pos] {
			mismatched = append(mismatched, pos)
			wrong = append(wrong, pos+" wrong object")
			details = append(details, fmt.Sprintf("%s has %s needs %s", pos, c[pos], t[pos]))
		}
	}
	if len(mismatched) == 0 {
		return append(parts, "correct stack arrangement")
	}

	parts = append(parts, wrong...)
	parts = append(parts, details...)
	if slices.Contains(mismatched, models.PosMiddle) {
		parts = append(parts,
			"middle layer replacement physical access constraint",
			"clear top to access middle blocked position")
	}
	if slices.Contains(mismatched, models.PosBottom) {
		parts = append(parts, "bottom layer replacement clear entire stack")
	}

	// Objects that leave the stack and appear nowhere in the target are
	// removed for good instead of parked in a buffer.
	inTarget := make(map[string]bool)
	for _, pos := range expected {
		if t[pos] != "" {
			inTarget[t[pos]] = true
		}
	}
	for _, pos := range mismatched {
		if !inTarget[c[pos]] {
			parts = append(parts, c[pos]+" not in target permanent removal")
		}
	}
	return parts
}

func separationAnalysis(target, current *models.Structure) []string {
	parts := []string{string(target.Rel()) + " arrangement analysis"}
	if current.Rel() != target.Rel() {
		return append(parts, "different relationship need separation")
	}

	t := target.PositionMap()
	c := current.PositionMap()
	if missing := missingPositions(target.Positions(), c); len(missing) > 0 {
		return append(parts, "missing positions "+strings.Join(missing, " "))
	}

	var wrong []string
	for _, pos := range target.Positions() {
		if c[pos] != "" && t[pos] != c[pos] {
			wrong = append(wrong, pos+" wrong object")
		}
	}
	if len(wrong) == 0 {
		return append(parts, "correct separation arrangement")
	}
	return append(parts, wrong...)
}

func missingPositions(expected []string, have map[string]string) []string {
	var out []string
	for _, pos := range expected {
		if _, ok := have[pos]; !ok {
			out = append(out, pos)
		}
	}
	return out
}

func firstObject(s *models.Structure) string {
	if objs := s.Objects(); len(objs) > 0 {
		return objs[0]
	}
	return ""
}
