package scenario

import "github.com/raphaelgruber/replan-rag/internal/models"

// AnalyzeReplacementComplexity grades the stack correction needed to turn
// current into target. Only stacking-family targets are graded.
//
// extension: current is a stack with fewer filled positions than target and
// every filled position already holds the target object. Otherwise the
// positions among bottom, middle and top that both sides fill with different
// objects decide: none, <position>_only or multiple.
func AnalyzeReplacementComplexity(target, current *models.Structure) models.ReplacementType {
	if target == nil || current == nil || !target.Relationship.IsStacking() {
		return models.ReplacementNone
	}

	t := target.PositionMap()
	c := current.PositionMap()

	if current.Relationship.IsStacking() && len(c) < len(t) {
		extension := true
		for pos, obj := range c {
			if want, ok := t[pos]; ok && want != obj {
				extension = false
				break
			}
		}
		if extension {
			return models.ReplacementExtension
		}
	}

	mismatches := LayerMismatches(t, c)
	switch len(mismatches) {
	case 0:
		return models.ReplacementNone
	case 1:
		return models.ReplacementType(mismatches[0] + "_only")
	default:
		return models.ReplacementMultiple
	}
}

// LayerMismatches returns the stack layers, bottom first, that both maps
// fill with different objects.
func LayerMismatches(target, current map[string]string) []string {
	var out []string
	for _, pos := range models.StackLayers {
		t, c := target[pos], current[pos]
		if t != "" && c != "" && t != c {
			out = append(out, pos)
		}
	}
	return out
}

// IsStackReplacement reports whether a stacking target and a stacking current
// state disagree on the object at some stack layer.
func IsStackReplacement(target, current *models.Structure) bool {
	if !target.Rel().IsStacking() || !current.Rel().IsStacking() {
		return false
	}
	return len(LayerMismatches(target.PositionMap(), current.PositionMap())) > 0
}

// StackMismatchPositions returns the mismatched layers when both sides are
// plain stacks, and nil otherwise.
func StackMismatchPositions(target, current *models.Structure) []string {
	if target.Rel() != models.RelStacked || current.Rel() != models.RelStacked {
		return nil
	}
	return LayerMismatches(target.PositionMap(), current.PositionMap())
}
