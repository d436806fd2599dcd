package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/raphaelgruber/replan-rag/internal/scenario"
)

// BuildQuery renders the retrieval query from the scenario label and the
// structural difference between target and current.
func BuildQuery(label models.Scenario, target, current *models.Structure) string {
	parts := []string{"scenario: " + string(label)}

	targetRel := target.Rel()
	if targetRel == "" {
		parts = append(parts, "legacy format state detected")
		return strings.Join(parts, " ")
	}

	currentRel := current.Rel()
	if currentRel == "" {
		currentRel = models.RelNone
	}

	parts = append(parts, "target_relationship: "+string(targetRel))
	if desc := target.Describe(); desc != "" {
		parts = append(parts, "target_desc: "+desc)
	}
	parts = append(parts, "current_relationship: "+string(currentRel))
	if desc := current.Describe(); desc != "" {
		parts = append(parts, "current_desc: "+desc)
	}
	parts = append(parts, fmt.Sprintf("target_objects: %d current_objects: %d",
		placementCount(target), placementCount(current)))

	t := target.PositionMap()
	c := current.PositionMap()

	switch {
	case targetRel == models.RelStacked:
		expected := scenario.ExpectedStackPositions(t)
		var missing []string
		for _, pos := range expected {
			if _, ok := c[pos]; !ok {
				missing = append(missing, pos)
			}
		}
		switch {
		case len(missing) > 0:
			parts = append(parts, "missing stack positions "+strings.Join(missing, " "))
		case currentRel == models.RelStacked:
			wrong := wrongObjects(expected, t, c)
			if len(wrong) == 0 {
				parts = append(parts, "stack alignment already correct")
			}
			parts = append(parts, wrong...)
		default:
			parts = append(parts, "different relationship need stacking")
		}

	case targetRel.IsSingleStack():
		parts = append(parts, "target_single_object: "+target.Describe())
		if currentRel != targetRel {
			parts = append(parts, "current relationship differs from single stack target")
		}

	case targetRel.IsSeparation():
		var missing []string
		for pos := range t {
			if _, ok := c[pos]; !ok {
				missing = append(missing, pos)
			}
		}
		sort.Strings(missing)
		switch {
		case len(missing) > 0:
			parts = append(parts, "missing positions "+strings.Join(missing, " "))
		case currentRel != targetRel:
			parts = append(parts, "current relationship differs from target separation")
		default:
			parts = append(parts, wrongObjects(target.Positions(), t, c)...)
		}

	case targetRel == models.RelPyramid:
		if currentRel != models.RelPyramid {
			parts = append(parts, "current relationship differs from pyramid target")
		}
	}

	return strings.Join(parts, " ")
}

func wrongObjects(positions []string, target, current map[string]string) []string {
	var out []string
	for _, pos := range positions {
		if target[pos] != "" && current[pos] != "" && target[pos] != current[pos] {
			out = append(out, pos+" wrong object")
		}
	}
	return out
}

func placementCount(s *models.Structure) int {
	if s == nil {
		return 0
	}
	return len(s.Placements)
}
