package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raphaelgruber/replan-rag/internal/models"
)

// RequiredPositions returns the exact position set a relationship requires
// for n placements. ok is false for relationships without a positional
// check. An error is returned when no valid set exists for n.
func RequiredPositions(rel models.Relationship, n int) (positions []string, ok bool, err error) {
	switch rel {
	case models.RelStacked:
		switch n {
		case 2:
			return []string{"bottom", "top"}, true, nil
		case 3:
			return []string{"bottom", "middle", "top"}, true, nil
		}
		return nil, true, fmt.Errorf("%w: relationship %q requires 2 or 3 placements, got %d", ErrSchema, rel, n)
	case models.RelSeparatedLeftRight:
		return []string{"left", "right"}, true, nil
	case models.RelSeparatedFrontBack:
		return []string{"front", "back"}, true, nil
	case models.RelSeparateHorizontal:
		return []string{"left", "middle", "right"}, true, nil
	case models.RelSeparateVertical:
		return []string{"bottom", "middle", "top"}, true, nil
	case models.RelPyramid:
		return []string{"bottom left", "bottom right", "top"}, true, nil
	case models.RelStackedAndSeparatedLeft:
		return []string{"bottom", "top", "left"}, true, nil
	case models.RelStackedAndSeparatedRight:
		return []string{"bottom", "top", "right"}, true, nil
	}
	return nil, false, nil
}

// ValidateStructure checks a structure against its relationship's schema.
// It fails on the first violation.
func ValidateStructure(s *models.Structure) error {
	if s == nil {
		return fmt.Errorf("%w: target_structure is required", ErrSchema)
	}
	if s.Relationship == "" {
		return fmt.Errorf("%w: relationship must be a non-empty string", ErrSchema)
	}
	if len(s.Placements) == 0 {
		return fmt.Errorf("%w: placements must be a non-empty list", ErrSchema)
	}
	for i, p := range s.Placements {
		if p.Object == "" {
			return fmt.Errorf("%w: placement %d has no object", ErrSchema, i)
		}
	}

	if s.Relationship.IsSingleStack() {
		if len(s.Placements) != 1 {
			return fmt.Errorf("%w: relationship %q requires exactly 1 placement, got %d",
				ErrSchema, s.Relationship, len(s.Placements))
		}
		return nil
	}

	expected, ok, err := RequiredPositions(s.Relationship, len(s.Placements))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	found := make(map[string]bool)
	for _, p := range s.Placements {
		if p.Position != "" {
			found[p.Position] = true
		}
	}
	want := make(map[string]bool, len(expected))
	for _, pos := range expected {
		want[pos] = true
	}

	mismatch := len(found) != len(want)
	for pos := range want {
		if !found[pos] {
			mismatch = true
		}
	}
	if mismatch {
		return fmt.Errorf("%w: relationship %q expects positions [%s], found [%s]",
			ErrSchema, s.Relationship, joinSorted(want), joinSorted(found))
	}
	return nil
}

func joinSorted(set map[string]bool) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
