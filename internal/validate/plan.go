package validate

import (
	"fmt"
	"sort"

	"github.com/raphaelgruber/replan-rag/internal/models"
)

// CheckPlan rejects plans whose declared endpoints contradict each other.
//
// Stack and arrangement destinations are tracked independently. A position
// may receive only one object and an object may be sent to only one position,
// except that the stack "top" accepts a sequence of distinct objects so a
// stack can be extended. Sending the same object to "top" twice is rejected.
// The check is static: it does not simulate whether a position has been
// vacated before it is filled again.
func CheckPlan(plan models.Plan) error {
	stack := newOccupancy("stack")
	arrangement := newOccupancy("arrangement")
	topCount := make(map[string]int)

	for i, a := range plan {
		if a.From.Same(a.To) {
			return fmt.Errorf("%w: step %d has identical from and to", ErrConsistency, stepNumber(a, i))
		}
		if a.To == nil {
			continue
		}

		switch a.To.Type {
		case models.EndpointStack:
			if a.To.Position == "" {
				return fmt.Errorf("%w: step %d stack placement is missing a target position", ErrConsistency, stepNumber(a, i))
			}
			if err := stack.claimObject(a.Object, a.To.Position); err != nil {
				return err
			}
			if a.To.Position == models.PosTop {
				topCount[a.Object]++
				continue
			}
			if err := stack.claimPosition(a.To.Position, a.Object); err != nil {
				return err
			}

		case models.EndpointArrangement:
			if a.To.Position == "" {
				return fmt.Errorf("%w: step %d arrangement placement is missing a target position", ErrConsistency, stepNumber(a, i))
			}
			if err := arrangement.claimObject(a.Object, a.To.Position); err != nil {
				return err
			}
			if err := arrangement.claimPosition(a.To.Position, a.Object); err != nil {
				return err
			}
		}
	}

	var dup []string
	for obj, n := range topCount {
		if n > 1 {
			dup = append(dup, obj)
		}
	}
	if len(dup) > 0 {
		sort.Strings(dup)
		return fmt.Errorf("%w: same object placed to top more than once: %v", ErrConsistency, dup)
	}
	return nil
}

// occupancy tracks the static assignments made into one endpoint type.
type occupancy struct {
	kind      string
	positions map[string]string
	objects   map[string]string
}

func newOccupancy(kind string) *occupancy {
	return &occupancy{
		kind:      kind,
		positions: make(map[string]string),
		objects:   make(map[string]string),
	}
}

func (o *occupancy) claimObject(obj, pos string) error {
	if prev, ok := o.objects[obj]; ok && prev != pos {
		return fmt.Errorf("%w: object %q placed into multiple %s positions (%s, %s)",
			ErrConsistency, obj, o.kind, prev, pos)
	}
	o.objects[obj] = pos
	return nil
}

func (o *occupancy) claimPosition(pos, obj string) error {
	if prev, ok := o.positions[pos]; ok && prev != obj {
		return fmt.Errorf("%w: %s position %q assigned to multiple objects (%s, %s)",
			ErrConsistency, o.kind, pos, prev, obj)
	}
	o.positions[pos] = obj
	return nil
}

func stepNumber(a models.Action, i int) int {
	if a.Step != 0 {
		return a.Step
	}
	return i + 1
}
