package prompt

import "github.com/raphaelgruber/replan-rag/internal/models"

// Variant selects the system guidance for a request.
type Variant string

const (
	VariantStackTop      Variant = "stack_top_only"
	VariantStackMiddle   Variant = "stack_middle_only"
	VariantStackBottom   Variant = "stack_bottom_only"
	VariantStackMultiple Variant = "stack_multiple"
	VariantStackExtend   Variant = "stack_extension"
	VariantStackBuild    Variant = "stack_build"
	VariantSeparation    Variant = "separation"
	VariantGeneric       Variant = "generic"
	VariantLegacy        Variant = "legacy"
)

// SelectVariant picks the guidance for target given the replacement grade.
func SelectVariant(target *models.Structure, rtype models.ReplacementType) Variant {
	rel := target.Rel()
	switch {
	case rel == "":
		return VariantLegacy
	case rel == models.RelStacked || rel.IsSingleStack():
		switch rtype {
		case models.ReplacementTopOnly:
			return VariantStackTop
		case models.ReplacementMiddleOnly:
			return VariantStackMiddle
		case models.ReplacementBottomOnly:
			return VariantStackBottom
		case models.ReplacementMultiple:
			return VariantStackMultiple
		case models.ReplacementExtension:
			return VariantStackExtend
		}
		return VariantStackBuild
	case rel == models.RelSeparatedLeftRight || rel == models.RelSeparatedFrontBack:
		return VariantSeparation
	}
	return VariantGeneric
}

const preamble = `You plan pick-and-place moves for a single robot arm.
Turn CURRENT_STATE into TARGET_SPEC with the fewest physically valid actions.`

var guidance = map[Variant]string{
	VariantStackTop: `Only the top layer holds the wrong object. Nothing blocks it:
remove it, then place the correct object at top. Leave the lower layers alone.`,

	VariantStackMiddle: `The middle layer holds the wrong object and the top layer sits on it.
Move the top object to a buffer slot first. Then replace the middle object and
return the buffered object to top.`,

	VariantStackBottom: `The bottom layer holds the wrong object and carries the whole stack.
Clear top, then middle, into buffer slots. Replace the bottom object.
Restore middle, then top, from the buffer.`,

	VariantStackMultiple: `Several layers hold wrong objects. Clear the stack down to the lowest
wrong layer, parking objects the target still needs in buffer slots.
Rebuild bottom-up.`,

	VariantStackExtend: `The current stack already matches the lower part of the target.
Keep it in place and add the missing layers bottom-up. If a layer must be
inserted below an existing object, buffer that object first.`,

	VariantStackBuild: `Build the target stack bottom-up: bottom, then middle, then top.
Only the topmost object of any stack can be moved.`,

	VariantSeparation: `Objects sit side by side at independent arrangement positions and do
not block each other. Use a buffer slot only when two objects must trade places.`,

	VariantGeneric: `Rearrange the objects into the target relationship. Nothing may be placed
on an empty layer, and only uncovered objects can be moved.`,

	VariantLegacy: `The request has no target relationship. Infer the intended arrangement
from the listed objects, build any stack bottom-up, and still describe every
move with named positions instead of coordinates.`,
}

const closing = `Objects that appear nowhere in the target go to "scattered".
Respond with ONLY the JSON object described by the output format rules.`
