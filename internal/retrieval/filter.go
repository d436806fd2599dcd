package retrieval

import (
	"slices"

	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/raphaelgruber/replan-rag/internal/scenario"
)

const (
	maxFamilyRules   = 2
	minFilteredRules = 3
	maxCoreBackfill  = 2
)

// Requirement identifies a rule by its tags. An empty Relationship matches
// any relationship.
type Requirement struct {
	Category     models.Category
	Relationship models.Relationship
}

// Matches reports whether r carries the required tags.
func (req Requirement) Matches(r models.Rule) bool {
	if r.Category != req.Category {
		return false
	}
	return req.Relationship == "" || r.Relationship == req.Relationship
}

func (req Requirement) String() string {
	if req.Relationship != "" {
		return string(req.Category) + ":" + string(req.Relationship)
	}
	return string(req.Category)
}

// mandatoryCategories are taken from the ranked candidates first, at most
// one each.
var mandatoryCategories = []models.Category{
	models.CategoryCoordinateFreeActions,
	models.CategoryUnifiedOutputFormat,
	models.CategoryExecutionOrder,
}

// baselineRequirements are injected into every selection.
var baselineRequirements = []Requirement{
	{Category: models.CategoryCoordinateFreeActions},
	{Category: models.CategoryExecutionOrder},
	{Category: models.CategoryBottomUpBuilding},
	{Category: models.CategoryUnifiedOutputFormat},
	{Category: models.CategoryJSONStructure},
}

// EnforcedRequirements lists the rules a selection must contain for the
// given structures, in injection order.
func EnforcedRequirements(target, current *models.Structure) []Requirement {
	reqs := slices.Clone(baselineRequirements)

	if target.Rel().IsStacking() || current.Rel().IsStacking() {
		reqs = append(reqs,
			Requirement{Category: models.CategoryStackingExtension},
			Requirement{Category: models.CategoryStackingExtensionExamples})
	}

	if scenario.IsStackReplacement(target, current) {
		mismatched := scenario.StackMismatchPositions(target, current)
		// Position-specific replacement rules lead the list.
		if slices.Contains(mismatched, models.PosMiddle) {
			reqs = slices.Insert(reqs, 0, Requirement{Category: models.CategoryStackReplacementMiddle})
		}
		if slices.Contains(mismatched, models.PosBottom) {
			reqs = slices.Insert(reqs, 0, Requirement{Category: models.CategoryStackReplacementBottom})
		}
		reqs = append(reqs, Requirement{Category: models.CategoryStackReplacement})
	}

	if rel := relationshipRule(target.Rel()); rel != "" {
		reqs = append(reqs, Requirement{Category: models.CategoryRelationship, Relationship: rel})
	}
	return reqs
}

// relationshipRule maps a target relationship to the relationship rule that
// documents it. Single-object stacks share the stacked rule.
func relationshipRule(rel models.Relationship) models.Relationship {
	if rel.IsSingleStack() {
		return models.RelStacked
	}
	return rel
}

// activeFamily is the rule family the target relationship draws extra rules
// from. Combined relationships have none.
func activeFamily(rel models.Relationship) models.Family {
	switch {
	case rel == models.RelStacked || rel.IsSingleStack():
		return models.FamilyStacking
	case rel == models.RelSeparatedLeftRight || rel == models.RelSeparatedFrontBack:
		return models.FamilySeparation
	}
	return models.FamilyNone
}

// selection accumulates rules without duplicates.
type selection struct {
	rules []models.ScoredRule
	seen  map[string]bool
}

func (s *selection) add(r models.ScoredRule) bool {
	if s.seen[r.ID] {
		return false
	}
	s.seen[r.ID] = true
	s.rules = append(s.rules, r)
	return true
}

// addMatching adds up to limit unseen candidates accepted by keep.
func (s *selection) addMatching(candidates []models.ScoredRule, limit int, keep func(models.Rule) bool) {
	added := 0
	for _, c := range candidates {
		if added >= limit {
			return
		}
		if keep(c.Rule) && s.add(c) {
			added++
		}
	}
}

func (s *selection) has(req Requirement) bool {
	return slices.ContainsFunc(s.rules, func(r models.ScoredRule) bool { return req.Matches(r.Rule) })
}

// FilterRules applies the inclusion policy to ranked candidates. find looks
// up rules in the full corpus for injection. The result holds at most k
// rules unless more enforced rules are present, which are never dropped.
func FilterRules(candidates []models.ScoredRule, find func(Requirement) (models.Rule, bool),
	target, current *models.Structure, k int) []models.ScoredRule {

	sel := &selection{seen: make(map[string]bool)}

	for _, cat := range mandatoryCategories {
		sel.addMatching(candidates, 1, func(r models.Rule) bool { return r.Category == cat })
	}

	if family := activeFamily(target.Rel()); family != models.FamilyNone {
		sel.addMatching(candidates, maxFamilyRules, func(r models.Rule) bool { return r.Family == family })
	}

	if len(sel.rules) < minFilteredRules {
		sel.addMatching(candidates, maxCoreBackfill, func(r models.Rule) bool { return r.Group == models.GroupCore })
	}

	enforced := EnforcedRequirements(target, current)
	for _, req := range enforced {
		if sel.has(req) {
			continue
		}
		if r, ok := find(req); ok {
			sel.add(models.ScoredRule{Rule: r})
		}
	}

	isEnforced := func(r models.Rule) bool {
		return slices.ContainsFunc(enforced, func(req Requirement) bool { return req.Matches(r) })
	}

	var mandatory, optional []models.ScoredRule
	for _, r := range sel.rules {
		if isEnforced(r.Rule) {
			mandatory = append(mandatory, r)
		} else {
			optional = append(optional, r)
		}
	}

	out := append(mandatory, optional...)
	if len(out) <= k {
		return out
	}
	if len(mandatory) >= k {
		return mandatory
	}
	return out[:k]
}
