package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/raphaelgruber/replan-rag/internal/models"
)

// legacyObjectNoun is appended to a legacy color field to name the object.
const legacyObjectNoun = " cube"

// ParseResult decodes generated text into a validated Result.
//
// Two top-level shapes are accepted: a bare structure (target_structure and
// no status) and an action plan (status success or blocked). Actions are
// normalized before validation, then the plan is checked for consistency and
// the declared final structure is validated against its relationship.
func ParseResult(text string) (*models.Result, error) {
	data, err := decodeObject(text)
	if err != nil {
		return nil, err
	}

	_, hasStatus := data["status"]
	rawStructure, hasStructure := data["target_structure"]

	switch {
	case hasStructure && !hasStatus:
		s, err := decodeStructure(rawStructure, "target_structure")
		if err != nil {
			return nil, err
		}
		if err := ValidateStructure(s); err != nil {
			return nil, err
		}
		return &models.Result{TargetStructure: s}, nil

	case hasStatus:
		return parsePlanResult(data)
	}

	return nil, fmt.Errorf("%w: JSON must contain either target_structure or status", ErrFormat)
}

func decodeObject(text string) (map[string]any, error) {
	t := strings.TrimSpace(text)

	var data map[string]any
	if err := json.Unmarshal([]byte(t), &data); err == nil && data != nil {
		return data, nil
	}

	var extracted map[string]any
	if err := json.Unmarshal([]byte(ExtractJSONObject(t)), &extracted); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if extracted == nil {
		return nil, fmt.Errorf("%w: top-level JSON value must be an object", ErrFormat)
	}
	return extracted, nil
}

func parsePlanResult(data map[string]any) (*models.Result, error) {
	status, _ := data["status"].(string)
	result := &models.Result{Status: models.Status(status)}

	if raw, ok := data["target_structure"]; ok {
		if s, err := decodeStructure(raw, "target_structure"); err == nil {
			result.TargetStructure = s
		}
	}

	switch result.Status {
	case models.StatusBlocked:
		reason, ok := data["reason"]
		if !ok {
			return nil, fmt.Errorf("%w: blocked status requires reason", ErrSchema)
		}
		result.Reason = fmt.Sprint(reason)
		return result, nil

	case models.StatusSuccess:
	default:
		return nil, fmt.Errorf("%w: invalid status %v", ErrFormat, data["status"])
	}

	rawPlan, ok := data["plan"]
	if !ok {
		return nil, fmt.Errorf("%w: success status requires plan", ErrSchema)
	}
	items, ok := rawPlan.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: plan must be a list of actions", ErrSchema)
	}

	plan := make(models.Plan, 0, len(items))
	for i, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: action %d must be an object", ErrSchema, i+1)
		}
		action, err := parseAction(raw, i)
		if err != nil {
			return nil, err
		}
		plan = append(plan, action)
	}
	result.Plan = plan

	if err := CheckPlan(plan); err != nil {
		return nil, err
	}

	rawFinal, ok := data["final_expected"]
	if !ok {
		return nil, fmt.Errorf("%w: success status requires final_expected", ErrSchema)
	}
	final, err := parseFinalExpected(rawFinal)
	if err != nil {
		return nil, err
	}
	result.FinalExpected = final

	return result, nil
}

func parseFinalExpected(raw any) (*models.FinalExpected, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: final_expected must be an object", ErrSchema)
	}

	final := &models.FinalExpected{}
	if rawStructure, ok := m["target_structure"]; ok {
		s, err := decodeStructure(rawStructure, "final_expected.target_structure")
		if err != nil {
			return nil, err
		}
		if err := ValidateStructure(s); err != nil {
			return nil, err
		}
		final.TargetStructure = s
		return final, nil
	}

	_, hasRel := m["relationship"]
	_, hasPlacements := m["placements"]
	if hasRel && hasPlacements {
		s, err := decodeStructure(m, "final_expected")
		if err != nil {
			return nil, err
		}
		if err := ValidateStructure(s); err != nil {
			return nil, err
		}
		final.Relationship = s.Relationship
		final.Placements = s.Placements
	}
	return final, nil
}

func parseAction(raw map[string]any, index int) (models.Action, error) {
	if _, ok := raw["step"]; !ok {
		return models.Action{}, fmt.Errorf("%w: action %d must have step and action keys", ErrSchema, index+1)
	}
	if _, ok := raw["action"]; !ok {
		return models.Action{}, fmt.Errorf("%w: action %d must have step and action keys", ErrSchema, index+1)
	}

	normalizeAction(raw)

	step, err := toStep(raw["step"])
	if err != nil {
		return models.Action{}, fmt.Errorf("%w: action %d: %v", ErrSchema, index+1, err)
	}

	a := models.Action{Step: step}

	kind, _ := raw["action"].(string)
	a.Kind = models.ActionKind(kind)
	if !a.Kind.Valid() {
		return models.Action{}, fmt.Errorf("%w: step %d has unknown action %v", ErrSchema, step, raw["action"])
	}

	a.Object, _ = raw["object"].(string)
	if a.Object == "" {
		return models.Action{}, fmt.Errorf("%w: step %d must specify an object", ErrSchema, step)
	}
	if reason, ok := raw["reason"].(string); ok {
		a.Reason = reason
	}

	if a.From, err = parseEndpoint(raw, "from", step); err != nil {
		return models.Action{}, err
	}
	if a.To, err = parseEndpoint(raw, "to", step); err != nil {
		return models.Action{}, err
	}

	switch a.Kind {
	case models.ActionMoveToBuffer:
		if a.To == nil || a.To.Slot == "" {
			return models.Action{}, fmt.Errorf("%w: step %d move_to_buffer must specify a target buffer slot", ErrSchema, step)
		}
	case models.ActionMoveFromBuffer:
		if a.From == nil || a.From.Slot == "" {
			return models.Action{}, fmt.Errorf("%w: step %d move_from_buffer must specify a source buffer slot", ErrSchema, step)
		}
	}
	for _, ep := range []*models.Endpoint{a.From, a.To} {
		if ep != nil && ep.Slot != "" && !models.IsBufferSlot(ep.Slot) {
			return models.Action{}, fmt.Errorf("%w: step %d invalid buffer slot %q, must be one of %v",
				ErrConsistency, step, ep.Slot, models.BufferSlotNames)
		}
	}

	return a, nil
}

// normalizeAction rewrites legacy and misplaced fields in place: a
// "scattered" position becomes the scattered type, and a missing object is
// derived from a legacy color or from the endpoints, after which those legacy
// fields are removed.
func normalizeAction(raw map[string]any) {
	for _, key := range []string{"from", "to"} {
		ep, ok := raw[key].(map[string]any)
		if !ok {
			continue
		}
		if ep["position"] == "scattered" {
			if _, hasType := ep["type"]; !hasType {
				ep["type"] = string(models.EndpointScattered)
				delete(ep, "position")
			}
		}
	}

	if _, ok := raw["object"]; ok {
		return
	}

	obj := legacyObject(raw)
	if obj == "" {
		return
	}
	raw["object"] = obj
	delete(raw, "color")
	for _, key := range []string{"from", "to"} {
		if ep, ok := raw[key].(map[string]any); ok {
			delete(ep, "color")
			delete(ep, "object")
		}
	}
}

func legacyObject(raw map[string]any) string {
	if color, ok := raw["color"].(string); ok && color != "" {
		return color + legacyObjectNoun
	}
	for _, key := range []string{"from", "to"} {
		ep, ok := raw[key].(map[string]any)
		if !ok {
			continue
		}
		if obj, ok := ep["object"].(string); ok && obj != "" {
			return obj
		}
		if color, ok := ep["color"].(string); ok && color != "" {
			return color + legacyObjectNoun
		}
	}
	return ""
}

func parseEndpoint(raw map[string]any, key string, step int) (*models.Endpoint, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: step %d %s must be an object", ErrSchema, step, key)
	}

	ep := &models.Endpoint{}
	if t, ok := m["type"]; ok {
		s, _ := t.(string)
		ep.Type = models.EndpointType(s)
		if !ep.Type.Valid() {
			return nil, fmt.Errorf("%w: step %d %s has unknown type %v", ErrSchema, step, key, t)
		}
	}
	if p, ok := m["position"].(string); ok {
		ep.Position = p
	}
	if s, ok := m["slot"]; ok {
		slot, isString := s.(string)
		if !isString {
			return nil, fmt.Errorf("%w: step %d %s slot must be a string", ErrSchema, step, key)
		}
		ep.Slot = slot
	}
	return ep, nil
}

func toStep(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("step must be an integer, got %v", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("step must be an integer, got %q", n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("step must be an integer, got %T", v)
}

func decodeStructure(raw any, field string) (*models.Structure, error) {
	if _, ok := raw.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: %s must be an object", ErrSchema, field)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchema, field, err)
	}
	var s models.Structure
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchema, field, err)
	}
	return &s, nil
}
