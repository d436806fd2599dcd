// Package models defines the data structures shared by the replan pipeline:
// structures, plans, results, rules and scenario labels.
package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Relationship names the spatial arrangement a structure describes.
type Relationship string

// Supported relationships.
const (
	RelStacked                  Relationship = "stacked"
	RelStackedLeft              Relationship = "stacked_left"
	RelStackedMiddle            Relationship = "stacked_middle"
	RelStackedRight             Relationship = "stacked_right"
	RelSeparatedLeftRight       Relationship = "separated_left_right"
	RelSeparatedFrontBack       Relationship = "separated_front_back"
	RelSeparateHorizontal       Relationship = "separate_horizontal"
	RelSeparateVertical         Relationship = "separate_vertical"
	RelStackedAndSeparatedLeft  Relationship = "stacked_and_separated_left"
	RelStackedAndSeparatedRight Relationship = "stacked_and_separated_right"
	RelPyramid                  Relationship = "pyramid"
	RelNone                     Relationship = "none"
)

// Stack layer positions, bottom first.
const (
	PosBottom = "bottom"
	PosMiddle = "middle"
	PosTop    = "top"
)

// StackLayers lists the stack positions in construction order.
var StackLayers = []string{PosBottom, PosMiddle, PosTop}

// IsStacking reports whether r belongs to the stacking family.
func (r Relationship) IsStacking() bool {
	switch r {
	case RelStacked, RelStackedLeft, RelStackedMiddle, RelStackedRight,
		RelStackedAndSeparatedLeft, RelStackedAndSeparatedRight:
		return true
	}
	return false
}

// IsSingleStack reports whether r is one of the single-object stack variants.
func (r Relationship) IsSingleStack() bool {
	return r == RelStackedLeft || r == RelStackedMiddle || r == RelStackedRight
}

// IsSeparation reports whether r describes a laterally separated arrangement,
// including the combined stacked-and-separated variants.
func (r Relationship) IsSeparation() bool {
	switch r {
	case RelSeparatedLeftRight, RelSeparatedFrontBack, RelSeparateHorizontal,
		RelSeparateVertical, RelStackedAndSeparatedLeft, RelStackedAndSeparatedRight:
		return true
	}
	return false
}

// Placement pairs an optional position label with an object identifier.
type Placement struct {
	Position string
	Object   string

	// Fields holds the raw decoded keys, including legacy "object N" keys.
	Fields map[string]any
}

// UnmarshalJSON decodes a placement object, resolving the object identifier
// with ResolveObject.
func (p *Placement) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("placement must be an object: %w", err)
	}
	*p = PlacementFromFields(fields)
	return nil
}

// MarshalJSON encodes the placement with its resolved object under "object".
func (p Placement) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+2)
	for k, v := range p.Fields {
		if isObjectKey(k) {
			continue
		}
		out[k] = v
	}
	if p.Position != "" {
		out["position"] = p.Position
	}
	if p.Object != "" {
		out["object"] = p.Object
	}
	return json.Marshal(out)
}

// PlacementFromFields builds a Placement from raw decoded keys.
func PlacementFromFields(fields map[string]any) Placement {
	p := Placement{Fields: fields}
	if pos, ok := fields["position"].(string); ok {
		p.Position = pos
	}
	p.Object = ResolveObject(fields)
	return p
}

// ResolveObject returns the object identifier of a placement.
//
// A non-empty value under the literal key "object" wins. Otherwise every key
// starting with "object" is ordered by its numeric suffix ("object 2" -> 2,
// a missing or non-numeric suffix counts as 0, equal suffixes fall back to key
// order) and the first non-empty string value is returned.
func ResolveObject(fields map[string]any) string {
	if v, ok := fields["object"].(string); ok && v != "" {
		return v
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if isObjectKey(k) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		si, sj := objectKeySuffix(keys[i]), objectKeySuffix(keys[j])
		if si != sj {
			return si < sj
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		if v, ok := fields[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func isObjectKey(k string) bool {
	return strings.HasPrefix(k, "object")
}

func objectKeySuffix(k string) int {
	suffix := strings.TrimSpace(strings.TrimPrefix(k, "object"))
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Structure is a relationship with its ordered placements.
type Structure struct {
	Relationship Relationship `json:"relationship"`
	Placements   []Placement  `json:"placements"`
}

// PositionMap maps position to object, skipping placements that lack either.
func (s *Structure) PositionMap() map[string]string {
	m := make(map[string]string)
	if s == nil {
		return m
	}
	for _, p := range s.Placements {
		if p.Position != "" && p.Object != "" {
			m[p.Position] = p.Object
		}
	}
	return m
}

// Positions returns the positions that carry an object, in placement order
// and without duplicates.
func (s *Structure) Positions() []string {
	if s == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, p := range s.Placements {
		if p.Position == "" || p.Object == "" || seen[p.Position] {
			continue
		}
		seen[p.Position] = true
		out = append(out, p.Position)
	}
	return out
}

// Objects returns the non-empty objects in placement order.
func (s *Structure) Objects() []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, p := range s.Placements {
		if p.Object != "" {
			out = append(out, p.Object)
		}
	}
	return out
}

// Rel returns the relationship, or "" for a nil structure.
func (s *Structure) Rel() Relationship {
	if s == nil {
		return ""
	}
	return s.Relationship
}

// Describe renders placements as "position=object" tokens, using
// "object=<obj>" for placements without a position.
func (s *Structure) Describe() string {
	if s == nil {
		return ""
	}
	parts := make([]string, 0, len(s.Placements))
	for _, p := range s.Placements {
		switch {
		case p.Object == "":
		case p.Position != "":
			parts = append(parts, p.Position+"="+p.Object)
		default:
			parts = append(parts, "object="+p.Object)
		}
	}
	return strings.Join(parts, " ")
}

// Spec wraps an optional structure. Both the requested target and the
// observed current state use this shape.
type Spec struct {
	TargetStructure *Structure `json:"target_structure,omitempty"`
}

// Structure returns the wrapped structure, nil-safe.
func (s *Spec) Structure() *Structure {
	if s == nil {
		return nil
	}
	return s.TargetStructure
}

// ParseSpec decodes {"target_structure": {...}}. A bare
// {"relationship", "placements"} object is accepted as well.
func ParseSpec(data []byte) (*Spec, error) {
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode spec: %w", err)
	}
	if spec.TargetStructure == nil {
		var bare Structure
		if err := json.Unmarshal(data, &bare); err == nil && bare.Relationship != "" {
			spec.TargetStructure = &bare
		}
	}
	return &spec, nil
}
