// Package validate checks generated structures and plans before they are
// trusted: JSON extraction, schema validation per relationship, plan
// consistency and target consistency.
package validate

import "errors"

// Sentinel errors for validation failures.
var (
	// ErrFormat is returned when generated text cannot be parsed as JSON,
	// or parses to an unsupported top-level shape.
	ErrFormat = errors.New("format error")

	// ErrSchema is returned for missing or mistyped required fields and for
	// relationship/position-set mismatches.
	ErrSchema = errors.New("schema error")

	// ErrConsistency is returned for plan-internal contradictions: redundant
	// moves, duplicate position or object assignments, invalid buffer slots.
	ErrConsistency = errors.New("consistency error")
)

// Kind names the error class of err for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrFormat):
		return "format"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrConsistency):
		return "consistency"
	default:
		return "unknown"
	}
}
