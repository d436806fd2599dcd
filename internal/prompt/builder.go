// Package prompt assembles the system and user prompts sent to the
// generative model.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/raphaelgruber/replan-rag/internal/models"
)

// TemplateSource supplies guidance overrides by name.
type TemplateSource interface {
	Template(name string) (string, bool)
}

// Builder renders prompts. Guidance for a variant comes from the template
// named "system_<variant>" when the source has one.
type Builder struct {
	templates TemplateSource
}

// NewBuilder creates a builder. templates may be nil.
func NewBuilder(templates TemplateSource) *Builder {
	return &Builder{templates: templates}
}

// Guidance returns the guidance text for v.
func (b *Builder) Guidance(v Variant) string {
	if b.templates != nil {
		if t, ok := b.templates.Template("system_" + string(v)); ok && strings.TrimSpace(t) != "" {
			return strings.TrimSpace(t)
		}
	}
	return guidance[v]
}

// System renders the system prompt: role, variant guidance, then the rules
// with physical constraint categories first.
func (b *Builder) System(target *models.Structure, rtype models.ReplacementType, rules []models.ScoredRule) string {
	var sb strings.Builder
	sb.WriteString(preamble)
	sb.WriteString("\n\n")
	sb.WriteString(b.Guidance(SelectVariant(target, rtype)))
	sb.WriteString("\n")

	priority, supporting := SplitRules(rules)
	writeRules(&sb, "Critical physical constraint rules", priority)
	writeRules(&sb, "Additional supporting rules", supporting)

	sb.WriteString("\n")
	sb.WriteString(closing)
	sb.WriteString("\n")
	return sb.String()
}

// SplitRules separates priority-category rules from the rest, keeping the
// relative order of each group.
func SplitRules(rules []models.ScoredRule) (priority, supporting []models.ScoredRule) {
	for _, r := range rules {
		if r.Category.IsPriority() {
			priority = append(priority, r)
		} else {
			supporting = append(supporting, r)
		}
	}
	return priority, supporting
}

func writeRules(sb *strings.Builder, heading string, rules []models.ScoredRule) {
	if len(rules) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n## %s\n", heading)
	for _, r := range rules {
		title := r.Title
		if title == "" {
			title = r.ID
		}
		fmt.Fprintf(sb, "\n### %s\n\n%s\n", title, strings.TrimSpace(r.Content))
	}
}

// User renders the user prompt carrying both states as indented JSON.
func User(target, current *models.Spec) (string, error) {
	if target == nil {
		target = &models.Spec{}
	}
	if current == nil {
		current = &models.Spec{}
	}
	t, err := json.MarshalIndent(target, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode target spec: %w", err)
	}
	c, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode current state: %w", err)
	}

	return fmt.Sprintf(`TARGET_SPEC:
%s

CURRENT_STATE:
%s

Generate the JSON action plan that transforms CURRENT_STATE into TARGET_SPEC.
Output ONLY the JSON.`, t, c), nil
}
