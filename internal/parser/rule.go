package parser

import (
	"regexp"
	"strings"

	"github.com/raphaelgruber/replan-rag/internal/models"
)

// SearchableExcerptRunes bounds how much of a rule body feeds its embedding.
const SearchableExcerptRunes = 800

var queryIntentRegex = regexp.MustCompile(`\*\*Query Intent\*\*:\s*(.+)`)

// ParseRule parses a rule document. id is the document's path inside the
// knowledge base.
//
// Frontmatter keys category, family and relationship are copied onto the
// rule when present; callers fill in anything left empty.
func ParseRule(id, content string) (models.Rule, error) {
	doc, err := ParseMarkdown(content)
	if err != nil {
		return models.Rule{}, err
	}

	rule := models.Rule{
		ID:           id,
		Title:        doc.Title,
		QueryIntent:  ExtractQueryIntent(doc.Body),
		Content:      strings.TrimSpace(doc.Body),
		Category:     models.Category(strings.TrimSpace(doc.Frontmatter.Category)),
		Family:       models.Family(strings.TrimSpace(doc.Frontmatter.Family)),
		Relationship: models.Relationship(strings.TrimSpace(doc.Frontmatter.Relationship)),
	}
	rule.Searchable = SearchableText(rule.Title, rule.QueryIntent, rule.Content)
	return rule, nil
}

// ExtractQueryIntent returns the text after the first "**Query Intent**:"
// label, or "".
func ExtractQueryIntent(content string) string {
	if match := queryIntentRegex.FindStringSubmatch(content); len(match) > 1 {
		return strings.TrimSpace(match[1])
	}
	return ""
}

// SearchableText joins title, intent and the start of the body, skipping
// empty parts.
func SearchableText(title, intent, body string) string {
	if r := []rune(body); len(r) > SearchableExcerptRunes {
		body = string(r[:SearchableExcerptRunes])
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{title, intent, body} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
