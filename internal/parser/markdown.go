// Package parser turns Markdown rule documents into structured rules.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var h1Regex = regexp.MustCompile(`(?m)^#\s+(.+)$`)

const fence = "---"

// Frontmatter is the YAML header of a rule document. Unknown keys are kept
// in Extra.
type Frontmatter struct {
	Title        string         `yaml:"title"`
	Category     string         `yaml:"category"`
	Family       string         `yaml:"family"`
	Relationship string         `yaml:"relationship"`
	Extra        map[string]any `yaml:",inline"`
}

// Document is a Markdown file split into frontmatter and body.
type Document struct {
	Frontmatter Frontmatter

	// Title comes from the frontmatter, else the first h1 of the body.
	Title string

	// Body is everything after the closing frontmatter fence.
	Body string
}

// ParseMarkdown splits content into frontmatter and body. Content without
// an opening fence on its first line has no frontmatter; malformed YAML
// between fences is an error.
func ParseMarkdown(content string) (*Document, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	doc := &Document{Body: content}
	if header, body, ok := splitFrontmatter(content); ok {
		if err := yaml.Unmarshal([]byte(header), &doc.Frontmatter); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
		doc.Body = body
	}

	doc.Title = strings.TrimSpace(doc.Frontmatter.Title)
	if doc.Title == "" {
		if m := h1Regex.FindStringSubmatch(doc.Body); m != nil {
			doc.Title = strings.TrimSpace(m[1])
		}
	}
	return doc, nil
}

// splitFrontmatter returns the YAML between a leading "---" line and the
// next "---" line, and the text after it.
func splitFrontmatter(content string) (header, body string, ok bool) {
	first, rest, found := strings.Cut(content, "\n")
	if !found || strings.TrimSpace(first) != fence {
		return "", content, false
	}

	var lines []string
	for {
		line, tail, more := strings.Cut(rest, "\n")
		if strings.TrimSpace(line) == fence {
			return strings.Join(lines, "\n"), tail, true
		}
		if !more {
			return "", content, false
		}
		lines = append(lines, line)
		rest = tail
	}
}
