// Package knowledge loads the rule corpus and prompt templates from a
// directory tree of Markdown files.
package knowledge

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/raphaelgruber/replan-rag/internal/parser"
)

// PromptTemplatesDir holds prompt overrides rather than rules.
const PromptTemplatesDir = "prompt_templates"

//go:embed defaults
var defaults embed.FS

// Base is an immutable snapshot of a knowledge base.
type Base struct {
	// Rules in load order. Load order is lexical path order, which breaks
	// similarity ties during retrieval.
	Rules []models.Rule

	templates map[string]string
}

// Default loads the corpus built into the binary.
func Default() (*Base, error) {
	return Load(defaults, "defaults")
}

// LoadDir loads a knowledge base from dir, or the built-in corpus when dir
// is empty.
func LoadDir(dir string) (*Base, error) {
	if dir == "" {
		return Default()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("knowledge base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("knowledge base %s is not a directory", dir)
	}
	return Load(os.DirFS(dir), ".")
}

// Load walks root in fsys. Every *.md file outside prompt_templates/ becomes
// a rule whose ID is its slash-separated path relative to root. Files in
// prompt_templates/ are indexed by base name without extension.
func Load(fsys fs.FS, root string) (*Base, error) {
	base := &Base{templates: make(map[string]string)}

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p), ".md") {
			return nil
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		if root == "." {
			rel = p
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}

		if first, _, _ := strings.Cut(rel, "/"); first == PromptTemplatesDir {
			name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
			base.templates[name] = string(data)
			return nil
		}

		rule, err := parser.ParseRule(rel, string(data))
		if err != nil {
			return fmt.Errorf("parse %s: %w", rel, err)
		}
		base.Rules = append(base.Rules, Tag(rule))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}

	slog.Debug("knowledge base loaded", "rules", len(base.Rules), "templates", len(base.templates))
	return base, nil
}

// Template returns the prompt template override with the given name.
func (b *Base) Template(name string) (string, bool) {
	t, ok := b.templates[name]
	return t, ok
}

// Rule returns the rule with the given ID.
func (b *Base) Rule(id string) (models.Rule, bool) {
	for _, r := range b.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return models.Rule{}, false
}
