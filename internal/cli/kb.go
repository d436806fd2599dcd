package cli

import (
	"fmt"
	"os"

	"github.com/alpkeskin/gotoon"
	"github.com/raphaelgruber/replan-rag/internal/knowledge"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	kbListJSON bool
	kbListToon bool
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect and index the knowledge base",
	Long: `Inspect and index the rule knowledge base.

Subcommands:
  list    List rule documents with their tags
  index   Embed the corpus, filling the embedding cache

Examples:
  replan kb list
  replan kb list --toon
  replan kb index`,
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rule documents with their tags",
	RunE:  runKBList,
}

var kbIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the corpus, filling the embedding cache",
	RunE:  runKBIndex,
}

func init() {
	kbListCmd.Flags().BoolVar(&kbListJSON, "json", false, "output as JSON")
	kbListCmd.Flags().BoolVar(&kbListToon, "toon", false, "output as Toon")

	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbIndexCmd)
}

// kbRow is the flat rendering of a rule document.
type kbRow struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Group        string `json:"group"`
	Category     string `json:"category"`
	Family       string `json:"family"`
	Relationship string `json:"relationship"`
}

func runKBList(cmd *cobra.Command, args []string) error {
	base, err := knowledge.LoadDir(cfg.KnowledgeBaseDir)
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}

	rows := make([]kbRow, 0, len(base.Rules))
	for _, r := range base.Rules {
		rows = append(rows, kbRow{
			ID:           r.ID,
			Title:        r.Title,
			Group:        string(r.Group),
			Category:     string(r.Category),
			Family:       string(r.Family),
			Relationship: string(r.Relationship),
		})
	}

	if kbListJSON {
		return printJSON(rows)
	}
	if kbListToon {
		output, err := gotoon.Encode(map[string]any{"rules": rows})
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return nil
	}

	source := "built-in"
	if cfg.KnowledgeBaseDir != "" {
		source = cfg.KnowledgeBaseDir
	}
	fmt.Printf("Knowledge base (%s): %d rules\n\n", source, len(rows))
	for _, r := range rows {
		tags := r.Category
		if r.Family != "" {
			tags += " family=" + r.Family
		}
		if r.Relationship != "" {
			tags += " relationship=" + r.Relationship
		}
		fmt.Printf("  %-48s %s\n", r.ID, defaultTheme.hintStyle().Render(tags))
	}
	return nil
}

func runKBIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return RunIndexProgress(ctx, newPipeline)
	}

	p, err := newPipeline(ctx, func(done, total int) {
		fmt.Printf("embedded %d/%d rules\n", done, total)
	})
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d rules with %s\n", p.Index.Len(), p.Embedder.Model())
	if cfg.CacheDir != "" {
		fmt.Printf("Cache: %s\n", cfg.CacheDir)
	}
	return nil
}
