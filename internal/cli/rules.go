package cli

import (
	"fmt"

	"github.com/alpkeskin/gotoon"
	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/spf13/cobra"
)

var (
	rulesReq  requestFlags
	rulesK    int
	rulesJSON bool
	rulesToon bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Select the rules a request would be planned with",
	Long: `Classify the request, rank the rule corpus and apply the inclusion
policy: mandatory categories, the active relationship family, core backfill
and enforced requirements.

Rules without a score were injected by policy rather than ranked.

Examples:
  replan rules --target target.json --current current.json
  replan rules -t target.json -s current.json -k 3 --toon`,
	RunE: runRules,
}

func init() {
	rulesReq.register(rulesCmd)
	rulesCmd.Flags().IntVarP(&rulesK, "top-k", "k", 0, "selection bound (default retrieval.top_k)")
	rulesCmd.Flags().BoolVar(&rulesJSON, "json", false, "output as JSON")
	rulesCmd.Flags().BoolVar(&rulesToon, "toon", false, "output as Toon")
}

// ruleRow is the flat rendering of a selected rule.
type ruleRow struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Score    string `json:"score"`
}

func ruleRows(rules []models.ScoredRule) []ruleRow {
	rows := make([]ruleRow, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, ruleRow{
			ID:       r.ID,
			Title:    r.Title,
			Category: string(r.Category),
			Score:    formatScore(r.Score),
		})
	}
	return rows
}

func formatScore(score *float64) string {
	if score == nil {
		return "enforced"
	}
	return fmt.Sprintf("%.3f", *score)
}

func runRules(cmd *cobra.Command, args []string) error {
	req, err := rulesReq.load()
	if err != nil {
		return err
	}
	k := rulesK
	if k <= 0 {
		k = cfg.TopK
	}

	ctx, cancel := commandContext()
	defer cancel()

	p, err := newPipeline(ctx, nil)
	if err != nil {
		return err
	}

	sel, err := p.Retriever.RetrieveAndFilterRules(ctx, req.Target.Structure(), req.Current.Structure(), k)
	if err != nil {
		return err
	}

	if rulesJSON {
		return printJSON(sel)
	}

	if rulesToon {
		output, err := gotoon.Encode(map[string]any{
			"scenario": string(sel.Classification.Scenario),
			"rules":    ruleRows(sel.Rules),
		})
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return nil
	}

	fmt.Printf("Scenario: %s (%s)\n", sel.Classification.Scenario, sel.Classification.ReplacementType)
	fmt.Printf("Selected %d rules:\n\n", len(sel.Rules))
	for i, row := range ruleRows(sel.Rules) {
		fmt.Printf("%2d. %-9s %s\n", i+1, row.Score, row.Title)
		fmt.Printf("    %s", row.ID)
		if row.Category != "" {
			fmt.Printf(" [%s]", row.Category)
		}
		fmt.Println()
	}
	if verbose {
		fmt.Printf("\nQuery: %s\n", sel.Query)
	}
	return nil
}
