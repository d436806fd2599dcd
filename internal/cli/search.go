package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank rules by similarity to a free-text query",
	Long: `Rank the rule corpus by cosine similarity to a free-text query.
No scenario classification or inclusion policy is applied, so this shows
what the embedding model alone considers relevant.

Examples:
  replan search "clear the stack before replacing the bottom"
  replan search "buffer slots" -n 3 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "number of rules to return")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print rows as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	p, err := newPipeline(ctx, nil)
	if err != nil {
		return err
	}
	hits, err := p.Index.RetrieveRelevantRules(ctx, args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search %q: %w", args[0], err)
	}

	if searchJSON {
		return printJSON(ruleRows(hits))
	}
	if len(hits) == 0 {
		fmt.Println("No matching rules.")
		return nil
	}
	for i, r := range hits {
		fmt.Printf("%2d. %-40s %s\n", i+1, r.Title, formatScore(r.Score))
		fmt.Printf("    %s\n", r.ID)
		if verbose && r.QueryIntent != "" {
			fmt.Printf("    intent: %s\n", r.QueryIntent)
		}
	}
	return nil
}
