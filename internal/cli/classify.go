package cli

import (
	"fmt"

	"github.com/raphaelgruber/replan-rag/internal/scenario"
	"github.com/raphaelgruber/replan-rag/internal/service"
	"github.com/spf13/cobra"
)

var (
	classifyReq  requestFlags
	classifyJSON bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the scenario of a request",
	Long: `Classify a request into a scenario label by embedding similarity against
the template bank, with the deterministic stack replacement grade taking
over when the best similarity is below retrieval.threshold.

Examples:
  replan classify --target target.json --current current.json
  replan classify -t target.json -s current.json --json`,
	RunE: runClassify,
}

func init() {
	classifyReq.register(classifyCmd)
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output as JSON")
}

func runClassify(cmd *cobra.Command, args []string) error {
	req, err := classifyReq.load()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	emb, err := service.NewEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	classifier, err := scenario.NewClassifier(ctx, emb, scenario.Options{
		Threshold: cfg.SimilarityThreshold,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("init classifier: %w", err)
	}

	cls, err := classifier.Classify(ctx, req.Target.Structure(), req.Current.Structure())
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	if classifyJSON {
		return printJSON(cls)
	}

	fmt.Printf("Scenario:         %s\n", cls.Scenario)
	fmt.Printf("Similarity:       %.3f\n", cls.Similarity)
	fmt.Printf("Replacement type: %s\n", cls.ReplacementType)
	if cls.Overridden {
		fmt.Println(defaultTheme.hintStyle().Render("(below threshold, replacement type decided)"))
	}
	if verbose {
		fmt.Printf("\nQuery: %s\n", cls.Query)
	}
	return nil
}
