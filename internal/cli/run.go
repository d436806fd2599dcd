package cli

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/replan-rag/internal/llm"
	"github.com/raphaelgruber/replan-rag/internal/service"
	"github.com/spf13/cobra"
)

var (
	runReq    requestFlags
	runStrict bool
	runJSON   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and validate a plan for a request",
	Long: `Run the full pipeline: classify the request, select rules, build the
prompts, generate with the configured model, validate the output and
verify it against the target.

Output failing format or schema validation is regenerated up to
generation.max_attempts times.

Examples:
  replan run --target target.json --current current.json
  replan run -t target.json -s current.json --json --strict`,
	RunE: runRun,
}

func init() {
	runReq.register(runCmd)
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "fail on target mismatch")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "output as JSON")
}

func runRun(cmd *cobra.Command, args []string) error {
	req, err := runReq.load()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	p, err := newPipeline(ctx, nil)
	if err != nil {
		return err
	}
	model, err := llm.NewModel(cfg)
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}

	svc := service.NewReplanService(p.Retriever, p.Prompts, model, service.Options{
		TopK:        cfg.TopK,
		MaxAttempts: cfg.MaxAttempts,
		Metrics:     collector,
		Logger:      logger,
	})

	out, err := svc.Replan(ctx, req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) && verbose {
			fmt.Println(defaultTheme.hintStyle().Render("Last generated output:"))
			fmt.Println(verr.Raw)
		}
		return err
	}

	if runJSON {
		if err := printJSON(out); err != nil {
			return err
		}
	} else {
		fmt.Printf("Run %s: scenario %s, %d rules, %d attempt(s)\n\n",
			out.RunID, out.Selection.Classification.Scenario, len(out.Selection.Rules), out.Attempts)
		printResult(out.Result)
		printReport(out.Report)
	}

	if runStrict && !out.Report.Passed {
		return fmt.Errorf("target mismatch: %s", out.Report.Failure)
	}
	return nil
}
