package cli

import (
	"fmt"
	"time"

	"github.com/raphaelgruber/replan-rag/internal/metrics"
	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/raphaelgruber/replan-rag/internal/validate"
	"github.com/spf13/cobra"
)

var (
	validateTarget string
	validateStrict bool
	validateJSON   bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|->",
	Short: "Validate generated output",
	Long: `Extract the JSON object from generated text and validate it: relationship
schema, action fields, buffer slots and plan consistency. With --target the
declared final structure is also checked against the target.

Exits non-zero on format, schema or consistency errors. A target mismatch
is reported and only fails the command with --strict.

Examples:
  replan validate output.txt
  replan validate output.txt --target target.json --strict
  cat output.txt | replan validate -`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateTarget, "target", "t", "", "target structure JSON file to verify against")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "fail on target mismatch")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "output as JSON")
}

func runValidate(cmd *cobra.Command, args []string) error {
	text, err := readInput(args[0])
	if err != nil {
		return fmt.Errorf("read output: %w", err)
	}

	start := time.Now()
	result, err := validate.ParseResult(string(text))
	collector.RecordTiming(metrics.OpValidate, time.Since(start))
	collector.RecordOutcome(validate.Kind(err))
	if err != nil {
		fmt.Println(defaultTheme.errorStyle().Render("✗ " + validate.Kind(err) + " error"))
		return err
	}

	var report *validate.Report
	if validateTarget != "" {
		target, err := readSpec(validateTarget)
		if err != nil {
			return fmt.Errorf("read target: %w", err)
		}
		r := validate.VerifyTarget(result, target)
		report = &r
	}

	if validateJSON {
		if err := printJSON(map[string]any{"result": result, "report": report}); err != nil {
			return err
		}
	} else {
		printResult(result)
		if report != nil {
			printReport(*report)
		}
	}

	if validateStrict && report != nil && !report.Passed {
		return fmt.Errorf("target mismatch: %s", report.Failure)
	}
	return nil
}

func printResult(result *models.Result) {
	switch {
	case result.IsBareStructure():
		fmt.Println(defaultTheme.completedStyle().Render("✓ Valid structure"))
		fmt.Printf("  %s: %s\n", result.TargetStructure.Relationship, result.TargetStructure.Describe())
		return
	case result.Status == models.StatusBlocked:
		fmt.Println(defaultTheme.statusStyle().Render("Blocked"))
		fmt.Printf("  %s\n", result.Reason)
		return
	}

	fmt.Println(defaultTheme.completedStyle().Render(fmt.Sprintf("✓ Valid plan (%d steps)", len(result.Plan))))
	for i, a := range result.Plan {
		fmt.Printf("  %d. %-16s %-14s %s -> %s\n", i+1, a.Kind, a.Object, describeEndpoint(a.From), describeEndpoint(a.To))
	}
	if s := result.FinalExpected.Structure(); s != nil {
		fmt.Printf("  final: %s: %s\n", s.Relationship, s.Describe())
	}
}

func describeEndpoint(e *models.Endpoint) string {
	switch {
	case e == nil:
		return "-"
	case e.Slot != "":
		return string(e.Type) + ":" + e.Slot
	case e.Position != "":
		return string(e.Type) + ":" + e.Position
	default:
		return string(e.Type)
	}
}

func printReport(r validate.Report) {
	switch {
	case r.Skipped:
		fmt.Println(defaultTheme.hintStyle().Render("Target check skipped: nothing to compare"))
	case r.Passed:
		fmt.Println(defaultTheme.completedStyle().Render("✓ Matches target") + " " +
			defaultTheme.hintStyle().Render("("+r.Source+")"))
	default:
		fmt.Println(defaultTheme.errorStyle().Render("✗ Target mismatch: " + r.Failure.String()))
	}
}
