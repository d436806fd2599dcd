package cli

import (
	"fmt"

	"github.com/raphaelgruber/replan-rag/internal/service"
	"github.com/spf13/cobra"
)

var (
	promptReq  requestFlags
	promptJSON bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render the prompts a request would be generated with",
	Long: `Select rules for the request and print the system and user prompts
without calling a model.

Examples:
  replan prompt --target target.json --current current.json
  replan prompt -t target.json -s current.json --json`,
	RunE: runPrompt,
}

func init() {
	promptReq.register(promptCmd)
	promptCmd.Flags().BoolVar(&promptJSON, "json", false, "output as JSON")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	req, err := promptReq.load()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	p, err := newPipeline(ctx, nil)
	if err != nil {
		return err
	}

	svc := service.NewReplanService(p.Retriever, p.Prompts, nil, service.Options{
		TopK:    cfg.TopK,
		Metrics: collector,
		Logger:  logger,
	})
	prepared, err := svc.Prepare(ctx, req)
	if err != nil {
		return err
	}

	if promptJSON {
		return printJSON(prepared)
	}

	hdr := defaultTheme.statusStyle()
	fmt.Println(hdr.Render("=== SYSTEM ==="))
	fmt.Println(prepared.SystemPrompt)
	fmt.Println(hdr.Render("=== USER ==="))
	fmt.Println(prepared.UserPrompt)
	return nil
}
