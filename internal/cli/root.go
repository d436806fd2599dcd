// Package cli provides the command-line interface for replan.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/raphaelgruber/replan-rag/internal/config"
	"github.com/raphaelgruber/replan-rag/internal/metrics"
	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/raphaelgruber/replan-rag/internal/service"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configFile string
	timeout    time.Duration

	// Global config, logger and metrics
	cfg       config.Config
	logger    *slog.Logger
	closeLog  func() error
	collector *metrics.Collector
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "replan",
	Short: "Rule retrieval and plan validation for object rearrangement",
	Long: `Replan selects domain rules for an object rearrangement request and
validates generated plans before they are trusted.

A request is a target structure and the currently observed structure, each
a JSON file of the form {"target_structure": {"relationship": ..., "placements": [...]}}.
Rules come from the built-in knowledge base or the directory set in
knowledge_base.dir.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, closeLog = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		collector = metrics.NewCollector()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if verbose && collector != nil {
			printSnapshot(os.Stderr, collector.Snapshot())
		}
		if closeLog != nil {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and timing summary")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default $HOME/.config/replan/config.toml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall deadline for embedding and generation calls")

	// Add subcommands
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(kbCmd)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// newPipeline loads the knowledge base and embeds it with the configured
// provider.
func newPipeline(ctx context.Context, onBatch func(done, total int)) (*service.Pipeline, error) {
	return service.NewPipeline(ctx, cfg, service.PipelineOptions{
		Metrics:      collector,
		Logger:       logger,
		OnIndexBatch: onBatch,
	})
}

// requestFlags holds the --target and --current file paths of a command.
type requestFlags struct {
	target  string
	current string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.target, "target", "t", "", "target structure JSON file, or - for stdin")
	cmd.Flags().StringVarP(&f.current, "current", "s", "", "current state JSON file, or - for stdin")
	_ = cmd.MarkFlagRequired("target")
}

func (f *requestFlags) load() (service.Request, error) {
	if f.target == "-" && f.current == "-" {
		return service.Request{}, fmt.Errorf("only one of --target and --current can read stdin")
	}
	target, err := readSpec(f.target)
	if err != nil {
		return service.Request{}, fmt.Errorf("read target: %w", err)
	}
	req := service.Request{Target: target}
	if f.current != "" {
		req.Current, err = readSpec(f.current)
		if err != nil {
			return service.Request{}, fmt.Errorf("read current state: %w", err)
		}
	}
	return req, nil
}

func readSpec(path string) (*models.Spec, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	spec, err := models.ParseSpec(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return spec, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
