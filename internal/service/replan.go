package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/replan-rag/internal/llm"
	"github.com/raphaelgruber/replan-rag/internal/metrics"
	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/raphaelgruber/replan-rag/internal/prompt"
	"github.com/raphaelgruber/replan-rag/internal/retrieval"
	"github.com/raphaelgruber/replan-rag/internal/validate"
)

// Generator produces text from a system and a user prompt.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (llm.Completion, error)
}

// Options configures a ReplanService.
type Options struct {
	// TopK bounds the rule selection; retrieval.DefaultTopK when zero.
	TopK int

	// MaxAttempts is how often generation is tried when the output fails
	// format or schema validation. Defaults to 1.
	MaxAttempts int

	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// Request is one replanning job.
type Request struct {
	Target  *models.Spec `json:"target_spec"`
	Current *models.Spec `json:"current_state,omitempty"`
}

// Prepared holds everything sent to the generator.
type Prepared struct {
	Selection    *retrieval.Selection `json:"selection"`
	SystemPrompt string               `json:"system_prompt"`
	UserPrompt   string               `json:"user_prompt"`
}

// Outcome is a validated generation with its target consistency report.
// A failed report does not make the run an error.
type Outcome struct {
	RunID string `json:"run_id"`
	Prepared
	Raw      string          `json:"raw"`
	Attempts int             `json:"attempts"`
	Result   *models.Result  `json:"result"`
	Report   validate.Report `json:"report"`
}

// ValidationError is returned when no attempt produced a valid result.
// It unwraps to the validate sentinel of the last attempt.
type ValidationError struct {
	RunID    string
	Attempts int
	Raw      string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("run %s: attempt %d: %v", e.RunID, e.Attempts, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ReplanService runs classify, retrieve, prompt, generate, validate and
// verify for a request.
type ReplanService struct {
	retriever *retrieval.Retriever
	prompts   *prompt.Builder
	generator Generator
	opts      Options
}

// NewReplanService creates a replanning service. generator may be nil for
// callers that only use Prepare.
func NewReplanService(retriever *retrieval.Retriever, prompts *prompt.Builder, generator Generator, opts Options) *ReplanService {
	if opts.TopK <= 0 {
		opts.TopK = retrieval.DefaultTopK
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if prompts == nil {
		prompts = prompt.NewBuilder(nil)
	}
	return &ReplanService{
		retriever: retriever,
		prompts:   prompts,
		generator: generator,
		opts:      opts,
	}
}

// Prepare selects rules for the request and renders both prompts.
func (s *ReplanService) Prepare(ctx context.Context, req Request) (*Prepared, error) {
	target := req.Target.Structure()
	if err := validate.ValidateStructure(target); err != nil {
		return nil, fmt.Errorf("invalid target: %w", err)
	}

	stop := s.opts.Metrics.Time(metrics.OpRetrieve)
	sel, err := s.retriever.RetrieveAndFilterRules(ctx, target, req.Current.Structure(), s.opts.TopK)
	stop()
	if err != nil {
		return nil, fmt.Errorf("retrieve rules: %w", err)
	}

	user, err := prompt.User(req.Target, req.Current)
	if err != nil {
		return nil, err
	}

	return &Prepared{
		Selection:    sel,
		SystemPrompt: s.prompts.System(target, sel.Classification.ReplacementType, sel.Rules),
		UserPrompt:   user,
	}, nil
}

// Replan runs the full pipeline. Output that fails format or schema
// validation is regenerated up to MaxAttempts times; consistency failures
// are returned immediately since another sample of the same prompt rarely
// fixes them.
func (s *ReplanService) Replan(ctx context.Context, req Request) (*Outcome, error) {
	if s.generator == nil {
		return nil, errors.New("no generator configured")
	}

	runID := uuid.New().String()[:8]
	logger := s.opts.Logger.With("run_id", runID)

	prepared, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	logger.Info("rules selected",
		"scenario", string(prepared.Selection.Classification.Scenario),
		"rules", len(prepared.Selection.Rules))

	out := &Outcome{RunID: runID, Prepared: *prepared}
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		out.Attempts = attempt

		completion, err := s.generator.GenerateWithSystem(ctx, prepared.SystemPrompt, prepared.UserPrompt)
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
		s.opts.Metrics.RecordLLMUsage(metrics.OpGenerate, completion.Duration, completion.InputTokens, completion.OutputTokens)
		out.Raw = completion.Text

		start := time.Now()
		result, err := validate.ParseResult(completion.Text)
		s.opts.Metrics.RecordTiming(metrics.OpValidate, time.Since(start))
		s.opts.Metrics.RecordOutcome(validate.Kind(err))

		if err == nil {
			out.Result = result
			break
		}

		logger.Warn("generated output rejected",
			"attempt", attempt,
			"kind", validate.Kind(err),
			"error", err)
		if !retryable(err) || attempt == s.opts.MaxAttempts {
			return nil, &ValidationError{RunID: runID, Attempts: attempt, Raw: completion.Text, Err: err}
		}
	}

	stop := s.opts.Metrics.Time(metrics.OpVerify)
	out.Report = validate.VerifyTarget(out.Result, req.Target)
	stop()
	if !out.Report.Passed {
		s.opts.Metrics.RecordOutcome("target_mismatch")
	}

	logger.Info("replan finished",
		"status", string(out.Result.Status),
		"attempts", out.Attempts,
		"target_passed", out.Report.Passed)
	return out, nil
}

func retryable(err error) bool {
	return errors.Is(err, validate.ErrFormat) || errors.Is(err, validate.ErrSchema)
}
