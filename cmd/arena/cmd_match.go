package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-arena/infrastructure/audit"
	"github.com/ahrav/go-arena/infrastructure/evaluator"
	"github.com/ahrav/go-arena/infrastructure/llm"
	"github.com/ahrav/go-arena/infrastructure/middleware"
	"github.com/ahrav/go-arena/internal/application"
	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var matchFlags struct {
	red       string
	blue      string
	detailed  bool
	evaluator string
}

var matchCmd = &cobra.Command{
	Use:   "match <roster.yaml>",
	Short: "Run a match between two roster models",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

func init() {
	f := matchCmd.Flags()
	f.StringVar(&matchFlags.red, "red", "", "First model (required)")
	f.StringVar(&matchFlags.blue, "blue", "", "Second model, wins ties (required)")
	f.BoolVar(&matchFlags.detailed, "detailed", false, "Include the full interaction log and intermediates")
	f.StringVar(&matchFlags.evaluator, "evaluator", "", "Override the configured evaluator (heuristic|llm)")

	_ = matchCmd.MarkFlagRequired("red")
	_ = matchCmd.MarkFlagRequired("blue")
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := application.LoadMatchConfig(rootFlags.configPath)
	if err != nil {
		return err
	}
	if matchFlags.evaluator != "" {
		cfg.Evaluator.Kind = matchFlags.evaluator
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	roster, err := LoadRoster(args[0])
	if err != nil {
		return err
	}
	red, err := roster.Resolve(matchFlags.red)
	if err != nil {
		return err
	}
	blue, err := roster.Resolve(matchFlags.blue)
	if err != nil {
		return err
	}

	metrics := middleware.NewPrometheusMetrics()
	primary, fallback, err := buildEvaluators(cfg, metrics)
	if err != nil {
		return err
	}

	engine, err := application.NewEngine(cfg, primary, fallback,
		application.WithAuditSink(audit.NewConsoleSink()),
		application.WithMetricsCollector(metrics),
		application.WithStageObserver(middleware.NewOtelStageObserver("arena")),
	)
	if err != nil {
		return err
	}

	req := application.MatchRequest{
		MatchID: uuid.NewString(),
		Models:  [2]domain.Model{red, blue},
	}
	clog.FromContext(ctx).With("match_id", req.MatchID).
		Infof("running match: %s vs %s", red.Name, blue.Name)

	var result any
	if matchFlags.detailed {
		result, err = engine.RunMatchDetailed(ctx, req)
	} else {
		result, err = engine.RunMatch(ctx, req)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// buildEvaluators constructs the primary evaluator from configuration.
// The heuristic evaluator always serves as the fallback; in heuristic
// mode it is also the primary. LLM calls report into the same metrics
// collector as the engine.
func buildEvaluators(cfg application.MatchConfig, metrics ports.MetricsCollector) (primary, fallback ports.Evaluator, err error) {
	heuristic := evaluator.NewHeuristic()
	if cfg.Evaluator.Kind == "heuristic" {
		return heuristic, heuristic, nil
	}

	apiKey := cfg.Evaluator.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ARENA_EVALUATOR_API_KEY")
	}

	mw := []llm.Middleware{
		llm.RetryMiddleware(cfg.Evaluator.MaxRetries, 500*time.Millisecond, 10*time.Second),
		llm.TimeoutMiddleware(cfg.Evaluator.RequestTimeout),
		llm.TracingMiddleware("arena"),
		llm.MetricsMiddleware(metrics),
	}
	if cfg.Evaluator.RequestsPerSecond > 0 {
		mw = append(mw, llm.RateLimitMiddleware(rate.Limit(cfg.Evaluator.RequestsPerSecond), 1))
	}

	client, err := llm.NewClient(cfg.Evaluator.Provider, llm.ClientConfig{
		APIKey:     apiKey,
		Model:      cfg.Evaluator.Model,
		Timeout:    cfg.Evaluator.RequestTimeout,
		Middleware: mw,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("building %s client: %w", cfg.Evaluator.Provider, err)
	}

	evalCfg := evaluator.DefaultLLMConfig()
	evalCfg.Temperature = cfg.Evaluator.Temperature
	evalCfg.MaxTokens = cfg.Evaluator.MaxTokens
	llmEval, err := evaluator.NewLLMEvaluator(client, evalCfg)
	if err != nil {
		return nil, nil, err
	}
	return llmEval, heuristic, nil
}
