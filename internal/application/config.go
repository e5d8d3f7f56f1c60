// Package application wires the pipeline stages into a match engine and
// owns run configuration.
package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/ahrav/go-arena/internal/domain"
)

// envPrefix is the environment variable prefix for configuration
// overrides, e.g. ARENA_EVALUATOR_KIND=heuristic.
const envPrefix = "ARENA_"

var validate = validator.New()

// MatchConfig is the complete configuration for a match run. Zero values
// are filled from DefaultMatchConfig before validation, so partial YAML
// files and env overrides both work.
type MatchConfig struct {
	// Discussion tunes the convergence round.
	Discussion DiscussionSettings `yaml:"discussion" koanf:"discussion"`
	// Determination tunes the final score blend.
	Determination DeterminationSettings `yaml:"determination" koanf:"determination"`
	// Evaluator selects and configures the scoring backend.
	Evaluator EvaluatorSettings `yaml:"evaluator" koanf:"evaluator"`
}

// DiscussionSettings controls when and how judge scores are pulled
// toward the mean.
type DiscussionSettings struct {
	// VarianceThreshold is the maximum tolerated population variance of a
	// model's three judge scores before a convergence round runs.
	VarianceThreshold float64 `yaml:"variance_threshold" koanf:"variance_threshold" validate:"min=0"`
	// ConvergenceRate is the weight given to the mean during convergence.
	ConvergenceRate float64 `yaml:"convergence_rate" koanf:"convergence_rate" validate:"min=0,max=1"`
	// ConfidenceGain is the fraction of remaining headroom added to each
	// judge's confidence after a convergence round.
	ConfidenceGain float64 `yaml:"confidence_gain" koanf:"confidence_gain" validate:"min=0,max=1"`
}

// DeterminationSettings controls the consensus/predictive blend used to
// pick a winner.
type DeterminationSettings struct {
	ConsensusWeight  float64 `yaml:"consensus_weight" koanf:"consensus_weight" validate:"min=0,max=1"`
	PredictiveWeight float64 `yaml:"predictive_weight" koanf:"predictive_weight" validate:"min=0,max=1"`
}

// EvaluatorSettings selects the scoring backend and, for the LLM kind,
// its provider parameters.
type EvaluatorSettings struct {
	// Kind selects the evaluator: "heuristic" or "llm".
	Kind string `yaml:"kind" koanf:"kind" validate:"required,oneof=heuristic llm"`
	// Provider names the LLM provider when Kind is "llm".
	Provider string `yaml:"provider" koanf:"provider" validate:"omitempty,oneof=anthropic openai google"`
	// Model is the provider model identifier; empty uses the provider default.
	Model string `yaml:"model" koanf:"model"`
	// APIKey authenticates against the provider. Prefer the env override
	// ARENA_EVALUATOR_API_KEY over putting keys in files.
	APIKey string `yaml:"api_key" koanf:"api_key"`
	// Temperature for judge completions.
	Temperature float64 `yaml:"temperature" koanf:"temperature" validate:"min=0,max=2"`
	// MaxTokens caps each judge completion.
	MaxTokens int `yaml:"max_tokens" koanf:"max_tokens" validate:"min=0"`
	// RequestTimeout bounds each provider call.
	RequestTimeout time.Duration `yaml:"request_timeout" koanf:"request_timeout" validate:"min=0"`
	// MaxRetries is the number of additional attempts per provider call.
	MaxRetries int `yaml:"max_retries" koanf:"max_retries" validate:"min=0,max=10"`
	// RequestsPerSecond paces provider calls; 0 disables rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" koanf:"requests_per_second" validate:"min=0"`
}

// DefaultMatchConfig returns the configuration used when nothing is
// overridden: heuristic evaluator, standard convergence and blend
// parameters.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Discussion: DiscussionSettings{
			VarianceThreshold: 2.0,
			ConvergenceRate:   0.4,
			ConfidenceGain:    0.3,
		},
		Determination: DeterminationSettings{
			ConsensusWeight:  0.7,
			PredictiveWeight: 0.3,
		},
		Evaluator: EvaluatorSettings{
			Kind:              "heuristic",
			Provider:          "anthropic",
			Temperature:       0.0,
			MaxTokens:         256,
			RequestTimeout:    30 * time.Second,
			MaxRetries:        2,
			RequestsPerSecond: 5,
		},
	}
}

// Validate checks the configuration against its constraints, including
// that the blend weights sum to 1.
func (c MatchConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	sum := c.Determination.ConsensusWeight + c.Determination.PredictiveWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("%w: determination weights must sum to 1, got %.3f",
			domain.ErrInvalidConfiguration, sum)
	}
	return nil
}

// LoadMatchConfig builds a MatchConfig by layering, lowest precedence
// first: defaults, an optional YAML file, and ARENA_-prefixed environment
// variables (ARENA_DISCUSSION_VARIANCE_THRESHOLD and so on; a single
// underscore after the section name separates nested keys).
func LoadMatchConfig(path string) (MatchConfig, error) {
	cfg := DefaultMatchConfig()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
			return MatchConfig{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "arena_")
		// ARENA_EVALUATOR_API_KEY -> evaluator.api_key
		for _, section := range []string{"discussion", "determination", "evaluator"} {
			if strings.HasPrefix(s, section+"_") {
				return section + "." + strings.TrimPrefix(s, section+"_")
			}
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return MatchConfig{}, fmt.Errorf("loading env config: %w", err)
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return MatchConfig{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return MatchConfig{}, err
	}
	return cfg, nil
}

// ParseMatchConfig decodes a YAML document into a MatchConfig layered
// over the defaults and validates it.
func ParseMatchConfig(data []byte) (MatchConfig, error) {
	cfg := DefaultMatchConfig()

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), kyaml.Parser()); err != nil {
		return MatchConfig{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return MatchConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return MatchConfig{}, err
	}
	return cfg, nil
}
