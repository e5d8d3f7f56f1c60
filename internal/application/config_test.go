package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/internal/domain"
)

// TestDefaultMatchConfig verifies the defaults are self-consistent.
func TestDefaultMatchConfig(t *testing.T) {
	cfg := DefaultMatchConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2.0, cfg.Discussion.VarianceThreshold)
	assert.Equal(t, 0.4, cfg.Discussion.ConvergenceRate)
	assert.Equal(t, 0.3, cfg.Discussion.ConfidenceGain)
	assert.Equal(t, 0.7, cfg.Determination.ConsensusWeight)
	assert.Equal(t, 0.3, cfg.Determination.PredictiveWeight)
	assert.Equal(t, "heuristic", cfg.Evaluator.Kind)
}

// TestMatchConfig_Validate covers the rejection paths.
func TestMatchConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MatchConfig)
	}{
		{name: "weights not summing to one", mutate: func(c *MatchConfig) {
			c.Determination.ConsensusWeight = 0.9
		}},
		{name: "unknown evaluator kind", mutate: func(c *MatchConfig) {
			c.Evaluator.Kind = "oracle"
		}},
		{name: "unknown provider", mutate: func(c *MatchConfig) {
			c.Evaluator.Provider = "homegrown"
		}},
		{name: "negative variance threshold", mutate: func(c *MatchConfig) {
			c.Discussion.VarianceThreshold = -1
		}},
		{name: "convergence rate above one", mutate: func(c *MatchConfig) {
			c.Discussion.ConvergenceRate = 1.5
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMatchConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		})
	}
}

// TestParseMatchConfig verifies YAML layering over defaults.
func TestParseMatchConfig(t *testing.T) {
	cfg, err := ParseMatchConfig([]byte(`
discussion:
  variance_threshold: 3.5
evaluator:
  kind: llm
  provider: openai
  model: gpt-4o-mini
  request_timeout: 45s
`))
	require.NoError(t, err)

	assert.Equal(t, 3.5, cfg.Discussion.VarianceThreshold)
	assert.Equal(t, "llm", cfg.Evaluator.Kind)
	assert.Equal(t, "openai", cfg.Evaluator.Provider)
	assert.Equal(t, 45*time.Second, cfg.Evaluator.RequestTimeout)
	assert.Equal(t, "gpt-4o-mini", cfg.Evaluator.Model)

	// Unspecified sections keep their defaults.
	assert.Equal(t, 0.4, cfg.Discussion.ConvergenceRate)
	assert.Equal(t, 0.7, cfg.Determination.ConsensusWeight)
}

// TestParseMatchConfig_Invalid verifies malformed documents fail.
func TestParseMatchConfig_Invalid(t *testing.T) {
	_, err := ParseMatchConfig([]byte("evaluator: [not, a, map]"))
	require.Error(t, err)

	_, err = ParseMatchConfig([]byte("evaluator:\n  kind: oracle"))
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

// TestLoadMatchConfig verifies file plus env layering.
func TestLoadMatchConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"discussion:\n  variance_threshold: 4.0\n"), 0o600))

	t.Setenv("ARENA_EVALUATOR_KIND", "llm")
	t.Setenv("ARENA_EVALUATOR_PROVIDER", "google")

	cfg, err := LoadMatchConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4.0, cfg.Discussion.VarianceThreshold, "file value wins over default")
	assert.Equal(t, "llm", cfg.Evaluator.Kind, "env value wins over default")
	assert.Equal(t, "google", cfg.Evaluator.Provider)
}

// TestLoadMatchConfig_MissingFile verifies the error path.
func TestLoadMatchConfig_MissingFile(t *testing.T) {
	_, err := LoadMatchConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

// TestLoadMatchConfig_NoFile verifies defaults apply when no path is given.
func TestLoadMatchConfig_NoFile(t *testing.T) {
	cfg, err := LoadMatchConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMatchConfig().Discussion, cfg.Discussion)
}
