package evaluator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// mockLLMClient scripts Complete responses for evaluator tests.
type mockLLMClient struct {
	response   string
	err        error
	lastPrompt string
}

var _ ports.LLMClient = (*mockLLMClient)(nil)

func (m *mockLLMClient) Complete(_ context.Context, prompt string, _ map[string]any) (string, error) {
	m.lastPrompt = prompt
	return m.response, m.err
}

func (m *mockLLMClient) EstimateTokens(text string) (int, error) { return len(text) / 4, nil }

func (m *mockLLMClient) GetModel() string { return "mock-model" }

var llmTestModel = domain.Model{
	ID:   "alpha",
	Name: "Alpha",
	Attributes: domain.Attributes{
		Offense: 80, Defense: 60, Agility: 70, Strategy: 50, Endurance: 90,
	},
}

// TestLLMEvaluator_Evaluate verifies the round trip: prompt rendering,
// JSON parsing, and evaluation assembly.
func TestLLMEvaluator_Evaluate(t *testing.T) {
	client := &mockLLMClient{
		response: `{"score": 8.5, "confidence": 0.9, "reasoning": "strong strategic depth"}`,
	}
	eval, err := NewLLMEvaluator(client, DefaultLLMConfig())
	require.NoError(t, err)

	got, err := eval.Evaluate(context.Background(), llmTestModel, domain.CriterionCreativity)
	require.NoError(t, err)

	assert.Equal(t, 8.5, got.Score)
	assert.Equal(t, 0.9, got.Confidence)
	assert.Equal(t, "strong strategic depth", got.Reasoning)

	assert.Contains(t, client.lastPrompt, "Alpha")
	assert.Contains(t, client.lastPrompt, "creativity")
	assert.Contains(t, client.lastPrompt, "strategy=50")
	assert.Contains(t, client.lastPrompt, "respond with valid JSON")
}

// TestLLMEvaluator_FencedResponse verifies parsing of a markdown-fenced
// payload with surrounding prose.
func TestLLMEvaluator_FencedResponse(t *testing.T) {
	client := &mockLLMClient{
		response: "Here is my judgment:\n```json\n{\"score\": 7.0, \"confidence\": 0.8, \"reasoning\": \"solid but unremarkable\"}\n```\nLet me know if you need more.",
	}
	eval, err := NewLLMEvaluator(client, DefaultLLMConfig())
	require.NoError(t, err)

	got, err := eval.Evaluate(context.Background(), llmTestModel, domain.CriterionTechnical)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.Score)
}

// TestLLMEvaluator_Failures verifies that every malformed response mode
// surfaces as an error.
func TestLLMEvaluator_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		wantIn   string
	}{
		{name: "transport error", err: errors.New("connection refused"), wantIn: "LLM call failed"},
		{name: "no JSON", response: "I think the model is quite good overall.", wantIn: "no valid JSON"},
		{name: "malformed JSON", response: `{"score": "high"}`, wantIn: "failed to parse"},
		{
			name:     "score below contract",
			response: `{"score": 3.0, "confidence": 0.9, "reasoning": "weak showing today"}`,
			wantIn:   "out of range",
		},
		{
			name:     "score above contract",
			response: `{"score": 11.0, "confidence": 0.9, "reasoning": "beyond impressive today"}`,
			wantIn:   "out of range",
		},
		{
			name:     "confidence out of range",
			response: `{"score": 8.0, "confidence": 1.4, "reasoning": "overconfident judgment here"}`,
			wantIn:   "invalid judge response",
		},
		{
			name:     "reasoning too short",
			response: `{"score": 8.0, "confidence": 0.9, "reasoning": "ok"}`,
			wantIn:   "invalid judge response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockLLMClient{response: tt.response, err: tt.err}
			eval, err := NewLLMEvaluator(client, DefaultLLMConfig())
			require.NoError(t, err)

			_, err = eval.Evaluate(context.Background(), llmTestModel, domain.CriterionPerformance)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantIn)
		})
	}
}

// TestLLMEvaluator_CustomTemplate verifies template override.
func TestLLMEvaluator_CustomTemplate(t *testing.T) {
	client := &mockLLMClient{
		response: `{"score": 6.0, "confidence": 0.7, "reasoning": "terse but sufficient"}`,
	}
	cfg := DefaultLLMConfig()
	cfg.PromptTemplate = "Rate {{.ModelName}} on {{.Criterion}}."

	eval, err := NewLLMEvaluator(client, cfg)
	require.NoError(t, err)

	_, err = eval.Evaluate(context.Background(), llmTestModel, domain.CriterionCreativity)
	require.NoError(t, err)
	assert.Contains(t, client.lastPrompt, "Rate Alpha on creativity.")
}

// TestNewLLMEvaluator_Validation verifies constructor checks.
func TestNewLLMEvaluator_Validation(t *testing.T) {
	_, err := NewLLMEvaluator(nil, DefaultLLMConfig())
	require.Error(t, err)

	cfg := DefaultLLMConfig()
	cfg.MaxTokens = 10
	_, err = NewLLMEvaluator(&mockLLMClient{}, cfg)
	require.Error(t, err)

	cfg = DefaultLLMConfig()
	cfg.PromptTemplate = "{{.Broken"
	_, err = NewLLMEvaluator(&mockLLMClient{}, cfg)
	require.Error(t, err)
}

// TestLLMEvaluator_Name verifies the model-qualified name.
func TestLLMEvaluator_Name(t *testing.T) {
	eval, err := NewLLMEvaluator(&mockLLMClient{}, DefaultLLMConfig())
	require.NoError(t, err)
	assert.Equal(t, "llm/mock-model", eval.Name())
}
