package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.Evaluator = (*LLMEvaluator)(nil)

// Default LLM judge parameters.
const (
	DefaultJudgeTemperature = 0.0
	DefaultJudgeMaxTokens   = 256

	// Score bounds the judge contract requires. Anything outside is a
	// malformed response and fails the call.
	minJudgeScore = 5.0
	maxJudgeScore = 10.0
)

// defaultPromptTemplate asks for a criterion-specific judgment of one
// model based on its attribute sheet.
const defaultPromptTemplate = `You are an expert judge evaluating the {{.Criterion}} of a competitor model.

Model: {{.ModelName}}
Attributes (0-100): offense={{.Offense}}, defense={{.Defense}}, agility={{.Agility}}, strategy={{.Strategy}}, endurance={{.Endurance}}

Judge this model's {{.Criterion}} on a scale from 5 to 10 and state how confident you are.`

// jsonContract is appended to every prompt so responses parse reliably.
const jsonContract = "\n\nIMPORTANT: You must respond with valid JSON in exactly this format:\n" +
	`{"score": <5.0-10.0>, "confidence": <0.0-1.0>, "reasoning": "<detailed explanation>"}`

// LLMConfig defines the configurable parameters of the LLM evaluator.
type LLMConfig struct {
	// PromptTemplate is the Go template used to build judge prompts.
	// It may reference {{.ModelName}}, {{.Criterion}}, and the five
	// attribute fields. Empty selects the built-in template.
	PromptTemplate string `yaml:"prompt_template" json:"prompt_template"`

	// Temperature controls randomness in judging (0.0-1.0).
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0,max=1"`

	// MaxTokens limits the length of judge reasoning.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"min=50,max=2000"`
}

// DefaultLLMConfig returns an LLMConfig with sensible defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Temperature: DefaultJudgeTemperature,
		MaxTokens:   DefaultJudgeMaxTokens,
	}
}

// judgeResponse is the JSON structure expected from the LLM.
type judgeResponse struct {
	Score      float64 `json:"score" validate:"required"`
	Confidence float64 `json:"confidence" validate:"required,min=0,max=1"`
	Reasoning  string  `json:"reasoning" validate:"required,min=10"`
}

// LLMEvaluator produces evaluations by prompting an LLM and parsing its
// JSON response. Every failure mode, from transport errors to malformed
// payloads, surfaces as a returned error so the initial evaluation stage
// can discard the pass and fall back. The evaluator is stateless and safe
// for concurrent use.
type LLMEvaluator struct {
	client    ports.LLMClient
	config    LLMConfig
	template  *template.Template
	validator *validator.Validate
}

// NewLLMEvaluator creates an LLM-backed evaluator.
func NewLLMEvaluator(client ports.LLMClient, config LLMConfig) (*LLMEvaluator, error) {
	if client == nil {
		return nil, fmt.Errorf("LLM client cannot be nil")
	}

	v := validator.New()
	if err := v.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	text := config.PromptTemplate
	if text == "" {
		text = defaultPromptTemplate
	}
	tmpl, err := template.New("judgePrompt").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse judge prompt template: %w", err)
	}

	return &LLMEvaluator{
		client:    client,
		config:    config,
		template:  tmpl,
		validator: v,
	}, nil
}

// Name identifies the evaluator implementation for logging.
func (e *LLMEvaluator) Name() string { return "llm/" + e.client.GetModel() }

// Evaluate prompts the LLM for one (model, criterion) judgment.
func (e *LLMEvaluator) Evaluate(ctx context.Context, model domain.Model, criterion domain.Criterion) (domain.Evaluation, error) {
	var buf bytes.Buffer
	data := struct {
		ModelName string
		Criterion string
		Offense   float64
		Defense   float64
		Agility   float64
		Strategy  float64
		Endurance float64
	}{
		ModelName: model.Name,
		Criterion: criterion.String(),
		Offense:   model.Attributes.Offense,
		Defense:   model.Attributes.Defense,
		Agility:   model.Attributes.Agility,
		Strategy:  model.Attributes.Strategy,
		Endurance: model.Attributes.Endurance,
	}
	if err := e.template.Execute(&buf, data); err != nil {
		return domain.Evaluation{}, fmt.Errorf("failed to execute prompt template: %w", err)
	}

	options := map[string]any{
		"temperature": e.config.Temperature,
		"max_tokens":  e.config.MaxTokens,
	}

	response, err := e.client.Complete(ctx, buf.String()+jsonContract, options)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("LLM call failed for %s on %s: %w",
			model.ID, criterion, err)
	}

	return e.parseResponse(response, model.ID, criterion)
}

// parseResponse extracts and validates the judge's JSON payload.
func (e *LLMEvaluator) parseResponse(response, modelID string, criterion domain.Criterion) (domain.Evaluation, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return domain.Evaluation{}, fmt.Errorf("no valid JSON found in response for %s on %s (response length: %d chars)",
			modelID, criterion, len(response))
	}

	var parsed judgeResponse
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return domain.Evaluation{}, fmt.Errorf("failed to parse judge response for %s on %s: %w",
			modelID, criterion, err)
	}

	if err := e.validator.Struct(parsed); err != nil {
		return domain.Evaluation{}, fmt.Errorf("invalid judge response for %s on %s (score: %.3f, confidence: %.3f): %w",
			modelID, criterion, parsed.Score, parsed.Confidence, err)
	}

	if parsed.Score < minJudgeScore || parsed.Score > maxJudgeScore {
		return domain.Evaluation{}, fmt.Errorf("score %.2f out of range [%.1f, %.1f] for %s on %s",
			parsed.Score, minJudgeScore, maxJudgeScore, modelID, criterion)
	}

	return domain.Evaluation{
		Score:      parsed.Score,
		Confidence: parsed.Confidence,
		Reasoning:  parsed.Reasoning,
	}, nil
}
