package llm

import "sync"

// Default request parameters shared across providers.
const (
	// DefaultMaxTokens is used when a request does not specify max_tokens.
	DefaultMaxTokens = 1000

	// Temperature and top-p bounds accepted across providers. The upper
	// temperature bound accommodates providers like Gemini that accept 2.0.
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinTopP        = 0.0
	MaxTopP        = 1.0
)

// BaseProvider provides common, thread-safe model-name management for all
// LLM providers.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the currently configured model name.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name. Safe for concurrent use.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the standardized set of request parameters extracted
// from the loosely-typed options map.
type RequestOptions struct {
	// MaxTokens caps the number of generated tokens.
	MaxTokens int
	// Model identifies the model to use for this request.
	Model string
	// Temperature controls output randomness; nil means provider default.
	Temperature *float64
	// System carries an optional system prompt.
	System string
}

// ParseRequestOptions extracts known request parameters from a map,
// falling back to defaults for missing or invalid entries.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: DefaultMaxTokens,
		Model:     defaultModel,
	}

	if v, ok := opts["max_tokens"].(int); ok && v > 0 {
		options.MaxTokens = v
	}
	if v, ok := opts["model"].(string); ok && v != "" {
		options.Model = v
	}
	if v, ok := opts["system"].(string); ok {
		options.System = v
	}
	if v, ok := opts["temperature"].(float64); ok && v >= MinTemperature && v <= MaxTemperature {
		options.Temperature = &v
	}

	return options
}

// clamp restricts a float64 value to the given range.
func clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
