package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCoreLLM is a scriptable CoreLLM for middleware and client tests.
type fakeCoreLLM struct {
	BaseProvider
	calls atomic.Int32
	fn    func(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error)
}

func newFakeCore(fn func(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error)) *fakeCoreLLM {
	f := &fakeCoreLLM{fn: fn}
	f.SetModel("fake-model")
	return f
}

func (f *fakeCoreLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	f.calls.Add(1)
	return f.fn(ctx, prompt, opts)
}

// TestNewClient_MiddlewareOrder verifies that middleware wraps in the
// declared order, first outermost.
func TestNewClient_MiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next CoreLLM) CoreLLM {
			return newFakeCore(func(ctx context.Context, p string, o map[string]any) (string, int, int, error) {
				order = append(order, name)
				return next.DoRequest(ctx, p, o)
			})
		}
	}

	core := newFakeCore(func(_ context.Context, _ string, _ map[string]any) (string, int, int, error) {
		order = append(order, "core")
		return "ok", 1, 1, nil
	})
	RegisterProviderFactory("fake", func(ClientConfig) (CoreLLM, error) { return core, nil })

	client, err := NewClient("fake", ClientConfig{
		APIKey:     "key",
		Middleware: []Middleware{tag("outer"), tag("inner")},
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "core"}, order)
}

// TestClient_CompleteWithUsage verifies token counts pass through the
// middleware chain to the caller.
func TestClient_CompleteWithUsage(t *testing.T) {
	core := newFakeCore(func(_ context.Context, _ string, _ map[string]any) (string, int, int, error) {
		return "judged", 21, 8, nil
	})
	RegisterProviderFactory("fake-usage", func(ClientConfig) (CoreLLM, error) { return core, nil })

	client, err := NewClient("fake-usage", ClientConfig{APIKey: "key"})
	require.NoError(t, err)

	response, tokensIn, tokensOut, err := client.CompleteWithUsage(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "judged", response)
	assert.Equal(t, 21, tokensIn)
	assert.Equal(t, 8, tokensOut)

	assert.Equal(t, "fake-model", client.GetModel())

	estimate, err := client.EstimateTokens("twelve chars")
	require.NoError(t, err)
	assert.Equal(t, 3, estimate)
}

// TestNewClient_Validation verifies construction checks.
func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("anthropic", ClientConfig{})
	assert.ErrorIs(t, err, ErrEmptyAPIKey)

	_, err = NewClient("nonexistent", ClientConfig{APIKey: "key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

// TestSimpleTokenEstimator verifies the four-characters-per-token rule.
func TestSimpleTokenEstimator(t *testing.T) {
	e := &SimpleTokenEstimator{}
	assert.Equal(t, 0, e.EstimateTokens(""))
	assert.Equal(t, 1, e.EstimateTokens("abc"))
	assert.Equal(t, 2, e.EstimateTokens("eight ch"))
}

// TestRetryMiddleware_TransientThenSuccess verifies retries recover from
// transient failures.
func TestRetryMiddleware_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	core := newFakeCore(func(_ context.Context, _ string, _ map[string]any) (string, int, int, error) {
		if attempts.Add(1) < 3 {
			return "", 0, 0, NewProviderError("fake", ErrorTypeServerError, 500, "flaky", nil)
		}
		return "ok", 1, 1, nil
	})

	wrapped := RetryMiddleware(3, time.Millisecond, 5*time.Millisecond)(core)
	response, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", response)
	assert.Equal(t, int32(3), attempts.Load())
}

// TestRetryMiddleware_PermanentFailure verifies non-retryable errors stop
// immediately.
func TestRetryMiddleware_PermanentFailure(t *testing.T) {
	core := newFakeCore(func(_ context.Context, _ string, _ map[string]any) (string, int, int, error) {
		return "", 0, 0, NewProviderError("fake", ErrorTypeAuthentication, 401, "bad key", nil)
	})

	wrapped := RetryMiddleware(3, time.Millisecond, 5*time.Millisecond)(core)
	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)

	require.Error(t, err)
	assert.Equal(t, int32(1), core.calls.Load(), "authentication failures must not be retried")
}

// TestRetryMiddleware_Exhaustion verifies the final error reports the
// attempt count and wraps the last failure.
func TestRetryMiddleware_Exhaustion(t *testing.T) {
	last := errors.New("still down")
	core := newFakeCore(func(_ context.Context, _ string, _ map[string]any) (string, int, int, error) {
		return "", 0, 0, last
	})

	wrapped := RetryMiddleware(2, time.Millisecond, 5*time.Millisecond)(core)
	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, last)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), core.calls.Load())
}

// TestTimeoutMiddleware verifies the per-request deadline.
func TestTimeoutMiddleware(t *testing.T) {
	core := newFakeCore(func(ctx context.Context, _ string, _ map[string]any) (string, int, int, error) {
		select {
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		case <-time.After(time.Second):
			return "too slow", 0, 0, nil
		}
	})

	wrapped := TimeoutMiddleware(10 * time.Millisecond)(core)
	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestRateLimitMiddleware_CancelledContext verifies the limiter respects
// cancellation while waiting.
func TestRateLimitMiddleware_CancelledContext(t *testing.T) {
	core := newFakeCore(func(_ context.Context, _ string, _ map[string]any) (string, int, int, error) {
		return "ok", 1, 1, nil
	})

	// One token per hour with the bucket drained by the first call.
	wrapped := RateLimitMiddleware(1.0/3600, 1)(core)
	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _, _, err = wrapped.DoRequest(ctx, "p", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

// TestParseRequestOptions verifies option extraction and defaulting.
func TestParseRequestOptions(t *testing.T) {
	opts := ParseRequestOptions(map[string]any{
		"max_tokens":  256,
		"temperature": 0.3,
		"system":      "be terse",
	}, "default-model")

	assert.Equal(t, 256, opts.MaxTokens)
	assert.Equal(t, "default-model", opts.Model)
	require.NotNil(t, opts.Temperature)
	assert.Equal(t, 0.3, *opts.Temperature)
	assert.Equal(t, "be terse", opts.System)

	defaults := ParseRequestOptions(nil, "m")
	assert.Equal(t, DefaultMaxTokens, defaults.MaxTokens)
	assert.Nil(t, defaults.Temperature)

	ignored := ParseRequestOptions(map[string]any{
		"max_tokens":  -5,
		"temperature": 9.0,
	}, "m")
	assert.Equal(t, DefaultMaxTokens, ignored.MaxTokens)
	assert.Nil(t, ignored.Temperature, "out-of-range temperature must be ignored")
}
