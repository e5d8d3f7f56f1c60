package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// fakeStage is a scriptable ports.Stage for pipeline tests.
type fakeStage struct {
	name    string
	execute func(ctx context.Context, state domain.State) (domain.State, error)
}

var _ ports.Stage = (*fakeStage)(nil)

func (f *fakeStage) Name() string             { return f.name }
func (f *fakeStage) Phase() domain.Phase      { return domain.PhaseInitialEvaluation }
func (f *fakeStage) Validate() error          { return nil }
func (f *fakeStage) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	return f.execute(ctx, state)
}

// recordingObserver captures observer callbacks in order.
type recordingObserver struct {
	started   []string
	completed []string
	errs      []error
}

func (r *recordingObserver) StageStarted(ctx context.Context, _, stage string) context.Context {
	r.started = append(r.started, stage)
	return ctx
}

func (r *recordingObserver) StageCompleted(_ context.Context, _, stage string, err error) {
	r.completed = append(r.completed, stage)
	r.errs = append(r.errs, err)
}

var traceKey = domain.NewKey[[]string]("trace")

func appendTrace(name string) func(context.Context, domain.State) (domain.State, error) {
	return func(_ context.Context, state domain.State) (domain.State, error) {
		trace, _ := domain.Get(state, traceKey)
		return domain.With(state, traceKey, append(trace, name)), nil
	}
}

// TestPipeline_Order verifies strict sequential execution with state
// threading.
func TestPipeline_Order(t *testing.T) {
	p, err := NewPipeline([]ports.Stage{
		&fakeStage{name: "one", execute: appendTrace("one")},
		&fakeStage{name: "two", execute: appendTrace("two")},
		&fakeStage{name: "three", execute: appendTrace("three")},
	})
	require.NoError(t, err)

	out, err := p.Execute(context.Background(), domain.NewState())
	require.NoError(t, err)

	trace, ok := domain.Get(out, traceKey)
	require.True(t, ok)
	assert.Equal(t, []string{"one", "two", "three"}, trace)
}

// TestPipeline_StopsOnError verifies that a failure halts execution and
// surfaces as a StageError naming the failed stage.
func TestPipeline_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	var ranThird bool

	p, err := NewPipeline([]ports.Stage{
		&fakeStage{name: "one", execute: appendTrace("one")},
		&fakeStage{name: "two", execute: func(_ context.Context, state domain.State) (domain.State, error) {
			return state, boom
		}},
		&fakeStage{name: "three", execute: func(_ context.Context, state domain.State) (domain.State, error) {
			ranThird = true
			return state, nil
		}},
	})
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), domain.NewState())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ranThird, "stages after a failure must not run")

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "two", stageErr.Stage)
}

// TestPipeline_FailingStageStateSurvives verifies that log entries a
// stage wrote before failing are present in the returned state, so the
// audit replay covers aborted runs.
func TestPipeline_FailingStageStateSurvives(t *testing.T) {
	boom := errors.New("boom")

	p, err := NewPipeline([]ports.Stage{
		&fakeStage{name: "one", execute: appendTrace("one")},
		&fakeStage{name: "two", execute: func(_ context.Context, state domain.State) (domain.State, error) {
			state = domain.AppendLog(state, domain.InteractionLogEntry{
				Phase:  domain.PhaseInitialEvaluation,
				Action: "fallback_triggered",
			})
			return state, boom
		}},
	})
	require.NoError(t, err)

	out, err := p.Execute(context.Background(), domain.NewState())
	require.Error(t, err)

	log, ok := domain.Get(out, domain.KeyLog)
	require.True(t, ok, "failing stage's log entries must survive")
	require.Len(t, log, 1)
	assert.Equal(t, "fallback_triggered", log[0].Action)

	trace, ok := domain.Get(out, traceKey)
	require.True(t, ok)
	assert.Equal(t, []string{"one"}, trace, "earlier stages' state must survive too")
}

// TestPipeline_Observers verifies observer callbacks fire per stage with
// the stage's error.
func TestPipeline_Observers(t *testing.T) {
	boom := errors.New("boom")
	obs := &recordingObserver{}

	p, err := NewPipeline([]ports.Stage{
		&fakeStage{name: "one", execute: appendTrace("one")},
		&fakeStage{name: "two", execute: func(_ context.Context, state domain.State) (domain.State, error) {
			return state, boom
		}},
	}, WithObserver(obs))
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), domain.NewState())
	require.Error(t, err)

	assert.Equal(t, []string{"one", "two"}, obs.started)
	assert.Equal(t, []string{"one", "two"}, obs.completed)
	require.Len(t, obs.errs, 2)
	assert.NoError(t, obs.errs[0])
	assert.ErrorIs(t, obs.errs[1], boom)
}

// TestPipeline_ContextCancellation verifies the pipeline checks the
// context between stages.
func TestPipeline_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p, err := NewPipeline([]ports.Stage{
		&fakeStage{name: "one", execute: func(_ context.Context, state domain.State) (domain.State, error) {
			cancel()
			return state, nil
		}},
		&fakeStage{name: "two", execute: appendTrace("two")},
	})
	require.NoError(t, err)

	out, err := p.Execute(ctx, domain.NewState())
	assert.ErrorIs(t, err, context.Canceled)

	_, ok := domain.Get(out, traceKey)
	assert.False(t, ok, "stage after cancellation must not run")
}

// TestNewPipeline_Validation verifies construction checks.
func TestNewPipeline_Validation(t *testing.T) {
	_, err := NewPipeline(nil)
	require.Error(t, err)

	_, err = NewPipeline([]ports.Stage{nil})
	require.Error(t, err)

	dup := &fakeStage{name: "same", execute: appendTrace("same")}
	_, err = NewPipeline([]ports.Stage{dup, &fakeStage{name: "same", execute: appendTrace("same")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate stage name")
}
