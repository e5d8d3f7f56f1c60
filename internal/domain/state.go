package domain

import (
	"fmt"
	"maps"
	"reflect"
	"time"
)

// Key represents a type-safe generic key for accessing values in State.
// The type parameter T ensures compile-time type safety when getting and
// setting values, eliminating runtime type assertions at call sites.
type Key[T any] struct{ name string }

// NewKey creates a new Key with the specified name and type.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Predefined state keys used throughout a match run.
// Each key is strongly typed to ensure type safety at compile time.
var (
	// KeyMatchID stores the caller-supplied identifier for the run.
	KeyMatchID = Key[string]{"match_id"}

	// KeyModels stores the two competing models, order-sensitive.
	KeyModels = Key[[]Model]{"models"}

	// KeyInitialEvaluations stores the evaluation set as produced by the
	// initial evaluation stage, before any discussion adjustment.
	KeyInitialEvaluations = Key[EvaluationSet]{"initial_evaluations"}

	// KeyEvaluations stores the current evaluation set. The discussion
	// stage replaces it with an adjusted copy when a convergence round runs.
	KeyEvaluations = Key[EvaluationSet]{"evaluations"}

	// KeyVariances stores per-model population variance of slot scores.
	KeyVariances = Key[map[string]float64]{"variances"}

	// KeyDiscussionReasoning stores the discussion stage's summary text.
	KeyDiscussionReasoning = Key[string]{"discussion_reasoning"}

	// KeyConsensus stores per-model consensus breakdowns.
	KeyConsensus = Key[map[string]ConsensusEntry]{"consensus"}

	// KeyOverallConfidence stores the shared decision confidence.
	KeyOverallConfidence = Key[float64]{"overall_confidence"}

	// KeyPredictions stores per-model predictive outcomes.
	KeyPredictions = Key[map[string]float64]{"predictions"}

	// KeyVerdict stores the determination stage's output.
	KeyVerdict = Key[*Verdict]{"verdict"}

	// KeyLog stores the run-scoped interaction log. Keeping the log in the
	// run's own State is what makes concurrent runs safe: no process-global
	// mutable log exists anywhere.
	KeyLog = Key[[]InteractionLogEntry]{"interaction_log"}
)

// deepCopyValue creates a deep copy of a value to ensure true immutability.
// It handles slices, maps, and other reference types that would otherwise
// allow external modification of State data.
func deepCopyValue(value any) any {
	if value == nil {
		return nil
	}

	// time.Time is immutable and can be returned directly.
	if val, ok := value.(time.Time); ok {
		return val
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice:
		newSlice := reflect.MakeSlice(v.Type(), v.Len(), v.Cap())
		for i := 0; i < v.Len(); i++ {
			newSlice.Index(i).Set(reflect.ValueOf(deepCopyValue(v.Index(i).Interface())))
		}
		return newSlice.Interface()

	case reflect.Map:
		newMap := reflect.MakeMap(v.Type())
		for _, key := range v.MapKeys() {
			copiedKey := deepCopyValue(key.Interface())
			copiedValue := deepCopyValue(v.MapIndex(key).Interface())
			newMap.SetMapIndex(reflect.ValueOf(copiedKey), reflect.ValueOf(copiedValue))
		}
		return newMap.Interface()

	case reflect.Ptr:
		if v.IsNil() {
			return v.Interface()
		}
		newPtr := reflect.New(v.Elem().Type())
		newPtr.Elem().Set(reflect.ValueOf(deepCopyValue(v.Elem().Interface())))
		return newPtr.Interface()

	case reflect.Struct:
		// Shallow copy for unexported fields, deep copy for exported ones.
		newStruct := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if newStruct.Field(i).CanSet() {
				newStruct.Field(i).Set(reflect.ValueOf(deepCopyValue(v.Field(i).Interface())))
			}
		}
		return newStruct.Interface()

	default:
		// Primitive types are returned as-is since they are copied by value.
		return value
	}
}

// State is an immutable collection of match data that flows through the
// pipeline. It uses copy-on-write semantics to ensure thread-safety and
// prevent unintended mutations. State is the only channel through which
// stages communicate.
type State struct {
	// data holds the key-value pairs that make up the state.
	// It is unexported to maintain immutability guarantees.
	data map[string]any
}

// NewState creates a new empty State, safe to share across goroutines.
func NewState() State {
	return State{data: make(map[string]any)}
}

// Get retrieves a value from the State with compile-time type safety.
// It returns the value and a boolean indicating whether the key exists and
// contains a value of the correct type. The returned value is a deep copy
// to maintain immutability.
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}

	copied := deepCopyValue(value)
	val, ok := copied.(T)
	return val, ok
}

// With creates a new State with the specified key-value pair added or
// updated. It implements copy-on-write semantics, returning a new State
// instance while leaving the original unchanged.
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	newData[key.name] = deepCopyValue(value)
	return State{data: newData}
}

// WithMultiple creates a new State with multiple key-value pairs added or
// updated in a single clone operation. The updates map uses string keys
// for flexibility when updating multiple values at once.
func (s State) WithMultiple(updates map[string]any) State {
	newData := maps.Clone(s.data)
	for k, v := range updates {
		newData[k] = deepCopyValue(v)
	}
	return State{data: newData}
}

// Keys returns all keys present in the State.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// String returns a string representation of the State for debugging.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.data)
}

// AppendLog returns a new State whose interaction log has the given entry
// appended. The entry's Seq is assigned here, guaranteeing a total order
// by insertion regardless of timestamp resolution.
func AppendLog(s State, entry InteractionLogEntry) State {
	log, _ := Get(s, KeyLog)
	entry.Seq = len(log) + 1
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return With(s, KeyLog, append(log, entry))
}
