package domain

// Evaluation is a single judge's assessment of one model on one criterion.
type Evaluation struct {
	// Score is the judged quality, nominally in [5, 10].
	Score float64 `json:"score"`

	// Confidence is the judge's certainty in its own score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Reasoning explains why the judge assigned the given score.
	Reasoning string `json:"reasoning"`
}

// EvaluationSet maps each judge slot to its per-model evaluations.
// A set is built once by the initial evaluation stage and, when a
// discussion round runs, replaced (never mutated) by an adjusted copy.
type EvaluationSet map[Slot]map[string]Evaluation

// NewEvaluationSet returns an empty set with all slots initialized.
func NewEvaluationSet() EvaluationSet {
	set := make(EvaluationSet, NumSlots)
	for _, slot := range Slots() {
		set[slot] = make(map[string]Evaluation)
	}
	return set
}

// Clone returns a deep copy of the set.
func (s EvaluationSet) Clone() EvaluationSet {
	out := make(EvaluationSet, len(s))
	for slot, byModel := range s {
		cp := make(map[string]Evaluation, len(byModel))
		for id, ev := range byModel {
			cp[id] = ev
		}
		out[slot] = cp
	}
	return out
}

// Scores returns the model's slot scores in slot order.
func (s EvaluationSet) Scores(modelID string) []float64 {
	scores := make([]float64, 0, NumSlots)
	for _, slot := range Slots() {
		scores = append(scores, s[slot][modelID].Score)
	}
	return scores
}

// Confidences returns the model's slot confidences in slot order.
func (s EvaluationSet) Confidences(modelID string) []float64 {
	confs := make([]float64, 0, NumSlots)
	for _, slot := range Slots() {
		confs = append(confs, s[slot][modelID].Confidence)
	}
	return confs
}

// Variance returns the population variance of the model's slot scores
// within this set. With exactly three samples the full-population variance
// (divide by N) is the correct estimator.
func (s EvaluationSet) Variance(modelID string) float64 {
	return PopulationVariance(s.Scores(modelID))
}

// PopulationVariance computes the population variance (divide by N, not
// N-1) of the given values. It returns 0 for an empty slice.
func PopulationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return ss / float64(len(values))
}

// Mean computes the arithmetic mean of the given values.
// It returns 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
