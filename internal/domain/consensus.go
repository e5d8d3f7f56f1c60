package domain

// ConsensusEntry captures the confidence-weighted reduction of one model's
// three judge evaluations into a single scalar.
type ConsensusEntry struct {
	// Scores are the raw slot scores in slot order.
	Scores []float64 `json:"scores"`

	// Confidences are the slot confidences in slot order.
	Confidences []float64 `json:"confidences"`

	// Weighted are the per-slot score*confidence products.
	Weighted []float64 `json:"weighted"`

	// FinalScore is sum(weighted) / sum(confidences).
	FinalScore float64 `json:"final_score"`
}
