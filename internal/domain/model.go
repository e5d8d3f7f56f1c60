// Package domain contains pure, dependency-free domain models and types
// for the match engine.
package domain

// Attributes holds the five static, bounded traits a model brings into a
// match. Every value is expected to fall in [0, 100]; callers validate
// before a match starts.
type Attributes struct {
	// Offense measures raw attacking strength.
	Offense float64 `json:"offense" yaml:"offense" validate:"min=0,max=100"`

	// Defense measures resilience under pressure.
	Defense float64 `json:"defense" yaml:"defense" validate:"min=0,max=100"`

	// Agility measures speed of adaptation.
	Agility float64 `json:"agility" yaml:"agility" validate:"min=0,max=100"`

	// Strategy measures long-horizon planning ability.
	Strategy float64 `json:"strategy" yaml:"strategy" validate:"min=0,max=100"`

	// Endurance measures consistency over extended exchanges.
	Endurance float64 `json:"endurance" yaml:"endurance" validate:"min=0,max=100"`
}

// Model is one of the two candidates being compared in a match.
// It is owned by the caller and never mutated by the pipeline.
type Model struct {
	// ID uniquely identifies the model within a match.
	ID string `json:"id" yaml:"id" validate:"required"`

	// Name is the human-readable display name.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Attributes are the model's static traits.
	Attributes Attributes `json:"attributes" yaml:"attributes"`
}
