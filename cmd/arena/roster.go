package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-arena/internal/domain"
)

var validate = validator.New()

// maxSuggestionDistance bounds how far a misspelling can be from a roster
// name and still produce a suggestion.
const maxSuggestionDistance = 3

// Roster is the YAML file format listing the models available for matches.
type Roster struct {
	Models []domain.Model `yaml:"models" validate:"required,min=1,dive"`
}

// LoadRoster reads and validates a roster file. Model IDs must be unique.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", path, err)
	}

	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}
	if err := validate.Struct(roster); err != nil {
		return nil, fmt.Errorf("invalid roster %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(roster.Models))
	for _, m := range roster.Models {
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("invalid roster %s: duplicate model id %q", path, m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return &roster, nil
}

// Resolve finds a model by ID or name, case-insensitively. Unknown names
// get a "did you mean" hint when a roster entry is close enough.
func (r *Roster) Resolve(name string) (domain.Model, error) {
	needle := strings.ToLower(name)
	for _, m := range r.Models {
		if strings.ToLower(m.ID) == needle || strings.ToLower(m.Name) == needle {
			return m, nil
		}
	}

	if suggestion := r.closest(needle); suggestion != "" {
		return domain.Model{}, fmt.Errorf("unknown model %q (did you mean %q?)", name, suggestion)
	}
	return domain.Model{}, fmt.Errorf("unknown model %q", name)
}

func (r *Roster) closest(needle string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, m := range r.Models {
		for _, candidate := range []string{m.ID, m.Name} {
			d := levenshtein.ComputeDistance(needle, strings.ToLower(candidate))
			if d < bestDist {
				bestDist = d
				best = candidate
			}
		}
	}
	return best
}

// Names returns all model IDs in sorted order.
func (r *Roster) Names() []string {
	names := make([]string, 0, len(r.Models))
	for _, m := range r.Models {
		names = append(names, m.ID)
	}
	sort.Strings(names)
	return names
}
