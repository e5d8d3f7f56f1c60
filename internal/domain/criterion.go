package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Criterion is the fixed evaluation dimension a judge slot specializes in.
type Criterion string

// The three supported criteria. Each is statically bound to one judge slot;
// the binding is a core invariant, not a per-match option.
const (
	// CriterionCreativity evaluates originality and inventiveness.
	CriterionCreativity Criterion = "creativity"

	// CriterionTechnical evaluates soundness and precision.
	CriterionTechnical Criterion = "technical"

	// CriterionPerformance evaluates raw effectiveness.
	CriterionPerformance Criterion = "performance"
)

// String returns the criterion's wire representation.
func (c Criterion) String() string { return string(c) }

var criterionFolder = cases.Fold()

// ParseCriterion normalizes s (case folding, surrounding whitespace) and
// returns the matching Criterion. It returns an error for anything outside
// the three fixed criteria.
func ParseCriterion(s string) (Criterion, error) {
	switch Criterion(criterionFolder.String(strings.TrimSpace(s))) {
	case CriterionCreativity:
		return CriterionCreativity, nil
	case CriterionTechnical:
		return CriterionTechnical, nil
	case CriterionPerformance:
		return CriterionPerformance, nil
	default:
		return "", fmt.Errorf("unknown criterion %q", s)
	}
}

// Slot identifies one of the three fixed judge roles in a match.
// Valid slots are 1 through NumSlots.
type Slot int

// NumSlots is the number of judge slots per model in every match.
const NumSlots = 3

// slotCriteria binds each slot to its criterion. The table replaces three
// hand-duplicated evaluation paths with one parameterized loop.
var slotCriteria = [NumSlots]Criterion{
	CriterionCreativity,
	CriterionTechnical,
	CriterionPerformance,
}

// Criterion returns the criterion this slot is bound to.
// It panics on an out-of-range slot, which indicates a programming error.
func (s Slot) Criterion() Criterion {
	if s < 1 || s > NumSlots {
		panic(fmt.Sprintf("slot out of range: %d", s))
	}
	return slotCriteria[s-1]
}

// Label returns the slot's log label, e.g. "judge_2".
func (s Slot) Label() string { return fmt.Sprintf("judge_%d", s) }

// Slots returns all valid slots in order.
func Slots() [NumSlots]Slot { return [NumSlots]Slot{1, 2, 3} }
