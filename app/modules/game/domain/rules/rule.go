package gamerules

import (
	"fmt"
	"math/rand/v2"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// FieldErrors maps a zero-based field index to a player-facing message.
// An empty map means the allocation satisfies the rule's field constraints.
type FieldErrors map[int]string

// Rule is one round-rule variant, loaded with the fields/soldiers
// configuration that was persisted for its round. Validation methods are
// pure functions of the allocation and that stored configuration.
type Rule interface {
	ID() gametypes.RuleID
	Name() string
	// Description is the rules text posted to the channel at round start.
	Description() string
	Fields() int
	Soldiers() int
	// ValidateGeneral applies the rule-independent checks (budget, length,
	// non-negative entries). A non-nil error covers the whole submission.
	ValidateGeneral(alloc []int) error
	// ValidateFields applies the variant's positional constraints. It must
	// not be called on an allocation that failed ValidateGeneral.
	ValidateFields(alloc []int) FieldErrors
	// Score computes the pairwise result of two equal-length allocations.
	Score(a, b []int) (scoreA, scoreB int)
}

// Factory generates fresh round configurations for a variant and loads
// stored ones. The random draw happens exactly once, at game creation; every
// later use reconstructs the rule from the persisted pair.
type Factory struct {
	ID       gametypes.RuleID
	Name     string
	Generate func(rng *rand.Rand) (fields, soldiers int)
	Load     func(fields, soldiers int) Rule
}

// validateGeneral is the baseline check shared by all variants: the
// allocation may not exceed the soldier budget or the field count, and every
// entry must be non-negative.
func validateGeneral(alloc []int, fields, soldiers int) error {
	if len(alloc) > fields {
		return fmt.Errorf("submitted %d fields, round has only %d", len(alloc), fields)
	}
	total := 0
	for i, n := range alloc {
		if n < 0 {
			return fmt.Errorf("field %d: soldiers must not be negative", i+1)
		}
		total += n
	}
	if total > soldiers {
		return fmt.Errorf("submitted soldiers total %d, budget is %d", total, soldiers)
	}
	return nil
}

// scorePairwise scores two allocations field by field: the side with
// strictly more soldiers in a field earns the positive difference, the other
// side earns nothing. Missing trailing fields count as zero.
func scorePairwise(a, b []int) (int, int) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	var scoreA, scoreB int
	for i := 0; i < n; i++ {
		var soldiersA, soldiersB int
		if i < len(a) {
			soldiersA = a[i]
		}
		if i < len(b) {
			soldiersB = b[i]
		}
		if soldiersA > soldiersB {
			scoreA += soldiersA - soldiersB
		} else {
			scoreB += soldiersB - soldiersA
		}
	}
	return scoreA, scoreB
}
