package gamerules

import (
	"fmt"
	"math/rand/v2"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// RuleIDExactSpend is reserved for diagnostics and excluded from production
// round selection.
const RuleIDExactSpend gametypes.RuleID = 0

const exactSpendDescription = `Diagnostic round: allocate every soldier across every field.
Submissions must cover all fields and spend the budget exactly.

Scoring is the standard pairwise positive-difference per field.`

// ExactSpend is the stricter diagnostic variant: the allocation must fill
// every field and sum to the soldier budget exactly.
type ExactSpend struct {
	fields   int
	soldiers int
}

// NewExactSpend loads the diagnostic variant with a stored configuration.
func NewExactSpend(fields, soldiers int) *ExactSpend {
	return &ExactSpend{fields: fields, soldiers: soldiers}
}

// ExactSpendFactory uses a small fixed range so diagnostic games stay cheap.
func ExactSpendFactory() Factory {
	return Factory{
		ID:   RuleIDExactSpend,
		Name: "exact_spend",
		Generate: func(rng *rand.Rand) (int, int) {
			fields := 3 + rng.IntN(3)
			soldiers := (4 + rng.IntN(5)) * 5
			return fields, soldiers
		},
		Load: func(fields, soldiers int) Rule {
			return NewExactSpend(fields, soldiers)
		},
	}
}

func (r *ExactSpend) ID() gametypes.RuleID { return RuleIDExactSpend }
func (r *ExactSpend) Name() string         { return "exact_spend" }
func (r *ExactSpend) Description() string  { return exactSpendDescription }
func (r *ExactSpend) Fields() int          { return r.fields }
func (r *ExactSpend) Soldiers() int        { return r.soldiers }

func (r *ExactSpend) ValidateGeneral(alloc []int) error {
	if err := validateGeneral(alloc, r.fields, r.soldiers); err != nil {
		return err
	}
	if len(alloc) != r.fields {
		return fmt.Errorf("all %d fields must be filled, got %d", r.fields, len(alloc))
	}
	total := 0
	for _, n := range alloc {
		total += n
	}
	if total != r.soldiers {
		return fmt.Errorf("all %d soldiers must be allocated, got %d", r.soldiers, total)
	}
	return nil
}

func (r *ExactSpend) ValidateFields(alloc []int) FieldErrors {
	return FieldErrors{}
}

func (r *ExactSpend) Score(a, b []int) (int, int) {
	return scorePairwise(a, b)
}
