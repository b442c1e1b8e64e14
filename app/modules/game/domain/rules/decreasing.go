package gamerules

import (
	"fmt"
	"math/rand/v2"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// RuleIDDecreasingSoldiers is the persisted identifier of the decreasing
// soldiers variant.
const RuleIDDecreasingSoldiers gametypes.RuleID = 1

const decreasingDescription = `All submissions must exhibit a decreasing number of soldiers in each next field.
That is, if in Field 1 you wish to allocate 10 soldiers, Field 2 may have no more than 10 soldiers.

Scoring will be as follows:
* In each field, score will be equal to:
    * The difference in soldiers for the person with more soldiers
    * 0 for the person with less soldiers`

// DecreasingSoldiers requires each field to hold no more soldiers than the
// field before it. Viewed back to front it is an increasing-soldiers round.
type DecreasingSoldiers struct {
	fields   int
	soldiers int
}

// NewDecreasingSoldiers loads the variant with a stored round configuration.
func NewDecreasingSoldiers(fields, soldiers int) *DecreasingSoldiers {
	return &DecreasingSoldiers{fields: fields, soldiers: soldiers}
}

// DecreasingSoldiersFactory generates fields in [3,7] and a soldier budget
// that is a multiple of 5 in [30,100].
func DecreasingSoldiersFactory() Factory {
	return Factory{
		ID:   RuleIDDecreasingSoldiers,
		Name: "decreasing_soldiers",
		Generate: func(rng *rand.Rand) (int, int) {
			fields := 3 + rng.IntN(5)
			soldiers := (6 + rng.IntN(15)) * 5
			return fields, soldiers
		},
		Load: func(fields, soldiers int) Rule {
			return NewDecreasingSoldiers(fields, soldiers)
		},
	}
}

func (r *DecreasingSoldiers) ID() gametypes.RuleID { return RuleIDDecreasingSoldiers }
func (r *DecreasingSoldiers) Name() string         { return "decreasing_soldiers" }
func (r *DecreasingSoldiers) Description() string  { return decreasingDescription }
func (r *DecreasingSoldiers) Fields() int          { return r.fields }
func (r *DecreasingSoldiers) Soldiers() int        { return r.soldiers }

func (r *DecreasingSoldiers) ValidateGeneral(alloc []int) error {
	return validateGeneral(alloc, r.fields, r.soldiers)
}

func (r *DecreasingSoldiers) ValidateFields(alloc []int) FieldErrors {
	errs := FieldErrors{}
	for i := 1; i < len(alloc); i++ {
		if alloc[i] > alloc[i-1] {
			errs[i] = fmt.Sprintf("decreasing soldiers criteria not met: field %d exceeds field %d", i+1, i)
		}
	}
	return errs
}

func (r *DecreasingSoldiers) Score(a, b []int) (int, int) {
	return scorePairwise(a, b)
}
