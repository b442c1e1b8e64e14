package gamerules

import (
	"fmt"
	"math/rand/v2"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// ReservedRuleID marks the variant kept out of production selection. It is
// still loadable so diagnostic games stored with it keep working.
const ReservedRuleID = RuleIDExactSpend

// UnknownRuleError reports a persisted rule identifier with no registered
// implementation. This is a deployment mismatch, not user error: the
// triggering handler must abort, not skip.
type UnknownRuleError struct {
	ID gametypes.RuleID
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("no round rule registered for identifier %d", e.ID)
}

// Registry maps stable rule identifiers to their factories. Registration is
// an explicit startup-time list; nothing is discovered at runtime, so the
// mapping from persisted identifiers to behavior cannot drift.
type Registry struct {
	factories map[gametypes.RuleID]Factory
	// selectable keeps registration order for deterministic iteration.
	selectable []gametypes.RuleID
}

// NewRegistry builds the registry with every known variant.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[gametypes.RuleID]Factory)}
	r.register(ExactSpendFactory())
	r.register(DecreasingSoldiersFactory())
	return r
}

func (r *Registry) register(f Factory) {
	if _, dup := r.factories[f.ID]; dup {
		panic(fmt.Sprintf("round rule %d registered twice", f.ID))
	}
	r.factories[f.ID] = f
	if f.ID != ReservedRuleID {
		r.selectable = append(r.selectable, f.ID)
	}
}

// Get returns the factory for a rule identifier.
func (r *Registry) Get(id gametypes.RuleID) (Factory, error) {
	f, ok := r.factories[id]
	if !ok {
		return Factory{}, &UnknownRuleError{ID: id}
	}
	return f, nil
}

// Load reconstructs a rule from its persisted configuration.
func (r *Registry) Load(id gametypes.RuleID, fields, soldiers int) (Rule, error) {
	f, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return f.Load(fields, soldiers), nil
}

// PickRandom selects uniformly among the non-reserved variants.
func (r *Registry) PickRandom(rng *rand.Rand) Factory {
	id := r.selectable[rng.IntN(len(r.selectable))]
	return r.factories[id]
}
