package story

import (
	"fmt"

	"github.com/jwebster45206/d20"
)

// DefaultMaxVitality is used when a document declares vitals without a max.
const DefaultMaxVitality = 100

// vitals backs one story variable with a d20 actor's hit points.
type vitals struct {
	variable string
	actor    *d20.Actor
}

func newVitals(decl *Vitals, initial any) (*vitals, error) {
	maxHP := decl.Max
	if maxHP <= 0 {
		maxHP = DefaultMaxVitality
	}

	actor, err := d20.NewActor(decl.Variable).
		WithHP(maxHP).
		WithAC(10).
		WithAttributes(map[string]int{}).
		WithCombatModifiers(map[string]int{}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build vitals actor: %w", err)
	}

	v := &vitals{variable: decl.Variable, actor: actor}
	if initial != nil {
		n, ok := toFloat(initial)
		if !ok {
			return nil, fmt.Errorf("vitals variable %q must be numeric, got %v", decl.Variable, initial)
		}
		if err := v.set(int(n)); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (v *vitals) value() int {
	return v.actor.HP()
}

func (v *vitals) max() int {
	return v.actor.MaxHP()
}

func (v *vitals) clamp(n int) int {
	return min(max(n, 0), v.max())
}

// apply returns the value e produces from cur without touching the actor.
func (v *vitals) apply(e Effect, cur int) (int, error) {
	n, ok := toFloat(e.Value)
	if !ok {
		return cur, fmt.Errorf("%s on %q: value %v is not a number", e.Op, e.Var, e.Value)
	}
	switch e.Op {
	case OpSet:
		return v.clamp(int(n)), nil
	case OpAdd:
		return v.clamp(cur + int(n)), nil
	}
	return cur, fmt.Errorf("unknown effect op %q", e.Op)
}

func (v *vitals) set(n int) error {
	n = v.clamp(n)
	if n == v.value() {
		return nil
	}
	if err := v.actor.SetHP(n); err != nil {
		return fmt.Errorf("failed to set %s to %d: %w", v.variable, n, err)
	}
	return nil
}
