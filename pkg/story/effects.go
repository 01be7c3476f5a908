package story

import (
	"fmt"
	"maps"
	"reflect"
)

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// apply runs effects against a staged copy of the variables and commits
// only when every effect succeeds.
func (r *Runtime) apply(effects []Effect) error {
	if len(effects) == 0 {
		return nil
	}

	vars := maps.Clone(r.vars)
	hp, touchedHP := 0, false
	if r.vitals != nil {
		hp = r.vitals.value()
	}

	for _, e := range effects {
		if r.vitals != nil && e.Var == r.vitals.variable {
			n, err := r.vitals.apply(e, hp)
			if err != nil {
				return err
			}
			hp, touchedHP = n, true
			continue
		}
		if err := applyVar(vars, e); err != nil {
			return err
		}
	}

	if touchedHP {
		if err := r.vitals.set(hp); err != nil {
			return err
		}
	}
	r.vars = vars
	return nil
}

func applyVar(vars map[string]any, e Effect) error {
	switch e.Op {
	case OpSet:
		vars[e.Var] = e.Value
	case OpAdd:
		delta, ok := toFloat(e.Value)
		if !ok {
			return fmt.Errorf("add to %q: value %v is not a number", e.Var, e.Value)
		}
		cur, ok := toFloat(vars[e.Var])
		if !ok {
			return fmt.Errorf("add to %q: current value %v is not a number", e.Var, vars[e.Var])
		}
		_, curInt := vars[e.Var].(int)
		_, deltaInt := e.Value.(int)
		if curInt && deltaInt {
			vars[e.Var] = int(cur + delta)
		} else {
			vars[e.Var] = cur + delta
		}
	default:
		return fmt.Errorf("unknown effect op %q", e.Op)
	}
	return nil
}

// allowed reports whether every condition holds. Conditions on missing
// variables never hold.
func (r *Runtime) allowed(conds []Condition) bool {
	for _, c := range conds {
		actual, ok := r.Variable(c.Var)
		if !ok || !compare(actual, c.Op, c.Value) {
			return false
		}
	}
	return true
}

func compare(actual any, op string, want any) bool {
	a, aNum := toFloat(actual)
	w, wNum := toFloat(want)
	if aNum && wNum {
		switch op {
		case "eq":
			return a == w
		case "ne":
			return a != w
		case "gt":
			return a > w
		case "gte":
			return a >= w
		case "lt":
			return a < w
		case "lte":
			return a <= w
		}
		return false
	}

	switch op {
	case "eq":
		return reflect.DeepEqual(actual, want)
	case "ne":
		return !reflect.DeepEqual(actual, want)
	}
	return false
}
