package narrative

import "math"

// Tracked story variables and the values used when a read fails.
const (
	VarVitality        = "player_vitality"
	VarHasMagicWater   = "has_magic_water"
	VarTimeOfDay       = "time_of_day"
	VarGnomeFriendship = "gnome_friendship"

	DefaultVitality        = 100
	DefaultHasMagicWater   = false
	DefaultTimeOfDay       = "morning"
	DefaultGnomeFriendship = 0
)

// Var is the result of a typed variable read. Defaulted is true when the
// variable was missing or had the wrong type and Value holds the fallback.
type Var[T any] struct {
	Value     T
	Defaulted bool
}

func fallback[T any](def T) Var[T] {
	return Var[T]{Value: def, Defaulted: true}
}

// IntVar reads an integer variable. Whole floats are accepted since some
// engines store every number as float64.
func IntVar(e Engine, name string, def int) Var[int] {
	raw, ok := e.Variable(name)
	if !ok {
		return fallback(def)
	}
	switch v := raw.(type) {
	case int:
		return Var[int]{Value: v}
	case int32:
		return Var[int]{Value: int(v)}
	case int64:
		return Var[int]{Value: int(v)}
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return Var[int]{Value: int(v)}
		}
	}
	return fallback(def)
}

// BoolVar reads a boolean variable.
func BoolVar(e Engine, name string, def bool) Var[bool] {
	raw, ok := e.Variable(name)
	if !ok {
		return fallback(def)
	}
	if v, ok := raw.(bool); ok {
		return Var[bool]{Value: v}
	}
	return fallback(def)
}

// StringVar reads a string variable.
func StringVar(e Engine, name string, def string) Var[string] {
	raw, ok := e.Variable(name)
	if !ok {
		return fallback(def)
	}
	if v, ok := raw.(string); ok {
		return Var[string]{Value: v}
	}
	return fallback(def)
}
