package story

import (
	"fmt"
	"strings"
)

// ValidationError lists every problem found in a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid story document:\n%s", strings.Join(e.Problems, "\n"))
}

var conditionOps = map[string]bool{"eq": true, "ne": true, "gt": true, "gte": true, "lt": true, "lte": true}

// Validate checks references and declarations. Knot names in problems are
// reported in sorted order so output is stable.
func (d *Document) Validate() error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(d.Knots) == 0 {
		return &ValidationError{Problems: []string{"document has no knots"}}
	}

	if d.Start != "" {
		if _, ok := d.Knots[d.Start]; !ok {
			addf("start: %s", d.unknownKnot(d.Start))
		}
	}

	if d.Vitals != nil {
		if d.Vitals.Variable == "" {
			addf("vitals: variable is required")
		}
		if d.Vitals.Max < 0 {
			addf("vitals: max must not be negative")
		}
	}

	for _, name := range d.KnotNames() {
		k := d.Knots[name]
		if k == nil {
			addf("knot %q: is null", name)
			continue
		}
		if len(k.Lines) == 0 && len(k.Choices) == 0 && k.Divert == "" && !k.End {
			addf("knot %q: has no lines, choices or divert", name)
		}
		if k.End && (k.Divert != "" || len(k.Choices) > 0) {
			addf("knot %q: end knots cannot divert or offer choices", name)
		}
		if k.Divert != "" {
			if _, ok := d.Knots[k.Divert]; !ok {
				addf("knot %q: divert: %s", name, d.unknownKnot(k.Divert))
			}
		}
		for i, l := range k.Lines {
			for _, p := range d.effectProblems(l.Effects) {
				addf("knot %q: line %d: %s", name, i, p)
			}
		}
		for i, c := range k.Choices {
			if strings.TrimSpace(c.Text) == "" {
				addf("knot %q: choice %d: text is required", name, i)
			}
			if c.Divert == "" {
				addf("knot %q: choice %d: divert is required", name, i)
			} else if _, ok := d.Knots[c.Divert]; !ok {
				addf("knot %q: choice %d: divert: %s", name, i, d.unknownKnot(c.Divert))
			}
			for _, p := range d.effectProblems(c.Effects) {
				addf("knot %q: choice %d: %s", name, i, p)
			}
			for _, cond := range c.Requires {
				if !conditionOps[cond.Op] {
					addf("knot %q: choice %d: unknown condition op %q", name, i, cond.Op)
				}
				if !d.declared(cond.Var) {
					addf("knot %q: choice %d: condition on undeclared variable %q", name, i, cond.Var)
				}
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (d *Document) effectProblems(effects []Effect) []string {
	var out []string
	for _, e := range effects {
		if !d.declared(e.Var) {
			out = append(out, fmt.Sprintf("effect on undeclared variable %q", e.Var))
			continue
		}
		_, valueNum := toFloat(e.Value)
		switch e.Op {
		case OpSet:
			if d.numeric(e.Var) && !valueNum {
				out = append(out, fmt.Sprintf("set on numeric variable %q needs a numeric value", e.Var))
			}
		case OpAdd:
			if !valueNum {
				out = append(out, fmt.Sprintf("add to %q needs a numeric value", e.Var))
			}
			if !d.numeric(e.Var) {
				out = append(out, fmt.Sprintf("add to %q: variable is not numeric", e.Var))
			}
		default:
			out = append(out, fmt.Sprintf("unknown effect op %q", e.Op))
		}
	}
	return out
}

// numeric reports whether a declared variable holds a number. The vitals
// variable always does.
func (d *Document) numeric(name string) bool {
	if d.Vitals != nil && d.Vitals.Variable == name {
		return true
	}
	_, ok := toFloat(d.Variables[name])
	return ok
}

func (d *Document) declared(name string) bool {
	if d.Vitals != nil && d.Vitals.Variable == name {
		return true
	}
	_, ok := d.Variables[name]
	return ok
}

// Reachable returns the sorted names of knots reachable from start, start included.
func (d *Document) Reachable(start string) []string {
	seen := map[string]bool{}
	queue := []string{start}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		k, ok := d.Knots[name]
		if !ok || k == nil || seen[name] {
			continue
		}
		seen[name] = true
		if k.Divert != "" {
			queue = append(queue, k.Divert)
		}
		for _, c := range k.Choices {
			queue = append(queue, c.Divert)
		}
	}

	var out []string
	for _, name := range d.KnotNames() {
		if seen[name] {
			out = append(out, name)
		}
	}
	return out
}

// Unreachable returns the sorted names of knots that cannot be reached from start.
func (d *Document) Unreachable(start string) []string {
	reach := map[string]bool{}
	for _, name := range d.Reachable(start) {
		reach[name] = true
	}
	var out []string
	for _, name := range d.KnotNames() {
		if !reach[name] {
			out = append(out, name)
		}
	}
	return out
}
