package narrative

import (
	"errors"
	"fmt"
)

type fakeLine struct {
	text string
	tags []string
}

type fakeChoice struct {
	text   string
	target string
}

type fakeKnot struct {
	lines   []fakeLine
	choices []fakeChoice
}

// fakeEngine is a minimal scripted engine: each knot emits its lines in
// order and then offers its choices.
type fakeEngine struct {
	knots map[string]*fakeKnot
	vars  map[string]any

	pos  string
	line int
	tags []string

	continueCalls int
}

func newFakeEngine(knots map[string]*fakeKnot, vars map[string]any) *fakeEngine {
	if vars == nil {
		vars = map[string]any{}
	}
	return &fakeEngine{knots: knots, vars: vars}
}

func (f *fakeEngine) CanContinue() bool {
	k, ok := f.knots[f.pos]
	return ok && f.line < len(k.lines)
}

func (f *fakeEngine) Continue() (string, error) {
	f.continueCalls++
	if !f.CanContinue() {
		return "", errors.New("cannot continue")
	}
	l := f.knots[f.pos].lines[f.line]
	f.line++
	f.tags = l.tags
	return l.text, nil
}

func (f *fakeEngine) CurrentChoices() []Choice {
	if f.CanContinue() {
		return nil
	}
	k, ok := f.knots[f.pos]
	if !ok {
		return nil
	}
	var out []Choice
	for i, c := range k.choices {
		out = append(out, Choice{Index: i, Text: c.text})
	}
	return out
}

func (f *fakeEngine) CurrentTags() []string { return f.tags }

func (f *fakeEngine) Variable(name string) (any, bool) {
	v, ok := f.vars[name]
	return v, ok
}

func (f *fakeEngine) ChoosePath(knot string) error {
	if _, ok := f.knots[knot]; !ok {
		return fmt.Errorf("unknown knot %q", knot)
	}
	f.pos, f.line, f.tags = knot, 0, nil
	return nil
}

func (f *fakeEngine) ChooseChoice(index int) error {
	choices := f.CurrentChoices()
	if index < 0 || index >= len(choices) {
		return fmt.Errorf("choice %d out of range", index)
	}
	return f.ChoosePath(f.knots[f.pos].choices[index].target)
}

// whitespaceEngine can always continue but never produces visible text.
type whitespaceEngine struct {
	fakeEngine
}

func (w *whitespaceEngine) CanContinue() bool { return true }

func (w *whitespaceEngine) Continue() (string, error) {
	w.continueCalls++
	return "  \n", nil
}

func (w *whitespaceEngine) ChoosePath(string) error { return nil }

// factoryFor returns a factory that hands out engines from build and counts calls.
func factoryFor(build func() Engine, calls *int) EngineFactory {
	return func([]byte) (Engine, error) {
		if calls != nil {
			*calls++
		}
		return build(), nil
	}
}

// rejectingEngine refuses every choice, including in-range ones.
type rejectingEngine struct {
	fakeEngine
}

func (r *rejectingEngine) ChooseChoice(int) error {
	return errors.New("effect failed")
}
