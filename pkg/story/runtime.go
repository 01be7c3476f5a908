package story

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jwebster45206/story-turns/pkg/narrative"
)

// ErrCannotContinue is returned by Continue when no line is pending.
var ErrCannotContinue = errors.New("story cannot continue")

// Runtime plays a Document. It implements narrative.Engine and, like the
// controller that owns it, is not safe for concurrent use.
type Runtime struct {
	doc    *Document
	vars   map[string]any
	vitals *vitals

	knot    string
	line    int
	tags    []string
	pending []string // knot tags not yet attached to visible text
	choices []*Choice
	visits  map[string]int
}

var _ narrative.Engine = (*Runtime)(nil)

// New parses data and returns a Runtime. Nothing can be continued until
// ChoosePath selects a knot.
func New(data []byte) (*Runtime, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return NewRuntime(doc)
}

// NewRuntime returns a Runtime for an already parsed document. The document
// is treated as read-only.
func NewRuntime(doc *Document) (*Runtime, error) {
	r := &Runtime{
		doc:    doc,
		vars:   maps.Clone(doc.Variables),
		visits: make(map[string]int),
	}
	if r.vars == nil {
		r.vars = make(map[string]any)
	}

	if doc.Vitals != nil {
		v, err := newVitals(doc.Vitals, r.vars[doc.Vitals.Variable])
		if err != nil {
			return nil, err
		}
		r.vitals = v
		delete(r.vars, doc.Vitals.Variable)
	}

	return r, nil
}

// Factory builds a Runtime from a document; it satisfies narrative.EngineFactory.
func Factory(data []byte) (narrative.Engine, error) {
	r, err := New(data)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// StartKnot returns the document's declared start knot, or "start".
func (r *Runtime) StartKnot() string {
	if r.doc.Start != "" {
		return r.doc.Start
	}
	return "start"
}

// Title returns the document title.
func (r *Runtime) Title() string {
	return r.doc.Title
}

// Knot returns the knot the runtime is currently in.
func (r *Runtime) Knot() string {
	return r.knot
}

// Visits returns how many times the knot has been entered.
func (r *Runtime) Visits(knot string) int {
	return r.visits[knot]
}

func (r *Runtime) current() *Knot {
	return r.doc.Knots[r.knot]
}

func (r *Runtime) CanContinue() bool {
	k := r.current()
	return k != nil && r.line < len(k.Lines)
}

func (r *Runtime) Continue() (string, error) {
	if !r.CanContinue() {
		return "", ErrCannotContinue
	}
	knot, line := r.knot, r.line
	l := r.current().Lines[line]

	r.tags = append(slices.Clone(r.pending), l.Tags...)
	if strings.TrimSpace(l.Text) != "" {
		r.pending = nil
	}

	// The line is consumed even when its effects fail, so a broken line
	// cannot be replayed.
	err := r.apply(l.Effects)
	r.line++
	r.settle()
	if err != nil {
		return "", fmt.Errorf("knot %q line %d: %w", knot, line, err)
	}
	return l.Text, nil
}

func (r *Runtime) CurrentChoices() []narrative.Choice {
	if len(r.choices) == 0 {
		return nil
	}
	out := make([]narrative.Choice, len(r.choices))
	for i, c := range r.choices {
		out[i] = narrative.Choice{Index: i, Text: c.Text}
	}
	return out
}

func (r *Runtime) CurrentTags() []string {
	return r.tags
}

func (r *Runtime) Variable(name string) (any, bool) {
	if r.vitals != nil && name == r.vitals.variable {
		return r.vitals.value(), true
	}
	v, ok := r.vars[name]
	return v, ok
}

func (r *Runtime) ChoosePath(knot string) error {
	if _, ok := r.doc.Knots[knot]; !ok {
		return r.doc.unknownKnot(knot)
	}
	r.enter(knot)
	r.tags = nil
	r.settle()
	return nil
}

func (r *Runtime) ChooseChoice(index int) error {
	if index < 0 || index >= len(r.choices) {
		return fmt.Errorf("choice %d out of range: %d available", index, len(r.choices))
	}
	c := r.choices[index]
	if err := r.apply(c.Effects); err != nil {
		return fmt.Errorf("choice %q: %w", c.Text, err)
	}
	return r.ChoosePath(c.Divert)
}

func (r *Runtime) enter(knot string) {
	r.knot = knot
	r.line = 0
	r.choices = nil
	r.pending = nil
	if k := r.doc.Knots[knot]; k != nil {
		r.pending = slices.Clone(k.Tags)
	}
	r.visits[knot]++
}

// settle runs after every move. When the current knot has no pending lines it
// follows diverts until it reaches a knot with lines, then, if the flow has
// stopped, collects the choices whose conditions hold.
func (r *Runtime) settle() {
	r.choices = nil
	for hops := 0; !r.CanContinue(); hops++ {
		k := r.current()
		if k == nil || k.Divert == "" || hops > len(r.doc.Knots) {
			break
		}
		r.enter(k.Divert)
	}
	if r.CanContinue() {
		return
	}

	k := r.current()
	if k == nil {
		return
	}
	for i := range k.Choices {
		if r.allowed(k.Choices[i].Requires) {
			r.choices = append(r.choices, &k.Choices[i])
		}
	}
}
