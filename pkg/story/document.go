package story

import "sort"

// Document is a pre-compiled story. Knots are named entry points; each knot
// emits its lines in order, then follows its divert or offers its choices.
type Document struct {
	Title     string           `json:"title" yaml:"title"`
	Start     string           `json:"start,omitempty" yaml:"start,omitempty"`         // Knot used when none is chosen explicitly
	Variables map[string]any   `json:"variables,omitempty" yaml:"variables,omitempty"` // Declared variables and their initial values
	Vitals    *Vitals          `json:"vitals,omitempty" yaml:"vitals,omitempty"`
	Knots     map[string]*Knot `json:"knots" yaml:"knots"`
}

// Vitals binds a numeric variable to a hit-point pool so it can never leave [0, Max].
type Vitals struct {
	Variable string `json:"variable" yaml:"variable"`
	Max      int    `json:"max,omitempty" yaml:"max,omitempty"`
}

// Knot is a named section of the story.
type Knot struct {
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty"` // Attached to the knot's first line
	Lines   []Line   `json:"lines,omitempty" yaml:"lines,omitempty"`
	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
	Divert  string   `json:"divert,omitempty" yaml:"divert,omitempty"` // Knot to flow into after the last line
	End     bool     `json:"end,omitempty" yaml:"end,omitempty"`       // Explicit ending; no divert or choices expected
}

// Line is one fragment of text. Effects apply when the line is emitted.
type Line struct {
	Text    string   `json:"text" yaml:"text"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Effects []Effect `json:"effects,omitempty" yaml:"effects,omitempty"`
}

// Choice is an option offered at the end of a knot.
type Choice struct {
	Text     string      `json:"text" yaml:"text"`
	Divert   string      `json:"divert" yaml:"divert"`
	Effects  []Effect    `json:"effects,omitempty" yaml:"effects,omitempty"`
	Requires []Condition `json:"requires,omitempty" yaml:"requires,omitempty"` // All must hold for the choice to be offered
}

// Effect operations.
const (
	OpSet = "set"
	OpAdd = "add"
)

// Effect changes a variable.
type Effect struct {
	Op    string `json:"op" yaml:"op"`
	Var   string `json:"var" yaml:"var"`
	Value any    `json:"value" yaml:"value"`
}

// Condition compares a variable against a value.
// Op is one of eq, ne, gt, gte, lt, lte.
type Condition struct {
	Var   string `json:"var" yaml:"var"`
	Op    string `json:"op" yaml:"op"`
	Value any    `json:"value" yaml:"value"`
}

// KnotNames returns the document's knot names in sorted order.
func (d *Document) KnotNames() []string {
	names := make([]string, 0, len(d.Knots))
	for name := range d.Knots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
