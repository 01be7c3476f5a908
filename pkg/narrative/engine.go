package narrative

// Engine is the narrative interpreter the controller drives. Any runtime that
// exposes continue/choice/tag/variable primitives can satisfy it.
type Engine interface {
	// CanContinue reports whether another text fragment is available.
	CanContinue() bool

	// Continue returns the next text fragment.
	Continue() (string, error)

	// CurrentChoices returns the choices available at the current position,
	// in engine order.
	CurrentChoices() []Choice

	// CurrentTags returns the tags attached to the last produced fragment.
	CurrentTags() []string

	// Variable looks up a story variable. The boolean is false when the
	// variable is not defined.
	Variable(name string) (any, bool)

	// ChoosePath moves the story to the named knot.
	ChoosePath(knot string) error

	// ChooseChoice selects one of CurrentChoices by index.
	ChooseChoice(index int) error
}

// EngineFactory builds an Engine from a pre-compiled story document.
type EngineFactory func(doc []byte) (Engine, error)

// Choice is one option offered by the engine. It is only valid until the
// next turn advances.
type Choice struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}
