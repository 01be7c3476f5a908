package narrative

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
)

// DefaultMaxContinues bounds how many times a single turn calls Continue
// while looking for non-blank text.
const DefaultMaxContinues = 10

// DefaultStartLocation is the location reported before any fragment has
// named one.
const DefaultStartLocation = "forest"

// Controller turns player actions into ViewStates. It owns exactly one
// Engine and is not safe for concurrent use: callers must serialize
// Start, Advance, Choose and Restart.
type Controller struct {
	doc     []byte
	factory EngineFactory
	engine  Engine
	log     *slog.Logger

	maxContinues    int
	locations       []LocationRule
	defaultLocation string

	view         ViewState
	lastFragment string
	started      bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for turn diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMaxContinues overrides the per-turn Continue bound. Values below 1 are ignored.
func WithMaxContinues(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxContinues = n
		}
	}
}

// WithLocations replaces the location keyword table.
func WithLocations(rules []LocationRule) Option {
	return func(c *Controller) {
		if len(rules) > 0 {
			c.locations = rules
		}
	}
}

// WithDefaultLocation sets the location reported before any inference.
func WithDefaultLocation(loc string) Option {
	return func(c *Controller) {
		c.defaultLocation = loc
	}
}

// New creates a controller for doc. The engine is not built until Start.
func New(doc []byte, factory EngineFactory, opts ...Option) *Controller {
	c := &Controller{
		doc:             doc,
		factory:         factory,
		log:             slog.Default(),
		maxContinues:    DefaultMaxContinues,
		locations:       DefaultLocations,
		defaultLocation: DefaultStartLocation,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c
}

// View returns the most recent ViewState.
func (c *Controller) View() ViewState {
	return c.view.clone()
}

// Start jumps the engine to knot and resolves the first turn.
func (c *Controller) Start(knot string) (ViewState, error) {
	if c.engine == nil {
		if err := c.buildEngine(); err != nil {
			return ViewState{}, &InitializationError{Knot: knot, Err: err}
		}
	}
	if err := c.engine.ChoosePath(knot); err != nil {
		c.log.Error("Start knot rejected", "knot", knot, "error", err)
		return ViewState{}, &InitializationError{Knot: knot, Err: err}
	}
	c.started = true
	c.log.Debug("Story started", "knot", knot)
	return c.Advance()
}

// Restart discards the engine and all turn state, builds a fresh engine
// from the same document and starts it at knot.
func (c *Controller) Restart(knot string) (ViewState, error) {
	c.engine = nil
	c.reset()
	c.log.Debug("Story restarting", "knot", knot)
	return c.Start(knot)
}

// Choose forwards the player's pick to the engine and resolves the next turn.
func (c *Controller) Choose(index int) (ViewState, error) {
	count := len(c.view.Choices)
	if !c.started || index < 0 || index >= count {
		return c.View(), &InvalidChoiceError{Index: index, Count: count}
	}
	if err := c.engine.ChooseChoice(index); err != nil {
		c.log.Error("Engine rejected choice", "index", index, "error", err)
		return c.View(), &EngineError{Op: "choose", Err: err}
	}
	c.log.Debug("Choice made", "index", index, "text", c.view.Choices[index].Text)
	return c.Advance()
}

// Advance resolves one turn and replaces the current ViewState.
func (c *Controller) Advance() (ViewState, error) {
	if !c.started || c.engine == nil {
		return ViewState{}, &InitializationError{Err: errors.New("story not started")}
	}

	fragment, tags := c.collectFragment()

	next := ViewState{
		DisplayText: fragment,
		Location:    c.view.Location,
		Turn:        c.view.Turn + 1,
	}
	if len(tags) > 0 {
		next.Tags = append([]string(nil), tags...)
	}

	repeated := strings.TrimSpace(fragment) != "" &&
		strings.TrimSpace(fragment) == strings.TrimSpace(c.lastFragment)
	if repeated {
		c.log.Debug("Suppressing repeated fragment", "turn", next.Turn)
		next.DisplayText = c.view.DisplayText
	} else {
		next.Location = InferLocation(c.locations, tags, fragment, c.view.Location)
	}
	c.lastFragment = fragment

	c.snapshotVars(&next)

	next.CanContinue = c.engine.CanContinue()
	if choices := c.engine.CurrentChoices(); len(choices) > 0 {
		next.Choices = append([]Choice(nil), choices...)
	}
	if !next.CanContinue && len(next.Choices) == 0 {
		next.Ended = true
		next.Choices = nil
	}

	c.view = next
	c.log.Debug("Turn resolved",
		"turn", next.Turn,
		"location", next.Location,
		"choices", len(next.Choices),
		"ended", next.Ended)
	return c.View(), nil
}

// collectFragment calls Continue until non-blank text appears, the engine
// runs dry, or the retry bound is reached. Tags from every Continue of the
// turn are kept, in order and without duplicates. It never fails.
func (c *Controller) collectFragment() (string, []string) {
	var (
		b    strings.Builder
		tags []string
	)
	for i := 0; i < c.maxContinues; i++ {
		if strings.TrimSpace(b.String()) != "" || !c.engine.CanContinue() {
			break
		}
		text, err := c.engine.Continue()
		if err != nil {
			c.log.Warn("Continue failed, ending fragment collection", "attempt", i+1, "error", err)
			break
		}
		b.WriteString(text)
		for _, tag := range c.engine.CurrentTags() {
			if !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
	}
	if strings.TrimSpace(b.String()) == "" && c.engine.CanContinue() {
		c.log.Debug("Fragment collection exhausted", "max_continues", c.maxContinues)
	}
	return strings.TrimSpace(b.String()), tags
}

func (c *Controller) snapshotVars(v *ViewState) {
	vitality := IntVar(c.engine, VarVitality, DefaultVitality)
	water := BoolVar(c.engine, VarHasMagicWater, DefaultHasMagicWater)
	timeOfDay := StringVar(c.engine, VarTimeOfDay, DefaultTimeOfDay)
	friendship := IntVar(c.engine, VarGnomeFriendship, DefaultGnomeFriendship)

	for name, defaulted := range map[string]bool{
		VarVitality:        vitality.Defaulted,
		VarHasMagicWater:   water.Defaulted,
		VarTimeOfDay:       timeOfDay.Defaulted,
		VarGnomeFriendship: friendship.Defaulted,
	} {
		if defaulted {
			c.log.Debug("Variable read fell back to default", "variable", name)
		}
	}

	v.Vitality = vitality.Value
	v.HasMagicWater = water.Value
	v.TimeOfDay = timeOfDay.Value
	v.GnomeFriendship = friendship.Value
}

func (c *Controller) buildEngine() error {
	if c.factory == nil {
		return errors.New("no engine factory configured")
	}
	engine, err := c.factory(c.doc)
	if err != nil {
		return err
	}
	if engine == nil {
		return errors.New("engine factory returned nil engine")
	}
	c.engine = engine
	return nil
}

func (c *Controller) reset() {
	c.view = ViewState{Location: c.defaultLocation}
	c.lastFragment = ""
	c.started = false
}
