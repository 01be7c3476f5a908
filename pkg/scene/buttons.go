package scene

import (
	"strings"

	"github.com/jwebster45206/story-turns/pkg/narrative"
)

// Button actions.
const (
	ActionChoose   = "choose"
	ActionContinue = "continue"
	ActionRestart  = "restart"
)

// ExhaustionThreshold is the vitality below which "Continue" choices are
// disabled.
const ExhaustionThreshold = 20

const (
	continueLabel  = "Continue..."
	restartLabel   = "Restart Story"
	exhaustedLabel = " (Too exhausted)"
)

// Button is one interactive control. Index is the choice index for
// ActionChoose and -1 otherwise.
type Button struct {
	Label   string `json:"label"`
	Action  string `json:"action"`
	Index   int    `json:"index"`
	Enabled bool   `json:"enabled"`
	Image   int    `json:"image"`
}

// Buttons lists the controls for a view: one per choice, or a single
// continue or restart button when there are no choices.
func Buttons(v narrative.ViewState) []Button {
	if len(v.Choices) == 0 {
		switch {
		case v.Ended:
			return []Button{{Label: restartLabel, Action: ActionRestart, Index: -1, Enabled: true, Image: -1}}
		case v.CanContinue:
			return []Button{{Label: continueLabel, Action: ActionContinue, Index: -1, Enabled: true, Image: 0}}
		}
		return nil
	}

	buttons := make([]Button, 0, len(v.Choices))
	for _, c := range v.Choices {
		b := Button{
			Label:   c.Text,
			Action:  ActionChoose,
			Index:   c.Index,
			Enabled: true,
			Image:   ChoiceImageIndex(c.Text),
		}
		if v.Vitality < ExhaustionThreshold && strings.Contains(c.Text, "Continue") {
			b.Enabled = false
			b.Label += exhaustedLabel
		}
		buttons = append(buttons, b)
	}
	return buttons
}
