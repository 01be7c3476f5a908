package narrative

// ViewState is everything a front end needs to render one turn.
// It is rebuilt from scratch on every turn and never mutated afterwards.
type ViewState struct {
	DisplayText     string   `json:"display_text"`
	Choices         []Choice `json:"choices"`
	Location        string   `json:"location"`
	TimeOfDay       string   `json:"time_of_day"`
	Vitality        int      `json:"vitality"`
	HasMagicWater   bool     `json:"has_magic_water"`
	GnomeFriendship int      `json:"gnome_friendship"`
	Ended           bool     `json:"ended"`

	CanContinue bool     `json:"can_continue"`   // More text is available without a choice
	Tags        []string `json:"tags,omitempty"` // Tags of the fragment that produced this view
	Turn        int      `json:"turn"`           // 1-based, reset on restart
}

// HasChoices reports whether the player has anything to pick.
func (v ViewState) HasChoices() bool {
	return len(v.Choices) > 0
}

// clone copies the slices so callers cannot reach back into controller state.
func (v ViewState) clone() ViewState {
	out := v
	if v.Choices != nil {
		out.Choices = append([]Choice(nil), v.Choices...)
	}
	if v.Tags != nil {
		out.Tags = append([]string(nil), v.Tags...)
	}
	return out
}
