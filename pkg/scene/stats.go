package scene

import (
	"fmt"

	"github.com/jwebster45206/story-turns/pkg/narrative"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers are stateful and must not be shared between goroutines.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// StatsLines renders the stats panel as plain lines. Magic water and gnome
// trust only appear once they matter.
func StatsLines(v narrative.ViewState) []string {
	lines := []string{
		fmt.Sprintf("Vitality: %d%%", v.Vitality),
		fmt.Sprintf("Time: %s", title(v.TimeOfDay)),
	}
	if v.HasMagicWater {
		lines = append(lines, "Magic Water Active")
	}
	if v.GnomeFriendship > 0 {
		lines = append(lines, fmt.Sprintf("Gnome Trust: %d", v.GnomeFriendship))
	}
	return lines
}

// LocationName returns a display name for a location.
func LocationName(location string) string {
	if location == "" {
		return "Unknown"
	}
	return title(location)
}
