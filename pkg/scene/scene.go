// Package scene maps a narrative.ViewState onto presentation decisions:
// which background to show, how to tint it, which buttons to offer and what
// the stats panel says. It holds no rendering code.
package scene

import (
	"strings"

	"github.com/jwebster45206/story-turns/pkg/narrative"
)

// Background indexes into a front end's sprite table.
const (
	BackgroundForest = 0
	BackgroundMeadow = 1
	BackgroundCabin  = 2
	BackgroundGrotto = 3
)

var backgrounds = map[string]int{
	"forest": BackgroundForest,
	"meadow": BackgroundMeadow,
	"cabin":  BackgroundCabin,
	"grotto": BackgroundGrotto,
}

// BackgroundIndex returns the sprite index for a location. Unknown
// locations show the forest.
func BackgroundIndex(location string) int {
	if idx, ok := backgrounds[strings.ToLower(strings.TrimSpace(location))]; ok {
		return idx
	}
	return BackgroundForest
}

// RGBA is a color with components in [0, 1].
type RGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

var tints = map[string]RGBA{
	"morning":   {R: 1, G: 1, B: 1, A: 1},
	"afternoon": {R: 1, G: 0.9, B: 0.7, A: 1},
	"evening":   {R: 0.8, G: 0.6, B: 0.4, A: 1},
	"night":     {R: 0.3, G: 0.3, B: 0.5, A: 1},
}

// TintName normalizes a time of day to one of morning, afternoon, evening
// or night. Anything else is treated as morning.
func TintName(timeOfDay string) string {
	name := strings.ToLower(strings.TrimSpace(timeOfDay))
	if _, ok := tints[name]; ok {
		return name
	}
	return "morning"
}

// Tint returns the overlay color for a time of day.
func Tint(timeOfDay string) RGBA {
	return tints[TintName(timeOfDay)]
}

// choiceImageKeywords is checked in order; index is the image slot.
var choiceImageKeywords = [][]string{
	{"forest", "walk", "tree"},
	{"meadow", "field", "flower"},
	{"cabin", "house", "shelter"},
	{"grotto", "cave", "water"},
}

// ChoiceImageIndex picks an illustration slot for a choice from its text.
func ChoiceImageIndex(text string) int {
	lower := strings.ToLower(text)
	for idx, words := range choiceImageKeywords {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return idx
			}
		}
	}
	return 0
}

// Frame bundles every presentation decision for one view.
type Frame struct {
	Background int      `json:"background"`
	TintName   string   `json:"tint_name"`
	Tint       RGBA     `json:"tint"`
	Buttons    []Button `json:"buttons"`
	Stats      []string `json:"stats"`
}

// Compose builds the Frame for a view.
func Compose(v narrative.ViewState) Frame {
	return Frame{
		Background: BackgroundIndex(v.Location),
		TintName:   TintName(v.TimeOfDay),
		Tint:       Tint(v.TimeOfDay),
		Buttons:    Buttons(v),
		Stats:      StatsLines(v),
	}
}
