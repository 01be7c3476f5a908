package story_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jwebster45206/story-turns/pkg/narrative"
	"github.com/jwebster45206/story-turns/pkg/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forestToCabin = `{
  "title": "Forest to Cabin",
  "knots": {
    "start": {
      "lines": ["You enter the dark forest."],
      "choices": [{"text": "Look around", "divert": "clearing"}]
    },
    "clearing": {
      "lines": ["Between the trunks you spot a cabin with a lit window."],
      "end": true
    }
  }
}`

func newController(doc []byte) *narrative.Controller {
	return narrative.New(doc, story.Factory,
		narrative.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestController_ForestToCabin(t *testing.T) {
	c := newController([]byte(forestToCabin))

	view, err := c.Start("start")
	require.NoError(t, err)
	assert.Equal(t, "forest", view.Location)
	assert.Equal(t, "morning", view.TimeOfDay, "document defines no time_of_day")
	require.Len(t, view.Choices, 1)

	view, err = c.Choose(0)
	require.NoError(t, err)
	assert.Equal(t, "cabin", view.Location)
	assert.True(t, view.Ended)
}

func TestController_InitializationErrors(t *testing.T) {
	t.Run("unparseable document", func(t *testing.T) {
		c := newController([]byte(`{"knots": `))
		_, err := c.Start("start")
		assert.ErrorIs(t, err, narrative.ErrInitialization)
	})

	t.Run("missing start knot", func(t *testing.T) {
		c := newController([]byte(forestToCabin))
		_, err := c.Start("begin")
		assert.ErrorIs(t, err, narrative.ErrInitialization)

		var unknown *story.UnknownKnotError
		assert.ErrorAs(t, err, &unknown)
	})
}

func TestController_MysteryGrovePlaythrough(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "data", "stories", "mystery_grove.json"))
	require.NoError(t, err)
	c := newController(data)

	view, err := c.Start("start")
	require.NoError(t, err)
	assert.Contains(t, view.DisplayText, "You enter the dark forest")
	assert.Equal(t, "forest", view.Location)
	assert.True(t, view.CanContinue)
	assert.Empty(t, view.Choices)
	assert.Equal(t, 100, view.Vitality)

	// The blank line carrying the vitality effect is skipped over.
	view, err = c.Advance()
	require.NoError(t, err)
	assert.Contains(t, view.DisplayText, "ribbon of smoke")
	assert.Equal(t, 95, view.Vitality)
	require.Len(t, view.Choices, 3)
	assert.Equal(t, "Rest beneath the pines", view.Choices[2].Text)

	view, err = c.Choose(1)
	require.NoError(t, err)
	assert.Equal(t, "meadow", view.Location)
	require.Len(t, view.Choices, 2)

	view, err = c.Choose(0)
	require.NoError(t, err)
	assert.True(t, view.HasMagicWater)
	assert.Equal(t, 100, view.Vitality)
	assert.True(t, view.CanContinue)

	view, err = c.Advance()
	require.NoError(t, err)
	assert.Equal(t, "grotto", view.Location)
	assert.Equal(t, "night", view.TimeOfDay)
	require.Len(t, view.Choices, 2)
	assert.Equal(t, "Pour the magic water into the basin", view.Choices[0].Text)

	view, err = c.Choose(0)
	require.NoError(t, err)
	assert.True(t, view.Ended)
	assert.Contains(t, view.DisplayText, "The end.")

	_, err = c.Choose(0)
	assert.ErrorIs(t, err, narrative.ErrInvalidChoice)

	view, err = c.Restart("start")
	require.NoError(t, err)
	assert.False(t, view.HasMagicWater)
	assert.Equal(t, "morning", view.TimeOfDay)
	assert.Equal(t, 1, view.Turn)
}

func TestController_GnomePath(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "data", "stories", "mystery_grove.json"))
	require.NoError(t, err)
	c := newController(data)

	_, err = c.Start("start")
	require.NoError(t, err)
	_, err = c.Advance()
	require.NoError(t, err)

	view, err := c.Choose(0) // follow the smoke
	require.NoError(t, err)
	assert.Equal(t, 75, view.Vitality)
	assert.True(t, view.CanContinue)

	view, err = c.Advance()
	require.NoError(t, err)
	assert.Equal(t, "cabin", view.Location)

	view, err = c.Advance()
	require.NoError(t, err)
	assert.Contains(t, view.DisplayText, "gnome")
	require.Len(t, view.Choices, 2)

	view, err = c.Choose(0)
	require.NoError(t, err)
	assert.Equal(t, 2, view.GnomeFriendship)
	assert.Equal(t, "evening", view.TimeOfDay)
	assert.Equal(t, "grotto", view.Location, "the gnome's tale mentions the grotto")
}

func TestController_RejectsAddOnStringVariable(t *testing.T) {
	doc := `{
	  "variables": {"gold": 0, "mood": "calm"},
	  "knots": {"start": {"lines": [{"text": "Coins.", "effects": [
	    {"op": "add", "var": "gold", "value": 5},
	    {"op": "add", "var": "mood", "value": 1}
	  ]}], "end": true}}
	}`
	c := newController([]byte(doc))
	_, err := c.Start("start")
	assert.ErrorIs(t, err, narrative.ErrInitialization)
}

func TestController_TaggedKnotWithBlankFirstLine(t *testing.T) {
	doc := `{
	  "knots": {
	    "start": {
	      "lines": ["You stand at a fork."],
	      "choices": [{"text": "Go down", "divert": "grotto"}]
	    },
	    "grotto": {
	      "tags": ["grotto"],
	      "lines": ["   ", "Damp stone surrounds you."],
	      "end": true
	    }
	  }
	}`
	c := newController([]byte(doc))
	_, err := c.Start("start")
	require.NoError(t, err)

	view, err := c.Choose(0)
	require.NoError(t, err)
	assert.Equal(t, "Damp stone surrounds you.", view.DisplayText)
	assert.Equal(t, []string{"grotto"}, view.Tags)
	assert.Equal(t, "grotto", view.Location)
}
