package story

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlDoc = `
title: Pond
start: start
variables:
  gnome_friendship: 1
  time_of_day: morning
knots:
  start:
    tags: [meadow]
    lines:
      - A pool glints in the grass.
      - text: A frog croaks.
        tags: [sound]
        effects:
          - {op: add, var: gnome_friendship, value: 2}
    choices:
      - text: Leave
        divert: done
  done:
    lines: [Goodbye.]
    end: true
`

const jsonDoc = `{
  "title": "Pond",
  "start": "start",
  "variables": {"gnome_friendship": 1, "time_of_day": "morning"},
  "knots": {
    "start": {
      "tags": ["meadow"],
      "lines": [
        "A pool glints in the grass.",
        {"text": "A frog croaks.", "tags": ["sound"], "effects": [{"op": "add", "var": "gnome_friendship", "value": 2}]}
      ],
      "choices": [{"text": "Leave", "divert": "done"}]
    },
    "done": {"lines": ["Goodbye."], "end": true}
  }
}`

func TestParse_JSONAndYAMLAgree(t *testing.T) {
	fromJSON, err := Parse([]byte(jsonDoc))
	require.NoError(t, err)
	fromYAML, err := Parse([]byte(yamlDoc))
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, 1, fromJSON.Variables["gnome_friendship"], "whole JSON numbers become int")
	assert.Equal(t, "A pool glints in the grass.", fromJSON.Knots["start"].Lines[0].Text)
	assert.Equal(t, []string{"sound"}, fromJSON.Knots["start"].Lines[1].Tags)
	assert.Equal(t, 2, fromJSON.Knots["start"].Lines[1].Effects[0].Value)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", "   "},
		{"broken json", `{"knots": `},
		{"broken yaml", "knots: [unclosed"},
		{"no knots", `{"title": "Nothing"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_ValidationErrorIsTyped(t *testing.T) {
	_, err := Parse([]byte(`{"knots": {"start": {"lines": ["x"], "divert": "strat"}}}`))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Problems, 1)
	assert.Contains(t, verr.Problems[0], `did you mean "start"?`)
}
