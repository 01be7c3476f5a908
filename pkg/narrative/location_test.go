package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferLocation(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		text string
		prev string
		want string
	}{
		{name: "forest keyword", text: "You enter the dark Forest", prev: "cabin", want: "forest"},
		{name: "pool means meadow", text: "A still pool reflects the sky.", prev: "forest", want: "meadow"},
		{name: "grotto", text: "The GROTTO glitters.", prev: "forest", want: "grotto"},
		{name: "table order wins", text: "From the cabin you can see the forest.", prev: "grotto", want: "forest"},
		{name: "no match keeps previous", text: "Nothing happens.", prev: "cabin", want: "cabin"},
		{name: "empty text keeps previous", text: "", prev: "meadow", want: "meadow"},
		{name: "tag overrides text", tags: []string{"cabin"}, text: "The forest is quiet.", prev: "forest", want: "cabin"},
		{name: "prefixed tag", tags: []string{"mood:calm", "location: Grotto"}, text: "", prev: "forest", want: "grotto"},
		{name: "unrecognized tags fall back to text", tags: []string{"mood:calm"}, text: "A meadow.", prev: "forest", want: "meadow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferLocation(DefaultLocations, tt.tags, tt.text, tt.prev))
		})
	}
}

func TestInferLocation_CustomRules(t *testing.T) {
	rules := []LocationRule{{Name: "harbor", Keywords: []string{"dock", "harbor"}}}
	assert.Equal(t, "harbor", InferLocation(rules, nil, "Gulls circle the dock.", ""))
	assert.Equal(t, "", InferLocation(rules, nil, "You enter the forest.", ""))
}
