package narrative

import "strings"

// LocationRule maps a location name to the words that identify it in text.
type LocationRule struct {
	Name     string
	Keywords []string
}

// DefaultLocations is checked in order; the first rule that matches wins.
var DefaultLocations = []LocationRule{
	{Name: "forest", Keywords: []string{"forest"}},
	{Name: "meadow", Keywords: []string{"meadow", "pool"}},
	{Name: "cabin", Keywords: []string{"cabin"}},
	{Name: "grotto", Keywords: []string{"grotto"}},
}

const locationTagPrefix = "location:"

// InferLocation classifies the current location. Tags are authoritative:
// a tag naming a known location (optionally written "location:<name>") wins.
// Only when no tag names a location is the fragment scanned for keywords.
// When nothing matches, prev is returned unchanged.
func InferLocation(rules []LocationRule, tags []string, text, prev string) string {
	if loc, ok := locationFromTags(rules, tags); ok {
		return loc
	}
	if loc, ok := locationFromText(rules, text); ok {
		return loc
	}
	return prev
}

func locationFromTags(rules []LocationRule, tags []string) (string, bool) {
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		t = strings.TrimSpace(strings.TrimPrefix(t, locationTagPrefix))
		for _, r := range rules {
			if t == r.Name {
				return r.Name, true
			}
		}
	}
	return "", false
}

func locationFromText(rules []LocationRule, text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Name, true
			}
		}
	}
	return "", false
}
