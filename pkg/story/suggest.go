package story

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the candidate closest to name, or "" when nothing is close
// enough to be a plausible typo.
func Suggest(name string, candidates []string) string {
	if name == "" {
		return ""
	}
	limit := max(2, len(name)/3)

	best, bestDist := "", limit+1
	lower := strings.ToLower(name)
	for _, cand := range candidates {
		dist := levenshtein.ComputeDistance(lower, strings.ToLower(cand))
		if dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	return best
}

// UnknownKnotError is returned when a knot name does not exist in the document.
type UnknownKnotError struct {
	Knot       string
	Suggestion string
}

func (e *UnknownKnotError) Error() string {
	if e.Suggestion != "" {
		return "unknown knot \"" + e.Knot + "\"; did you mean \"" + e.Suggestion + "\"?"
	}
	return "unknown knot \"" + e.Knot + "\""
}

func (d *Document) unknownKnot(name string) *UnknownKnotError {
	return &UnknownKnotError{Knot: name, Suggestion: Suggest(name, d.KnotNames())}
}
