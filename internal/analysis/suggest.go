package analysis

import (
	"github.com/hbollon/go-edlib"
)

// suggestionThreshold is the minimum Jaro-Winkler similarity a candidate
// needs before it is offered as a "did you mean" suggestion.
const suggestionThreshold = 0.84

// SuggestClosest returns the candidate most similar to name, or "" when no
// candidate is similar enough. Used to enrich cannot-resolve diagnostics.
func SuggestClosest(name string, candidates []string) string {
	best := ""
	bestScore := float32(suggestionThreshold)

	for _, candidate := range candidates {
		if candidate == name {
			continue
		}

		score, err := edlib.StringsSimilarity(name, candidate, edlib.JaroWinkler)
		if err != nil {
			continue
		}

		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	return best
}
