// ABOUTME: Keyword-based frustration scoring used for soft-handoff escalation
// ABOUTME: Scores are deterministic per message text

package bot

import "strings"

const defaultEscalationThreshold = 0.5

// Each hit adds weight; the score is capped at 1.0.
var frustrationWords = map[string]float64{
	"angry":        0.5,
	"furious":      0.6,
	"terrible":     0.4,
	"awful":        0.4,
	"useless":      0.5,
	"ridiculous":   0.5,
	"unacceptable": 0.6,
	"worst":        0.5,
	"frustrated":   0.5,
	"fed up":       0.6,
	"cancel":       0.3,
	"complaint":    0.3,
}

// sentimentScore returns the frustration score for one message.
func sentimentScore(text string) float64 {
	lower := strings.ToLower(text)
	var score float64
	for word, weight := range frustrationWords {
		if strings.Contains(lower, word) {
			score += weight
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
