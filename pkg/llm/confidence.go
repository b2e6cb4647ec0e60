package llm

import "strings"

// Hedging markers that pull the score down. Each counts at most once.
var hedgingMarkers = []string{"however", "but", "might", "may", "possibly"}

// scoreConfidence derives a rough confidence score for a response from its
// length, token balance, code content, and hedging language. The score is
// heuristic; it exists to give the UI a signal, not a calibrated probability.
func scoreConfidence(content string, promptTokens, completionTokens int) float64 {
	score := 0.5

	if len(content) >= 200 {
		score += 0.1
	}
	if len(content) >= 800 {
		score += 0.1
	}
	if strings.Contains(content, "```") {
		score += 0.15
	}

	lower := strings.ToLower(content)
	for _, marker := range hedgingMarkers {
		if strings.Contains(lower, marker) {
			score -= 0.1
		}
	}

	// A completion wildly shorter or longer than the prompt tends to indicate
	// a degenerate answer.
	if promptTokens > 0 && completionTokens > 0 {
		ratio := float64(completionTokens) / float64(promptTokens)
		if ratio >= 0.2 && ratio <= 2.0 {
			score += 0.1
		}
	}

	if score < 0.1 {
		score = 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
