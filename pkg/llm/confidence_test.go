package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreConfidenceBounds(t *testing.T) {
	// Hedging-heavy short answer bottoms out at the floor.
	score := scoreConfidence("but it might possibly work, however it may not", 10, 1000)
	assert.Equal(t, 0.1, score)

	// Long, code-bearing, decisive answer tops out near the ceiling.
	long := strings.Repeat("x", 900) + "\n```go\nfunc main() {}\n```"
	score = scoreConfidence(long, 100, 120)
	assert.LessOrEqual(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.9)
}

func TestScoreConfidenceCodeBlockBoost(t *testing.T) {
	plain := scoreConfidence("a plain answer", 0, 0)
	withCode := scoreConfidence("a plain answer\n```go\nx := 1\n```", 0, 0)
	assert.Greater(t, withCode, plain)
}

func TestScoreConfidenceTokenRatio(t *testing.T) {
	balanced := scoreConfidence("answer", 100, 100)
	degenerate := scoreConfidence("answer", 100, 5)
	assert.Greater(t, balanced, degenerate)
}
