package llm

import (
	"regexp"
	"strings"

	"github.com/jmorrell-dev/sidekick/pkg/types"
)

var fencedBlockRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\n(.*?)```")

// ExtractSuggestions scans free-text model output for actionable pieces:
// fenced code blocks and bullet-style recommendations. Heuristic by nature;
// an empty result just means the response was prose.
func ExtractSuggestions(content string) []types.Suggestion {
	var suggestions []types.Suggestion

	for _, match := range fencedBlockRe.FindAllStringSubmatch(content, -1) {
		code := strings.TrimSpace(match[2])
		if code == "" {
			continue
		}
		suggestions = append(suggestions, types.Suggestion{
			Kind:     "code",
			Language: match[1],
			Text:     code,
		})
	}

	// Bullets outside code fences become notes.
	prose := fencedBlockRe.ReplaceAllString(content, "")
	for _, line := range strings.Split(prose, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			note := strings.TrimSpace(line[2:])
			if len(note) > 10 {
				suggestions = append(suggestions, types.Suggestion{Kind: "note", Text: note})
			}
		}
	}

	return suggestions
}
