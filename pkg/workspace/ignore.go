package workspace

import (
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// GetIgnoreRules compiles the ignore rules for a workspace root: essential
// sidekick patterns first, then the root's .gitignore, then fallback patterns
// for files nobody wants in a prompt.
func GetIgnoreRules(rootDir string) *ignore.GitIgnore {
	var allLines []string

	allLines = append(allLines, essentialPatterns()...)

	gitIgnorePath := filepath.Join(rootDir, ".gitignore")
	if content, err := os.ReadFile(gitIgnorePath); err == nil {
		allLines = append(allLines, strings.Split(string(content), "\n")...)
	}

	allLines = append(allLines, fallbackPatterns()...)

	var filtered []string
	for _, line := range allLines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			filtered = append(filtered, line)
		}
	}

	return ignore.CompileIgnoreLines(filtered...)
}

// essentialPatterns are always ignored so sidekick never feeds its own state
// back into a prompt.
func essentialPatterns() []string {
	return []string{
		".sidekick/",
		".sidekick/*",
		".git/",
	}
}

// fallbackPatterns cover common noise when a workspace has no .gitignore.
func fallbackPatterns() []string {
	return []string{
		"node_modules/",
		"vendor/",
		"dist/",
		"build/",
		"*.log",
		"*.min.js",
		"*.lock",
		".DS_Store",
	}
}
