package commands

import (
	"regexp"
	"strings"
)

var extensionRe = regexp.MustCompile(`\.[A-Za-z0-9]{1,5}$`)

// LooksLikePath decides whether an /analyze argument names a file or is a
// literal code snippet. A string is treated as a path when it
//
//   - contains a path separator ("/" or "\"), or
//   - ends with a short dot-extension (1-5 alphanumeric characters), or
//   - starts with "./", "../", or a bare ".", or
//   - is shorter than 64 characters and contains no whitespace.
//
// The rules are intentionally loose and can misclassify a short dotted code
// fragment (e.g. "foo.bar") as a path; callers fall back to treating the
// argument as a snippet when reading fails.
func LooksLikePath(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, "/\\") {
		return true
	}
	if extensionRe.MatchString(s) {
		return true
	}
	if strings.HasPrefix(s, ".") {
		return true
	}
	if len(s) < 64 && !strings.ContainsAny(s, " \t\n") {
		return true
	}
	return false
}
