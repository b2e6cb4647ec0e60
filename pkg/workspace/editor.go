package workspace

import (
	"os"

	"github.com/jmorrell-dev/sidekick/pkg/types"
)

// Editor is the host-provided view of the user's editor. Absence of an
// active file or selection is expressed through the ok return, not an error.
type Editor interface {
	// ActiveFile returns the file currently focused in the editor.
	ActiveFile() (types.FileRef, bool)
	// Selection returns the selected text, when a non-empty selection exists.
	Selection() (string, bool)
	// OpenBuffer returns the in-memory (possibly unsaved) content of an open
	// file. ok is false when the file is not open in the editor.
	OpenBuffer(path string) (string, bool)
	// WorkspaceRoots lists the open workspace root directories.
	WorkspaceRoots() []string
}

// ReadFileContent resolves a file's content, preferring the editor's unsaved
// buffer over the on-disk version. The ok return is false when the file is
// neither open nor readable.
func ReadFileContent(editor Editor, path string) (string, bool) {
	if editor != nil {
		if text, ok := editor.OpenBuffer(path); ok {
			return text, true
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}
