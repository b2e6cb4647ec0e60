package workspace

import (
	"io/fs"
	"path/filepath"

	"github.com/jmorrell-dev/sidekick/pkg/types"
)

// maxWorkspaceFiles caps the file list so huge monorepos don't flood the
// context snapshot.
const maxWorkspaceFiles = 200

// Aggregator produces ChatContext snapshots of the user's current editor
// state. Nothing is cached: editor focus changes are the primary trigger, so
// every call recomputes from scratch.
type Aggregator struct {
	editor Editor
}

// NewAggregator wraps an editor collaborator.
func NewAggregator(editor Editor) *Aggregator {
	return &Aggregator{editor: editor}
}

// CurrentContext reads the active editor and open workspace roots. Absent
// pieces (no editor focus, no selection) simply leave their fields empty.
func (a *Aggregator) CurrentContext() types.ChatContext {
	var ctx types.ChatContext
	if a.editor == nil {
		return ctx
	}

	if ref, ok := a.editor.ActiveFile(); ok {
		ctx.ActiveFile = &ref
	}
	if sel, ok := a.editor.Selection(); ok && sel != "" {
		ctx.Selection = sel
	}
	ctx.WorkspaceFiles = a.listWorkspaceFiles()
	return ctx
}

// listWorkspaceFiles walks each workspace root, honoring ignore rules, up to
// the file cap.
func (a *Aggregator) listWorkspaceFiles() []types.FileRef {
	var files []types.FileRef
	for _, root := range a.editor.WorkspaceRoots() {
		rules := GetIgnoreRules(root)
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entries are skipped, not fatal
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			if d.IsDir() {
				if rel != "." && rules.MatchesPath(rel+"/") {
					return filepath.SkipDir
				}
				return nil
			}
			if rules.MatchesPath(rel) {
				return nil
			}
			files = append(files, types.FileRef{Path: filepath.Join(root, rel)})
			if len(files) >= maxWorkspaceFiles {
				return filepath.SkipAll
			}
			return nil
		})
		if len(files) >= maxWorkspaceFiles {
			break
		}
	}
	return files
}
