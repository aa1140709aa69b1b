package jobs

import (
	"log/slog"
	"strings"

	"github.com/sevigo/review-keeper/internal/core"
)

// FilterDiffs drops diffs excluded by the repository's own configuration:
// whole directories by name or files by extension. Input order is preserved,
// since the planner's output order depends on it.
func FilterDiffs(cfg *core.RepoConfig, diffs []core.FileDiff, logger *slog.Logger) []core.FileDiff {
	if cfg == nil || (len(cfg.ExcludeDirs) == 0 && len(cfg.ExcludeExts) == 0) {
		return diffs
	}

	kept := make([]core.FileDiff, 0, len(diffs))
	for _, diff := range diffs {
		if excludedDir(diff.Path, cfg.ExcludeDirs) {
			logger.Debug("skipping diff in excluded directory", "file", diff.Path)
			continue
		}
		if excludedExt(diff.Path, cfg.ExcludeExts) {
			logger.Debug("skipping diff with excluded extension", "file", diff.Path)
			continue
		}
		kept = append(kept, diff)
	}
	return kept
}

// excludedDir reports whether any path segment matches an excluded
// directory name.
func excludedDir(path string, dirs []string) bool {
	if len(dirs) == 0 {
		return false
	}
	segments := strings.Split(path, "/")
	if len(segments) < 2 {
		return false // bare filename, no directory to match
	}
	for _, segment := range segments[:len(segments)-1] {
		for _, dir := range dirs {
			if segment == dir {
				return true
			}
		}
	}
	return false
}

// excludedExt reports whether the file's extension is excluded. The leading
// dot in the configured extension is optional.
func excludedExt(path string, exts []string) bool {
	for _, ext := range exts {
		normalized := ext
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if strings.HasSuffix(path, normalized) {
			return true
		}
	}
	return false
}
