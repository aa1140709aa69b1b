package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/review-keeper/internal/core"
)

func diffsFor(paths ...string) []core.FileDiff {
	out := make([]core.FileDiff, len(paths))
	for i, p := range paths {
		out[i] = core.FileDiff{Path: p}
	}
	return out
}

func paths(diffs []core.FileDiff) []string {
	out := make([]string, len(diffs))
	for i, d := range diffs {
		out[i] = d.Path
	}
	return out
}

func TestFilterDiffs(t *testing.T) {
	testCases := []struct {
		name string
		cfg  *core.RepoConfig
		in   []string
		want []string
	}{
		{
			name: "nil config keeps everything",
			cfg:  nil,
			in:   []string{"a.go", "vendor/x.go"},
			want: []string{"a.go", "vendor/x.go"},
		},
		{
			name: "empty config keeps everything",
			cfg:  &core.RepoConfig{},
			in:   []string{"a.go", "b.md"},
			want: []string{"a.go", "b.md"},
		},
		{
			name: "excluded directory drops any depth",
			cfg:  &core.RepoConfig{ExcludeDirs: []string{"vendor", "testdata"}},
			in:   []string{"a.go", "vendor/x.go", "pkg/vendor/y.go", "pkg/testdata/z.txt"},
			want: []string{"a.go"},
		},
		{
			name: "directory name does not match a file name",
			cfg:  &core.RepoConfig{ExcludeDirs: []string{"vendor"}},
			in:   []string{"vendor", "docs/vendor"},
			want: []string{"vendor", "docs/vendor"},
		},
		{
			name: "excluded extensions with and without dot",
			cfg:  &core.RepoConfig{ExcludeExts: []string{".md", "lock"}},
			in:   []string{"README.md", "go.sum", "yarn.lock", "main.go"},
			want: []string{"go.sum", "main.go"},
		},
		{
			name: "order is preserved",
			cfg:  &core.RepoConfig{ExcludeExts: []string{".md"}},
			in:   []string{"c.go", "a.md", "b.go", "a.go"},
			want: []string{"c.go", "b.go", "a.go"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterDiffs(tc.cfg, diffsFor(tc.in...), discardLogger())
			assert.Equal(t, tc.want, paths(got))
		})
	}
}
