package core

// RepoConfig represents the structure of the .review-keeper.yml file that a
// repository may carry to tune its own reviews.
type RepoConfig struct {
	// Custom review policy instructions appended to the LLM prompt.
	CustomInstructions []string `yaml:"custom_instructions"`

	// High-performance exclusion of entire directories by name.
	// Example: ["dist", "build", "docs"]
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// Exclusion of files based on their extension.
	// The leading dot is optional. Example: [".md", "lock", ".log"]
	ExcludeExts []string `yaml:"exclude_exts"`

	// WarnBudget overrides the global warning budget when >= 0.
	WarnBudget *int `yaml:"warn_budget,omitempty"`

	// MaxIssuesPerFile overrides the global per-file issue cap when > 0.
	MaxIssuesPerFile int `yaml:"max_issues_per_file,omitempty"`
}

// DefaultRepoConfig returns a config with default values.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		CustomInstructions: []string{},
		ExcludeDirs:        []string{},
		ExcludeExts:        []string{},
	}
}
