package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/review-keeper/internal/core"
	"github.com/sevigo/review-keeper/internal/retry"
)

// DiffSource implements core.DiffSource against the GitHub API. The blob SHA
// of each changed file serves as its content hash: unchanged content keeps
// its hash across pushes, so issue fingerprints stay stable.
type DiffSource struct {
	client Client
	policy retry.Policy
	logger *slog.Logger
}

// NewDiffSource creates a DiffSource backed by the given client.
func NewDiffSource(client Client, policy retry.Policy, logger *slog.Logger) *DiffSource {
	return &DiffSource{client: client, policy: policy, logger: logger}
}

// GetDiffs returns one FileDiff per changed file of the pull request.
// Removed files carry no reviewable content and are skipped.
func (s *DiffSource) GetDiffs(ctx context.Context, event *core.ReviewEvent, _ int) ([]core.FileDiff, error) {
	var files []ChangedFile
	err := s.policy.Do(ctx, s.logger, "list changed files", func() error {
		var listErr error
		files, listErr = s.client.GetChangedFiles(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
		return listErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list changed files: %w", err)
	}

	diffs := make([]core.FileDiff, 0, len(files))
	for _, file := range files {
		if file.Status == "removed" {
			continue
		}
		diffs = append(diffs, core.FileDiff{
			Path:        file.Filename,
			DiffText:    file.Patch,
			ContentHash: file.ContentHash,
		})
	}
	return diffs, nil
}

// ResolveIteration determines the change request's current iteration number
// and collects its commit messages. The iteration advances with every pushed
// commit, so the head-commit count serves as the revision counter.
func (s *DiffSource) ResolveIteration(ctx context.Context, event *core.ReviewEvent) (int, []string, error) {
	var messages []string
	var count int
	err := s.policy.Do(ctx, s.logger, "list commits", func() error {
		commits, listErr := s.client.ListCommits(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
		if listErr != nil {
			return listErr
		}
		count = len(commits)
		messages = messages[:0]
		for _, c := range commits {
			messages = append(messages, c.GetCommit().GetMessage())
		}
		return nil
	})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to resolve iteration: %w", err)
	}
	if count == 0 {
		return 0, nil, fmt.Errorf("pull request has no commits")
	}
	return count, messages, nil
}
