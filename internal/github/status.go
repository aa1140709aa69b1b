package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/review-keeper/internal/core"
)

// StatusUpdater reports review-run progress through GitHub Check Runs.
type StatusUpdater interface {
	InProgress(ctx context.Context, event *core.ReviewEvent, title, summary string) (int64, error)
	Completed(ctx context.Context, event *core.ReviewEvent, checkRunID int64, conclusion, title, summary string) error
}

type statusUpdater struct {
	client Client
}

// NewStatusUpdater creates and returns a new instance of a statusUpdater.
func NewStatusUpdater(client Client) StatusUpdater {
	return &statusUpdater{client: client}
}

// InProgress creates a new GitHub Check Run with an "in_progress" status.
func (s *statusUpdater) InProgress(ctx context.Context, event *core.ReviewEvent, title, summary string) (int64, error) {
	opts := github.CreateCheckRunOptions{
		Name:    "Review Keeper",
		HeadSHA: event.HeadSHA,
		Status:  github.Ptr("in_progress"),
		Output: &github.CheckRunOutput{
			Title:   &title,
			Summary: &summary,
		},
	}
	checkRun, err := s.client.CreateCheckRun(ctx, event.RepoOwner, event.RepoName, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to create check run: %w", err)
	}
	return checkRun.GetID(), nil
}

// Completed updates an existing GitHub Check Run to a "completed" status.
func (s *statusUpdater) Completed(ctx context.Context, event *core.ReviewEvent, checkRunID int64, conclusion, title, summary string) error {
	now := time.Now()
	opts := github.UpdateCheckRunOptions{
		Status:      github.Ptr("completed"),
		Conclusion:  &conclusion,
		CompletedAt: &github.Timestamp{Time: now},
		Output: &github.CheckRunOutput{
			Title:   &title,
			Summary: &summary,
		},
	}
	_, err := s.client.UpdateCheckRun(ctx, event.RepoOwner, event.RepoName, checkRunID, opts)
	return err
}

// RunSummary renders the check-run summary for a finished review.
func RunSummary(plan *core.ReviewPlan, vote core.Vote) string {
	return fmt.Sprintf("%d issue(s): %d error(s), %d warning(s) (budget %d). Vote: %s.",
		len(plan.Issues), plan.ErrorCount, plan.WarningCount, plan.WarnBudget, vote)
}
