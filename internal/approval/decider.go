// Package approval converts a review plan's aggregate counts into a single
// reviewer vote and reconciles it against the vote already recorded on the
// change request.
package approval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/review-keeper/internal/core"
)

// Decider computes and applies the engine's approve/hold vote.
type Decider struct {
	votes  core.VoteStore
	logger *slog.Logger
}

// NewDecider creates a Decider over the given vote store.
func NewDecider(votes core.VoteStore, logger *slog.Logger) *Decider {
	if votes == nil {
		panic("vote store cannot be nil")
	}
	return &Decider{votes: votes, logger: logger}
}

// Desired returns the vote the plan calls for: approve when there are no
// errors and warnings stay within budget, hold otherwise. Hold signals
// "wait for author", not rejection.
func Desired(plan *core.ReviewPlan) core.Vote {
	if plan.ShouldApprove() {
		return core.VoteApprove
	}
	return core.VoteHold
}

// Apply reconciles the desired vote with the current reviewer entry. A
// matching entry produces no mutation, so repeated runs on unchanged state
// are free of side effects.
func (d *Decider) Apply(ctx context.Context, event *core.ReviewEvent, plan *core.ReviewPlan) (core.Vote, error) {
	desired := Desired(plan)

	entry, err := d.votes.GetReviewerEntry(ctx, event)
	if err != nil {
		return desired, fmt.Errorf("failed to read current vote: %w", err)
	}

	switch {
	case entry == nil:
		if err := d.votes.CreateReviewerEntry(ctx, event, desired); err != nil {
			return desired, fmt.Errorf("failed to create reviewer entry: %w", err)
		}
		d.logger.Info("vote recorded", "repo", event.RepoFullName, "pr", event.PRNumber, "vote", desired)

	case entry.Vote != desired:
		if err := d.votes.UpdateReviewerVote(ctx, event, entry.ID, desired); err != nil {
			return desired, fmt.Errorf("failed to update reviewer vote: %w", err)
		}
		d.logger.Info("vote updated", "repo", event.RepoFullName, "pr", event.PRNumber, "from", entry.Vote, "to", desired)

	default:
		d.logger.Debug("vote already current", "repo", event.RepoFullName, "pr", event.PRNumber, "vote", desired)
	}

	return desired, nil
}
