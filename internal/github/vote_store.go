package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/review-keeper/internal/core"
	"github.com/sevigo/review-keeper/internal/retry"
)

const (
	eventApprove        = "APPROVE"
	eventRequestChanges = "REQUEST_CHANGES"

	stateApproved         = "APPROVED"
	stateChangesRequested = "CHANGES_REQUESTED"
)

// VoteStore implements core.VoteStore on top of pull request reviews. The
// engine's reviewer entry is the latest review submitted by the bot login;
// approve maps to APPROVE and hold to REQUEST_CHANGES.
type VoteStore struct {
	client   Client
	botLogin string
	policy   retry.Policy
	logger   *slog.Logger
}

// NewVoteStore creates a VoteStore for the given bot identity.
func NewVoteStore(client Client, botLogin string, policy retry.Policy, logger *slog.Logger) *VoteStore {
	return &VoteStore{client: client, botLogin: botLogin, policy: policy, logger: logger}
}

// GetReviewerEntry returns the engine's current vote on the pull request, or
// nil when the bot has not voted yet.
func (s *VoteStore) GetReviewerEntry(ctx context.Context, event *core.ReviewEvent) (*core.VoteEntry, error) {
	var entry *core.VoteEntry
	err := s.policy.Do(ctx, s.logger, "get reviewer entry", func() error {
		reviews, listErr := s.client.ListReviews(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
		if listErr != nil {
			return listErr
		}

		entry = nil
		// Reviews arrive oldest first; the last matching one is current.
		for _, review := range reviews {
			if review.GetUser().GetLogin() != s.botLogin {
				continue
			}
			switch review.GetState() {
			case stateApproved:
				entry = &core.VoteEntry{ID: review.GetID(), Vote: core.VoteApprove}
			case stateChangesRequested:
				entry = &core.VoteEntry{ID: review.GetID(), Vote: core.VoteHold}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get reviewer entry: %w", err)
	}
	return entry, nil
}

// CreateReviewerEntry submits the engine's first vote on the pull request.
func (s *VoteStore) CreateReviewerEntry(ctx context.Context, event *core.ReviewEvent, vote core.Vote) error {
	return s.submit(ctx, event, vote)
}

// UpdateReviewerVote replaces the engine's vote. GitHub supersedes a
// reviewer's previous verdict when the same identity submits a new review,
// so the entry ID needs no explicit dismissal.
func (s *VoteStore) UpdateReviewerVote(ctx context.Context, event *core.ReviewEvent, _ int64, vote core.Vote) error {
	return s.submit(ctx, event, vote)
}

func (s *VoteStore) submit(ctx context.Context, event *core.ReviewEvent, vote core.Vote) error {
	ghEvent := eventRequestChanges
	body := "Automated review: issues remain open, holding approval."
	if vote == core.VoteApprove {
		ghEvent = eventApprove
		body = "Automated review: no blocking issues found."
	}

	err := s.policy.Do(ctx, s.logger, "submit vote", func() error {
		_, createErr := s.client.CreateReview(ctx, event.RepoOwner, event.RepoName, event.PRNumber, body, ghEvent)
		return createErr
	})
	if err != nil {
		return fmt.Errorf("failed to submit %s vote: %w", vote, err)
	}
	return nil
}
