package github

import (
	"context"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/review-keeper/internal/core"
	"github.com/sevigo/review-keeper/internal/retry"
)

// stubClient satisfies Client with canned review data; everything else is
// unused by the vote store.
type stubClient struct {
	Client
	reviews   []*github.PullRequestReview
	submitted []string
}

func (c *stubClient) ListReviews(context.Context, string, string, int) ([]*github.PullRequestReview, error) {
	return c.reviews, nil
}

func (c *stubClient) CreateReview(_ context.Context, _, _ string, _ int, _, event string) (*github.PullRequestReview, error) {
	c.submitted = append(c.submitted, event)
	return &github.PullRequestReview{ID: github.Ptr(int64(1))}, nil
}

func review(id int64, login, state string) *github.PullRequestReview {
	return &github.PullRequestReview{
		ID:    github.Ptr(id),
		State: github.Ptr(state),
		User:  &github.User{Login: github.Ptr(login)},
	}
}

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 1, BaseDelay: 1, MaxDelay: 1, Multiplier: 1}
}

func TestGetReviewerEntry(t *testing.T) {
	testCases := []struct {
		name    string
		reviews []*github.PullRequestReview
		want    *core.VoteEntry
	}{
		{
			name: "no reviews",
			want: nil,
		},
		{
			name:    "only human reviews",
			reviews: []*github.PullRequestReview{review(1, "alice", "APPROVED")},
			want:    nil,
		},
		{
			name:    "bot approval",
			reviews: []*github.PullRequestReview{review(2, "keeper[bot]", "APPROVED")},
			want:    &core.VoteEntry{ID: 2, Vote: core.VoteApprove},
		},
		{
			name:    "bot hold",
			reviews: []*github.PullRequestReview{review(3, "keeper[bot]", "CHANGES_REQUESTED")},
			want:    &core.VoteEntry{ID: 3, Vote: core.VoteHold},
		},
		{
			name: "latest bot review wins",
			reviews: []*github.PullRequestReview{
				review(4, "keeper[bot]", "CHANGES_REQUESTED"),
				review(5, "alice", "APPROVED"),
				review(6, "keeper[bot]", "APPROVED"),
			},
			want: &core.VoteEntry{ID: 6, Vote: core.VoteApprove},
		},
		{
			name:    "commented reviews carry no vote",
			reviews: []*github.PullRequestReview{review(7, "keeper[bot]", "COMMENTED")},
			want:    nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewVoteStore(&stubClient{reviews: tc.reviews}, "keeper[bot]", fastRetry(), discardLogger())
			entry, err := store.GetReviewerEntry(context.Background(), &core.ReviewEvent{RepoOwner: "acme", RepoName: "svc", PRNumber: 1})
			require.NoError(t, err)
			assert.Equal(t, tc.want, entry)
		})
	}
}

func TestSubmitVoteMapsToReviewEvents(t *testing.T) {
	client := &stubClient{}
	store := NewVoteStore(client, "keeper[bot]", fastRetry(), discardLogger())
	event := &core.ReviewEvent{RepoOwner: "acme", RepoName: "svc", PRNumber: 1}

	require.NoError(t, store.CreateReviewerEntry(context.Background(), event, core.VoteApprove))
	require.NoError(t, store.UpdateReviewerVote(context.Background(), event, 1, core.VoteHold))

	assert.Equal(t, []string{"APPROVE", "REQUEST_CHANGES"}, client.submitted)
}
