package core

import (
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validIssueCommentEvent() *github.IssueCommentEvent {
	return &github.IssueCommentEvent{
		Issue: &github.Issue{
			Number:           github.Ptr(42),
			Title:            github.Ptr("Add caching"),
			Body:             github.Ptr("Adds a cache layer."),
			PullRequestLinks: &github.PullRequestLinks{URL: github.Ptr("https://api.github.com/repos/acme/svc/pulls/42")},
		},
		Comment: &github.IssueComment{
			Body: github.Ptr("/review"),
			User: &github.User{Login: github.Ptr("alice")},
		},
		Repo: &github.Repository{
			Owner:    &github.User{Login: github.Ptr("acme")},
			Name:     github.Ptr("svc"),
			FullName: github.Ptr("acme/svc"),
			CloneURL: github.Ptr("https://github.com/acme/svc.git"),
			Language: github.Ptr("Go"),
		},
		Installation: &github.Installation{ID: github.Ptr(int64(123))},
	}
}

func TestEventFromIssueComment(t *testing.T) {
	t.Run("valid review command", func(t *testing.T) {
		event, err := EventFromIssueComment(validIssueCommentEvent())
		require.NoError(t, err)

		assert.Equal(t, "acme", event.RepoOwner)
		assert.Equal(t, "svc", event.RepoName)
		assert.Equal(t, "acme/svc", event.RepoFullName)
		assert.Equal(t, 42, event.PRNumber)
		assert.Equal(t, "alice", event.Sender)
		assert.Equal(t, int64(123), event.InstallationID)
	})

	t.Run("command matching is case-insensitive and trims whitespace", func(t *testing.T) {
		raw := validIssueCommentEvent()
		raw.Comment.Body = github.Ptr("  /Review ")
		_, err := EventFromIssueComment(raw)
		assert.NoError(t, err)
	})

	t.Run("rejections", func(t *testing.T) {
		testCases := []struct {
			name   string
			mutate func(*github.IssueCommentEvent)
		}{
			{"not a pull request", func(e *github.IssueCommentEvent) { e.Issue.PullRequestLinks = nil }},
			{"not a review command", func(e *github.IssueCommentEvent) { e.Comment.Body = github.Ptr("nice work!") }},
			{"missing repository owner", func(e *github.IssueCommentEvent) { e.Repo.Owner = nil }},
			{"missing commenter", func(e *github.IssueCommentEvent) { e.Comment.User = nil }},
			{"missing installation", func(e *github.IssueCommentEvent) { e.Installation = nil }},
			{"invalid PR number", func(e *github.IssueCommentEvent) { e.Issue.Number = github.Ptr(0) }},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				raw := validIssueCommentEvent()
				tc.mutate(raw)
				_, err := EventFromIssueComment(raw)
				assert.Error(t, err)
			})
		}
	})
}

func validPullRequestEvent(action string) *github.PullRequestEvent {
	return &github.PullRequestEvent{
		Action: github.Ptr(action),
		PullRequest: &github.PullRequest{
			Number: github.Ptr(42),
			Title:  github.Ptr("Add caching"),
			Body:   github.Ptr("Adds a cache layer."),
			Draft:  github.Ptr(false),
			Head:   &github.PullRequestBranch{SHA: github.Ptr("abc1234")},
		},
		Repo: &github.Repository{
			Owner:    &github.User{Login: github.Ptr("acme")},
			Name:     github.Ptr("svc"),
			FullName: github.Ptr("acme/svc"),
			CloneURL: github.Ptr("https://github.com/acme/svc.git"),
			Language: github.Ptr("Go"),
		},
		Installation: &github.Installation{ID: github.Ptr(int64(123))},
		Sender:       &github.User{Login: github.Ptr("alice")},
	}
}

func TestEventFromPullRequest(t *testing.T) {
	for _, action := range []string{"opened", "synchronize", "reopened"} {
		t.Run(action+" triggers a run", func(t *testing.T) {
			event, err := EventFromPullRequest(validPullRequestEvent(action))
			require.NoError(t, err)
			assert.Equal(t, 42, event.PRNumber)
			assert.Equal(t, "abc1234", event.HeadSHA)
		})
	}

	t.Run("other actions are ignored", func(t *testing.T) {
		for _, action := range []string{"closed", "labeled", "edited"} {
			_, err := EventFromPullRequest(validPullRequestEvent(action))
			assert.Error(t, err, action)
		}
	})

	t.Run("draft pull requests are skipped", func(t *testing.T) {
		raw := validPullRequestEvent("opened")
		raw.PullRequest.Draft = github.Ptr(true)
		_, err := EventFromPullRequest(raw)
		assert.Error(t, err)
	})
}

func TestReviewEventKey(t *testing.T) {
	e := &ReviewEvent{RepoFullName: "acme/svc", PRNumber: 42}
	assert.Equal(t, "acme/svc#42", e.Key())
}
