// Package github implements the platform transport layer: diff retrieval,
// discussion-thread CRUD and reviewer votes against the GitHub API.
package github

import (
	"context"
	"log/slog"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
)

// ChangedFile holds the filename, patch and new-content blob hash for a
// single file included in a pull request.
type ChangedFile struct {
	Filename    string
	Patch       string
	ContentHash string
	Status      string
}

// Client defines the set of GitHub API operations the engine depends on.
//
//go:generate mockgen -destination=../../mocks/mock_github_client.go -package=mocks . Client
type Client interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	ListCommits(ctx context.Context, owner, repo string, number int) ([]*github.RepositoryCommit, error)
	GetChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error)

	ListComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) (*github.IssueComment, error)
	EditComment(ctx context.Context, owner, repo string, commentID int64, body string) error

	ListReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error)
	CreateReview(ctx context.Context, owner, repo string, number int, body, event string) (*github.PullRequestReview, error)

	CreateCheckRun(ctx context.Context, owner, repo string, opts github.CreateCheckRunOptions) (*github.CheckRun, error)
	UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, opts github.UpdateCheckRunOptions) (*github.CheckRun, error)
}

type gitHubClient struct {
	client *github.Client
	logger *slog.Logger
}

// NewGitHubClient wraps the official go-github client to provide a focused,
// testable interface for application-specific GitHub operations.
func NewGitHubClient(client *github.Client, logger *slog.Logger) Client {
	return &gitHubClient{client: client, logger: logger}
}

// NewPATClient creates a GitHub client authenticated with a Personal Access
// Token. This is the path the CLI uses; the server authenticates as an App
// installation instead.
func NewPATClient(ctx context.Context, token string, logger *slog.Logger) Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &gitHubClient{client: github.NewClient(tc), logger: logger}
}

// GetPullRequest retrieves a single pull request by its number.
func (g *gitHubClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		g.logger.Error("failed to get pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
		return nil, err
	}
	return pr, nil
}

// ListCommits retrieves all commits of a pull request, paging as needed.
func (g *gitHubClient) ListCommits(ctx context.Context, owner, repo string, number int) ([]*github.RepositoryCommit, error) {
	var all []*github.RepositoryCommit
	opts := &github.ListOptions{PerPage: 100}

	for {
		commits, resp, err := g.client.PullRequests.ListCommits(ctx, owner, repo, number, opts)
		if err != nil {
			g.logger.Error("failed to list commits for pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
			return nil, err
		}
		all = append(all, commits...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// GetChangedFiles retrieves the list of files modified in a pull request.
// It handles pagination automatically; GitHub returns at most 100 files per
// page.
func (g *gitHubClient) GetChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error) {
	var allFiles []ChangedFile
	opts := &github.ListOptions{PerPage: 100}

	for {
		files, resp, err := g.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			g.logger.Error("failed to list files for pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
			return nil, err
		}

		for _, file := range files {
			allFiles = append(allFiles, ChangedFile{
				Filename:    file.GetFilename(),
				Patch:       file.GetPatch(),
				ContentHash: file.GetSHA(),
				Status:      file.GetStatus(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allFiles, nil
}

// ListComments retrieves all issue comments on a pull request.
func (g *gitHubClient) ListComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error) {
	var all []*github.IssueComment
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}

	for {
		comments, resp, err := g.client.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			g.logger.Error("failed to list comments", "owner", owner, "repo", repo, "pr", number, "error", err)
			return nil, err
		}
		all = append(all, comments...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// CreateComment creates a new comment on a pull request and returns it with
// the platform-assigned ID.
func (g *gitHubClient) CreateComment(ctx context.Context, owner, repo string, number int, body string) (*github.IssueComment, error) {
	comment, _, err := g.client.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{Body: &body})
	if err != nil {
		g.logger.Error("failed to create comment", "owner", owner, "repo", repo, "pr", number, "error", err)
		return nil, err
	}
	return comment, nil
}

// EditComment replaces the body of an existing comment.
func (g *gitHubClient) EditComment(ctx context.Context, owner, repo string, commentID int64, body string) error {
	_, _, err := g.client.Issues.EditComment(ctx, owner, repo, commentID, &github.IssueComment{Body: &body})
	if err != nil {
		g.logger.Error("failed to edit comment", "owner", owner, "repo", repo, "comment", commentID, "error", err)
	}
	return err
}

// ListReviews retrieves all reviews on a pull request.
func (g *gitHubClient) ListReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error) {
	var all []*github.PullRequestReview
	opts := &github.ListOptions{PerPage: 100}

	for {
		reviews, resp, err := g.client.PullRequests.ListReviews(ctx, owner, repo, number, opts)
		if err != nil {
			g.logger.Error("failed to list reviews", "owner", owner, "repo", repo, "pr", number, "error", err)
			return nil, err
		}
		all = append(all, reviews...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// CreateReview submits a pull request review with the given event
// ("APPROVE" or "REQUEST_CHANGES").
func (g *gitHubClient) CreateReview(ctx context.Context, owner, repo string, number int, body, event string) (*github.PullRequestReview, error) {
	review, _, err := g.client.PullRequests.CreateReview(ctx, owner, repo, number, &github.PullRequestReviewRequest{
		Body:  &body,
		Event: &event,
	})
	if err != nil {
		g.logger.Error("failed to create review", "owner", owner, "repo", repo, "pr", number, "event", event, "error", err)
		return nil, err
	}
	return review, nil
}

// CreateCheckRun creates a new check run.
func (g *gitHubClient) CreateCheckRun(ctx context.Context, owner, repo string, opts github.CreateCheckRunOptions) (*github.CheckRun, error) {
	checkRun, _, err := g.client.Checks.CreateCheckRun(ctx, owner, repo, opts)
	if err != nil {
		g.logger.Error("failed to create check run", "owner", owner, "repo", repo, "error", err)
		return nil, err
	}
	return checkRun, nil
}

// UpdateCheckRun updates an existing check run.
func (g *gitHubClient) UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, opts github.UpdateCheckRunOptions) (*github.CheckRun, error) {
	checkRun, _, err := g.client.Checks.UpdateCheckRun(ctx, owner, repo, checkRunID, opts)
	if err != nil {
		g.logger.Error("failed to update check run", "owner", owner, "repo", repo, "checkRunID", checkRunID, "error", err)
	}
	return checkRun, err
}
