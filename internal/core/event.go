package core

import (
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
)

// ReviewEvent represents a simplified, internal view of a webhook event that
// should trigger a review run.
type ReviewEvent struct {
	// Repository details
	RepoOwner    string
	RepoName     string
	RepoFullName string
	RepoCloneURL string
	Language     string

	PRNumber int
	PRTitle  string
	PRBody   string
	HeadSHA  string

	// Iteration is the change request's revision counter; it advances each
	// time new commits are pushed and is resolved lazily by the review job.
	Iteration int

	Sender         string
	InstallationID int64
}

// Key identifies the change request this event belongs to. The dispatcher
// routes by this key so that all work for one change request is serialized.
func (e *ReviewEvent) Key() string {
	return fmt.Sprintf("%s#%d", e.RepoFullName, e.PRNumber)
}

// EventFromIssueComment transforms a raw GitHub IssueCommentEvent into the
// internal ReviewEvent representation. It acts as an anti-corruption layer:
// the payload is validated before a job ever sees it, and only "/review"
// commands on pull requests pass through.
func EventFromIssueComment(event *github.IssueCommentEvent) (*ReviewEvent, error) {
	if !event.GetIssue().IsPullRequest() {
		return nil, fmt.Errorf("comment is not on a pull request")
	}

	if !strings.EqualFold(strings.TrimSpace(event.GetComment().GetBody()), "/review") {
		return nil, fmt.Errorf("comment is not a review command")
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	prNumber := event.GetIssue().GetNumber()
	if prNumber <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", prNumber)
	}

	if event.GetComment().GetUser().GetLogin() == "" {
		return nil, fmt.Errorf("commenter information is missing from the event")
	}

	if event.GetInstallation().GetID() == 0 {
		return nil, fmt.Errorf("installation ID is missing from the event")
	}

	return &ReviewEvent{
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		RepoCloneURL:   repo.GetCloneURL(),
		Language:       repo.GetLanguage(),
		InstallationID: event.GetInstallation().GetID(),
		PRNumber:       prNumber,
		PRTitle:        event.GetIssue().GetTitle(),
		PRBody:         event.GetIssue().GetBody(),
		Sender:         event.GetComment().GetUser().GetLogin(),
	}, nil
}

// EventFromPullRequest transforms a raw GitHub PullRequestEvent into the
// internal ReviewEvent representation. Only "opened" and "synchronize"
// actions trigger a run; every push of new commits is a new iteration.
func EventFromPullRequest(event *github.PullRequestEvent) (*ReviewEvent, error) {
	switch event.GetAction() {
	case "opened", "synchronize", "reopened":
	default:
		return nil, fmt.Errorf("pull request action %q does not trigger a review", event.GetAction())
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	pr := event.GetPullRequest()
	if pr.GetNumber() <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", pr.GetNumber())
	}
	if pr.GetDraft() {
		return nil, fmt.Errorf("draft pull requests are not reviewed")
	}

	if event.GetInstallation().GetID() == 0 {
		return nil, fmt.Errorf("installation ID is missing from the event")
	}

	return &ReviewEvent{
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		RepoCloneURL:   repo.GetCloneURL(),
		Language:       repo.GetLanguage(),
		InstallationID: event.GetInstallation().GetID(),
		PRNumber:       pr.GetNumber(),
		PRTitle:        pr.GetTitle(),
		PRBody:         pr.GetBody(),
		HeadSHA:        pr.GetHead().GetSHA(),
		Sender:         event.GetSender().GetLogin(),
	}, nil
}
