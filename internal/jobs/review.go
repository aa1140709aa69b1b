package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/goframe/llms"

	"github.com/sevigo/review-keeper/internal/approval"
	"github.com/sevigo/review-keeper/internal/config"
	"github.com/sevigo/review-keeper/internal/core"
	gh "github.com/sevigo/review-keeper/internal/github"
	"github.com/sevigo/review-keeper/internal/gitutil"
	"github.com/sevigo/review-keeper/internal/llm"
	"github.com/sevigo/review-keeper/internal/planner"
	"github.com/sevigo/review-keeper/internal/reconcile"
	"github.com/sevigo/review-keeper/internal/retry"
	"github.com/sevigo/review-keeper/internal/storage"
)

const (
	cloneTimeout    = 2 * time.Minute
	maxContextBytes = 64 * 1024
)

// ClientFunc produces an authenticated platform client for an event. The
// server authenticates as an App installation; the CLI substitutes a
// PAT-authenticated client.
type ClientFunc func(ctx context.Context, event *core.ReviewEvent) (gh.Client, string, error)

// ReviewJob is a background job that runs one full review pass: plan issues
// with the model, reconcile them into threads, apply the vote, and record
// the run.
type ReviewJob struct {
	cfg       *config.Config
	model     llms.Model
	prompts   *llm.PromptManager
	store     storage.Store
	cloner    *gitutil.Cloner
	logger    *slog.Logger
	newClient ClientFunc
}

// NewReviewJob creates a new ReviewJob.
func NewReviewJob(cfg *config.Config, model llms.Model, prompts *llm.PromptManager, store storage.Store, logger *slog.Logger) core.Job {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if model == nil {
		panic("model cannot be nil")
	}
	if prompts == nil {
		panic("prompt manager cannot be nil")
	}
	j := &ReviewJob{
		cfg:     cfg,
		model:   model,
		prompts: prompts,
		store:   store,
		cloner:  gitutil.NewCloner(logger),
		logger:  logger,
	}
	j.newClient = func(ctx context.Context, event *core.ReviewEvent) (gh.Client, string, error) {
		return gh.CreateInstallationClient(ctx, cfg, event.InstallationID, logger)
	}
	return j
}

// NewReviewJobWithClient creates a ReviewJob that uses the given client
// factory instead of App-installation authentication.
func NewReviewJobWithClient(cfg *config.Config, model llms.Model, prompts *llm.PromptManager, store storage.Store, logger *slog.Logger, newClient ClientFunc) core.Job {
	job := NewReviewJob(cfg, model, prompts, store, logger).(*ReviewJob)
	job.newClient = newClient
	return job
}

// Run executes the review job for a given event.
func (j *ReviewJob) Run(ctx context.Context, event *core.ReviewEvent) error {
	if err := j.validateInputs(ctx, event); err != nil {
		j.logger.Error("input validation failed", "error", err)
		return fmt.Errorf("input validation failed: %w", err)
	}

	j.logger.Info("starting review job", "repo", event.RepoFullName, "pr", event.PRNumber)

	client, token, err := j.newClient(ctx, event)
	if err != nil {
		j.logger.Error("failed to create platform client", "error", err)
		return fmt.Errorf("failed to create platform client: %w", err)
	}

	pr, err := client.GetPullRequest(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to get PR details: %w", err)
	}
	if pr.GetHead().GetSHA() == "" {
		return fmt.Errorf("PR %d has no valid head SHA", event.PRNumber)
	}
	event.HeadSHA = pr.GetHead().GetSHA()
	if event.PRTitle == "" {
		event.PRTitle = pr.GetTitle()
		event.PRBody = pr.GetBody()
	}

	statusUpdater := gh.NewStatusUpdater(client)
	checkRunID, err := statusUpdater.InProgress(ctx, event, "Review", "Automated review in progress...")
	if err != nil {
		j.logger.Error("failed to set in-progress status", "error", err)
		return fmt.Errorf("failed to set in-progress status: %w", err)
	}

	plan, vote, report, err := j.review(ctx, event, client, token)
	if err != nil {
		j.updateStatusOnError(ctx, statusUpdater, event, checkRunID, err.Error())
		return err
	}

	conclusion := "neutral"
	if vote == core.VoteApprove {
		conclusion = "success"
	}
	if err := statusUpdater.Completed(ctx, event, checkRunID, conclusion, "Review Complete", gh.RunSummary(plan, vote)); err != nil {
		j.logger.Error("failed to update completion status", "error", err)
		return fmt.Errorf("failed to update completion status: %w", err)
	}

	j.logger.Info("review job completed",
		"repo", event.RepoFullName,
		"pr", event.PRNumber,
		"iteration", event.Iteration,
		"issues", len(plan.Issues),
		"vote", vote,
		"threads_created", report.Created,
		"threads_resolved", report.Resolved,
	)
	return nil
}

// review runs the plan/reconcile/vote pipeline. Partial failures inside the
// pipeline degrade (logged, skipped); only missing inputs abort the run.
func (j *ReviewJob) review(ctx context.Context, event *core.ReviewEvent, client gh.Client, token string) (*core.ReviewPlan, core.Vote, *reconcile.Report, error) {
	diffSource := gh.NewDiffSource(client, retry.DefaultPolicy(), j.logger)

	iteration, commitMessages, err := diffSource.ResolveIteration(ctx, event)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to resolve iteration: %w", err)
	}
	event.Iteration = iteration

	diffs, err := diffSource.GetDiffs(ctx, event, iteration)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to get diffs: %w", err)
	}

	repoCfg := j.attachContext(ctx, event, token, diffs)
	diffs = FilterDiffs(repoCfg, diffs, j.logger)

	validLines := make(map[string]map[int]struct{}, len(diffs))
	for _, diff := range diffs {
		validLines[diff.Path] = gh.ParseValidLinesFromPatch(diff.DiffText, j.logger)
	}

	limits := planner.Limits{
		MaxFilesToReview: j.cfg.Review.MaxFilesToReview,
		MaxIssuesPerFile: j.cfg.Review.MaxIssuesPerFile,
		MaxDiffBytes:     j.cfg.Review.MaxDiffBytes,
		WarnBudget:       j.cfg.Review.WarnBudget,
		Concurrency:      j.cfg.Review.MaxWorkers,
	}
	if repoCfg != nil {
		if repoCfg.WarnBudget != nil && *repoCfg.WarnBudget >= 0 {
			limits.WarnBudget = *repoCfg.WarnBudget
		}
		if repoCfg.MaxIssuesPerFile > 0 && repoCfg.MaxIssuesPerFile < limits.MaxIssuesPerFile {
			limits.MaxIssuesPerFile = repoCfg.MaxIssuesPerFile
		}
	}

	reviewer := llm.NewReviewer(j.model, j.prompts, j.cfg.AI.Provider, j.logger)
	reviewer.MaxIssuesHint = limits.MaxIssuesPerFile
	if repoCfg != nil {
		reviewer.CustomInstructions = repoCfg.CustomInstructions
	}

	meta := core.ChangeMeta{
		Title:          event.PRTitle,
		Description:    event.PRBody,
		CommitMessages: commitMessages,
	}

	plan, err := planner.New(reviewer, limits, j.logger).
		Plan(ctx, j.cfg.AI.Policy, event.Language, diffs, meta, iteration, validLines)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to plan review: %w", err)
	}

	threadStore := gh.NewThreadStore(client, retry.DefaultPolicy(), j.logger)
	report, err := reconcile.NewEngine(threadStore, j.logger).
		Reconcile(ctx, event, plan.Issues, iteration)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to reconcile threads: %w", err)
	}

	voteStore := gh.NewVoteStore(client, j.cfg.GitHub.BotLogin, retry.DefaultPolicy(), j.logger)
	vote, err := approval.NewDecider(voteStore, j.logger).Apply(ctx, event, plan)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to apply vote: %w", err)
	}

	j.saveRun(ctx, event, plan, vote, report)
	return plan, vote, report, nil
}

// attachContext clones the repository at the head SHA to load per-repo
// configuration and full file content for the prompts. Clone trouble is not
// fatal: the review proceeds on diffs alone.
func (j *ReviewJob) attachContext(ctx context.Context, event *core.ReviewEvent, token string, diffs []core.FileDiff) *core.RepoConfig {
	cloneCtx, cancel := context.WithTimeout(ctx, cloneTimeout)
	defer cancel()

	checkout, cleanup, err := j.cloner.Clone(cloneCtx, event.RepoCloneURL, event.HeadSHA, token)
	if err != nil {
		j.logger.Warn("clone failed, reviewing without file context",
			"url", gitutil.RedactURL(event.RepoCloneURL), "error", err)
		return core.DefaultRepoConfig()
	}
	defer cleanup()

	repoCfg, err := config.LoadRepoConfig(checkout.Path)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		j.logger.Warn("ignoring malformed repository config", "error", err)
		repoCfg = core.DefaultRepoConfig()
	}

	for i := range diffs {
		content, err := checkout.FileContent(diffs[i].Path, maxContextBytes)
		if err != nil {
			j.logger.Warn("failed to read file context", "file", diffs[i].Path, "error", err)
			continue
		}
		diffs[i].Content = content
	}
	return repoCfg
}

// saveRun records the finished run; persistence trouble never fails the run.
func (j *ReviewJob) saveRun(ctx context.Context, event *core.ReviewEvent, plan *core.ReviewPlan, vote core.Vote, report *reconcile.Report) {
	if j.store == nil {
		return
	}
	run := &core.Run{
		RepoFullName: event.RepoFullName,
		PRNumber:     event.PRNumber,
		Iteration:    event.Iteration,
		HeadSHA:      event.HeadSHA,
		IssueCount:   len(plan.Issues),
		ErrorCount:   plan.ErrorCount,
		WarningCount: plan.WarningCount,
		Vote:         vote,
		Created:      report.Created,
		Resolved:     report.Resolved,
	}
	if err := j.store.SaveRun(ctx, run); err != nil {
		j.logger.Error("failed to persist run record", "error", err)
	}
}

// validateInputs ensures the event contains all required fields.
func (j *ReviewJob) validateInputs(ctx context.Context, event *core.ReviewEvent) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.RepoOwner == "" {
		return fmt.Errorf("repository owner cannot be empty")
	}
	if event.RepoName == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if event.RepoFullName == "" {
		return fmt.Errorf("repository full name cannot be empty")
	}
	if event.PRNumber <= 0 {
		return fmt.Errorf("pull request number must be positive, got: %d", event.PRNumber)
	}
	return nil
}

// updateStatusOnError sends a failure status to GitHub Check Runs.
func (j *ReviewJob) updateStatusOnError(ctx context.Context, statusUpdater gh.StatusUpdater, event *core.ReviewEvent, checkRunID int64, message string) {
	if err := statusUpdater.Completed(ctx, event, checkRunID, "failure", "Review Failed", message); err != nil {
		j.logger.Error("failed to update failure status", "error", err)
	}
}
