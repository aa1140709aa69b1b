package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/review-keeper/internal/core"
	"github.com/sevigo/review-keeper/internal/github"
	"github.com/sevigo/review-keeper/internal/gitutil"
	"github.com/sevigo/review-keeper/internal/jobs"
	"github.com/sevigo/review-keeper/internal/wire"
)

var verbose bool

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgWhite)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

var reviewCmd = &cobra.Command{
	Use:   "review [pr-url]",
	Short: "Run a full review pass for a GitHub Pull Request",
	Long: `Run a full review pass for a GitHub Pull Request.

The review command fetches the PR diff, asks the model for findings, reconciles
them into the PR's discussion threads, and submits the resulting vote. Running
it twice against an unchanged PR makes no further changes.

Examples:
  keeper-cli review https://github.com/owner/repo/pull/123
  keeper-cli review --verbose https://github.com/owner/repo/pull/123`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with timing information")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	prURL := args[0]
	overallStart := time.Now()

	titleColor.Println("🚀 Review Keeper - PR Review")
	dimColor.Printf("   Target: %s\n\n", prURL)

	owner, repoName, prNumber, err := gitutil.ParsePullRequestURL(prURL)
	if err != nil {
		return fmt.Errorf("invalid PR URL: %w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
	}

	token := viper.GetString("GITHUB_TOKEN")
	if token == "" {
		return fmt.Errorf("GITHUB_TOKEN is not set\n\nTip: Set RK_GITHUB_TOKEN or pass --github-token")
	}

	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w\n\nTip: Check that your .env exists and is valid", err)
	}
	defer cleanup()

	ghClient := github.NewPATClient(ctx, token, appInstance.Logger)

	pr, err := ghClient.GetPullRequest(ctx, owner, repoName, prNumber)
	if err != nil {
		return fmt.Errorf("failed to fetch PR: %w\n\nTip: Check that the PR exists and your token has access", err)
	}

	if verbose {
		dimColor.Printf("   PR #%d: %s\n", pr.GetNumber(), pr.GetTitle())
		dimColor.Printf("   Head SHA: %s\n", truncateSHA(pr.GetHead().GetSHA()))
		dimColor.Printf("   Language: %s\n\n", pr.GetBase().GetRepo().GetLanguage())
	}

	event := &core.ReviewEvent{
		RepoOwner:    owner,
		RepoName:     repoName,
		RepoFullName: fmt.Sprintf("%s/%s", owner, repoName),
		PRNumber:     prNumber,
		PRTitle:      pr.GetTitle(),
		PRBody:       pr.GetBody(),
		RepoCloneURL: pr.GetBase().GetRepo().GetCloneURL(),
		HeadSHA:      pr.GetHead().GetSHA(),
		Language:     pr.GetBase().GetRepo().GetLanguage(),
	}

	job := jobs.NewReviewJobWithClient(
		appInstance.Cfg, appInstance.Model, appInstance.Prompts, appInstance.Store, appInstance.Logger,
		func(context.Context, *core.ReviewEvent) (github.Client, string, error) {
			return ghClient, token, nil
		},
	)

	fmt.Println("Running review...")
	if err := job.Run(ctx, event); err != nil {
		errorColor.Printf("✗ Review failed\n")
		return err
	}

	if verbose {
		dimColor.Printf("\n⏱️  Total time: %s\n", time.Since(overallStart).Round(time.Millisecond))
	}
	successColor.Println("✅ Review complete. See the pull request for threads and vote.")
	return nil
}

func truncateSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
