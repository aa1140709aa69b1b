package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/review-keeper/internal/core"
	"github.com/sevigo/review-keeper/internal/github"
	"github.com/sevigo/review-keeper/internal/gitutil"
	"github.com/sevigo/review-keeper/internal/logger"
	"github.com/sevigo/review-keeper/internal/reconcile"
	"github.com/sevigo/review-keeper/internal/retry"
)

var findingsJSON bool

var findingsCmd = &cobra.Command{
	Use:   "findings [pr-url]",
	Short: "List the review threads currently on a GitHub Pull Request",
	Long: `List the review threads currently on a GitHub Pull Request.

Shows every bot-owned thread with its status and fingerprint, plus the state
snapshot recorded by the last run. Human threads are not listed; the engine
never touches them.`,
	Args: cobra.ExactArgs(1),
	RunE: runFindings,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	findingsCmd.Flags().BoolVar(&findingsJSON, "json", false, "Output findings as JSON")
	rootCmd.AddCommand(findingsCmd)
}

func runFindings(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	owner, repoName, prNumber, err := gitutil.ParsePullRequestURL(args[0])
	if err != nil {
		return fmt.Errorf("invalid PR URL: %w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
	}

	token := viper.GetString("GITHUB_TOKEN")
	if token == "" {
		return fmt.Errorf("GITHUB_TOKEN is not set\n\nTip: Set RK_GITHUB_TOKEN or pass --github-token")
	}

	log := logger.NewLogger(logger.Config{Level: "warn", Format: "text", Output: "stderr"}, os.Stderr)
	ghClient := github.NewPATClient(ctx, token, log)
	threadStore := github.NewThreadStore(ghClient, retry.DefaultPolicy(), log)

	event := &core.ReviewEvent{
		RepoOwner:    owner,
		RepoName:     repoName,
		RepoFullName: fmt.Sprintf("%s/%s", owner, repoName),
		PRNumber:     prNumber,
	}

	threads, err := threadStore.ListThreads(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to list threads: %w", err)
	}

	var findings []core.Thread
	var snapshot *core.StateSnapshot
	for i := range threads {
		t := threads[i]
		if !t.Meta.IsBot {
			continue
		}
		if t.Meta.IsStateThread {
			if snap, err := reconcile.ParseSnapshot(&t); err == nil {
				snapshot = snap
			}
			continue
		}
		findings = append(findings, t)
	}

	if findingsJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			Threads  []core.Thread       `json:"threads"`
			Snapshot *core.StateSnapshot `json:"snapshot,omitempty"`
		}{findings, snapshot})
	}

	titleColor.Printf("📋 Findings for %s#%d\n\n", event.RepoFullName, prNumber)
	if len(findings) == 0 {
		successColor.Println("✅ No bot-owned threads on this pull request.")
	}
	for _, t := range findings {
		printStatusBadge(t.Status)
		boldColor.Printf(" %s\n", shortFingerprint(t.Meta.Fingerprint))
		dimColor.Printf("   iteration %d, %d comment(s)\n", t.Meta.IterationID, len(t.Comments))
		if len(t.Comments) > 0 {
			infoColor.Printf("   %s\n", firstLine(t.Comments[0].Body))
		}
		fmt.Println()
	}

	if snapshot != nil {
		dimColor.Println(strings.Repeat("─", 40))
		dimColor.Printf("Snapshot: %d open fingerprint(s) at iteration %d (%s)\n",
			len(snapshot.Fingerprints), snapshot.Iteration, snapshot.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func printStatusBadge(status core.ThreadStatus) {
	switch status {
	case core.StatusActive:
		color.New(color.BgRed, color.FgWhite, color.Bold).Printf(" %s ", status)
	case core.StatusFixed:
		color.New(color.BgGreen, color.FgWhite).Printf(" %s ", status)
	case core.StatusClosed:
		color.New(color.BgHiBlack, color.FgWhite).Printf(" %s ", status)
	default:
		color.New(color.BgYellow, color.FgBlack).Printf(" %s ", status)
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func firstLine(body string) string {
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[:i]
	}
	if len(body) > 100 {
		body = body[:100] + "…"
	}
	return body
}
