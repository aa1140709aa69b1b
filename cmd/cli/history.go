package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/review-keeper/internal/gitutil"
	"github.com/sevigo/review-keeper/internal/wire"
)

var (
	historyJSON  bool
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history [pr-url]",
	Short: "Show recent review runs recorded for a GitHub Pull Request",
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		owner, repoName, prNumber, err := gitutil.ParsePullRequestURL(args[0])
		if err != nil {
			return fmt.Errorf("invalid PR URL: %w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
		}

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		repoFullName := fmt.Sprintf("%s/%s", owner, repoName)
		runs, err := app.Store.ListRecentRuns(ctx, repoFullName, prNumber, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to retrieve runs: %w", err)
		}

		if historyJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(runs)
		}

		if len(runs) == 0 {
			fmt.Printf("No recorded runs for %s#%d.\n", repoFullName, prNumber)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ITERATION\tHEAD SHA\tISSUES\tERRORS\tWARNINGS\tVOTE\tCREATED\tRESOLVED\tWHEN")
		for _, run := range runs {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\t%d\t%d\t%s\n",
				run.Iteration,
				truncateSHA(run.HeadSHA),
				run.IssueCount,
				run.ErrorCount,
				run.WarningCount,
				run.Vote,
				run.Created,
				run.Resolved,
				run.CreatedAt.Format(time.RFC822),
			)
		}
		return w.Flush()
	},
	Args: cobra.ExactArgs(1),
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output runs as JSON")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}
