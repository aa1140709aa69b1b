// Package planner turns a change request's diffs into a complete, budgeted,
// fingerprinted review plan. Per-file reviews run as bounded concurrent
// tasks; results are re-assembled in input order so the plan is reproducible
// for identical inputs.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/review-keeper/internal/core"
	"github.com/sevigo/review-keeper/internal/fingerprint"
)

// Limits bounds the work a single review run may perform.
type Limits struct {
	MaxFilesToReview int
	MaxIssuesPerFile int
	MaxDiffBytes     int
	WarnBudget       int
	Concurrency      int
}

// Planner drives the review model over a set of diffs and assembles the
// fingerprinted issue list.
type Planner struct {
	model  core.ReviewModel
	limits Limits
	logger *slog.Logger
}

// New creates a Planner.
func New(model core.ReviewModel, limits Limits, logger *slog.Logger) *Planner {
	if model == nil {
		panic("review model cannot be nil")
	}
	if limits.MaxIssuesPerFile <= 0 {
		limits.MaxIssuesPerFile = 5
	}
	if limits.Concurrency <= 0 {
		limits.Concurrency = 4
	}
	return &Planner{model: model, limits: limits, logger: logger}
}

// Plan reviews every eligible diff plus the change-request metadata and
// returns the aggregated plan. A failure reviewing one file is logged and
// contributes zero issues; it never aborts the batch.
//
// validLines maps file path to the set of line numbers present on the new
// side of its diff. Issues anchored outside that set degrade to file-level
// findings (line 0). A nil map disables the check.
func (p *Planner) Plan(
	ctx context.Context,
	policy, language string,
	diffs []core.FileDiff,
	meta core.ChangeMeta,
	iteration int,
	validLines map[string]map[int]struct{},
) (*core.ReviewPlan, error) {
	eligible := p.selectDiffs(diffs)

	// One result slot per diff keeps aggregation order identical to input
	// order regardless of task completion order.
	results := make([][]core.Issue, len(eligible))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limits.Concurrency)

	for i, diff := range eligible {
		g.Go(func() error {
			issues, err := p.reviewFile(gctx, policy, language, diff, validLines[diff.Path])
			if err != nil {
				// Partial-failure isolation: this file contributes nothing,
				// siblings keep running.
				p.logger.Error("file review failed", "file", diff.Path, "error", err)
				return nil
			}
			results[i] = issues
			return nil
		})
	}

	metaIssues := p.reviewMetadata(ctx, policy, language, meta, iteration)

	_ = g.Wait() // tasks never return errors

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("review interrupted: %w", err)
	}

	plan := &core.ReviewPlan{WarnBudget: p.limits.WarnBudget}
	for _, issues := range results {
		plan.Issues = append(plan.Issues, issues...)
	}
	plan.Issues = append(plan.Issues, metaIssues...)

	for _, issue := range plan.Issues {
		switch issue.Severity {
		case core.SeverityError:
			plan.ErrorCount++
		case core.SeverityWarn:
			plan.WarningCount++
		}
	}

	p.logger.Info("review plan assembled",
		"files_reviewed", len(eligible),
		"issues", len(plan.Issues),
		"errors", plan.ErrorCount,
		"warnings", plan.WarningCount,
	)
	return plan, nil
}

// selectDiffs applies the size and count budgets, preserving input order.
func (p *Planner) selectDiffs(diffs []core.FileDiff) []core.FileDiff {
	eligible := make([]core.FileDiff, 0, len(diffs))
	for _, diff := range diffs {
		if p.limits.MaxDiffBytes > 0 && len(diff.DiffText) > p.limits.MaxDiffBytes {
			p.logger.Warn("skipping oversized diff",
				"file", diff.Path,
				"bytes", len(diff.DiffText),
				"max_bytes", p.limits.MaxDiffBytes,
			)
			continue
		}
		if p.limits.MaxFilesToReview > 0 && len(eligible) >= p.limits.MaxFilesToReview {
			p.logger.Warn("file budget exhausted, skipping remaining diffs",
				"file", diff.Path,
				"max_files", p.limits.MaxFilesToReview,
			)
			continue
		}
		eligible = append(eligible, diff)
	}
	return eligible
}

// reviewFile runs the model over one diff and normalizes its output.
func (p *Planner) reviewFile(ctx context.Context, policy, language string, diff core.FileDiff, lines map[int]struct{}) ([]core.Issue, error) {
	raw, err := p.model.ReviewFile(ctx, policy, diff, language)
	if err != nil {
		return nil, err
	}

	// Excess issues from a single file are truncated, not redistributed.
	if len(raw) > p.limits.MaxIssuesPerFile {
		p.logger.Warn("truncating issues over per-file budget",
			"file", diff.Path,
			"produced", len(raw),
			"max", p.limits.MaxIssuesPerFile,
		)
		raw = raw[:p.limits.MaxIssuesPerFile]
	}

	issues := make([]core.Issue, 0, len(raw))
	for _, candidate := range raw {
		if strings.TrimSpace(candidate.Title) == "" {
			p.logger.Warn("dropping untitled issue candidate", "file", diff.Path, "id", candidate.ID)
			continue
		}

		line := candidate.Line
		if line < 0 {
			line = 0
		}
		if line > 0 && lines != nil {
			if _, ok := lines[line]; !ok {
				p.logger.Warn("issue anchored off the diff, degrading to file level",
					"file", diff.Path, "line", line)
				line = 0
			}
		}

		issues = append(issues, core.Issue{
			Title:          candidate.Title,
			Severity:       core.ParseSeverity(candidate.Severity),
			Category:       core.ParseCategory(candidate.Category),
			FilePath:       diff.Path,
			Line:           line,
			Rationale:      candidate.Rationale,
			Recommendation: candidate.Recommendation,
			FixExample:     candidate.FixExample,
			Fingerprint:    fingerprint.ForFile(diff.Path, line, candidate.ID, candidate.Title, diff.ContentHash),
		})
	}
	return issues, nil
}

// reviewMetadata runs the change-request-level review once and folds its
// issues in. Failures are isolated exactly like per-file failures.
func (p *Planner) reviewMetadata(ctx context.Context, policy, language string, meta core.ChangeMeta, iteration int) []core.Issue {
	raw, err := p.model.ReviewMetadata(ctx, policy, meta, language)
	if err != nil {
		p.logger.Error("metadata review failed", "error", err)
		return nil
	}

	issues := make([]core.Issue, 0, len(raw))
	for _, candidate := range raw {
		if strings.TrimSpace(candidate.Title) == "" {
			p.logger.Warn("dropping untitled metadata issue candidate", "id", candidate.ID)
			continue
		}
		issues = append(issues, core.Issue{
			Title:          candidate.Title,
			Severity:       core.ParseSeverity(candidate.Severity),
			Category:       core.ParseCategory(candidate.Category),
			Rationale:      candidate.Rationale,
			Recommendation: candidate.Recommendation,
			FixExample:     candidate.FixExample,
			Fingerprint:    fingerprint.ForMeta(candidate.ID, candidate.Title, iteration),
		})
	}
	return issues
}
