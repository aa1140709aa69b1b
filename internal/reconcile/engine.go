// Package reconcile converges the current issue set of a review run with the
// discussion threads already recorded on the change request. It computes and
// applies the minimal set of create/append/resolve mutations so that repeated
// runs never duplicate, lose or re-announce a finding.
//
// The engine is not safe for concurrent execution against the same change
// request: it reads thread state and conditionally writes with no optimistic
// concurrency token. Callers must serialize runs per change request; the job
// dispatcher does this by routing every event for one request to the same
// worker.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sevigo/review-keeper/internal/core"
)

// Report tallies the mutations of one reconciliation pass.
type Report struct {
	Created     int
	Reopened    int
	Retriggered int
	Resolved    int
	// Failed lists fingerprints whose mutation did not survive retries.
	// Their state self-heals on the next run.
	Failed []string
	// OpenFingerprints is the set recorded in the snapshot thread.
	OpenFingerprints []string
}

// Engine applies the per-fingerprint thread state machine.
type Engine struct {
	threads core.ThreadStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine creates a reconciliation engine over the given thread store.
func NewEngine(threads core.ThreadStore, logger *slog.Logger) *Engine {
	if threads == nil {
		panic("thread store cannot be nil")
	}
	return &Engine{threads: threads, logger: logger, now: time.Now}
}

// Reconcile drives one pass: create threads for new fingerprints, reopen and
// re-trigger threads whose issues persist, mark threads Fixed when their
// issues disappeared, and overwrite the snapshot thread with the resulting
// open set. A failed mutation is logged and skipped; the remaining
// fingerprints are still processed, since the next run's recomputation is
// self-healing.
func (e *Engine) Reconcile(ctx context.Context, event *core.ReviewEvent, issues []core.Issue, iteration int) (*Report, error) {
	threads, err := e.threads.ListThreads(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to read thread state: %w", err)
	}

	byFingerprint := make(map[string]*core.Thread)
	var snapshot *core.Thread
	for i := range threads {
		t := &threads[i]
		if !t.Meta.IsBot {
			continue
		}
		if t.Meta.IsStateThread {
			snapshot = t
			continue
		}
		if t.Meta.Fingerprint == "" {
			continue
		}
		if _, dup := byFingerprint[t.Meta.Fingerprint]; dup {
			// At most one bot thread per fingerprint is the invariant; a
			// duplicate means a past partial failure. Keep the first, leave
			// the stray alone.
			e.logger.Warn("duplicate thread for fingerprint", "fingerprint", t.Meta.Fingerprint, "thread", t.ID)
			continue
		}
		byFingerprint[t.Meta.Fingerprint] = t
	}

	report := &Report{}
	seen := make(map[string]bool, len(issues))

	for _, issue := range issues {
		if seen[issue.Fingerprint] {
			continue
		}
		seen[issue.Fingerprint] = true

		thread, exists := byFingerprint[issue.Fingerprint]
		if !exists {
			e.createThread(ctx, event, issue, iteration, report, byFingerprint)
			continue
		}
		e.refreshThread(ctx, event, thread, issue, iteration, report)
	}

	for fp, thread := range byFingerprint {
		if seen[fp] {
			continue
		}
		e.resolveThread(ctx, event, thread, report)
	}

	for fp, thread := range byFingerprint {
		if thread.Status == core.StatusActive {
			report.OpenFingerprints = append(report.OpenFingerprints, fp)
		}
	}
	sort.Strings(report.OpenFingerprints)

	if err := e.writeSnapshot(ctx, event, snapshot, report.OpenFingerprints, iteration); err != nil {
		e.logger.Error("failed to write state snapshot", "error", err)
		report.Failed = append(report.Failed, snapshotFingerprint)
	}

	e.logger.Info("reconciliation complete",
		"repo", event.RepoFullName,
		"pr", event.PRNumber,
		"iteration", iteration,
		"created", report.Created,
		"reopened", report.Reopened,
		"retriggered", report.Retriggered,
		"resolved", report.Resolved,
		"failed", len(report.Failed),
	)
	return report, nil
}

// createThread opens a new Active thread for a fingerprint seen for the
// first time.
func (e *Engine) createThread(ctx context.Context, event *core.ReviewEvent, issue core.Issue, iteration int, report *Report, byFingerprint map[string]*core.Thread) {
	thread := core.Thread{
		Status:   core.StatusActive,
		Comments: []core.Comment{{Body: renderIssue(issue), CreatedAt: e.now()}},
		Meta: core.BotMetadata{
			IsBot:       true,
			Fingerprint: issue.Fingerprint,
			IterationID: iteration,
		},
	}

	created, err := e.threads.CreateThread(ctx, event, thread)
	if err != nil {
		e.logger.Error("failed to create thread", "fingerprint", issue.Fingerprint, "error", err)
		report.Failed = append(report.Failed, issue.Fingerprint)
		return
	}

	byFingerprint[issue.Fingerprint] = &created
	report.Created++
}

// refreshThread handles a fingerprint that already has a thread. Regressed
// threads (Fixed or Closed) reopen to Active; threads carrying a human
// disposition are left untouched, since a resurfacing issue does not
// override an explicit human decision. The re-trigger comment and iteration
// update happen at most once per iteration, which keeps repeated runs on the
// same state mutation-free.
func (e *Engine) refreshThread(ctx context.Context, event *core.ReviewEvent, thread *core.Thread, issue core.Issue, iteration int, report *Report) {
	if thread.Status.HumanDisposition() {
		e.logger.Debug("issue resurfaced on a human-dispositioned thread, leaving it alone",
			"fingerprint", issue.Fingerprint, "status", thread.Status)
		return
	}

	reopen := thread.Status != core.StatusActive
	if !reopen && thread.Meta.IterationID == iteration {
		// Already reconciled for this iteration: nothing to do.
		return
	}

	updated := *thread
	updated.Status = core.StatusActive
	updated.Meta.IterationID = iteration
	updated.Comments = append(append([]core.Comment{}, thread.Comments...), core.Comment{
		Body:      renderRetrigger(issue, iteration),
		CreatedAt: e.now(),
	})

	if err := e.threads.UpdateThread(ctx, event, updated); err != nil {
		e.logger.Error("failed to refresh thread", "fingerprint", issue.Fingerprint, "thread", thread.ID, "error", err)
		report.Failed = append(report.Failed, issue.Fingerprint)
		return
	}

	*thread = updated
	if reopen {
		report.Reopened++
	} else {
		report.Retriggered++
	}
}

// resolveThread marks a thread Fixed when its fingerprint is absent from the
// current issue set. Only Active threads transition; everything else is
// already settled.
func (e *Engine) resolveThread(ctx context.Context, event *core.ReviewEvent, thread *core.Thread, report *Report) {
	if thread.Status != core.StatusActive {
		return
	}

	updated := *thread
	updated.Status = core.StatusFixed

	if err := e.threads.UpdateThread(ctx, event, updated); err != nil {
		e.logger.Error("failed to resolve thread", "fingerprint", thread.Meta.Fingerprint, "thread", thread.ID, "error", err)
		report.Failed = append(report.Failed, thread.Meta.Fingerprint)
		return
	}

	*thread = updated
	report.Resolved++
}
