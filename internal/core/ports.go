package core

import "context"

// FileDiff is one changed file of a change request iteration: its path, the
// unified diff text, and a hash of the file's new content. The content hash
// feeds the issue fingerprint, so "same issue on changed code" gets a new
// identity instead of attempting semantic line-tracking.
type FileDiff struct {
	Path        string
	DiffText    string
	ContentHash string

	// Content is the full file at the head revision when available; it is
	// optional review context only and never part of the fingerprint input.
	Content string
}

// ChangeMeta is the change-request-level metadata reviewed once per run.
type ChangeMeta struct {
	Title          string
	Description    string
	CommitMessages []string
}

// DiffSource supplies per-file diffs and iteration metadata for a change
// request. Implementations live in the platform transport layer.
type DiffSource interface {
	GetDiffs(ctx context.Context, event *ReviewEvent, iteration int) ([]FileDiff, error)
}

// ReviewModel turns a diff or change-request metadata into raw candidate
// issues. Prompt construction and response validation are the
// implementation's concern; callers only see normalized-ready RawIssues.
type ReviewModel interface {
	ReviewFile(ctx context.Context, policy string, diff FileDiff, language string) ([]RawIssue, error)
	ReviewMetadata(ctx context.Context, policy string, meta ChangeMeta, language string) ([]RawIssue, error)
}

// ThreadStore performs CRUD and status transitions over discussion threads
// on a change request. Mutations are keyed by thread ID, so repeating one
// after a transport retry is safe.
type ThreadStore interface {
	ListThreads(ctx context.Context, event *ReviewEvent) ([]Thread, error)
	CreateThread(ctx context.Context, event *ReviewEvent, thread Thread) (Thread, error)
	UpdateThread(ctx context.Context, event *ReviewEvent, thread Thread) error
}

// VoteStore reads and writes the engine's own reviewer entry on a change
// request.
type VoteStore interface {
	GetReviewerEntry(ctx context.Context, event *ReviewEvent) (*VoteEntry, error)
	CreateReviewerEntry(ctx context.Context, event *ReviewEvent, vote Vote) error
	UpdateReviewerVote(ctx context.Context, event *ReviewEvent, entryID int64, vote Vote) error
}

// JobDispatcher defines the contract for a system that can accept and queue
// background jobs for asynchronous processing. This interface decouples the
// event source (e.g., a webhook handler) from the job execution mechanism.
type JobDispatcher interface {
	// Dispatch accepts a ReviewEvent and queues it for processing.
	// It returns an error if the job cannot be queued, for example, if the
	// queue is full, providing a mechanism for backpressure.
	Dispatch(ctx context.Context, event *ReviewEvent) error

	// Stop shuts the dispatcher down, waiting for in-flight jobs to finish.
	Stop()
}

// Job represents a single, executable unit of work that can be processed by
// the application's job dispatcher.
type Job interface {
	Run(ctx context.Context, event *ReviewEvent) error
}
