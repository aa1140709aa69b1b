package core

import "time"

// ThreadStatus is the lifecycle state of a discussion thread.
//
// The engine only ever moves a thread between Active, Fixed and Closed.
// ByDesign, Pending and WontFix are human dispositions: once a reviewer has
// set one of them, the engine leaves the thread alone even if the underlying
// issue resurfaces.
type ThreadStatus string

const (
	StatusActive   ThreadStatus = "active"
	StatusFixed    ThreadStatus = "fixed"
	StatusClosed   ThreadStatus = "closed"
	StatusByDesign ThreadStatus = "by_design"
	StatusPending  ThreadStatus = "pending"
	StatusWontFix  ThreadStatus = "wont_fix"
)

// HumanDisposition reports whether the status was set by a person and must
// not be overwritten by reconciliation.
func (s ThreadStatus) HumanDisposition() bool {
	switch s {
	case StatusByDesign, StatusPending, StatusWontFix:
		return true
	default:
		return false
	}
}

// BotMetadata tags a thread as owned by this engine. Threads without IsBot
// set are human-authored and strictly read-only. The metadata record is
// fixed and typed on purpose: the "is this thread mine" check must be
// exhaustive, not a stringly-typed property lookup.
type BotMetadata struct {
	IsBot         bool   `json:"is_bot"`
	Fingerprint   string `json:"fingerprint,omitempty"`
	IterationID   int    `json:"iteration_id,omitempty"`
	IsStateThread bool   `json:"is_state_thread,omitempty"`
}

// Comment is one entry in a thread's append-only comment list.
type Comment struct {
	Body      string
	Author    string
	CreatedAt time.Time
}

// Thread is a discussion thread on a change request. Threads live in the
// hosting platform; this struct is the engine's view of one.
type Thread struct {
	ID       int64
	Status   ThreadStatus
	Comments []Comment
	Meta     BotMetadata
}

// Vote is the engine's reviewer verdict on a change request. There are
// exactly two outcomes: approve, or hold ("wait for author"). Richer vote
// scales belong to the hosting platform, not to this decision logic.
type Vote string

const (
	VoteApprove Vote = "approve"
	VoteHold    Vote = "hold"
)

// VoteEntry is the engine's own reviewer entry as currently recorded on the
// change request, if any.
type VoteEntry struct {
	ID   int64
	Vote Vote
}

// StateSnapshot is the payload of the singleton snapshot thread: the list of
// fingerprints currently open, overwritten (never appended) on every run.
type StateSnapshot struct {
	Fingerprints []string  `json:"fingerprints"`
	UpdatedAt    time.Time `json:"updated_at"`
	Iteration    int       `json:"iteration"`
}
