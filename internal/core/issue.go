// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import "strings"

// Severity classifies how serious an issue is. Unknown values coming back
// from the model are normalized to SeverityInfo so a malformed field never
// drops an otherwise valid issue.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// ParseSeverity maps a raw model-provided severity onto the known set.
// It accepts common aliases ("warning", "critical", "high", ...) and falls
// back to SeverityInfo for anything it does not recognize.
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "error", "critical", "high", "blocker":
		return SeverityError
	case "warn", "warning", "medium":
		return SeverityWarn
	case "info", "low", "minor", "note":
		return SeverityInfo
	default:
		return SeverityInfo
	}
}

// Category groups issues by the kind of problem they describe.
type Category string

const (
	CategoryBug             Category = "bug"
	CategorySecurity        Category = "security"
	CategoryPerformance     Category = "performance"
	CategoryMaintainability Category = "maintainability"
	CategoryStyle           Category = "style"
)

// ParseCategory normalizes a raw model-provided category. Unknown values map
// to CategoryStyle, the lowest-priority bucket.
func ParseCategory(raw string) Category {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bug", "correctness", "logic":
		return CategoryBug
	case "security", "vulnerability":
		return CategorySecurity
	case "performance", "perf":
		return CategoryPerformance
	case "maintainability", "design", "best practice", "best-practice":
		return CategoryMaintainability
	case "style", "formatting", "naming":
		return CategoryStyle
	default:
		return CategoryStyle
	}
}

// RawIssue is the unvalidated issue candidate as returned by the review
// model, before budgets, normalization and fingerprinting are applied.
type RawIssue struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Severity       string `json:"severity"`
	Category       string `json:"category"`
	File           string `json:"file,omitempty"`
	Line           int    `json:"line,omitempty"`
	Rationale      string `json:"rationale"`
	Recommendation string `json:"recommendation"`
	FixExample     string `json:"fix_example,omitempty"`
}

// Issue is a single normalized review finding for the current iteration.
// Issues are transient: they are recomputed on every run and discarded after
// reconciliation; only their fingerprints survive in thread metadata.
type Issue struct {
	Title          string
	Severity       Severity
	Category       Category
	FilePath       string
	Line           int // 0 means the issue is not line-specific
	Rationale      string
	Recommendation string
	FixExample     string
	Fingerprint    string
}

// ReviewPlan is the complete, budgeted result of planning one review run.
type ReviewPlan struct {
	Issues       []Issue
	ErrorCount   int
	WarningCount int
	WarnBudget   int
}

// ShouldApprove reports whether the plan's aggregate counts permit an
// approving vote: no errors, and warnings within the configured budget.
func (p *ReviewPlan) ShouldApprove() bool {
	return p.ErrorCount == 0 && p.WarningCount <= p.WarnBudget
}
