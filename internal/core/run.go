package core

import "time"

// Run is the persisted record of one completed review run.
type Run struct {
	ID           int64     `db:"id"`
	RepoFullName string    `db:"repo_full_name"`
	PRNumber     int       `db:"pr_number"`
	Iteration    int       `db:"iteration"`
	HeadSHA      string    `db:"head_sha"`
	IssueCount   int       `db:"issue_count"`
	ErrorCount   int       `db:"error_count"`
	WarningCount int       `db:"warning_count"`
	Vote         Vote      `db:"vote"`
	Created      int       `db:"threads_created"`
	Resolved     int       `db:"threads_resolved"`
	CreatedAt    time.Time `db:"created_at"`
}
