// Package storage persists review-run records.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// import db drivers
	_ "github.com/lib/pq"

	"github.com/sevigo/review-keeper/internal/core"
)

// ErrNoRuns is returned when a pull request has no recorded runs yet.
var ErrNoRuns = errors.New("no runs recorded")

// Store defines the interface for all database operations.
type Store interface {
	SaveRun(ctx context.Context, run *core.Run) error
	GetLatestRunForPR(ctx context.Context, repoFullName string, prNumber int) (*core.Run, error)
	ListRecentRuns(ctx context.Context, repoFullName string, prNumber, limit int) ([]core.Run, error)
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a new Store
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// SaveRun inserts a new run record into the database.
func (s *postgresStore) SaveRun(ctx context.Context, run *core.Run) error {
	query := `INSERT INTO runs
		(repo_full_name, pr_number, iteration, head_sha, issue_count, error_count, warning_count, vote, threads_created, threads_resolved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.db.ExecContext(ctx, query,
		run.RepoFullName, run.PRNumber, run.Iteration, run.HeadSHA,
		run.IssueCount, run.ErrorCount, run.WarningCount, string(run.Vote),
		run.Created, run.Resolved, time.Now(),
	)
	return err
}

// GetLatestRunForPR retrieves the most recent run for a given pull request.
func (s *postgresStore) GetLatestRunForPR(ctx context.Context, repoFullName string, prNumber int) (*core.Run, error) {
	query := `
		SELECT id, repo_full_name, pr_number, iteration, head_sha, issue_count, error_count, warning_count, vote, threads_created, threads_resolved, created_at
		FROM runs
		WHERE repo_full_name = $1 AND pr_number = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var run core.Run
	if err := s.db.GetContext(ctx, &run, query, repoFullName, prNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w for PR %s#%d", ErrNoRuns, repoFullName, prNumber)
		}
		return nil, err
	}
	return &run, nil
}

// ListRecentRuns retrieves up to limit recent runs for a pull request,
// newest first.
func (s *postgresStore) ListRecentRuns(ctx context.Context, repoFullName string, prNumber, limit int) ([]core.Run, error) {
	query := `
		SELECT id, repo_full_name, pr_number, iteration, head_sha, issue_count, error_count, warning_count, vote, threads_created, threads_resolved, created_at
		FROM runs
		WHERE repo_full_name = $1 AND pr_number = $2
		ORDER BY created_at DESC
		LIMIT $3`

	var runs []core.Run
	if err := s.db.SelectContext(ctx, &runs, query, repoFullName, prNumber, limit); err != nil {
		return nil, err
	}
	return runs, nil
}
