// Package gitutil provides a client for working with Git repositories.
package gitutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	gitHTTP "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Checkout is a temporary clone of a repository at a specific commit. It
// supplies full file content as review context beside the diff.
type Checkout struct {
	Path string
	repo *git.Repository
}

// Cloner clones repositories into temporary directories.
type Cloner struct {
	logger *slog.Logger
}

// NewCloner returns a new Cloner instance.
func NewCloner(logger *slog.Logger) *Cloner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cloner{logger: logger}
}

// Clone clones repoURL into a fresh temp directory and checks out sha. The
// returned cleanup removes the directory and must always be called.
func (c *Cloner) Clone(ctx context.Context, repoURL, sha, token string) (*Checkout, func(), error) {
	path, err := os.MkdirTemp("", "review-keeper-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create clone directory: %w", err)
	}
	cleanup := func() {
		if rmErr := os.RemoveAll(path); rmErr != nil {
			c.logger.Warn("failed to remove clone directory", "path", path, "error", rmErr)
		}
	}

	c.logger.InfoContext(ctx, "cloning repository", "url", repoURL, "sha", sha, "path", path)

	opts := &git.CloneOptions{URL: repoURL}
	if token != "" {
		// GitHub accepts any username with a token over HTTPS.
		opts.Auth = &gitHTTP.BasicAuth{Username: "x-access-token", Password: token}
	}

	repo, err := git.PlainCloneContext(ctx, path, false, opts)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("git clone failed: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(sha)}); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to checkout %s: %w", sha, err)
	}

	return &Checkout{Path: path, repo: repo}, cleanup, nil
}

// FileContent returns the content of a file in the checkout, capped at
// maxBytes. Missing files return an empty string: content is optional
// context, never a hard requirement.
func (co *Checkout) FileContent(path string, maxBytes int64) (string, error) {
	commit, err := headCommit(co.repo)
	if err != nil {
		return "", err
	}

	file, err := commit.File(path)
	if err != nil {
		return "", nil
	}
	if file.Size > maxBytes {
		return "", nil
	}

	reader, err := file.Reader()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(content), nil
}

func headCommit(repo *git.Repository) (*object.Commit, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD commit: %w", err)
	}
	return commit, nil
}

// RedactURL strips credentials from a repository URL for logging.
func RedactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parsed.User = nil
	return parsed.String()
}
