package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/review-keeper/internal/core"
	"github.com/sevigo/review-keeper/internal/retry"
)

const (
	// markerPrefix opens the hidden metadata marker on the first line of
	// every bot-owned comment. GitHub renders HTML comments as nothing, so
	// readers only see the issue text.
	markerPrefix = "<!-- review-keeper "
	markerSuffix = " -->"

	// commentSep separates the thread's ordered comment sections inside the
	// single platform comment body.
	commentSep = "\n\n<!-- review-keeper:comment -->\n\n"
)

// threadMarker is the wire form of a thread's bot metadata and status,
// serialized into the hidden marker.
type threadMarker struct {
	core.BotMetadata
	Status core.ThreadStatus `json:"status"`
}

// ThreadStore implements core.ThreadStore on top of pull request comments.
// Each bot-owned thread is one issue comment carrying a hidden JSON marker;
// comments without a marker are human-authored and surface as read-only
// threads.
type ThreadStore struct {
	client Client
	policy retry.Policy
	logger *slog.Logger
}

// NewThreadStore creates a ThreadStore backed by the given client.
func NewThreadStore(client Client, policy retry.Policy, logger *slog.Logger) *ThreadStore {
	return &ThreadStore{client: client, policy: policy, logger: logger}
}

// ListThreads returns all discussion threads on the pull request, bot-owned
// and human-authored alike.
func (s *ThreadStore) ListThreads(ctx context.Context, event *core.ReviewEvent) ([]core.Thread, error) {
	var comments []*githubComment
	err := s.policy.Do(ctx, s.logger, "list threads", func() error {
		raw, listErr := s.client.ListComments(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
		if listErr != nil {
			return listErr
		}
		comments = comments[:0]
		for _, c := range raw {
			comments = append(comments, &githubComment{
				id:     c.GetID(),
				body:   c.GetBody(),
				author: c.GetUser().GetLogin(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	threads := make([]core.Thread, 0, len(comments))
	for _, c := range comments {
		threads = append(threads, decodeThread(c, s.logger))
	}
	return threads, nil
}

// CreateThread creates a new bot-owned thread and returns it with the
// platform-assigned ID.
func (s *ThreadStore) CreateThread(ctx context.Context, event *core.ReviewEvent, thread core.Thread) (core.Thread, error) {
	body := encodeThread(thread)

	err := s.policy.Do(ctx, s.logger, "create thread", func() error {
		created, createErr := s.client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.PRNumber, body)
		if createErr != nil {
			return createErr
		}
		thread.ID = created.GetID()
		return nil
	})
	if err != nil {
		return core.Thread{}, fmt.Errorf("failed to create thread: %w", err)
	}
	return thread, nil
}

// UpdateThread rewrites the platform comment for a bot-owned thread so its
// marker and comment sections match the given state. The write is keyed by
// thread ID, so repeating it after a transport retry is safe.
func (s *ThreadStore) UpdateThread(ctx context.Context, event *core.ReviewEvent, thread core.Thread) error {
	if !thread.Meta.IsBot {
		return fmt.Errorf("refusing to update non-bot thread %d", thread.ID)
	}
	body := encodeThread(thread)

	err := s.policy.Do(ctx, s.logger, "update thread", func() error {
		return s.client.EditComment(ctx, event.RepoOwner, event.RepoName, thread.ID, body)
	})
	if err != nil {
		return fmt.Errorf("failed to update thread %d: %w", thread.ID, err)
	}
	return nil
}

type githubComment struct {
	id     int64
	body   string
	author string
}

// encodeThread renders a thread into a single comment body: hidden marker
// first, then the ordered comment sections.
func encodeThread(thread core.Thread) string {
	marker, _ := json.Marshal(threadMarker{
		BotMetadata: thread.Meta,
		Status:      thread.Status,
	})

	sections := make([]string, 0, len(thread.Comments))
	for _, c := range thread.Comments {
		sections = append(sections, c.Body)
	}

	return markerPrefix + string(marker) + markerSuffix + "\n\n" + strings.Join(sections, commentSep)
}

// decodeThread parses a platform comment back into a thread. Comments
// without a marker are human-authored: read-only context with a single
// comment section.
func decodeThread(c *githubComment, logger *slog.Logger) core.Thread {
	if !strings.HasPrefix(c.body, markerPrefix) {
		return core.Thread{
			ID:       c.id,
			Status:   core.StatusActive,
			Comments: []core.Comment{{Body: c.body, Author: c.author}},
		}
	}

	end := strings.Index(c.body, markerSuffix)
	if end < 0 {
		logger.Warn("comment has an unterminated metadata marker, treating as human-authored", "comment", c.id)
		return core.Thread{
			ID:       c.id,
			Status:   core.StatusActive,
			Comments: []core.Comment{{Body: c.body, Author: c.author}},
		}
	}

	var marker threadMarker
	if err := json.Unmarshal([]byte(c.body[len(markerPrefix):end]), &marker); err != nil {
		logger.Warn("comment has a malformed metadata marker, treating as human-authored", "comment", c.id, "error", err)
		return core.Thread{
			ID:       c.id,
			Status:   core.StatusActive,
			Comments: []core.Comment{{Body: c.body, Author: c.author}},
		}
	}

	rest := strings.TrimPrefix(c.body[end+len(markerSuffix):], "\n\n")
	var comments []core.Comment
	for _, section := range strings.Split(rest, commentSep) {
		comments = append(comments, core.Comment{Body: section, Author: c.author})
	}

	return core.Thread{
		ID:       c.id,
		Status:   marker.Status,
		Comments: comments,
		Meta:     marker.BotMetadata,
	}
}
