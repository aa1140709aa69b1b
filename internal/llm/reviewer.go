package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/goframe/llms"

	"github.com/sevigo/review-keeper/internal/core"
	"github.com/sevigo/review-keeper/internal/retry"
)

// Reviewer implements core.ReviewModel on top of a goframe chat model.
type Reviewer struct {
	model    llms.Model
	prompts  *PromptManager
	provider ModelProvider
	policy   retry.Policy
	logger   *slog.Logger

	// MaxIssuesHint bounds how many issues a single prompt asks for. The
	// planner truncates again after normalization; the hint just keeps
	// responses short.
	MaxIssuesHint int

	// CustomInstructions come from the repository's own config and are
	// appended to every file review prompt.
	CustomInstructions []string
}

// NewReviewer creates a Reviewer for the given model and provider name.
func NewReviewer(model llms.Model, prompts *PromptManager, provider string, logger *slog.Logger) *Reviewer {
	if model == nil {
		panic("model cannot be nil")
	}
	if prompts == nil {
		panic("prompt manager cannot be nil")
	}
	return &Reviewer{
		model:         model,
		prompts:       prompts,
		provider:      ModelProvider(provider),
		policy:        retry.ModelPolicy(),
		logger:        logger,
		MaxIssuesHint: 5,
	}
}

type filePromptData struct {
	Policy             string
	CustomInstructions []string
	Path               string
	Language           string
	DiffText           string
	Content            string
	MaxIssues          int
}

type metaPromptData struct {
	Policy         string
	Language       string
	Title          string
	Description    string
	CommitMessages []string
}

// ReviewFile asks the model to review one file diff and returns the raw
// issue candidates it produced.
func (r *Reviewer) ReviewFile(ctx context.Context, policy string, diff core.FileDiff, language string) ([]core.RawIssue, error) {
	prompt, err := r.prompts.Render(FileReviewPrompt, r.provider, filePromptData{
		Policy:             policy,
		CustomInstructions: r.CustomInstructions,
		Path:               diff.Path,
		Language:           language,
		DiffText:           diff.DiffText,
		Content:            diff.Content,
		MaxIssues:          r.MaxIssuesHint,
	})
	if err != nil {
		return nil, err
	}
	return r.generate(ctx, "file review", prompt)
}

// ReviewMetadata asks the model to review the change request's title,
// description and commit messages.
func (r *Reviewer) ReviewMetadata(ctx context.Context, policy string, meta core.ChangeMeta, language string) ([]core.RawIssue, error) {
	prompt, err := r.prompts.Render(MetaReviewPrompt, r.provider, metaPromptData{
		Policy:         policy,
		Language:       language,
		Title:          meta.Title,
		Description:    meta.Description,
		CommitMessages: meta.CommitMessages,
	})
	if err != nil {
		return nil, err
	}
	return r.generate(ctx, "metadata review", prompt)
}

func (r *Reviewer) generate(ctx context.Context, name, prompt string) ([]core.RawIssue, error) {
	var response string
	err := r.policy.Do(ctx, r.logger, name, func() error {
		var callErr error
		response, callErr = r.model.Call(ctx, prompt)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	issues, err := parseIssueResponse(response, r.logger)
	if err != nil {
		return nil, fmt.Errorf("unusable model response: %w", err)
	}
	return issues, nil
}
