package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sevigo/review-keeper/internal/core"
)

// snapshotFingerprint is the placeholder recorded in Report.Failed when the
// snapshot write itself fails; the snapshot thread carries no issue
// fingerprint of its own.
const snapshotFingerprint = "<state-snapshot>"

const snapshotHeader = "### Review Keeper state\n\nOpen findings at the last completed run. This comment is maintained automatically; do not edit.\n\n"

// writeSnapshot creates or overwrites the singleton state-snapshot thread
// with the serialized open-fingerprint set. The thread is created once with
// status Closed (it carries no actionable discussion) and its single comment
// body is replaced, never appended, on every subsequent run.
func (e *Engine) writeSnapshot(ctx context.Context, event *core.ReviewEvent, existing *core.Thread, open []string, iteration int) error {
	snapshot := core.StateSnapshot{
		Fingerprints: open,
		UpdatedAt:    e.now().UTC(),
		Iteration:    iteration,
	}
	if snapshot.Fingerprints == nil {
		snapshot.Fingerprints = []string{}
	}

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	body := snapshotHeader + "```json\n" + string(payload) + "\n```"

	if existing == nil {
		_, err := e.threads.CreateThread(ctx, event, core.Thread{
			Status:   core.StatusClosed,
			Comments: []core.Comment{{Body: body, CreatedAt: e.now()}},
			Meta: core.BotMetadata{
				IsBot:         true,
				IsStateThread: true,
				IterationID:   iteration,
			},
		})
		return err
	}

	updated := *existing
	updated.Meta.IterationID = iteration
	updated.Comments = []core.Comment{{Body: body, CreatedAt: e.now()}}
	return e.threads.UpdateThread(ctx, event, updated)
}

// ParseSnapshot extracts the recorded open-fingerprint set from a snapshot
// thread's comment body. It is the read side used by the CLI and by anyone
// wanting a cheap view of "what's currently open" without scanning threads.
func ParseSnapshot(thread *core.Thread) (*core.StateSnapshot, error) {
	if thread == nil || !thread.Meta.IsStateThread || len(thread.Comments) == 0 {
		return nil, fmt.Errorf("not a state snapshot thread")
	}

	body := thread.Comments[0].Body
	start := strings.Index(body, "```json\n")
	end := strings.LastIndex(body, "\n```")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("snapshot thread has no JSON payload")
	}

	var snapshot core.StateSnapshot
	if err := json.Unmarshal([]byte(body[start+len("```json\n"):end]), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot payload: %w", err)
	}
	return &snapshot, nil
}
