package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/review-keeper/internal/core"
)

// fakeThreadStore is an in-memory thread store that counts mutations, so
// tests can assert that repeated reconciliation converges to zero writes.
type fakeThreadStore struct {
	threads map[int64]core.Thread
	nextID  int64

	creates int
	updates int

	failCreateFor map[string]bool
	failUpdateFor map[string]bool
	listErr       error
}

func newFakeThreadStore() *fakeThreadStore {
	return &fakeThreadStore{threads: map[int64]core.Thread{}, nextID: 1}
}

func (s *fakeThreadStore) ListThreads(context.Context, *core.ReviewEvent) ([]core.Thread, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]core.Thread, 0, len(s.threads))
	for id := int64(1); id < s.nextID; id++ {
		if t, ok := s.threads[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeThreadStore) CreateThread(_ context.Context, _ *core.ReviewEvent, thread core.Thread) (core.Thread, error) {
	if s.failCreateFor[thread.Meta.Fingerprint] {
		return core.Thread{}, errors.New("create rejected")
	}
	thread.ID = s.nextID
	s.nextID++
	s.threads[thread.ID] = thread
	s.creates++
	return thread, nil
}

func (s *fakeThreadStore) UpdateThread(_ context.Context, _ *core.ReviewEvent, thread core.Thread) error {
	if s.failUpdateFor[thread.Meta.Fingerprint] {
		return errors.New("update rejected")
	}
	if _, ok := s.threads[thread.ID]; !ok {
		return errors.New("no such thread")
	}
	s.threads[thread.ID] = thread
	s.updates++
	return nil
}

func (s *fakeThreadStore) resetCounters() {
	s.creates = 0
	s.updates = 0
}

func (s *fakeThreadStore) findByFingerprint(fp string) *core.Thread {
	for id := range s.threads {
		t := s.threads[id]
		if t.Meta.Fingerprint == fp {
			return &t
		}
	}
	return nil
}

func (s *fakeThreadStore) snapshotThread() *core.Thread {
	for id := range s.threads {
		t := s.threads[id]
		if t.Meta.IsStateThread {
			return &t
		}
	}
	return nil
}

func testEngine(store core.ThreadStore) *Engine {
	return NewEngine(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testEvent() *core.ReviewEvent {
	return &core.ReviewEvent{RepoOwner: "acme", RepoName: "svc", RepoFullName: "acme/svc", PRNumber: 7}
}

func issueWithFP(fp, title string) core.Issue {
	return core.Issue{Title: title, Severity: core.SeverityWarn, FilePath: "a.go", Line: 3, Fingerprint: fp}
}

func TestReconcile_FirstRunCreatesThreads(t *testing.T) {
	store := newFakeThreadStore()
	engine := testEngine(store)

	issues := []core.Issue{issueWithFP("fp-1", "first"), issueWithFP("fp-2", "second")}
	report, err := engine.Reconcile(context.Background(), testEvent(), issues, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Created)
	assert.Zero(t, report.Reopened)
	assert.Zero(t, report.Resolved)
	assert.Equal(t, []string{"fp-1", "fp-2"}, report.OpenFingerprints)

	thread := store.findByFingerprint("fp-1")
	require.NotNil(t, thread)
	assert.Equal(t, core.StatusActive, thread.Status)
	assert.True(t, thread.Meta.IsBot)
	assert.Equal(t, 1, thread.Meta.IterationID)
}

func TestReconcile_RerunOnSameStateIsMutationFree(t *testing.T) {
	store := newFakeThreadStore()
	engine := testEngine(store)
	issues := []core.Issue{issueWithFP("fp-1", "finding")}

	_, err := engine.Reconcile(context.Background(), testEvent(), issues, 1)
	require.NoError(t, err)
	store.resetCounters()

	// Same issues, same iteration: the engine must not touch any finding
	// thread, only overwrite the snapshot in place.
	report, err := engine.Reconcile(context.Background(), testEvent(), issues, 1)
	require.NoError(t, err)

	assert.Zero(t, report.Created)
	assert.Zero(t, report.Reopened)
	assert.Zero(t, report.Retriggered)
	assert.Zero(t, report.Resolved)
	assert.Zero(t, store.creates, "no new threads on rerun")
	assert.Equal(t, 1, store.updates, "only the snapshot overwrite")
}

func TestReconcile_PersistingIssueRetriggersOncePerIteration(t *testing.T) {
	store := newFakeThreadStore()
	engine := testEngine(store)
	issues := []core.Issue{issueWithFP("fp-1", "finding")}

	_, err := engine.Reconcile(context.Background(), testEvent(), issues, 1)
	require.NoError(t, err)

	// New iteration: the thread gets exactly one re-trigger comment.
	report, err := engine.Reconcile(context.Background(), testEvent(), issues, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Retriggered)

	thread := store.findByFingerprint("fp-1")
	require.NotNil(t, thread)
	assert.Len(t, thread.Comments, 2)
	assert.Equal(t, 2, thread.Meta.IterationID)

	// Re-running iteration 2 appends nothing further.
	report, err = engine.Reconcile(context.Background(), testEvent(), issues, 2)
	require.NoError(t, err)
	assert.Zero(t, report.Retriggered)
	assert.Len(t, store.findByFingerprint("fp-1").Comments, 2)
}

func TestReconcile_ResolvedIssueMarksThreadFixed(t *testing.T) {
	store := newFakeThreadStore()
	engine := testEngine(store)

	_, err := engine.Reconcile(context.Background(), testEvent(), []core.Issue{issueWithFP("fp-1", "finding")}, 1)
	require.NoError(t, err)

	report, err := engine.Reconcile(context.Background(), testEvent(), nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Resolved)
	assert.Empty(t, report.OpenFingerprints)

	thread := store.findByFingerprint("fp-1")
	require.NotNil(t, thread)
	assert.Equal(t, core.StatusFixed, thread.Status)
}

func TestReconcile_RegressedIssueReopensThread(t *testing.T) {
	store := newFakeThreadStore()
	engine := testEngine(store)
	issues := []core.Issue{issueWithFP("fp-1", "finding")}

	_, err := engine.Reconcile(context.Background(), testEvent(), issues, 1)
	require.NoError(t, err)
	_, err = engine.Reconcile(context.Background(), testEvent(), nil, 2)
	require.NoError(t, err)
	require.Equal(t, core.StatusFixed, store.findByFingerprint("fp-1").Status)

	report, err := engine.Reconcile(context.Background(), testEvent(), issues, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reopened)
	assert.Zero(t, report.Created, "a regressed finding reuses its thread")

	thread := store.findByFingerprint("fp-1")
	assert.Equal(t, core.StatusActive, thread.Status)
	assert.Len(t, thread.Comments, 2, "reopen appends, never rewrites history")
}

func TestReconcile_HumanDispositionIsNeverOverridden(t *testing.T) {
	for _, status := range []core.ThreadStatus{core.StatusByDesign, core.StatusPending, core.StatusWontFix} {
		t.Run(string(status), func(t *testing.T) {
			store := newFakeThreadStore()
			engine := testEngine(store)
			issues := []core.Issue{issueWithFP("fp-1", "finding")}

			_, err := engine.Reconcile(context.Background(), testEvent(), issues, 1)
			require.NoError(t, err)

			// A reviewer dispositions the thread between runs.
			thread := store.findByFingerprint("fp-1")
			thread.Status = status
			store.threads[thread.ID] = *thread
			store.resetCounters()

			report, err := engine.Reconcile(context.Background(), testEvent(), issues, 2)
			require.NoError(t, err)
			assert.Zero(t, report.Reopened)
			assert.Zero(t, report.Retriggered)
			assert.Equal(t, status, store.findByFingerprint("fp-1").Status)
			assert.NotContains(t, report.OpenFingerprints, "fp-1")
		})
	}
}

func TestReconcile_HumanThreadsAreInvisible(t *testing.T) {
	store := newFakeThreadStore()
	store.threads[store.nextID] = core.Thread{
		ID:       store.nextID,
		Status:   core.StatusActive,
		Comments: []core.Comment{{Body: "a human remark", Author: "alice"}},
	}
	store.nextID++

	engine := testEngine(store)
	report, err := engine.Reconcile(context.Background(), testEvent(), nil, 1)
	require.NoError(t, err)

	assert.Zero(t, report.Resolved, "human threads are never resolved by the engine")
	human := store.threads[1]
	assert.Equal(t, core.StatusActive, human.Status)
	assert.Len(t, human.Comments, 1)
}

func TestReconcile_DuplicateFingerprintsInIssueSetCollapse(t *testing.T) {
	store := newFakeThreadStore()
	engine := testEngine(store)

	issues := []core.Issue{issueWithFP("fp-1", "finding"), issueWithFP("fp-1", "finding again")}
	report, err := engine.Reconcile(context.Background(), testEvent(), issues, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, []string{"fp-1"}, report.OpenFingerprints)
}

func TestReconcile_PartialFailureContinues(t *testing.T) {
	store := newFakeThreadStore()
	store.failCreateFor = map[string]bool{"fp-bad": true}
	engine := testEngine(store)

	issues := []core.Issue{issueWithFP("fp-bad", "rejected"), issueWithFP("fp-ok", "accepted")}
	report, err := engine.Reconcile(context.Background(), testEvent(), issues, 1)
	require.NoError(t, err, "a failed mutation must not abort the pass")

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, []string{"fp-bad"}, report.Failed)
	assert.NotNil(t, store.findByFingerprint("fp-ok"))

	// Next run self-heals: the store accepts the create now.
	store.failCreateFor = nil
	report, err = engine.Reconcile(context.Background(), testEvent(), issues, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Empty(t, report.Failed)
}

func TestReconcile_ListFailureAborts(t *testing.T) {
	store := newFakeThreadStore()
	store.listErr = errors.New("transport down")
	engine := testEngine(store)

	_, err := engine.Reconcile(context.Background(), testEvent(), nil, 1)
	assert.Error(t, err, "without thread state no safe mutation is possible")
}

func TestReconcile_SnapshotIsSingletonAndOverwritten(t *testing.T) {
	store := newFakeThreadStore()
	engine := testEngine(store)

	_, err := engine.Reconcile(context.Background(), testEvent(), []core.Issue{issueWithFP("fp-1", "f")}, 1)
	require.NoError(t, err)

	snap := store.snapshotThread()
	require.NotNil(t, snap)
	assert.Equal(t, core.StatusClosed, snap.Status)
	firstID := snap.ID

	parsed, err := ParseSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"fp-1"}, parsed.Fingerprints)
	assert.Equal(t, 1, parsed.Iteration)

	// Issue resolves: the same thread is overwritten with the empty set.
	_, err = engine.Reconcile(context.Background(), testEvent(), nil, 2)
	require.NoError(t, err)

	snap = store.snapshotThread()
	require.NotNil(t, snap)
	assert.Equal(t, firstID, snap.ID, "snapshot thread is a singleton")
	require.Len(t, snap.Comments, 1, "snapshot body is replaced, never appended")

	parsed, err = ParseSnapshot(snap)
	require.NoError(t, err)
	assert.Empty(t, parsed.Fingerprints)
	assert.Equal(t, 2, parsed.Iteration)
}

func TestParseSnapshot_RejectsNonSnapshotThreads(t *testing.T) {
	_, err := ParseSnapshot(nil)
	assert.Error(t, err)

	_, err = ParseSnapshot(&core.Thread{Meta: core.BotMetadata{IsBot: true, Fingerprint: "fp"}})
	assert.Error(t, err)

	_, err = ParseSnapshot(&core.Thread{
		Meta:     core.BotMetadata{IsBot: true, IsStateThread: true},
		Comments: []core.Comment{{Body: "garbage without payload"}},
	})
	assert.Error(t, err)
}

func TestRenderIssue_ContainsAnchorAndRecommendation(t *testing.T) {
	issue := core.Issue{
		Title:          "Unsanitized query input",
		Severity:       core.SeverityError,
		Category:       core.CategorySecurity,
		FilePath:       "internal/api/handler.go",
		Line:           42,
		Rationale:      "User input reaches the SQL string unescaped.",
		Recommendation: "Use a parameterized query.",
		FixExample:     "db.QueryContext(ctx, q, id)",
	}

	body := renderIssue(issue)
	assert.True(t, strings.Contains(body, "Unsanitized query input"))
	assert.True(t, strings.Contains(body, "internal/api/handler.go"))
	assert.True(t, strings.Contains(body, "42"))
	assert.True(t, strings.Contains(body, "Use a parameterized query."))
}
