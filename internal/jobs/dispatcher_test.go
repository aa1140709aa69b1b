package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/review-keeper/internal/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingJob records which events ran and optionally blocks to let tests
// observe in-flight behavior.
type recordingJob struct {
	mu     sync.Mutex
	events []*core.ReviewEvent
	block  chan struct{}
}

func (j *recordingJob) Run(_ context.Context, event *core.ReviewEvent) error {
	if j.block != nil {
		<-j.block
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
	return nil
}

func (j *recordingJob) seen() []*core.ReviewEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]*core.ReviewEvent{}, j.events...)
}

func TestDispatcher_RunsQueuedJobs(t *testing.T) {
	job := &recordingJob{}
	d := NewDispatcher(job, 4, discardLogger())

	events := []*core.ReviewEvent{
		{RepoFullName: "acme/one", PRNumber: 1},
		{RepoFullName: "acme/two", PRNumber: 2},
		{RepoFullName: "acme/three", PRNumber: 3},
	}
	for _, e := range events {
		require.NoError(t, d.Dispatch(context.Background(), e))
	}

	d.Stop()
	assert.Len(t, job.seen(), 3)
}

func TestDispatcher_SamePRAlwaysSameWorker(t *testing.T) {
	job := &recordingJob{}
	d := NewDispatcher(job, 8, discardLogger()).(*dispatcher)
	defer d.Stop()

	event := &core.ReviewEvent{RepoFullName: "acme/svc", PRNumber: 42}
	first := d.workerFor(event)
	for range 20 {
		assert.Equal(t, first, d.workerFor(event),
			"routing must be stable so runs for one PR serialize on one worker")
	}

	other := &core.ReviewEvent{RepoFullName: "acme/svc", PRNumber: 43}
	_ = d.workerFor(other) // distinct PRs may land anywhere, but must not panic
}

func TestDispatcher_SerializesRunsForOnePR(t *testing.T) {
	job := &recordingJob{block: make(chan struct{})}
	d := NewDispatcher(job, 4, discardLogger())

	event := &core.ReviewEvent{RepoFullName: "acme/svc", PRNumber: 42}
	require.NoError(t, d.Dispatch(context.Background(), event))
	require.NoError(t, d.Dispatch(context.Background(), event))

	// First run is blocked inside Run; the second must not have started.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, job.seen())

	close(job.block)
	d.Stop()
	assert.Len(t, job.seen(), 2)
}

func TestDispatcher_BackpressureWhenQueueFull(t *testing.T) {
	job := &recordingJob{block: make(chan struct{})}
	d := NewDispatcher(job, 1, discardLogger())

	event := &core.ReviewEvent{RepoFullName: "acme/svc", PRNumber: 1}

	// One event occupies the worker, 100 fill the queue; the next is refused.
	var dispatchErr error
	for range 102 {
		if err := d.Dispatch(context.Background(), event); err != nil {
			dispatchErr = err
			break
		}
	}
	assert.Error(t, dispatchErr, "a full queue must refuse instead of blocking the webhook handler")

	close(job.block)
	d.Stop()
}

func TestDispatcher_StopWaitsForInFlightJobs(t *testing.T) {
	job := &recordingJob{block: make(chan struct{})}
	d := NewDispatcher(job, 2, discardLogger())

	require.NoError(t, d.Dispatch(context.Background(), &core.ReviewEvent{RepoFullName: "acme/svc", PRNumber: 1}))

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Stop returned while a job was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(job.block)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after jobs finished")
	}
	assert.Len(t, job.seen(), 1)
}
