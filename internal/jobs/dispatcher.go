// Package jobs defines background tasks such as automated review runs.
package jobs

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/sevigo/review-keeper/internal/core"
)

// dispatcher implements core.JobDispatcher with a fixed pool of workers.
// Events are routed to a worker by hashing the change-request key, so all
// runs for one pull request execute on the same worker and are therefore
// serialized. Reconciliation and vote updates perform read-modify-write
// cycles without an optimistic concurrency token; this routing is what makes
// that safe. Work on distinct pull requests still runs in parallel.
type dispatcher struct {
	reviewJob  core.Job
	queues     []chan *core.ReviewEvent
	maxWorkers int
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewDispatcher initializes a dispatcher with a worker pool.
// If maxWorkers is 0 or negative, it defaults to 1.
func NewDispatcher(reviewJob core.Job, maxWorkers int, logger *slog.Logger) core.JobDispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	d := &dispatcher{
		reviewJob:  reviewJob,
		maxWorkers: maxWorkers,
		queues:     make([]chan *core.ReviewEvent, maxWorkers),
		logger:     logger,
	}
	for i := range d.queues {
		d.queues[i] = make(chan *core.ReviewEvent, 100)
	}
	d.startWorkers()
	return d
}

// startWorkers launches one goroutine per queue.
func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes events from its own queue until it's closed.
func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Info("starting review worker", "id", workerID)

	for event := range d.queues[workerID] {
		d.processEvent(workerID, event)
	}

	d.logger.Info("shutting down review worker", "id", workerID)
}

// processEvent logs and runs a review job for an event.
func (d *dispatcher) processEvent(workerID int, event *core.ReviewEvent) {
	d.logger.Info("worker processing job",
		"worker_id", workerID,
		"repo", event.RepoFullName,
		"pr", event.PRNumber,
	)

	if err := d.reviewJob.Run(context.Background(), event); err != nil {
		d.logger.Error("review job failed",
			"repo", event.RepoFullName,
			"pr", event.PRNumber,
			"error", err,
		)
	}
}

// Dispatch queues an event on the worker that owns its change request.
func (d *dispatcher) Dispatch(_ context.Context, event *core.ReviewEvent) error {
	queue := d.queues[d.workerFor(event)]

	d.logger.Info("queuing review job", "repo", event.RepoFullName, "pr", event.PRNumber)

	select {
	case queue <- event:
		return nil
	default:
		return fmt.Errorf("job queue is full, cannot accept new review job")
	}
}

// workerFor maps a change request to its owning worker.
func (d *dispatcher) workerFor(event *core.ReviewEvent) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(event.Key()))
	return int(h.Sum32() % uint32(d.maxWorkers))
}

// Stop gracefully shuts down the dispatcher, waiting for all workers to finish.
func (d *dispatcher) Stop() {
	d.logger.Info("stopping dispatcher and waiting for jobs to finish")
	for _, queue := range d.queues {
		close(queue)
	}
	d.wg.Wait()
	d.logger.Info("all review jobs have finished")
}
