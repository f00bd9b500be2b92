package pipeline

import (
	"context"

	"github.com/panjf2000/ants/v2"
)

// DefaultConcurrency is the default number of jobs in flight per stage
const DefaultConcurrency = 10

// Job is one unit of stage work bound to its execution and persistence.
// Jobs are independent of each other and may fail without affecting
// siblings.
type Job func(ctx context.Context) error

// Snapshot reports batch progress. One snapshot is emitted after each job
// settles, successfully or not.
type Snapshot struct {
	Total     int
	Completed int
	Errored   int
}

// Settled returns how many jobs have reached a terminal outcome
func (s Snapshot) Settled() int {
	return s.Completed + s.Errored
}

// Runner executes batches of independent jobs with bounded concurrency.
type Runner struct {
	concurrency int
}

// NewRunner creates a Runner that keeps at most concurrency jobs in flight
func NewRunner(concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{concurrency: concurrency}
}

// Run schedules the batch and returns a finite channel of snapshots, one per
// settled job. A failing job increments the error counter and is neither
// retried nor allowed to cancel siblings. Once ctx is cancelled no new job
// is started: a submit queued behind a saturated pool settles as errored
// without running, and jobs already in flight run to completion before the
// channel closes. The channel is buffered for the whole batch, so the batch
// finishes even if the caller stops receiving.
func (r *Runner) Run(ctx context.Context, jobs []Job) <-chan Snapshot {
	snapshots := make(chan Snapshot, len(jobs))

	go func() {
		defer close(snapshots)
		if len(jobs) == 0 {
			return
		}

		pool, err := ants.NewPool(r.concurrency)
		if err != nil {
			// Pool construction only fails on a non-positive size, which
			// NewRunner rules out. Fall back to inline execution anyway.
			r.runInline(ctx, jobs, snapshots)
			return
		}
		defer pool.Release()

		results := make(chan error, len(jobs))
		dispatched := 0
		for _, job := range jobs {
			if ctx.Err() != nil {
				break
			}
			job := job
			// Submit blocks while the pool is saturated, which is what
			// bounds the number of jobs in flight. The pool may hand the
			// closure to a worker only after cancellation, so re-check ctx
			// before the job runs.
			if err := pool.Submit(func() {
				if err := ctx.Err(); err != nil {
					results <- err
					return
				}
				results <- job(ctx)
			}); err != nil {
				results <- err
			}
			dispatched++
		}

		snap := Snapshot{Total: len(jobs)}
		for i := 0; i < dispatched; i++ {
			if err := <-results; err != nil {
				snap.Errored++
			} else {
				snap.Completed++
			}
			snapshots <- snap
		}
	}()

	return snapshots
}

func (r *Runner) runInline(ctx context.Context, jobs []Job, snapshots chan<- Snapshot) {
	snap := Snapshot{Total: len(jobs)}
	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		if err := job(ctx); err != nil {
			snap.Errored++
		} else {
			snap.Completed++
		}
		snapshots <- snap
	}
}
