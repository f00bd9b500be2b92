package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor is one unit of periodic background work
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker drives a JobProcessor on a fixed interval. The processor runs once
// immediately on start, then once per tick; a failing tick is logged and the
// loop keeps going. Safe because reindex ticks are idempotent.
type Worker struct {
	processor JobProcessor
	interval  time.Duration
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(processor JobProcessor, interval time.Duration) *Worker {
	return &Worker{
		processor: processor,
		interval:  interval,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start begins the worker's tick loop. It blocks until the context is
// cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("jobs: worker started (interval %v)", w.interval)

	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("jobs: worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("jobs: worker stopped: stop signal received")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := w.processor.ProcessJobs(ctx); err != nil {
		log.Printf("jobs: tick failed: %v", err)
	}
}

// Stop signals the loop to exit and waits for it to drain
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("jobs: worker shutdown complete")
}
