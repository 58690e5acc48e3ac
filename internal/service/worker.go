package service

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrStopped is reported for operations that never ran because the worker stopped
var ErrStopped = errors.New("customer worker stopped")

// job is one storage operation and the channel its single outcome goes to
type job struct {
	name string
	run  func(ctx context.Context) error
	done chan error
}

// Worker runs storage operations one at a time, in submission order
type Worker struct {
	jobs chan job

	mu      sync.RWMutex
	stopped bool
	stop    chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// Constructor
func NewWorker(buffer int) *Worker {
	if buffer < 0 {
		buffer = 0
	}
	return &Worker{
		jobs: make(chan job, buffer),
		stop: make(chan struct{}),
	}
}

// Start begins processing jobs. Only the first call has any effect, and a
// stopped worker is never started. Cancelling ctx does not interrupt a job
// that is already running; use Stop to shut the worker down.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.mu.RLock()
		stopped := w.stopped
		w.mu.RUnlock()
		if stopped {
			return
		}
		opCtx := context.WithoutCancel(ctx)
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.loop(opCtx)
		}()
	})
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case j := <-w.jobs:
			err := j.run(ctx)
			if err != nil {
				log.Printf("⚠️ %s failed: %v", j.name, err)
			}
			j.done <- err
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case j := <-w.jobs:
			j.done <- ErrStopped
		default:
			return
		}
	}
}

// Submit queues run and returns the channel that receives its outcome.
// The channel receives exactly one value.
func (w *Worker) Submit(name string, run func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		done <- ErrStopped
		return done
	}
	select {
	case w.jobs <- job{name: name, run: run, done: done}:
	case <-w.stop:
		done <- ErrStopped
	}
	return done
}

// Stop fails queued jobs with ErrStopped and waits for the running one.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.mu.Lock()
		w.stopped = true
		w.mu.Unlock()
	})
	w.wg.Wait()
	w.drain()
}
