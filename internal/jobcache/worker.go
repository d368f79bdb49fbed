package jobcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"jobportal-engine/internal/logger"
)

// RefreshFunc performs one refresh and reports whether a snapshot was installed.
type RefreshFunc func(ctx context.Context) bool

// Worker runs refreshes one at a time on a single goroutine. Triggers that
// arrive while one is already queued collapse into it.
type Worker struct {
	refresh RefreshFunc
	log     logger.Logger

	queue chan struct{}
	runs  atomic.Int64

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	waiters []chan struct{}
}

func NewWorker(refresh RefreshFunc, log logger.Logger) *Worker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Worker{
		refresh: refresh,
		log:     log,
		queue:   make(chan struct{}, 1),
	}
}

// Start launches the worker goroutine and queues the initial refresh.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return errors.New("refresh worker already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	// A trigger that arrived before Start already covers the initial run.
	select {
	case w.queue <- struct{}{}:
	default:
	}
	go w.loop(ctx, w.done)
	return nil
}

// Trigger queues a refresh without blocking. It returns false when one is
// already queued.
func (w *Worker) Trigger() bool {
	select {
	case w.queue <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop cancels any in-flight refresh and waits for the goroutine to exit.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Runs is the number of refreshes that have completed.
func (w *Worker) Runs() int64 {
	return w.runs.Load()
}

// Done returns a channel closed when the first refresh that starts after
// this call completes. A refresh already in flight does not close it.
func (w *Worker) Done() <-chan struct{} {
	ch := make(chan struct{})
	w.mu.Lock()
	w.waiters = append(w.waiters, ch)
	w.mu.Unlock()
	return ch
}

func (w *Worker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.queue:
		}
		w.runOnce(ctx)
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	w.mu.Lock()
	waiters := w.waiters
	w.waiters = nil
	w.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("refresh panicked", logger.Any("panic", r))
		}
		w.runs.Add(1)
		for _, ch := range waiters {
			close(ch)
		}
	}()
	installed := w.refresh(ctx)
	w.log.Debug("refresh finished", logger.Bool("installed", installed))
}
