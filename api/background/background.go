// Package background runs fire-and-forget tasks on a fixed set of workers fed
// by a bounded queue.
package background

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull = errors.New("background queue is full")
	ErrClosed    = errors.New("background runner is shut down")
)

type Task func(ctx context.Context) error

type job struct {
	id   string
	name string
	task Task
}

type Background struct {
	log   logrus.FieldLogger
	queue chan job

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	mu     sync.RWMutex
	closed bool
}

func New(log logrus.FieldLogger, workers, queueSize int) *Background {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	bg := &Background{
		log:    log,
		queue:  make(chan job, queueSize),
		ctx:    ctx,
		cancel: cancel,
		group:  &errgroup.Group{},
	}

	for i := 0; i < workers; i++ {
		bg.group.Go(bg.work)
	}
	return bg
}

func (b *Background) work() error {
	for j := range b.queue {
		b.run(j)
	}
	return nil
}

func (b *Background) run(j job) {
	log := b.log.WithFields(logrus.Fields{"task": j.name, "task_id": j.id})

	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("background task panicked")
		}
	}()

	if err := j.task(b.ctx); err != nil {
		log.WithError(err).Error("background task failed")
		return
	}
	log.Debug("background task done")
}

// Submit queues the task without blocking. A full queue or a runner that is
// shutting down rejects the task; the caller decides how to report it.
func (b *Background) Submit(name string, task Task) error {
	j := job{id: uuid.NewString(), name: name, task: task}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	select {
	case b.queue <- j:
		return nil
	default:
		return fmt.Errorf("%w (capacity %d)", ErrQueueFull, cap(b.queue))
	}
}

// Pending reports the number of queued tasks not yet picked up by a worker.
func (b *Background) Pending() int {
	return len(b.queue)
}

// Shutdown stops accepting tasks and waits for queued ones to finish. When ctx
// expires first, running tasks see their context cancelled.
func (b *Background) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- b.group.Wait()
	}()

	select {
	case err := <-done:
		b.cancel()
		return err
	case <-ctx.Done():
		b.cancel()
		return fmt.Errorf("waiting for %d queued tasks: %w", len(b.queue), ctx.Err())
	}
}
