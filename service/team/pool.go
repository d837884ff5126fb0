package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/jobflow/service/messaging"
	"github.com/viant/jobflow/service/messaging/memory"
)

type task struct {
	ctx        context.Context
	assignment Assignment
}

// Pool dispatches assignments to a fixed number of workers consuming a queue
type Pool struct {
	name          string
	workers       int
	submitTimeout time.Duration
	queue         messaging.Queue[task]
	logger        *slog.Logger

	mux     sync.RWMutex
	started bool
	stopped bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

type worker struct {
	id   int
	pool *Pool
	ctx  context.Context
}

// Name returns team name
func (p *Pool) Name() string { return p.name }

// Execute publishes the assignment; when the queue stays full for longer than
// the submit timeout the assignment is rejected with ErrSaturated.  The read
// lock is held through Publish so Stop never closes the queue under an
// accepted assignment.
func (p *Pool) Execute(ctx context.Context, assignment Assignment) error {
	p.mux.RLock()
	defer p.mux.RUnlock()
	if p.stopped {
		return fmt.Errorf("%v: %w", p.name, ErrStopped)
	}
	if !p.started {
		return fmt.Errorf("%v: %w", p.name, ErrNotStarted)
	}
	publishCtx := context.WithoutCancel(ctx)
	if p.submitTimeout > 0 {
		var cancel context.CancelFunc
		publishCtx, cancel = context.WithTimeout(publishCtx, p.submitTimeout)
		defer cancel()
	}
	err := p.queue.Publish(publishCtx, &task{ctx: ctx, assignment: assignment})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, messaging.ErrClosed):
		return fmt.Errorf("%v: %w", p.name, ErrStopped)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%v: assignment %v: %w", p.name, assignment.ID(), ErrSaturated)
	}
	return fmt.Errorf("%v: failed to submit %v: %w", p.name, assignment.ID(), err)
}

// Start launches workers
func (p *Pool) Start(ctx context.Context) error {
	p.mux.Lock()
	defer p.mux.Unlock()
	if p.stopped {
		return fmt.Errorf("%v: %w", p.name, ErrStopped)
	}
	if p.started {
		return nil
	}
	p.started = true
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	for i := 0; i < p.workers; i++ {
		w := &worker{id: i, pool: p, ctx: workerCtx}
		p.wg.Add(1)
		go w.run()
	}
	return nil
}

// Stop closes the queue, lets workers drain accepted assignments and waits
// for them; if ctx expires first the workers are cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mux.Lock()
	if p.stopped {
		p.mux.Unlock()
		return nil
	}
	p.stopped = true
	started := p.started
	p.mux.Unlock()
	_ = p.queue.Close()
	if !started {
		return nil
	}
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}

func (w *worker) run() {
	defer w.pool.wg.Done()
	for {
		msg, err := w.pool.queue.Consume(w.ctx)
		if err != nil {
			if errors.Is(err, messaging.ErrClosed) || errors.Is(err, context.Canceled) {
				return
			}
			w.pool.logger.Warn("team consume failed", "team", w.pool.name, "worker", w.id, "error", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if msg == nil {
			continue
		}
		t := msg.T()
		t.assignment.Run(t.ctx)
		if err = msg.Ack(); err != nil {
			w.pool.logger.Warn("team ack failed", "team", w.pool.name, "worker", w.id, "error", err)
		}
	}
}

// NewPool creates a fixed pool team
func NewPool(name string, workers, queueSize int, submitTimeout time.Duration, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	config := memory.DefaultConfig()
	config.MaxRetries = 0
	config.DeadLetter = false
	if queueSize > 0 {
		config.QueueBuffer = queueSize
	}
	return &Pool{
		name:          name,
		workers:       workers,
		submitTimeout: submitTimeout,
		queue:         memory.NewQueue[task](config),
		logger:        logger,
	}
}
