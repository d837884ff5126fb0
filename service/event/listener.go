package event

import (
	"context"
	"errors"
	"log/slog"

	"github.com/viant/jobflow/service/messaging"
)

// Listener delivers consumed events to a handler on its own goroutine
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewListener[T any](publisher *Publisher[T], handler func(*Event[T]), logger *slog.Logger) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Stop stops consuming and waits for the delivery goroutine
func (l *Listener[T]) Stop() {
	l.cancel()
	<-l.done
}

// Done is closed once the listener stopped, either by Stop or because the
// queue was closed and drained
func (l *Listener[T]) Done() <-chan struct{} {
	return l.done
}

func (l *Listener[T]) Start() {
	go func() {
		defer close(l.done)
		for {
			event, err := l.publisher.Consume(l.ctx)
			switch {
			case errors.Is(err, messaging.ErrClosed), l.ctx.Err() != nil:
				return
			case err != nil:
				l.logger.Warn("failed to consume event", "error", err)
				continue
			case event != nil:
				l.handler(event)
			}
		}
	}()
}
