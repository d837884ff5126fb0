package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/jobflow/service/messaging/memory"
)

// Service publishes lifecycle events to a single listener.  Publishing never
// blocks longer than the publish timeout; events that do not fit are dropped.
type Service struct {
	publisher      *Publisher[any]
	listener       *Listener[any]
	publishTimeout time.Duration
	logger         *slog.Logger
	mux            sync.Mutex
}

// Option customises the Service
type Option func(s *Service)

// WithPublishTimeout sets how long Publish waits for queue space
func WithPublishTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		s.publishTimeout = timeout
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Publish sends an event; failures are logged, not returned, so that
// lifecycle bookkeeping is never held up by a slow listener
func (s *Service) Publish(ctx context.Context, eventContext *Context, data interface{}) {
	if s == nil {
		return
	}
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(publishCtx, NewEvent[any](eventContext, data)); err != nil {
		s.logger.Warn("event dropped", "process_id", eventContext.ProcessID, "event", string(eventContext.EventType), "error", err)
	}
}

// SetListener replaces the listener receiving events
func (s *Service) SetListener(handler func(*Event[any])) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.listener != nil {
		s.listener.Stop()
	}
	s.listener = NewListener[any](s.publisher, handler, s.logger)
	s.listener.Start()
}

// Close stops accepting events and waits until queued ones were delivered
func (s *Service) Close() error {
	err := s.publisher.Close()
	s.mux.Lock()
	listener := s.listener
	s.mux.Unlock()
	if listener != nil {
		<-listener.Done()
	}
	return err
}

// New creates a service backed by an in-memory queue of buffer events
func New(buffer int, opts ...Option) *Service {
	config := memory.DefaultConfig()
	config.QueueBuffer = buffer
	config.MaxRetries = 0
	config.DeadLetter = false
	ret := &Service{
		publisher:      NewPublisher[any](memory.NewQueue[Event[any]](config)),
		publishTimeout: 100 * time.Millisecond,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
