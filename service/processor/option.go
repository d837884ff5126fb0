package processor

import (
	"log/slog"
	"time"

	"github.com/viant/jobflow/metrics"
	"github.com/viant/jobflow/model/graph"
	"github.com/viant/jobflow/policy"
	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/dao"
	"github.com/viant/jobflow/service/escalation"
	"github.com/viant/jobflow/service/event"
	"github.com/viant/jobflow/service/executor"
	"github.com/viant/jobflow/service/resource"
	"github.com/viant/jobflow/service/team"
)

// Option customises the processor
type Option func(*Service)

// WithConfig sets the configuration
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithTeams sets the team registry
func WithTeams(teams *team.Registry) Option {
	return func(s *Service) {
		s.teams = teams
	}
}

// WithResources sets the resource container
func WithResources(container *resource.Container) Option {
	return func(s *Service) {
		s.resources = container
	}
}

// WithExecutor sets the job logic executor
func WithExecutor(executor executor.Service) Option {
	return func(s *Service) {
		s.executor = executor
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = collector
	}
}

// WithDefaultHandler sets the handler of failures no table resolves
func WithDefaultHandler(handler escalation.DefaultHandler) Option {
	return func(s *Service) {
		s.defaultHandler = handler
	}
}

// WithPolicy sets the admission policy used when the context carries none
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithProcessDAO sets the live process store
func WithProcessDAO(processDAO dao.Service[string, execution.Process]) Option {
	return func(s *Service) {
		s.processDAO = processDAO
	}
}

// WithRecordDAO sets the finished process record store
func WithRecordDAO(recordDAO dao.Service[string, execution.Record]) Option {
	return func(s *Service) {
		s.recordDAO = recordDAO
	}
}

// InvokeOption customises one invocation
type InvokeOption func(*invocation)

type invocation struct {
	id          string
	escalations graph.Escalations
	timeout     time.Duration
	onDone      []func(*execution.Outcome)
}

// WithProcessID sets the process id instead of generating one
func WithProcessID(id string) InvokeOption {
	return func(i *invocation) {
		i.id = id
	}
}

// WithEscalation adds a process level handler for this invocation only
func WithEscalation(kind graph.FailureKind, handler string) InvokeOption {
	return func(i *invocation) {
		i.escalations = append(i.escalations, &graph.Escalation{Kind: kind, Handler: handler})
	}
}

// WithTimeout interrupts the process once timeout elapses
func WithTimeout(timeout time.Duration) InvokeOption {
	return func(i *invocation) {
		i.timeout = timeout
	}
}

// WithCompletion registers a completion callback
func WithCompletion(fn func(*execution.Outcome)) InvokeOption {
	return func(i *invocation) {
		i.onDone = append(i.onDone, fn)
	}
}

// WithEvents publishes lifecycle events to events
func WithEvents(events *event.Service) Option {
	return func(s *Service) {
		s.events = events
	}
}
