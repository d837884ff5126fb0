package jobflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/viant/jobflow/metrics"
	"github.com/viant/jobflow/model"
	"github.com/viant/jobflow/policy"
	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/dao"
	processdao "github.com/viant/jobflow/service/dao/process/memory"
	"github.com/viant/jobflow/service/escalation"
	"github.com/viant/jobflow/service/event"
	"github.com/viant/jobflow/service/executor"
	"github.com/viant/jobflow/service/processor"
	"github.com/viant/jobflow/service/resource"
	"github.com/viant/jobflow/service/team"
	"github.com/viant/jobflow/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type exporterConfig struct {
	service  string
	version  string
	exporter sdktrace.SpanExporter
}

// Service wires teams, the resource container, stores and observability
// shared by every engine it creates
type Service struct {
	config         *Config
	logger         *slog.Logger
	teams          *team.Registry
	extraTeams     []team.Team
	resources      *resource.Container
	executor       executor.Service
	listener       executor.Listener
	metrics        *metrics.Collector
	policy         *policy.Policy
	defaultHandler escalation.DefaultHandler
	processes      *processdao.Service
	records        dao.Service[string, execution.Record]
	closer         io.Closer
	events         *event.Service
	eventListener  func(*event.Event[any])
	exporter       *exporterConfig
	tracing        bool
	mux            sync.Mutex
	engines        []*processor.Service
}

func (s *Service) init(ctx context.Context, options []Option) error {
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if s.logger == nil {
		logger, err := NewLogger(s.config.Log, os.Stderr)
		if err != nil {
			return err
		}
		s.logger = logger
	}
	if err := s.initTracing(); err != nil {
		return err
	}
	if s.config.Metrics.Enabled {
		s.metrics = metrics.NewCollector()
	}
	s.teams = team.NewRegistry()
	for _, config := range s.config.Teams {
		aTeam, err := team.New(config, s.logger)
		if err != nil {
			return err
		}
		s.teams.Register(aTeam)
	}
	s.teams.Register(s.extraTeams...)
	s.resources = resource.New(resource.WithConfig(s.config.Resources), resource.WithObserver(s.metrics))
	if s.listener == nil {
		s.listener = executor.LogListener(s.logger)
	}
	s.executor = executor.New(executor.WithListener(s.listener))
	if s.config.Policy != nil {
		s.policy = policy.FromConfig(s.config.Policy)
	}
	if s.eventListener != nil {
		s.events = event.New(s.config.Events.Buffer,
			event.WithPublishTimeout(s.config.Events.PublishTimeout),
			event.WithLogger(s.logger))
		s.events.SetListener(s.eventListener)
	}
	s.processes = processdao.New()
	if s.records == nil {
		records, closer, err := newRecordDAO(ctx, s.config.Store)
		if err != nil {
			return err
		}
		s.records, s.closer = records, closer
	}
	return nil
}

func (s *Service) initTracing() error {
	switch {
	case s.exporter != nil:
		if err := tracing.InitWithExporter(s.exporter.service, s.exporter.version, s.exporter.exporter); err != nil {
			return fmt.Errorf("failed to initialise tracing: %w", err)
		}
	case s.config.Tracing.Enabled:
		if err := tracing.InitConfig(s.config.Tracing); err != nil {
			return fmt.Errorf("failed to initialise tracing: %w", err)
		}
	default:
		return nil
	}
	s.tracing = true
	return nil
}

// Engine creates a processor for aGraph sharing the service teams,
// resource container, stores and observability
func (s *Service) Engine(aGraph *model.Graph, options ...processor.Option) (*processor.Service, error) {
	base := []processor.Option{
		processor.WithConfig(s.config.Processor),
		processor.WithTeams(s.teams),
		processor.WithResources(s.resources),
		processor.WithExecutor(s.executor),
		processor.WithLogger(s.logger.With("graph", aGraph.Name)),
		processor.WithMetrics(s.metrics),
		processor.WithPolicy(s.policy),
		processor.WithProcessDAO(s.processes),
		processor.WithRecordDAO(s.records),
		processor.WithEvents(s.events),
	}
	if s.defaultHandler != nil {
		base = append(base, processor.WithDefaultHandler(s.defaultHandler))
	}
	engine, err := processor.New(aGraph, append(base, options...)...)
	if err != nil {
		return nil, err
	}
	s.mux.Lock()
	s.engines = append(s.engines, engine)
	s.mux.Unlock()
	return engine, nil
}

// Interrupt injects a synthetic escalation into a live process of any engine
func (s *Service) Interrupt(ctx context.Context, processID string, cause error) error {
	process, err := s.processes.Load(ctx, processID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return fmt.Errorf("%w: %v", processor.ErrNotRunning, processID)
		}
		return err
	}
	owner := s.lookup(process.Graph)
	if owner == nil {
		return fmt.Errorf("%w: no engine for %v", processor.ErrNotRunning, processID)
	}
	return owner.Interrupt(ctx, processID, cause)
}

func (s *Service) lookup(aGraph *model.Graph) *processor.Service {
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, engine := range s.engines {
		if engine.Graph() == aGraph {
			return engine
		}
	}
	return nil
}

// Run invokes entry on the engine of aGraph, created on first use, and waits
// for the outcome
func (s *Service) Run(ctx context.Context, aGraph *model.Graph, entry string, parameter interface{}, options ...processor.InvokeOption) (*execution.Outcome, error) {
	engine := s.lookup(aGraph)
	if engine == nil {
		var err error
		if engine, err = s.Engine(aGraph); err != nil {
			return nil, err
		}
	}
	process, err := engine.Invoke(ctx, entry, parameter, options...)
	if err != nil {
		return nil, err
	}
	return process.Wait(ctx)
}

// Start starts lifecycle teams
func (s *Service) Start(ctx context.Context) error {
	return s.teams.Start(ctx)
}

// Shutdown stops teams, drains resource pools, delivers pending events,
// flushes traces and closes the record store
func (s *Service) Shutdown(ctx context.Context) error {
	errs := []error{s.teams.Stop(ctx), s.resources.Drain(ctx)}
	if s.events != nil {
		errs = append(errs, s.events.Close())
	}
	if s.tracing {
		errs = append(errs, tracing.Shutdown(ctx))
	}
	if s.closer != nil {
		errs = append(errs, s.closer.Close())
	}
	return errors.Join(errs...)
}

// Process returns a live process of any engine
func (s *Service) Process(ctx context.Context, id string) (*execution.Process, error) {
	return s.processes.Load(ctx, id)
}

// Processes returns the live process store
func (s *Service) Processes() dao.Service[string, execution.Process] {
	return s.processes
}

// Records returns the finished process record store
func (s *Service) Records() dao.Service[string, execution.Record] {
	return s.records
}

// Metrics returns the metrics collector, nil when metrics are disabled
func (s *Service) Metrics() *metrics.Collector {
	return s.metrics
}

// Teams returns the team registry
func (s *Service) Teams() *team.Registry {
	return s.teams
}

// Logger returns the logger
func (s *Service) Logger() *slog.Logger {
	return s.logger
}

// Config returns the configuration
func (s *Service) Config() *Config {
	return s.config
}

// New creates a service
func New(ctx context.Context, options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig()}
	if err := ret.init(ctx, options); err != nil {
		return nil, err
	}
	return ret, nil
}
