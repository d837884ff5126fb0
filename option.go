package jobflow

import (
	"log/slog"

	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/dao"
	"github.com/viant/jobflow/service/escalation"
	"github.com/viant/jobflow/service/event"
	"github.com/viant/jobflow/service/executor"
	"github.com/viant/jobflow/service/team"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the Service
type Option func(s *Service)

// WithConfig sets the configuration, nil keeps DefaultConfig
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithLogger sets the logger; otherwise one is built from Config.Log
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTeams registers teams in addition to the configured ones
func WithTeams(teams ...team.Team) Option {
	return func(s *Service) {
		s.extraTeams = append(s.extraTeams, teams...)
	}
}

// WithListener sets an executor listener called after every job logic run
func WithListener(listener executor.Listener) Option {
	return func(s *Service) {
		s.listener = listener
	}
}

// WithDefaultHandler sets the handler of failures no table resolves
func WithDefaultHandler(handler escalation.DefaultHandler) Option {
	return func(s *Service) {
		s.defaultHandler = handler
	}
}

// WithRecordDAO sets the finished process record store, overriding Config.Store
func WithRecordDAO(records dao.Service[string, execution.Record]) Option {
	return func(s *Service) {
		s.records = records
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter, for example OTLP, Jaeger or Zipkin.  The first successful
// initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.exporter = &exporterConfig{service: serviceName, version: serviceVersion, exporter: exporter}
	}
}

// WithEventListener publishes process lifecycle events to handler
func WithEventListener(handler func(*event.Event[any])) Option {
	return func(s *Service) {
		s.eventListener = handler
	}
}
