package shift

import (
	"log/slog"

	"github.com/viant/afs"
	"github.com/viant/shift/runtime/execution"
	"github.com/viant/shift/service/dao"
	"github.com/viant/shift/service/event"
	"github.com/viant/shift/service/messaging"
	"github.com/viant/shift/service/scheduler"
	"github.com/viant/shift/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a Service
type Option func(s *Service)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithProcessDAO sets the process instance store
func WithProcessDAO(dao dao.Service[string, execution.Process]) Option {
	return func(s *Service) {
		s.processDAO = dao
	}
}

// WithScheduler sets the timer job scheduler
func WithScheduler(scheduler scheduler.Service) Option {
	return func(s *Service) {
		s.scheduler = scheduler
	}
}

// WithListener appends lifecycle listeners; they run in registration order
// and a failing listener aborts the operation that published the event.
func WithListener(listeners ...event.Listener[event.Lifecycle]) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, listeners...)
	}
}

// WithQueue forwards every published lifecycle event to queue
func WithQueue(queue messaging.Queue[event.Record]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithDefinitionFS sets the file system used to load definitions
func WithDefinitionFS(fs afs.Service) Option {
	return func(s *Service) {
		s.definitionFS = fs
	}
}

// WithMaxSteps bounds activities entered by one normal-flow call
func WithMaxSteps(steps int) Option {
	return func(s *Service) {
		s.maxSteps = steps
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// exporter writes to stdout.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		if err := tracing.Init(serviceName, serviceVersion, outputFile); err != nil {
			s.initErr = err
		}
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		if err := tracing.InitWithExporter(serviceName, serviceVersion, exporter); err != nil {
			s.initErr = err
		}
	}
}
