package rrsched

import (
	"log/slog"

	"github.com/viant/afs"
	"github.com/viant/rrsched/internal/clock"
	"github.com/viant/rrsched/model"
	"github.com/viant/rrsched/progress"
	"github.com/viant/rrsched/service/dump"
	"github.com/viant/rrsched/service/event"
	"github.com/viant/rrsched/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option represents a service option
type Option func(s *Service)

// WithConfig sets the simulation configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLogger sets the logger; by default one is built from Config.Log
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTicker sets the scheduling clock; by default a wall clock ticker firing
// every scheduler tick interval is used
func WithTicker(ticker clock.Ticker) Option {
	return func(s *Service) {
		s.ticker = ticker
	}
}

// WithSink sets the dump sink; by default a storage sink writing to
// Config.Dump.URL is used. A supplied sink is not closed by the service.
func WithSink(sink dump.Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// WithFs sets the file system used by the default storage sink
func WithFs(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithProgress registers a callback invoked with the counters after every tick
func WithProgress(onChange func(progress.Counters)) Option {
	return func(s *Service) {
		s.onProgress = onChange
	}
}

// WithEvents registers a status event handler; events are delivered on a
// separate goroutine and dropped when the handler falls behind
func WithEvents(handler func(*event.Event[model.StatusEvent])) Option {
	return func(s *Service) {
		s.onEvent = handler
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// spans are written to stdout.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		s.tracingErr = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.tracingErr = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
