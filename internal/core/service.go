// Package core hosts the persistence orchestrator: it owns the live
// competition graph for one session, loads and saves it as an FFSS document
// through a blob store, and runs graph-level rules before accepting a graph.
package core

import (
	"context"
	"errors"
	"time"

	"meetcore/internal/blob"
	"meetcore/internal/ffss"
	"meetcore/pkg/domain"
)

var (
	// ErrNotLoaded is returned by queries and mutations issued while the
	// service holds no competition.
	ErrNotLoaded = errors.New("no competition loaded")
	// ErrAlreadyLoaded is returned by Initialize and Load when a competition is
	// already held; call Reset first.
	ErrAlreadyLoaded = errors.New("a competition is already loaded; reset first")
)

// Logger is the structured logger used by the service. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now returns the function's time.
func (f ClockFunc) Now() time.Time { return f() }

type serviceOptions struct {
	engine         *RulesEngine
	logger         Logger
	clock          Clock
	metrics        MetricsRecorder
	tracer         Tracer
	failOnWarnings bool
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

// WithRulesEngine replaces the default rule set.
func WithRulesEngine(engine *RulesEngine) ServiceOption {
	return func(o *serviceOptions) {
		if engine != nil {
			o.engine = engine
		}
	}
}

// WithLogger routes service and codec logs to logger.
func WithLogger(logger Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source used for operation timings.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithMetricsRecorder records one observation per lifecycle operation.
func WithMetricsRecorder(metrics MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithTracer wraps lifecycle operations in spans.
func WithTracer(tracer Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithFailOnWarnings makes warning-level rule violations block a graph.
func WithFailOnWarnings(enabled bool) ServiceOption {
	return func(o *serviceOptions) { o.failOnWarnings = enabled }
}

// Service owns at most one competition graph at a time.
//
// Service is not safe for concurrent use; adapters that share one instance
// across goroutines serialise access themselves.
type Service struct {
	blobs          blob.Store
	codec          *ffss.Codec
	engine         *RulesEngine
	logger         Logger
	clock          Clock
	metrics        MetricsRecorder
	tracer         Tracer
	failOnWarnings bool

	graph  *domain.Graph
	key    string
	dirty  bool
	result domain.Result
}

// NewService constructs a service persisting documents to blobs.
func NewService(blobs blob.Store, opts ...ServiceOption) *Service {
	o := serviceOptions{
		logger:  noopLogger{},
		clock:   ClockFunc(time.Now),
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		o.engine = NewDefaultRulesEngine()
	}
	return &Service{
		blobs:          blobs,
		codec:          ffss.New(ffss.WithLogger(o.logger)),
		engine:         o.engine,
		logger:         o.logger,
		clock:          o.clock,
		metrics:        o.metrics,
		tracer:         o.tracer,
		failOnWarnings: o.failOnWarnings,
	}
}

// Blobs returns the document store.
func (s *Service) Blobs() blob.Store { return s.blobs }

// RulesEngine returns the engine evaluated on Initialize, Load and Validate.
func (s *Service) RulesEngine() *RulesEngine { return s.engine }

// run times op, records it and logs the outcome.
func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := s.clock.Now()
	err := fn(ctx)
	elapsed := s.clock.Now().Sub(start)
	s.metrics.Observe(ctx, op, err == nil, elapsed)
	span.End(err)
	if err != nil {
		s.logger.Error("core operation failed", "op", op, "error", err)
		return err
	}
	s.logger.Debug("core operation completed", "op", op, "duration", elapsed)
	return nil
}

func (s *Service) loaded() (*domain.Graph, error) {
	if s.graph == nil {
		return nil, ErrNotLoaded
	}
	return s.graph, nil
}
