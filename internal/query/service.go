// Package query runs the collector query contract: it resolves a monitor by
// (module, purpose), samples it with Get and projects the result with Decode.
// A query with no field selection returns the raw sample.
package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/monitor/internal/models"
	"github.com/Guliveer/vitalis/monitor/internal/monitor"
)

const instrumentationName = "github.com/Guliveer/vitalis/monitor/internal/query"

// Service answers queries against a monitor registry. It holds no per-query
// state, so concurrent calls are independent and each one samples on its own.
type Service struct {
	registry *monitor.Registry
	logger   *zap.Logger
	tracer   trace.Tracer

	queries metric.Int64Counter
	latency metric.Float64Histogram
}

// New creates a query service. Instruments and spans come from the global
// OpenTelemetry providers, which are no-ops unless one was installed.
func New(registry *monitor.Registry, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := otel.Meter(instrumentationName)

	queries, err := meter.Int64Counter("monitor.queries",
		metric.WithDescription("Monitor queries by outcome"),
		metric.WithUnit("{query}"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("monitor.sample.duration",
		metric.WithDescription("Time spent in a monitor's Get"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Service{
		registry: registry,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		queries:  queries,
		latency:  latency,
	}, nil
}

// Query resolves q to a monitor, validates the field selection, samples once
// and decodes. Errors are logged once here and returned unchanged.
func (s *Service) Query(ctx context.Context, q models.Query) (models.Result, error) {
	ctx, span := s.tracer.Start(ctx, "monitor.query", trace.WithAttributes(
		attribute.String("monitor.module", q.Module),
		attribute.String("monitor.purpose", q.Purpose)))
	defer span.End()

	m, err := s.registry.Lookup(q.Module, q.Purpose)
	if err != nil {
		s.fail(ctx, span, q.Module+"/"+q.Purpose, err)
		return models.Result{}, err
	}
	id := m.Identity()
	project := strings.TrimSpace(q.Field) != ""

	if c, ok := m.(monitor.Checker); ok && project {
		if err := c.Check(q.Field); err != nil {
			s.fail(ctx, span, id.String(), err)
			return models.Result{}, err
		}
	}

	start := time.Now()
	getCtx, getSpan := s.tracer.Start(ctx, "monitor.get")
	raw, err := m.Get(getCtx, q.Para)
	elapsed := time.Since(start)
	endSpan(getSpan, err)
	s.latency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("monitor", id.String())))
	if err != nil {
		s.fail(ctx, span, id.String(), err)
		return models.Result{}, err
	}

	value := raw
	if project {
		_, decodeSpan := s.tracer.Start(ctx, "monitor.decode")
		value, err = m.Decode(raw, q.Field)
		endSpan(decodeSpan, err)
		if err != nil {
			s.fail(ctx, span, id.String(), err)
			return models.Result{}, err
		}
	}

	s.queries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("monitor", id.String()),
		attribute.String("outcome", "ok")))
	s.logger.Debug("Query complete",
		zap.Stringer("monitor", id),
		zap.Duration("sample_time", elapsed),
		zap.String("value", value))

	return models.Result{
		Module:   id.Module,
		Purpose:  id.Purpose,
		Value:    value,
		Duration: elapsed,
	}, nil
}

// Monitors describes every registered monitor.
func (s *Service) Monitors() []models.MonitorInfo {
	ids := s.registry.Identities()
	infos := make([]models.MonitorInfo, 0, len(ids))
	for _, id := range ids {
		m, err := s.registry.Lookup(id.Module, id.Purpose)
		if err != nil {
			continue
		}
		infos = append(infos, models.MonitorInfo{
			Module:  id.Module,
			Purpose: id.Purpose,
			Fields:  m.Fields(),
		})
	}
	return infos
}

func (s *Service) fail(ctx context.Context, span trace.Span, name string, err error) {
	outcome := Outcome(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	s.queries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("monitor", name),
		attribute.String("outcome", outcome)))
	s.logger.Warn("Query failed",
		zap.String("monitor", name),
		zap.String("outcome", outcome),
		zap.Error(err))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Outcome(err))
	}
	span.End()
}

// Outcome classifies err into one of the monitor error kinds.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, monitor.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, monitor.ErrUnknownField):
		return "unknown_field"
	case errors.Is(err, monitor.ErrNoDataFound):
		return "no_data"
	case errors.Is(err, monitor.ErrSamplingTool):
		return "sampling_failure"
	case errors.Is(err, monitor.ErrUnknownMonitor):
		return "unknown_monitor"
	default:
		return "error"
	}
}
