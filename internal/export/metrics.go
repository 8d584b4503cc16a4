package export

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Collector collects Prometheus-compatible metrics for tracing sessions
type Collector struct {
	meter metric.Meter

	// Counters
	eventsTotal    metric.Int64Counter
	filteredTotal  metric.Int64Counter
	pausesTotal    metric.Int64Counter
	deliveredTotal metric.Int64Counter
	sessionsTotal  metric.Int64Counter

	// Histograms
	pauseDuration   metric.Float64Histogram
	sessionDuration metric.Float64Histogram

	// Gauges (using observable gauges)
	sessionsActive int64
	sessionsMu     sync.RWMutex
}

// NewCollector creates a new metrics collector using the given meter provider
func NewCollector(meterProvider metric.MeterProvider) (*Collector, error) {
	meter := meterProvider.Meter("tracegate")

	c := &Collector{meter: meter}

	var err error

	// Initialize counters
	c.eventsTotal, err = meter.Int64Counter(
		"tracegate_events_total",
		metric.WithDescription("Total number of trace events emitted"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	c.filteredTotal, err = meter.Int64Counter(
		"tracegate_events_filtered_total",
		metric.WithDescription("Total number of trace events discarded by the filter"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	c.pausesTotal, err = meter.Int64Counter(
		"tracegate_pauses_total",
		metric.WithDescription("Total number of pauses taken at the rendezvous"),
		metric.WithUnit("{pause}"),
	)
	if err != nil {
		return nil, err
	}

	c.deliveredTotal, err = meter.Int64Counter(
		"tracegate_events_delivered_total",
		metric.WithDescription("Total number of trace events delivered to the controller"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	c.sessionsTotal, err = meter.Int64Counter(
		"tracegate_sessions_total",
		metric.WithDescription("Total number of tracing sessions started"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	// Initialize histograms
	c.pauseDuration, err = meter.Float64Histogram(
		"tracegate_pause_duration_seconds",
		metric.WithDescription("Time the instrumented program spent paused per event"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	c.sessionDuration, err = meter.Float64Histogram(
		"tracegate_session_duration_seconds",
		metric.WithDescription("Tracing session duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	// Initialize observable gauges
	_, err = meter.Int64ObservableGauge(
		"tracegate_sessions_active",
		metric.WithDescription("Number of currently active tracing sessions"),
		metric.WithUnit("{session}"),
		metric.WithInt64Callback(func(ctx context.Context, observer metric.Int64Observer) error {
			c.sessionsMu.RLock()
			count := c.sessionsActive
			c.sessionsMu.RUnlock()
			observer.Observe(count)
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// RecordEvent records an emitted trace event
func (c *Collector) RecordEvent(ctx context.Context, kind string) {
	c.eventsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordFiltered records an event discarded by the filter
func (c *Collector) RecordFiltered(ctx context.Context, kind string) {
	c.filteredTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordDelivered records an event delivered to the controller
func (c *Collector) RecordDelivered(ctx context.Context, kind string) {
	c.deliveredTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordPause records a pause taken at the rendezvous and how long the
// instrumented program stayed blocked before resume
func (c *Collector) RecordPause(ctx context.Context, kind string, blocked time.Duration) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	c.pausesTotal.Add(ctx, 1, attrs)
	c.pauseDuration.Record(ctx, blocked.Seconds(), attrs)
}

// RecordSessionStart increments the active sessions gauge
func (c *Collector) RecordSessionStart(ctx context.Context) {
	c.sessionsMu.Lock()
	c.sessionsActive++
	c.sessionsMu.Unlock()

	c.sessionsTotal.Add(ctx, 1)
}

// RecordSessionEnd decrements the active sessions gauge and records
// the session duration
func (c *Collector) RecordSessionEnd(ctx context.Context, status string, duration time.Duration) {
	c.sessionsMu.Lock()
	if c.sessionsActive > 0 {
		c.sessionsActive--
	}
	c.sessionsMu.Unlock()

	c.sessionDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("status", status)))
}
