// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package export

import (
	"context"
	"time"

	"github.com/tracegate/tracegate/pkg/trace"
)

// Observer feeds the tracer's producer-side event flow into the
// Collector: emissions, filter discards and pause durations.
type Observer struct {
	metrics *Collector
}

// NewObserver creates a trace.Observer backed by the Collector.
func NewObserver(metrics *Collector) *Observer {
	return &Observer{metrics: metrics}
}

// EventEmitted counts an event reaching an instrumentation point.
func (o *Observer) EventEmitted(kind trace.Kind) {
	o.metrics.RecordEvent(context.Background(), kind.String())
}

// EventFiltered counts an event the FilterSet discarded.
func (o *Observer) EventFiltered(kind trace.Kind) {
	o.metrics.RecordFiltered(context.Background(), kind.String())
}

// EventPaused counts a pause and records how long the instrumented
// program stayed parked.
func (o *Observer) EventPaused(kind trace.Kind, blocked time.Duration) {
	o.metrics.RecordPause(context.Background(), kind.String(), blocked)
}

// MetricsSink counts delivered events and session lifecycle in the
// Collector. It implements record.Sink so it slots into the same
// fan-out as the storage sinks.
type MetricsSink struct {
	metrics *Collector
	started time.Time
	status  string
}

// NewMetricsSink marks a session as started and returns a sink that
// counts every delivered event. Close records the session's end with
// its duration; a delivered raise event marks the session failed.
func NewMetricsSink(metrics *Collector) *MetricsSink {
	metrics.RecordSessionStart(context.Background())
	return &MetricsSink{
		metrics: metrics,
		started: time.Now(),
		status:  "completed",
	}
}

// Record counts one delivered event.
func (s *MetricsSink) Record(ctx context.Context, ev *trace.Event) error {
	s.metrics.RecordDelivered(ctx, ev.Kind().String())
	if ev.Kind() == trace.KindRaise {
		s.status = "failed"
	}
	return nil
}

// Close ends the session in the active sessions gauge and records its
// duration.
func (s *MetricsSink) Close() error {
	s.metrics.RecordSessionEnd(context.Background(), s.status, time.Since(s.started))
	return nil
}
