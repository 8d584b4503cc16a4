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
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/tracegate/tracegate/pkg/trace"
)

// SpanSink converts delivered trace events into OpenTelemetry span
// events. One session span covers the whole tracing session; every
// delivered event becomes a span event carrying the source location
// attributes.
//
// SpanSink satisfies record.Sink so it can be fanned into a Multi
// alongside the persistence sinks.
type SpanSink struct {
	tracer    oteltrace.Tracer
	sessionID string

	mu     sync.Mutex
	span   oteltrace.Span
	raised bool
}

// NewSpanSink creates a span sink for one tracing session. The session
// span starts on the first recorded event.
func NewSpanSink(tracer oteltrace.Tracer, sessionID string) *SpanSink {
	return &SpanSink{tracer: tracer, sessionID: sessionID}
}

// Record implements record.Sink.
func (s *SpanSink) Record(ctx context.Context, ev *trace.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.span == nil {
		_, s.span = s.tracer.Start(ctx, "trace.session",
			oteltrace.WithAttributes(attribute.String("session.id", s.sessionID)))
	}

	rec := ev.Serialize()
	attrs := []attribute.KeyValue{
		attribute.String("event.kind", rec.Event),
		attribute.String("code.filepath", rec.Path),
		attribute.Int("code.lineno", rec.Lineno),
	}
	if rec.MethodID != "" {
		attrs = append(attrs, attribute.String("code.function", rec.MethodID))
	}
	if rec.ModuleName != "" {
		attrs = append(attrs, attribute.String("code.namespace", rec.ModuleName))
	}

	s.span.AddEvent(rec.Event, oteltrace.WithAttributes(attrs...))

	if ev.Kind() == trace.KindRaise {
		s.raised = true
	}
	return nil
}

// Close implements record.Sink. It ends the session span; a session
// that saw a raise event is marked as an error.
func (s *SpanSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.span == nil {
		return nil
	}
	if s.raised {
		s.span.SetStatus(codes.Error, "session raised")
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
	s.span = nil
	return nil
}
