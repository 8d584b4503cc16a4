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

// Package record persists delivered trace events for later listing and
// replay. It is a consumer-side presentation layer: sinks observe the
// events the tracer hands to the controller, never the tracer's
// internals.
package record

import (
	"context"

	"github.com/tracegate/tracegate/pkg/trace"
)

// Sink receives each delivered event in delivery order.
type Sink interface {
	// Record persists one delivered event.
	Record(ctx context.Context, ev *trace.Event) error

	// Close flushes and releases the sink.
	Close() error
}

// Multi fans one event out to several sinks, in order.
type Multi []Sink

// Record implements Sink.
func (m Multi) Record(ctx context.Context, ev *trace.Event) error {
	for _, s := range m {
		if err := s.Record(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// Close implements Sink. Every sink is closed; the first error wins.
func (m Multi) Close() error {
	var firstErr error
	for _, s := range m {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
