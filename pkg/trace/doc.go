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

// Package trace implements the pause/resume coordination engine for
// observing an instrumented unit of running code.
//
// A Tracer runs a Runnable on a dedicated producer goroutine. The
// Runnable reports each instrumentation point it reaches through its
// Probe; events admitted by the tracer's FilterSet are tested against
// the pause predicate, and an accepted event suspends the producer and
// is handed to the caller blocked in Start or Resume. While paused, the
// event's Frame exposes the producer's live variable scope for
// inspection and mutation. Strict alternation is guaranteed: at most
// one event is ever in flight, and the two goroutines never run
// instrumented logic concurrently.
//
// # Example
//
//	t := trace.New(program, trace.WithEvents(trace.KindCall, trace.KindReturn))
//	ev, err := t.Start()
//	for ev != nil && err == nil {
//		fmt.Println(ev.Serialize())
//		ev, err = t.Resume()
//	}
//
// Consumer-side calls on one Tracer must be serialized by the caller.
package trace
