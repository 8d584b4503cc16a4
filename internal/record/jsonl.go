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

package record

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tracegate/tracegate/pkg/trace"
)

// JSONLSink appends each delivered event's serialized record to a
// JSON-lines stream.
type JSONLSink struct {
	w      *bufio.Writer
	closer io.Closer
}

// NewJSONLSink creates a sink writing to the given writer. When the
// writer is also an io.Closer it is closed with the sink.
func NewJSONLSink(w io.Writer) *JSONLSink {
	s := &JSONLSink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenJSONLFile creates a sink appending to the named file.
func OpenJSONLFile(path string) (*JSONLSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	return NewJSONLSink(f), nil
}

// Record implements Sink.
func (s *JSONLSink) Record(_ context.Context, ev *trace.Event) error {
	data, err := json.Marshal(ev.Serialize())
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *JSONLSink) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// ReadJSONL loads the serialized records from a JSON-lines stream, in
// file order.
func ReadJSONL(r io.Reader) ([]trace.Record, error) {
	var out []trace.Record
	dec := json.NewDecoder(bufio.NewReader(r))
	for dec.More() {
		var rec trace.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
