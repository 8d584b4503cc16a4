package trace

import (
	"sort"

	"github.com/tracegate/tracegate/pkg/trace/expression"
)

// Frame is a handle to one stack frame's named local variables. It is
// the execution context exposed to the consumer while the producer is
// parked at a paused event.
//
// Access is deliberately unsynchronized: the producer only touches the
// frame while running, the consumer only while the producer is parked,
// and each rendezvous handoff establishes a total happens-before order
// between the two.
type Frame struct {
	vars map[string]interface{}
}

// NewFrame creates an empty frame.
func NewFrame() *Frame {
	return &Frame{vars: make(map[string]interface{})}
}

// Get returns the value of a named local. The second return is false
// when no local with that name exists.
func (f *Frame) Get(name string) (interface{}, bool) {
	v, ok := f.vars[name]
	return v, ok
}

// Set writes a named local. New names may be introduced; the
// instrumented code observes the write after the next resume.
func (f *Frame) Set(name string, value interface{}) {
	f.vars[name] = value
}

// Names returns the frame's local variable names in sorted order.
func (f *Frame) Names() []string {
	names := make([]string, 0, len(f.vars))
	for name := range f.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a shallow copy of the frame's variable table.
func (f *Frame) Snapshot() map[string]interface{} {
	snap := make(map[string]interface{}, len(f.vars))
	for k, v := range f.vars {
		snap[k] = v
	}
	return snap
}

// Apply writes every entry of the patch into the frame. Combined with
// Snapshot it forms the snapshot-and-patch mutation API.
func (f *Frame) Apply(patch map[string]interface{}) {
	for k, v := range patch {
		f.vars[k] = v
	}
}

// frameEval compiles and caches expressions evaluated against frames.
var frameEval = expression.New()

// Eval evaluates an expression scoped to the frame's variable table and
// returns its value. The expression sees each local by name.
func (f *Frame) Eval(src string) (interface{}, error) {
	return frameEval.Evaluate(src, f.vars)
}
