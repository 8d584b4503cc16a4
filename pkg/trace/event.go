package trace

import (
	"time"
)

// Method identifies the method a call-family event belongs to.
type Method struct {
	// Name is the method identifier.
	Name string

	// Owner is the name of the module or type defining the method.
	Owner string

	// Singleton is true when the method is defined on the subject itself
	// rather than on its type.
	Singleton bool
}

// Event is the immutable, normalized view of one instrumentation
// notification. It is built on the producer goroutine and handed to the
// consumer through the tracer; it does not outlive its delivery cycle
// except as returned to the caller.
type Event struct {
	kind      Kind
	path      string
	line      int
	subject   interface{}
	method    *Method
	frame     *Frame
	createdAt time.Time
}

func newEvent(kind Kind, raw Raw) *Event {
	return &Event{
		kind:      kind,
		path:      raw.Path,
		line:      raw.Line,
		subject:   raw.Subject,
		method:    raw.Method,
		frame:     raw.Frame,
		createdAt: time.Now(),
	}
}

// Kind returns the event kind.
func (e *Event) Kind() Kind { return e.kind }

// Path returns the source path of the instrumentation point.
func (e *Event) Path() string { return e.path }

// Line returns the source line of the instrumentation point.
func (e *Event) Line() int { return e.line }

// Subject returns the opaque receiver or value the event concerns.
func (e *Event) Subject() interface{} { return e.subject }

// MethodID returns the method identifier for call-family events. The
// second return is false when the event has no associated method.
func (e *Event) MethodID() (string, bool) {
	if e.method == nil {
		return "", false
	}
	return e.method.Name, true
}

// CreatedAt returns when the event was built on the producer goroutine.
func (e *Event) CreatedAt() time.Time { return e.createdAt }

// Scope returns the paused frame's variable scope. The scope is borrowed
// from the producer goroutine's live stack frame and is only valid while
// that goroutine is parked; do not retain it past the next resume.
func (e *Event) Scope() *Frame { return e.frame }

// IsCall reports whether the event is a call of either implementation
// flavor. Derived from the kind alone.
func (e *Event) IsCall() bool { return e.kind.IsCall() }

// IsReturn reports whether the event is a return of either
// implementation flavor.
func (e *Event) IsReturn() bool { return e.kind.IsReturn() }

// IsLine reports whether the event is a line step.
func (e *Event) IsLine() bool { return e.kind.IsLine() }

// IsRaise reports whether the event is an exception raise.
func (e *Event) IsRaise() bool { return e.kind.IsRaise() }

// IsModuleOpen reports whether the event marks a module body opening.
func (e *Event) IsModuleOpen() bool { return e.kind.IsModuleOpen() }

// IsModuleClose reports whether the event marks a module body closing.
func (e *Event) IsModuleClose() bool { return e.kind.IsModuleClose() }

// Record is the serializable projection of an Event for external
// consumers. It is not the canonical representation.
type Record struct {
	Event      string `json:"event"`
	Path       string `json:"path"`
	Lineno     int    `json:"lineno"`
	MethodID   string `json:"method_id,omitempty"`
	MethodType string `json:"method_type,omitempty"`
	ModuleName string `json:"module_name,omitempty"`
}

// Method type values used in serialized records.
const (
	MethodTypeSingleton = "singleton_method"
	MethodTypeInstance  = "instance_method"
)

// Serialize derives the projection record for the event. The derivation
// is idempotent and side-effect free.
func (e *Event) Serialize() Record {
	rec := Record{
		Event:  e.kind.String(),
		Path:   e.path,
		Lineno: e.line,
	}
	if e.method != nil {
		rec.MethodID = e.method.Name
		rec.ModuleName = e.method.Owner
		if e.method.Singleton {
			rec.MethodType = MethodTypeSingleton
		} else {
			rec.MethodType = MethodTypeInstance
		}
	}
	return rec
}
