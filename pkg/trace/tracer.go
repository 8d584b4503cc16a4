package trace

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tracegate/tracegate/pkg/errors"
)

// State is the lifecycle state of a Tracer.
type State int

const (
	// StateCreated is the initial state; no worker goroutine exists yet.
	StateCreated State = iota

	// StatePaused means the producer is parked at a delivered event.
	StatePaused

	// StateFinished means the runnable has terminated, normally or via
	// an unhandled failure.
	StateFinished

	// StateDisposed is terminal from every other state.
	StateDisposed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// terminated unwinds the runnable when the tracer is disposed.
type terminated struct{}

// Default bound on how long Dispose waits for a parked worker to unwind.
const defaultDisposeTimeout = 5 * time.Second

// Tracer runs an instrumented unit of code on a dedicated producer
// goroutine and alternates control with the calling goroutine: each
// Start/Resume releases the producer and blocks until it either parks
// at the next qualifying event or terminates.
//
// Start, Resume and PauseWhen must be serialized by the caller.
// Dispose may be called from any goroutine, including while another
// goroutine is blocked in Start or Resume.
type Tracer struct {
	id       string
	runnable Runnable
	filter   FilterSet
	pred     Predicate
	logger   *slog.Logger
	observer Observer

	rz *rendezvous

	mu             sync.Mutex // guards state, started, done, last
	state          State
	started        bool
	done           chan struct{}
	last           *Event
	disposeTimeout time.Duration
}

// Observer receives producer-side notifications about event flow:
// every emission, every event the filter discards, and every pause
// with how long the producer stayed parked. Calls happen on the
// producer goroutine; implementations must not block on the tracer.
type Observer interface {
	EventEmitted(kind Kind)
	EventFiltered(kind Kind)
	EventPaused(kind Kind, blocked time.Duration)
}

// Option configures a Tracer at construction.
type Option func(*Tracer)

// WithFilter sets the tracer's FilterSet.
func WithFilter(f FilterSet) Option {
	return func(t *Tracer) { t.filter = f }
}

// WithEvents sets the FilterSet to exactly the given kinds.
func WithEvents(kinds ...Kind) Option {
	return func(t *Tracer) { t.filter = NewFilter(kinds...) }
}

// WithAllEvents sets the wildcard FilterSet.
func WithAllEvents() Option {
	return func(t *Tracer) { t.filter = AllEvents() }
}

// WithLogger sets the structured logger for lifecycle logging.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithObserver attaches an Observer for event flow notifications.
func WithObserver(o Observer) Option {
	return func(t *Tracer) { t.observer = o }
}

// WithDisposeTimeout bounds how long Dispose waits for the worker
// goroutine to unwind before reporting a DisposalError.
func WithDisposeTimeout(d time.Duration) Option {
	return func(t *Tracer) {
		if d > 0 {
			t.disposeTimeout = d
		}
	}
}

// New constructs a Tracer in the Created state. No goroutine is spawned
// until the first Start or Resume. The FilterSet defaults to call,
// return, c_call and c_return; the pause predicate defaults to pausing
// on those same kinds.
func New(runnable Runnable, opts ...Option) *Tracer {
	t := &Tracer{
		id:             uuid.NewString(),
		runnable:       runnable,
		filter:         DefaultFilter(),
		pred:           DefaultPredicate(),
		logger:         slog.New(slog.DiscardHandler),
		rz:             newRendezvous(),
		state:          StateCreated,
		disposeTimeout: defaultDisposeTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID returns the tracer's unique identifier, used in logs and records.
func (t *Tracer) ID() string { return t.id }

// State returns the tracer's current lifecycle state.
func (t *Tracer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Filter returns the tracer's FilterSet.
func (t *Tracer) Filter() FilterSet { return t.filter }

// LastEvent returns the most recently delivered event, or nil when no
// event is currently delivered.
func (t *Tracer) LastEvent() *Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// PauseWhen installs the pause predicate. Exactly one predicate is
// active; the last install before the worker starts wins. Installing a
// predicate after the first Start/Resume races with the producer
// already evaluating the old one, so it is rejected with a StateError.
func (t *Tracer) PauseWhen(pred Predicate) error {
	t.mu.Lock()
	blocked := t.state != StateCreated || t.started
	st := t.state
	t.mu.Unlock()
	if blocked {
		return &errors.StateError{
			Op:         "pause_when",
			State:      st.String(),
			Suggestion: "install the pause predicate before the first start or resume",
		}
	}
	if pred == nil {
		return &errors.ValidationError{
			Field:      "predicate",
			Message:    "pause predicate must not be nil",
			Suggestion: "pass a Predicate function or use DefaultPredicate()",
		}
	}
	t.pred = pred
	return nil
}

// PauseWhenExpr installs a pause predicate compiled from a boolean
// expression over the event environment (see PauseExpr).
func (t *Tracer) PauseWhenExpr(src string) error {
	pred, err := PauseExpr(src)
	if err != nil {
		return err
	}
	return t.PauseWhen(pred)
}

// Start spawns the worker goroutine and blocks until the first
// qualifying event is delivered or the runnable terminates. It returns
// the event, or (nil, nil) when the runnable finished before any
// qualifying event. Valid only from Created.
func (t *Tracer) Start() (*Event, error) {
	t.mu.Lock()
	if t.state != StateCreated {
		st := t.state
		t.mu.Unlock()
		return nil, &errors.StateError{
			Op:         "start",
			State:      st.String(),
			Suggestion: "use Resume to advance a started tracer",
		}
	}
	return t.startLocked("start")
}

// Resume releases the parked producer and blocks until the next
// qualifying event or termination, with the same return contract as
// Start. From Created it behaves as Start; after Finished it
// consistently returns (nil, nil); after Dispose it reports a
// StateError.
func (t *Tracer) Resume() (*Event, error) {
	t.mu.Lock()
	switch t.state {
	case StateCreated:
		// Convenience alias for Start.
		return t.startLocked("resume")
	case StatePaused:
		t.last = nil
		t.mu.Unlock()
		if !t.rz.signal() {
			return nil, &errors.StateError{Op: "resume", State: StateDisposed.String()}
		}
		return t.awaitNext("resume")
	case StateFinished:
		t.mu.Unlock()
		return nil, nil
	default:
		st := t.state
		t.mu.Unlock()
		return nil, &errors.StateError{
			Op:         "resume",
			State:      st.String(),
			Suggestion: "a disposed tracer cannot be resumed; create a new one",
		}
	}
}

// Dispose forcibly terminates the tracer. A parked producer is
// unblocked and its runnable unwound at the next opportunity; the
// rendezvous is poisoned so every future Start/Resume reports a
// StateError instead of blocking. Valid from any state and idempotent.
// A non-nil DisposalError is best-effort information: the tracer is
// Disposed regardless.
func (t *Tracer) Dispose() error {
	t.mu.Lock()
	if t.state == StateDisposed {
		t.mu.Unlock()
		return nil
	}
	from := t.state
	t.state = StateDisposed
	t.last = nil
	started := t.started
	done := t.done
	t.mu.Unlock()

	t.logger.Debug("disposing tracer",
		slog.String("tracer_id", t.id),
		slog.String("from_state", from.String()))
	t.rz.kill()

	if !started {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-time.After(t.disposeTimeout):
		// The worker only unwinds at instrumentation points; a runnable
		// busy elsewhere cannot be interrupted.
		return &errors.DisposalError{Timeout: t.disposeTimeout}
	}
}

// startLocked spawns the worker and performs the first handoff. The
// caller holds t.mu; it is released before the handoff blocks.
func (t *Tracer) startLocked(op string) (*Event, error) {
	t.started = true
	t.done = make(chan struct{})
	done := t.done
	t.mu.Unlock()
	t.logger.Debug("starting tracer",
		slog.String("tracer_id", t.id),
		slog.String("events", t.filter.String()))
	go t.run(done)
	return t.awaitNext(op)
}

// run is the producer goroutine body.
func (t *Tracer) run(done chan struct{}) {
	defer close(done)
	defer func() {
		switch r := recover().(type) {
		case nil:
			t.rz.complete(message{})
		case terminated:
			// Disposed; nobody is awaiting.
		default:
			t.failProducer(r)
		}
	}()
	t.runnable(&Probe{t: t})
}

// emit is the producer-side path for every instrumentation point.
func (t *Tracer) emit(kind Kind, raw Raw) {
	if t.rz.poisoned() {
		panic(terminated{})
	}
	if t.observer != nil {
		t.observer.EventEmitted(kind)
	}
	if !t.filter.Admits(kind) {
		if t.observer != nil {
			t.observer.EventFiltered(kind)
		}
		return
	}
	ev := newEvent(kind, raw)
	pause, err := t.evalPredicate(ev)
	if err != nil {
		t.rz.complete(message{err: &errors.PredicateError{
			Kind:  kind.String(),
			Path:  raw.Path,
			Line:  raw.Line,
			Cause: err,
		}})
		panic(terminated{})
	}
	if !pause {
		return
	}
	if !t.deliver(ev) {
		panic(terminated{})
	}
}

// deliver publishes ev and parks until resume or disposal, reporting
// the parked duration to the observer.
func (t *Tracer) deliver(ev *Event) bool {
	if t.observer == nil {
		return t.rz.publish(ev)
	}
	parked := time.Now()
	ok := t.rz.publish(ev)
	t.observer.EventPaused(ev.Kind(), time.Since(parked))
	return ok
}

// evalPredicate guards the user predicate against panics so a faulty
// predicate surfaces as a PredicateError rather than killing the
// producer silently.
func (t *Tracer) evalPredicate(ev *Event) (pause bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			pause, err = false, fmt.Errorf("predicate panicked: %v", r)
		}
	}()
	return t.pred(ev)
}

// failProducer handles an unhandled failure escaping the runnable. If
// raise events are admitted and the predicate accepts one, it is
// delivered as a final paused event with the failure held; the failure
// itself then surfaces on the consumer's next call.
func (t *Tracer) failProducer(value interface{}) {
	failure := &errors.InstrumentedFailure{Value: value, Stack: debug.Stack()}
	if t.filter.Admits(KindRaise) {
		ev := newEvent(KindRaise, Raw{Subject: value})
		pause, err := t.evalPredicate(ev)
		if err != nil {
			t.rz.complete(message{err: &errors.PredicateError{
				Kind:  KindRaise.String(),
				Cause: err,
			}})
			return
		}
		if pause && !t.deliver(ev) {
			return
		}
	}
	t.rz.complete(message{err: failure})
}

// awaitNext blocks until the producer's next message and applies the
// resulting state transition. A concurrent Dispose wins: once the
// tracer is Disposed the transition is discarded.
func (t *Tracer) awaitNext(op string) (*Event, error) {
	m, ok := t.rz.await()
	if !ok {
		return nil, &errors.StateError{Op: op, State: StateDisposed.String()}
	}
	t.mu.Lock()
	if t.state == StateDisposed {
		t.mu.Unlock()
		return nil, &errors.StateError{Op: op, State: StateDisposed.String()}
	}
	switch {
	case m.err != nil:
		t.last = nil
		var pe *errors.PredicateError
		if stderrors.As(m.err, &pe) {
			// A failed predicate leaves no well-defined paused state to
			// return to; poison the rendezvous outright.
			t.state = StateDisposed
			t.mu.Unlock()
			t.rz.kill()
			t.logger.Error("pause predicate failed",
				slog.String("tracer_id", t.id),
				slog.Any("error", m.err))
		} else {
			t.state = StateFinished
			t.mu.Unlock()
			t.logger.Debug("runnable failed",
				slog.String("tracer_id", t.id),
				slog.Any("error", m.err))
		}
		return nil, m.err
	case m.event != nil:
		t.state = StatePaused
		t.last = m.event
		t.mu.Unlock()
		t.logger.Debug("paused",
			slog.String("tracer_id", t.id),
			slog.String("kind", m.event.Kind().String()),
			slog.String("path", m.event.Path()),
			slog.Int("line", m.event.Line()))
		return m.event, nil
	default:
		t.state = StateFinished
		t.last = nil
		t.mu.Unlock()
		t.logger.Debug("runnable finished", slog.String("tracer_id", t.id))
		return nil, nil
	}
}
