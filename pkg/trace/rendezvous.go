package trace

import (
	"sync"
)

// message is one handoff from producer to consumer: a paused event, a
// terminal failure, or (both nil) normal completion.
type message struct {
	event *Event
	err   error
}

// rendezvous is the cross-goroutine handoff enforcing strict
// alternation between the producer and the consumer. Both channels are
// unbuffered so at most one message is ever in flight, and neither side
// runs while the other holds control.
//
// Closing poison moves the rendezvous to its poisoned state. The state
// is reachable only through Dispose or a terminal predicate failure and
// is permanent: every blocked or future operation returns immediately
// instead of blocking.
type rendezvous struct {
	events chan message  // producer -> consumer
	resume chan struct{} // consumer -> producer
	poison chan struct{}
	once   sync.Once
}

func newRendezvous() *rendezvous {
	return &rendezvous{
		events: make(chan message),
		resume: make(chan struct{}),
		poison: make(chan struct{}),
	}
}

// publish hands a paused event to the consumer and parks until the
// consumer signals resume. Returns false when the rendezvous was
// poisoned, either before the handoff or while parked.
func (r *rendezvous) publish(ev *Event) bool {
	select {
	case r.events <- message{event: ev}:
	case <-r.poison:
		return false
	}
	select {
	case <-r.resume:
		return true
	case <-r.poison:
		return false
	}
}

// complete delivers a terminal message (completion or failure) without
// parking. The consumer is blocked awaiting whenever the producer runs,
// so the send pairs with the pending await unless poisoned.
func (r *rendezvous) complete(m message) {
	select {
	case r.events <- m:
	case <-r.poison:
	}
}

// await blocks the consumer until the producer's next message. Returns
// false when the rendezvous is poisoned.
func (r *rendezvous) await() (message, bool) {
	select {
	case m := <-r.events:
		return m, true
	case <-r.poison:
		return message{}, false
	}
}

// signal releases a parked producer. Returns false when poisoned.
func (r *rendezvous) signal() bool {
	select {
	case r.resume <- struct{}{}:
		return true
	case <-r.poison:
		return false
	}
}

// kill poisons the rendezvous. Idempotent.
func (r *rendezvous) kill() {
	r.once.Do(func() { close(r.poison) })
}

// poisoned reports whether kill has been called.
func (r *rendezvous) poisoned() bool {
	select {
	case <-r.poison:
		return true
	default:
		return false
	}
}
