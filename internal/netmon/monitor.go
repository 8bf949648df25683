// Package netmon translates a platform connectivity signal into a single
// boolean plus a subscribable change stream. It has no retry logic and no
// queue awareness.
package netmon

import "sync"

// TransportUnknown is reported when the platform signal itself failed.
// Consumers must treat an unknown state conservatively: do not start a
// reconciliation run on the strength of it.
const TransportUnknown = "unknown"

// State is a point-in-time connectivity observation. It is transient and
// never persisted; every observation is recomputed from the platform signal.
type State struct {
	Connected bool   `json:"isConnected"`
	Transport string `json:"transport"`
}

// Unknown reports whether this observation came from a failed platform read.
func (s State) Unknown() bool {
	return s.Transport == TransportUnknown
}

// Monitor exposes the current connectivity state and a stream of transitions.
type Monitor interface {
	// CurrentState returns a point-in-time read; used at startup before
	// any change event has fired.
	CurrentState() State

	// Subscribe registers fn for state transitions and returns an
	// unsubscribe function. Callbacks fire once per observed change and
	// are not deduplicated against rapid flapping; absorbing that is the
	// consumer's burden.
	Subscribe(fn func(State)) (unsubscribe func())
}

// notifier is the shared subscriber registry for monitor implementations.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(State)
}

func (n *notifier) subscribe(fn func(State)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[int]func(State))
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// notify invokes every subscriber with the given state.
func (n *notifier) notify(s State) {
	n.mu.Lock()
	fns := make([]func(State), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	// Invoked outside the lock so a callback may unsubscribe itself
	for _, fn := range fns {
		fn(s)
	}
}
