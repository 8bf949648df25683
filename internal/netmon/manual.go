package netmon

import "sync"

// ManualMonitor is a Monitor whose state is set programmatically.
// Hosts that already have their own platform connectivity signal feed it
// through SetState; tests use it to script transitions, including flapping.
type ManualMonitor struct {
	notifier

	stateMu sync.RWMutex
	state   State
}

// NewManualMonitor creates a monitor with the given initial state.
func NewManualMonitor(initial State) *ManualMonitor {
	return &ManualMonitor{state: initial}
}

// CurrentState returns the last state set.
func (m *ManualMonitor) CurrentState() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

// SetState records a new observation and notifies subscribers.
// Every call notifies, even when the state is unchanged: the platform
// signal is not deduplicated here.
func (m *ManualMonitor) SetState(s State) {
	m.stateMu.Lock()
	m.state = s
	m.stateMu.Unlock()

	m.notify(s)
}

// Subscribe registers fn for transitions; see Monitor.
func (m *ManualMonitor) Subscribe(fn func(State)) func() {
	return m.subscribe(fn)
}
