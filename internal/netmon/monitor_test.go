package netmon

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestManualMonitorNotifiesSubscribers(t *testing.T) {
	m := NewManualMonitor(State{Connected: false, Transport: "wifi"})

	var got []State
	unsubscribe := m.Subscribe(func(s State) {
		got = append(got, s)
	})

	m.SetState(State{Connected: true, Transport: "wifi"})
	m.SetState(State{Connected: false, Transport: "cellular"})

	if len(got) != 2 {
		t.Fatalf("subscriber saw %d events, want 2", len(got))
	}
	if !got[0].Connected || got[0].Transport != "wifi" {
		t.Errorf("first event = %+v, want connected wifi", got[0])
	}
	if got[1].Connected || got[1].Transport != "cellular" {
		t.Errorf("second event = %+v, want disconnected cellular", got[1])
	}

	unsubscribe()
	m.SetState(State{Connected: true, Transport: "wifi"})
	if len(got) != 2 {
		t.Errorf("subscriber saw %d events after unsubscribe, want 2", len(got))
	}
}

func TestManualMonitorDoesNotDeduplicateFlapping(t *testing.T) {
	m := NewManualMonitor(State{})

	count := 0
	defer m.Subscribe(func(State) { count++ })()

	// Same state set three times: every platform-level observation fires
	s := State{Connected: true, Transport: "wifi"}
	m.SetState(s)
	m.SetState(s)
	m.SetState(s)

	if count != 3 {
		t.Errorf("subscriber saw %d events, want 3 (no dedup)", count)
	}
}

func TestManualMonitorCurrentState(t *testing.T) {
	m := NewManualMonitor(State{Connected: true, Transport: "wifi"})

	if s := m.CurrentState(); !s.Connected {
		t.Errorf("CurrentState() = %+v, want connected", s)
	}

	m.SetState(State{Connected: false, Transport: TransportUnknown})
	s := m.CurrentState()
	if s.Connected || !s.Unknown() {
		t.Errorf("CurrentState() = %+v, want disconnected unknown", s)
	}
}

func TestProbeMonitorObservesTransitions(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			// Simulate outage by hijacking and dropping the connection
			hj, ok := w.(http.Hijacker)
			if ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m := NewProbeMonitor(srv.URL, 10*time.Millisecond)

	events := make(chan State, 16)
	defer m.Subscribe(func(s State) { events <- s })()

	m.Start()
	defer m.Stop()

	if s := m.CurrentState(); !s.Connected {
		t.Fatalf("CurrentState() after Start = %+v, want connected", s)
	}

	// The priming observation is itself a transition from unknown
	select {
	case s := <-events:
		if !s.Connected {
			t.Fatalf("initial event = %+v, want connected", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial observation event")
	}

	healthy.Store(false)
	select {
	case s := <-events:
		if s.Connected {
			t.Errorf("transition event = %+v, want disconnected", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no disconnect transition observed")
	}

	healthy.Store(true)
	select {
	case s := <-events:
		if !s.Connected {
			t.Errorf("transition event = %+v, want connected", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reconnect transition observed")
	}
}

func TestProbeMonitorUnknownBeforeStart(t *testing.T) {
	m := NewProbeMonitor("http://192.0.2.1/ping", time.Second)

	s := m.CurrentState()
	if s.Connected || !s.Unknown() {
		t.Errorf("CurrentState() before Start = %+v, want disconnected unknown", s)
	}
}
