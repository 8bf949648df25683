package netmon

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultProbeInterval is how often the reachability URL is polled.
	DefaultProbeInterval = 5 * time.Second

	// probeTimeout bounds a single reachability check.
	probeTimeout = 3 * time.Second
)

// ProbeMonitor derives connectivity by polling a reachability URL.
// A 2xx/3xx/4xx response means the network path is up (the probe target
// rejecting us is still proof of connectivity); a transport error means
// down. A malformed probe setup degrades to TransportUnknown.
type ProbeMonitor struct {
	notifier

	url      string
	interval time.Duration
	client   *http.Client

	stateMu sync.RWMutex
	state   State
	primed  bool // first observation recorded

	cancel context.CancelFunc
	done   chan struct{}
}

// NewProbeMonitor creates a monitor that polls url every interval.
// Pass interval <= 0 for DefaultProbeInterval. Call Start to begin polling.
func NewProbeMonitor(url string, interval time.Duration) *ProbeMonitor {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &ProbeMonitor{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: probeTimeout},
		state:    State{Connected: false, Transport: TransportUnknown},
	}
}

// Start performs an immediate probe and then polls on the configured
// interval until Stop is called.
func (m *ProbeMonitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	// Prime the state synchronously so CurrentState is meaningful at startup
	m.observe(m.probe(ctx))

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.observe(m.probe(ctx))
			}
		}
	}()

	log.Info().Str("url", m.url).Dur("interval", m.interval).Msg("connectivity probe started")
}

// Stop halts polling and waits for the poll goroutine to exit.
func (m *ProbeMonitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	log.Info().Msg("connectivity probe stopped")
}

// CurrentState returns the most recent observation.
func (m *ProbeMonitor) CurrentState() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

// Subscribe registers fn for transitions; see Monitor.
func (m *ProbeMonitor) Subscribe(fn func(State)) func() {
	return m.subscribe(fn)
}

// probe runs one reachability check.
func (m *ProbeMonitor) probe(ctx context.Context) State {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.url, nil)
	if err != nil {
		// Broken probe configuration, not a network verdict
		log.Warn().Err(err).Str("url", m.url).Msg("connectivity probe misconfigured")
		return State{Connected: false, Transport: TransportUnknown}
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return State{Connected: false, Transport: "http"}
	}
	resp.Body.Close()

	return State{Connected: true, Transport: "http"}
}

// observe records a probe result and notifies subscribers on transition.
// Polling collapses identical consecutive observations by construction;
// each recorded change is forwarded exactly once.
func (m *ProbeMonitor) observe(s State) {
	m.stateMu.Lock()
	changed := !m.primed || s != m.state
	m.state = s
	m.primed = true
	m.stateMu.Unlock()

	if !changed {
		return
	}

	log.Info().
		Bool("connected", s.Connected).
		Str("transport", s.Transport).
		Msg("connectivity changed")

	m.notify(s)
}
