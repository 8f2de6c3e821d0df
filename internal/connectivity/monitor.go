// Package connectivity tracks whether the review service can be reached and
// fans online/offline transitions out to subscribers.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Monitor polls a Prober and publishes connectivity transitions.
//
// Each subscriber owns a one-slot channel that always holds the latest state;
// a slow reader sees the newest value, never a backlog.
type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	online bool
	known  bool
	closed bool
	nextID int
	subs   map[int]chan bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithProbeTimeout bounds each probe. Zero means the probe's own timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(m *Monitor) { m.timeout = d }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

// WithInitialState seeds the state before the first probe completes.
func WithInitialState(online bool) Option {
	return func(m *Monitor) {
		m.online = online
		m.known = true
	}
}

// NewMonitor creates a monitor that probes every interval once Run is called.
func NewMonitor(p Prober, interval time.Duration, opts ...Option) *Monitor {
	m := &Monitor{
		prober:   p,
		interval: interval,
		log:      zerolog.Nop(),
		subs:     make(map[int]chan bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Online returns the last observed state. Before any probe it reports false
// unless WithInitialState was given.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Check probes once and publishes the result if it differs from the current
// state. It returns the new state.
func (m *Monitor) Check(ctx context.Context) bool {
	probeCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	online := m.prober.Probe(probeCtx)
	if ctx.Err() != nil {
		// shutting down; a failed probe here says nothing about the network
		return m.Online()
	}
	m.Set(online)
	return online
}

// Set records a state observed elsewhere and notifies subscribers on change.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.known && m.online == online {
		return
	}

	m.online = online
	m.known = true
	if online {
		m.log.Info().Msg("review service reachable")
	} else {
		m.log.Warn().Msg("review service unreachable")
	}

	for _, ch := range m.subs {
		deliver(ch, online)
	}
}

// Subscribe registers for state changes. The channel immediately receives the
// current state if one is known. The returned func unsubscribes and closes the
// channel; it is safe to call more than once.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	ch := make(chan bool, 1)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	if m.known {
		ch <- m.online
	}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(c)
			}
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (m *Monitor) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Run probes immediately and then every interval until ctx is done. On return
// every remaining subscription is closed.
func (m *Monitor) Run(ctx context.Context) error {
	defer m.shutdown()

	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

func (m *Monitor) shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}

// deliver replaces whatever is buffered in ch with v. Callers hold m.mu.
func deliver(ch chan bool, v bool) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
