package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

const debounceDelay = 1500 * time.Millisecond

// Listener receives connectivity transitions. Called outside the
// monitor's lock, in no particular order relative to other listeners.
type Listener func(online bool)

// Monitor tracks whether the server is reachable. Transitions to
// online are debounced so a flapping link does not trigger a sync
// storm; transitions to offline apply immediately.
type Monitor struct {
	log *slog.Logger

	mu        sync.Mutex
	online    bool
	nextID    int
	listeners map[int]Listener
	debounce  *time.Timer
	delay     time.Duration
}

func NewMonitor(log *slog.Logger) *Monitor {
	return &Monitor{
		log:       log.With("component", "connectivity"),
		listeners: make(map[int]Listener),
		delay:     debounceDelay,
	}
}

// Online reports the current debounced state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline feeds a raw reachability observation into the monitor.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()

	if m.debounce != nil {
		m.debounce.Stop()
		m.debounce = nil
	}

	if !online {
		changed := m.online
		m.online = false
		listeners := m.snapshotLocked()
		m.mu.Unlock()

		if changed {
			m.log.Info("connection lost")
			notify(listeners, false)
		}
		return
	}

	if m.online {
		m.mu.Unlock()
		return
	}

	m.debounce = time.AfterFunc(m.delay, func() {
		m.mu.Lock()
		m.debounce = nil
		if m.online {
			m.mu.Unlock()
			return
		}
		m.online = true
		listeners := m.snapshotLocked()
		m.mu.Unlock()

		m.log.Info("connection restored")
		notify(listeners, true)
	})
	m.mu.Unlock()
}

// Confirm applies a synchronous probe result immediately. A completed
// round trip to the server is not a flap, so the online debounce
// window does not apply.
func (m *Monitor) Confirm(online bool) {
	if !online {
		m.SetOnline(false)
		return
	}

	m.mu.Lock()
	if m.debounce != nil {
		m.debounce.Stop()
		m.debounce = nil
	}
	if m.online {
		m.mu.Unlock()
		return
	}
	m.online = true
	listeners := m.snapshotLocked()
	m.mu.Unlock()

	m.log.Info("connection confirmed")
	notify(listeners, true)
}

// Subscribe registers a listener and returns its disposer. The
// listener only sees transitions observed after subscription.
func (m *Monitor) Subscribe(l func(online bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// StartProbe polls the given health endpoint until ctx is cancelled
// and feeds the results into SetOnline.
func (m *Monitor) StartProbe(ctx context.Context, healthURL string, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	client := &http.Client{Timeout: 5 * time.Second}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			m.SetOnline(probe(ctx, client, healthURL))

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func probe(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

func (m *Monitor) snapshotLocked() []Listener {
	out := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		out = append(out, l)
	}
	return out
}

func notify(listeners []Listener, online bool) {
	for _, l := range listeners {
		l(online)
	}
}
