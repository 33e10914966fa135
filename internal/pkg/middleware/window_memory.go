package middleware

import (
	"context"
	"sync"
	"time"
)

// memoryWindows is the in-process WindowStore. Each client maps to the
// timestamps of its requests within the last minute; older entries are
// pruned on access and idle clients are swept periodically.
type memoryWindows struct {
	mu      sync.Mutex
	clients map[string][]time.Time

	perMinute   int
	burstLimit  int
	burstWindow time.Duration

	done chan struct{}
	once sync.Once
}

// NewMemoryWindows creates an in-memory window store and starts its
// idle-client sweeper.
func NewMemoryWindows(cfg RateLimiterConfig) WindowStore {
	m := &memoryWindows{
		clients:     make(map[string][]time.Time),
		perMinute:   cfg.RequestsPerMinute,
		burstLimit:  cfg.BurstLimit,
		burstWindow: cfg.BurstWindow,
		done:        make(chan struct{}),
	}

	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = time.Minute
	}
	go m.sweepLoop(sweep)

	return m
}

func (m *memoryWindows) Allow(_ context.Context, clientID string, now time.Time) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	minuteAgo := now.Add(-time.Minute)
	stamps := m.clients[clientID]

	// Drop entries outside the sustained window.
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(minuteAgo) {
			kept = append(kept, ts)
		}
	}

	burstCutoff := now.Add(-m.burstWindow)
	burst := 0
	for _, ts := range kept {
		if ts.After(burstCutoff) {
			burst++
		}
	}

	if burst >= m.burstLimit {
		m.clients[clientID] = kept
		return false, int(m.burstWindow / time.Second), nil
	}
	if len(kept) >= m.perMinute {
		m.clients[clientID] = kept
		return false, 60, nil
	}

	m.clients[clientID] = append(kept, now)
	return true, 0, nil
}

func (m *memoryWindows) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

// sweepLoop evicts clients whose every entry has aged out, so one-off
// callers do not accumulate in the map forever.
func (m *memoryWindows) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

func (m *memoryWindows) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	minuteAgo := now.Add(-time.Minute)
	for id, stamps := range m.clients {
		live := false
		for _, ts := range stamps {
			if ts.After(minuteAgo) {
				live = true
				break
			}
		}
		if !live {
			delete(m.clients, id)
		}
	}
}
