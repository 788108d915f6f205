package health

import (
	"context"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the pause between health cycles
const DefaultInterval = 30 * time.Second

// Monitor re-checks a fixed set of services on an interval and publishes each cycle's map
type Monitor struct {
	checker  *Checker
	services []Service
	interval time.Duration
	logger   *zap.Logger

	mu      sync.RWMutex
	latest  map[string]Status
	subs    map[int]func(map[string]Status)
	nextSub int
}

// NewMonitor creates a monitor. Until the first cycle completes every service reads offline.
func NewMonitor(checker *Checker, services []Service, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}

	latest := make(map[string]Status, len(services))
	for _, svc := range services {
		latest[svc.ID] = Offline
	}

	return &Monitor{
		checker:  checker,
		services: services,
		interval: interval,
		logger:   checker.logger,
		latest:   latest,
		subs:     make(map[int]func(map[string]Status)),
	}
}

// Subscribe registers fn to receive every published map. Each call gets its own copy.
func (m *Monitor) Subscribe(fn func(map[string]Status)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Latest returns a copy of the most recently published statuses
func (m *Monitor) Latest() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.latest)
}

// Run checks immediately and then once per interval until ctx is cancelled
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.Cycle(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Cycle runs one round of probes and publishes the result
func (m *Monitor) Cycle(ctx context.Context) map[string]Status {
	statuses := m.checker.CheckAll(ctx, m.services)

	// Cancelled mid-cycle: the map reflects the shutdown, not the services
	if ctx.Err() != nil {
		return statuses
	}

	online := 0
	for _, s := range statuses {
		if s == Online {
			online++
		}
	}
	m.logger.Info("health.cycle", zap.Int("online", online), zap.Int("total", len(statuses)))

	m.mu.Lock()
	m.latest = statuses
	subs := make([]func(map[string]Status), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(maps.Clone(statuses))
	}
	return statuses
}
