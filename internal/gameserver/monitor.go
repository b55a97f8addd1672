package gameserver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/zenbeasts/internal/game/combat"
)

// SessionMonitor periodically reports combat sessions stuck past their turn
// timeout. Each stale session is reported once.
type SessionMonitor struct {
	svc      *Service
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	reported map[uint64]struct{}
	onStale  func(combat.Session)
}

// NewSessionMonitor returns a monitor that sweeps every interval.
//
// Precondition: interval must be > 0; svc and logger must be non-nil.
func NewSessionMonitor(svc *Service, interval time.Duration, logger *zap.Logger) *SessionMonitor {
	if interval <= 0 {
		panic("gameserver.NewSessionMonitor: interval must be > 0")
	}
	return &SessionMonitor{
		svc:      svc,
		interval: interval,
		logger:   logger,
		reported: make(map[uint64]struct{}),
	}
}

// OnStale registers a callback invoked for every newly stale session.
// Replaces any existing callback.
func (m *SessionMonitor) OnStale(fn func(combat.Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStale = fn
}

// Sweep reports the sessions that went stale since the previous sweep and
// returns them.
func (m *SessionMonitor) Sweep(ctx context.Context) ([]combat.Session, error) {
	stale, err := m.svc.StaleSessions(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	var fresh []combat.Session
	seen := make(map[uint64]struct{}, len(stale))
	for _, s := range stale {
		seen[s.ID] = struct{}{}
		if _, ok := m.reported[s.ID]; ok {
			continue
		}
		m.reported[s.ID] = struct{}{}
		fresh = append(fresh, s)
	}
	// Forget sessions that are no longer stale.
	for id := range m.reported {
		if _, ok := seen[id]; !ok {
			delete(m.reported, id)
		}
	}
	fn := m.onStale
	m.mu.Unlock()

	for _, s := range fresh {
		m.logger.Warn("combat session stale",
			zap.Uint64("session", s.ID),
			zap.Uint8("turn_count", s.TurnCount),
			zap.Int64("last_turn_timestamp", s.LastTurnTimestamp),
			zap.Uint64("wager", s.WagerAmount),
		)
		if fn != nil {
			fn(s)
		}
	}
	return fresh, nil
}

// Start begins the sweep loop. Runs until ctx is cancelled.
//
// Postcondition: Sweep is invoked once per interval.
func (m *SessionMonitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.Sweep(ctx); err != nil && ctx.Err() == nil {
					m.logger.Error("session sweep failed", zap.Error(err))
				}
			}
		}
	}()
}
