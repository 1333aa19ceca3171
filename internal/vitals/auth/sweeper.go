package auth

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically removes idle sessions from a Manager.  It runs as a
// background goroutine and is stopped via its context or Stop.
//
// A manager with IdleTTL 0 never expires sessions, so the sweeper does not
// start.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	logger   *zap.Logger

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewSweeper creates a sweeper but does not start it.  interval defaults to
// one minute.
func NewSweeper(m *Manager, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		manager:  m,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the loop.  The first sweep happens after one interval.
func (s *Sweeper) Start(ctx context.Context) {
	if s.manager.IdleTTL() <= 0 {
		s.logger.Info("session sweeper disabled (idle ttl=0)")
		close(s.done)
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)

	s.logger.Info("session sweeper started",
		zap.Duration("idle_ttl", s.manager.IdleTTL()),
		zap.Duration("interval", s.interval),
	)
}

// Stop signals the loop to exit and waits for it.  Call only after Start;
// repeated calls are fine.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
	<-s.done
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.manager.Sweep(); n > 0 {
				s.logger.Info("expired idle sessions", zap.Int("count", n))
			}
		}
	}
}
