package token

import (
	"log/slog"
	"time"
)

// Sweeper periodically garbage-collects the revocation registry so entries
// for long-expired tokens don't accumulate. Correctness never depends on
// it: an expired token is already invalid through its own exp claim.
type Sweeper struct {
	Tokens   *Service
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweeper creates a sweeper with the given interval. If interval is 0 or
// negative, defaults to 1 hour. Tests simply never call Start.
func NewSweeper(tokens *Service, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &Sweeper{
		Tokens:   tokens,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *Sweeper) Start() {
	go s.run()
	s.Logger.Info("revocation sweeper started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until any in-progress sweep has finished.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("revocation sweeper stopped")
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			swept := s.Tokens.Cleanup()
			s.Logger.Debug("revocation registry swept", "removed", swept)
		case <-s.stopCh:
			return
		}
	}
}
