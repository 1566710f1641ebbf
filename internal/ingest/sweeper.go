package ingest

import (
	"context"
	"time"

	"github.com/timmy/ordermonitor/internal/logger"
)

const (
	// DefaultPollInterval is the sweep period.
	DefaultPollInterval = 5 * time.Second
	// DefaultErrorCooldown is the wait after a failed sweep.
	DefaultErrorCooldown = 10 * time.Second
)

// SweepFunc lists the drop folder once and submits what it finds.
type SweepFunc func(ctx context.Context) (int, error)

// Sweeper periodically lists the drop folder as a backstop for missed or
// coalesced notifications.
type Sweeper struct {
	interval time.Duration
	cooldown time.Duration
	sweep    SweepFunc
}

// NewSweeper creates a sweeper. Non-positive durations fall back to the defaults.
func NewSweeper(interval, cooldown time.Duration, sweep SweepFunc) *Sweeper {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if cooldown <= 0 {
		cooldown = DefaultErrorCooldown
	}
	return &Sweeper{interval: interval, cooldown: cooldown, sweep: sweep}
}

// Run sweeps immediately and then once per interval until ctx ends.
func (s *Sweeper) Run(ctx context.Context) {
	ctx = logger.SetComponent(ctx, "sweeper")
	log := logger.FromContext(ctx)

	for {
		wait := s.interval
		submitted, err := s.sweep(ctx)
		switch {
		case err != nil:
			log.WithError(err).WithField("cooldown", s.cooldown.String()).Warn("Drop folder sweep failed")
			wait = s.cooldown
		case submitted > 0:
			log.WithField("submitted", submitted).Debug("Sweep submitted files")
		}

		if !sleepCtx(ctx, wait) {
			log.Info("Sweeper stopped")
			return
		}
	}
}
