// Package ratelimit provides request spacing for indexer clients.
package ratelimit

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Spacer serializes calls and keeps at least Interval between the completion
// of one call and the start of the next.
type Spacer struct {
	clock    clockwork.Clock
	interval time.Duration

	// slot is a one-token semaphore so waiting for it can be cancelled.
	slot chan struct{}
	last time.Time
}

// NewSpacer creates a spacer. A nil clock uses the real clock.
func NewSpacer(interval time.Duration, clock clockwork.Clock) *Spacer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval < 0 {
		interval = 0
	}
	return &Spacer{
		clock:    clock,
		interval: interval,
		slot:     make(chan struct{}, 1),
	}
}

// Interval returns the configured minimum gap.
func (s *Spacer) Interval() time.Duration {
	return s.interval
}

// Do waits for the slot and the remaining interval, runs fn, and records the
// completion time whether fn failed or not. Cancellation before fn starts
// returns the context error without running fn.
func (s *Spacer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.slot }()

	if err := s.wait(ctx); err != nil {
		return err
	}

	err := fn(ctx)
	s.last = s.clock.Now()
	return err
}

func (s *Spacer) wait(ctx context.Context) error {
	if s.last.IsZero() || s.interval == 0 {
		return ctx.Err()
	}

	remaining := s.interval - s.clock.Since(s.last)
	if remaining <= 0 {
		return ctx.Err()
	}

	timer := s.clock.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
