package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpacerFirstCallDoesNotWait(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewSpacer(30*time.Second, clock)

	ran := false
	err := s.Do(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
}

func TestSpacerKeepsIntervalBetweenStarts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := clockwork.NewFakeClock()
	interval := 30 * time.Second
	s := NewSpacer(interval, clock)

	var mu sync.Mutex
	var starts []time.Time
	record := func(context.Context) error {
		mu.Lock()
		starts = append(starts, clock.Now())
		mu.Unlock()
		return nil
	}

	require.NoError(t, s.Do(ctx, record))

	done := make(chan error, 1)
	go func() { done <- s.Do(ctx, record) }()

	// The second call parks on the spacing timer.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(interval - time.Second)
	select {
	case <-done:
		t.Fatal("second call started before the interval elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(time.Second)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, starts, 2)
	assert.GreaterOrEqual(t, starts[1].Sub(starts[0]), interval)
}

func TestSpacerRecordsFailedCalls(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := clockwork.NewFakeClock()
	s := NewSpacer(10*time.Second, clock)

	boom := errors.New("boom")
	err := s.Do(ctx, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	done := make(chan error, 1)
	go func() { done <- s.Do(ctx, func(context.Context) error { return nil }) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(10 * time.Second)
	require.NoError(t, <-done)
}

func TestSpacerElapsedIntervalDoesNotWait(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewSpacer(10*time.Second, clock)

	require.NoError(t, s.Do(context.Background(), func(context.Context) error { return nil }))
	clock.Advance(11 * time.Second)

	ran := false
	require.NoError(t, s.Do(context.Background(), func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
}

func TestSpacerCancelledWhileWaiting(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewSpacer(time.Minute, clock)

	require.NoError(t, s.Do(context.Background(), func(context.Context) error { return nil }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	ran := false
	go func() {
		done <- s.Do(ctx, func(context.Context) error {
			ran = true
			return nil
		})
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestSpacerZeroInterval(t *testing.T) {
	s := NewSpacer(0, clockwork.NewFakeClock())
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Do(context.Background(), func(context.Context) error { return nil }))
	}
	assert.Equal(t, time.Duration(0), s.Interval())
}
