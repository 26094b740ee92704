package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextWakeAlignsToBoundary(t *testing.T) {
	s := NewAligned("scan", time.Minute, 2*time.Second)

	now := time.Date(2025, 6, 11, 14, 30, 30, 0, time.UTC)
	wake := s.nextWake(now)
	assert.Equal(t, time.Date(2025, 6, 11, 14, 31, 2, 0, time.UTC), wake)

	// Just after a boundary, the offset of the current boundary is still ahead.
	now = time.Date(2025, 6, 11, 14, 31, 1, 0, time.UTC)
	wake = s.nextWake(now)
	assert.Equal(t, time.Date(2025, 6, 11, 14, 31, 2, 0, time.UTC), wake)
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	s := NewAligned("scan", 10*time.Millisecond, 0)
	s.RunImmediately = true

	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan struct{}, 16)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Start(ctx, func(context.Context) {
			select {
			case ran <- struct{}{}:
			default:
			}
		})
	}()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}

func TestStartRejectsBadInterval(t *testing.T) {
	s := NewAligned("bad", 0, 0)
	finished := make(chan struct{})
	go func() {
		s.Start(context.Background(), func(context.Context) {})
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("scheduler with zero interval should return at once")
	}
	require.NotNil(t, s)
}
