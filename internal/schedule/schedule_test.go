package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeline/edge-engine/internal/core"
)

func TestSchedulerRunsPipelineStagesInOrder(t *testing.T) {
	var collectCalls, detectCalls, settleCalls int32
	var outOfOrder int32
	done := make(chan struct{}, 1)

	pipeline := Pipeline{
		Collect: func(ctx context.Context, league core.League) (bool, error) {
			atomic.AddInt32(&collectCalls, 1)
			return false, nil
		},
		Detect: func(ctx context.Context, league core.League) error {
			if atomic.LoadInt32(&collectCalls) <= atomic.LoadInt32(&detectCalls) {
				atomic.StoreInt32(&outOfOrder, 1)
			}
			atomic.AddInt32(&detectCalls, 1)
			return nil
		},
		Settle: func(ctx context.Context, league core.League) error {
			if atomic.LoadInt32(&detectCalls) <= atomic.LoadInt32(&settleCalls) {
				atomic.StoreInt32(&outOfOrder, 1)
			}
			atomic.AddInt32(&settleCalls, 1)
			select {
			case done <- struct{}{}:
			default:
			}
			return nil
		},
	}

	sched := NewScheduler(pipeline, []core.League{core.LeagueNFL}, 5*time.Millisecond)
	sched.Start(context.Background())
	defer sched.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pipeline never ran")
	}

	assert.GreaterOrEqual(t, atomic.LoadInt32(&collectCalls), int32(1))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&detectCalls), int32(1))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&settleCalls), int32(1))
	assert.Equal(t, int32(0), atomic.LoadInt32(&outOfOrder), "a stage ran before the one it follows")
}

func TestSchedulerSkipsDetectWhenCollectReportsSkip(t *testing.T) {
	var detectCalls int32
	done := make(chan struct{}, 1)

	pipeline := Pipeline{
		Collect: func(ctx context.Context, league core.League) (bool, error) {
			return true, nil // degraded critical source: withhold detect
		},
		Detect: func(ctx context.Context, league core.League) error {
			atomic.AddInt32(&detectCalls, 1)
			return nil
		},
		Settle: func(ctx context.Context, league core.League) error {
			select {
			case done <- struct{}{}:
			default:
			}
			return nil
		},
	}

	sched := NewScheduler(pipeline, []core.League{core.LeagueNFL}, 5*time.Millisecond)
	sched.Start(context.Background())
	defer sched.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pipeline never ran")
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&detectCalls))
}

func TestSchedulerNeverRunsOneLeagueConcurrentlyWithItself(t *testing.T) {
	var running int32
	var sawOverlap int32
	release := make(chan struct{})
	entered := make(chan struct{}, 1)

	pipeline := Pipeline{
		Collect: func(ctx context.Context, league core.League) (bool, error) {
			if atomic.AddInt32(&running, 1) > 1 {
				atomic.StoreInt32(&sawOverlap, 1)
			}
			select {
			case entered <- struct{}{}:
			default:
			}
			<-release
			atomic.AddInt32(&running, -1)
			return false, nil
		},
		Detect: func(ctx context.Context, league core.League) error { return nil },
		Settle: func(ctx context.Context, league core.League) error { return nil },
	}

	sched := NewScheduler(pipeline, []core.League{core.LeagueNFL}, 2*time.Millisecond)
	sched.Start(context.Background())

	require.Eventually(t, func() bool {
		select {
		case <-entered:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	// Several ticks land while Collect is blocked; they must coalesce into
	// at most one pending re-run rather than stacking up concurrent runs.
	time.Sleep(20 * time.Millisecond)
	close(release)
	sched.Stop()

	assert.Equal(t, int32(0), atomic.LoadInt32(&sawOverlap))
}
