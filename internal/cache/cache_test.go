package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type oddsSnapshot struct {
	HomeSpread float64 `json:"home_spread"`
	Total      float64 `json:"total"`
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewClient(rdb, Config{
		App: "edge-engine", Env: "test", Version: "v1", Enabled: true,
		TTLs: DefaultTTLConfig(),
	})
}

func TestSetThenGetRoundTrips(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	want := oddsSnapshot{HomeSpread: -3.5, Total: 44.5}
	require.NoError(t, c.Set(ctx, "consensus:nfl:week1", want, time.Minute))

	var got oddsSnapshot
	require.True(t, c.Get(ctx, "consensus:nfl:week1", &got))
	require.Equal(t, want, got)
}

func TestGetMissReturnsFalse(t *testing.T) {
	c := newTestClient(t)
	var got oddsSnapshot
	require.False(t, c.Get(context.Background(), "no-such-key", &got))
}

// P3-adjacent: a disabled client never reaches Redis, so Get always misses
// and Set is a no-op even if nothing is listening on the address.
func TestDisabledClientNeverHitsCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	c := NewClient(rdb, Config{App: "edge-engine", Env: "test", Version: "v1", Enabled: false})

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", oddsSnapshot{HomeSpread: 1}, time.Minute))

	var got oddsSnapshot
	require.False(t, c.Get(ctx, "k", &got))
}

func TestGetOrComputeCallsComputeOnMissOnly(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	calls := 0
	compute := func() (any, error) {
		calls++
		return oddsSnapshot{HomeSpread: -2.5, Total: 41}, nil
	}

	first, err := c.GetOrCompute(ctx, "consensus:nfl:week2", time.Minute, compute)
	require.NoError(t, err)
	require.Equal(t, oddsSnapshot{HomeSpread: -2.5, Total: 41}, first)
	require.Equal(t, 1, calls)

	// Second call hits cache: compute must not run again. GetOrCompute
	// round-trips through JSON into `any`, so the cached hit comes back as
	// map[string]any rather than the original struct type.
	second, err := c.GetOrCompute(ctx, "consensus:nfl:week2", time.Minute, compute)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	m, ok := second.(map[string]any)
	require.True(t, ok)
	require.Equal(t, -2.5, m["home_spread"])
}

func TestDeleteRemovesKey(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", oddsSnapshot{HomeSpread: 1}, time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	var got oddsSnapshot
	require.False(t, c.Get(ctx, "k", &got))
}

func TestHashParamsIsOrderIndependent(t *testing.T) {
	a := HashParams(map[string]string{"league": "nfl", "week": "3"})
	b := HashParams(map[string]string{"week": "3", "league": "nfl"})
	require.Equal(t, a, b)
}
