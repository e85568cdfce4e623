package reliability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/transport"
)

func fastPolicy(name string) Policy {
	p := DefaultPolicy(name)
	p.RateLimitInterval = time.Millisecond
	p.RetryBaseDelay = time.Millisecond
	p.RetryMaxDelay = 2 * time.Millisecond
	p.MaxRetries = 0
	p.BreakerFailureMax = 5
	p.BreakerResetTimeout = 50 * time.Millisecond
	return p
}

// E4 / P4: after exactly 5 consecutive failures the breaker opens and a 6th
// call fails fast with BreakerOpenError without reaching the transport.
func TestBreakerOpensAfterFiveConsecutiveFailures(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	pool := transport.NewPool()
	client := NewClient(pool, fastPolicy("odds"), nil)

	for i := 0; i < 5; i++ {
		_, err := client.Get(context.Background(), server.URL, nil)
		require.Error(t, err)
	}

	hitsAfterFive := hits

	_, err := client.Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.True(t, core.IsBreakerOpen(err))
	assert.Equal(t, hitsAfterFive, hits, "breaker-open call must not reach the transport")
}

func TestBreakerHalfOpenAfterResetTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	policy := fastPolicy("weather")
	client := NewClient(transport.NewPool(), policy, nil)

	for i := 0; i < 5; i++ {
		_, _ = client.Get(context.Background(), failing.URL, nil)
	}
	failing.Close()

	_, err := client.Get(context.Background(), server.URL, nil)
	assert.True(t, core.IsBreakerOpen(err))

	time.Sleep(policy.BreakerResetTimeout + 10*time.Millisecond)

	resp, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestClientErrorNotRetried(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	policy := fastPolicy("injuries")
	policy.MaxRetries = 3
	client := NewClient(transport.NewPool(), policy, nil)

	_, err := client.Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.True(t, core.IsClientError(err))
	assert.Equal(t, 1, hits, "4xx responses must not be retried")
}
