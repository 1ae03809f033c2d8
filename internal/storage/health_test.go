package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthManager(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	hm := NewHealthManager()

	assert.False(t, hm.IsHealthy("climatedb", time.Minute, now), "unknown backend")

	hm.UpdateHealth("climatedb", HealthData{LastCheck: now.Add(-30 * time.Second), Status: StatusHealthy})
	assert.True(t, hm.IsHealthy("climatedb", time.Minute, now))
	assert.False(t, hm.IsHealthy("climatedb", 10*time.Second, now), "stale check")

	hm.UpdateHealth("climatedb", HealthData{LastCheck: now, Status: StatusUnhealthy, Error: "ping failed"})
	assert.False(t, hm.IsHealthy("climatedb", time.Minute, now))

	all := hm.GetAllHealth()
	assert.Len(t, all, 1)
	assert.Equal(t, "ping failed", all["climatedb"].Error)
}

type stubChecker struct {
	calls chan struct{}
	now   func() time.Time
}

func (s *stubChecker) CheckHealth(ctx context.Context) HealthData {
	s.calls <- struct{}{}
	return CreateHealthData(s.now(), StatusHealthy, "ok", nil)
}

func TestStartHealthMonitor(t *testing.T) {
	clk := clockwork.NewFakeClock()
	hm := NewHealthManager()
	checker := &stubChecker{calls: make(chan struct{}, 4), now: clk.Now}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan HealthData, 4)
	StartHealthMonitor(ctx, clk, hm, "climatedb", checker, time.Minute, func(h HealthData) { results <- h })

	<-checker.calls
	first := <-results
	assert.Equal(t, StatusHealthy, first.Status)

	require.NoError(t, clk.BlockUntilContext(ctx, 1))
	clk.Advance(time.Minute)
	<-checker.calls
	<-results

	h, ok := hm.GetHealth("climatedb")
	require.True(t, ok)
	assert.Equal(t, "ok", h.Message)
}

func TestCreateHealthData(t *testing.T) {
	now := time.Unix(0, 0)
	h := CreateHealthData(now, StatusUnhealthy, "down", errors.New("boom"))
	assert.Equal(t, "boom", h.Error)
	assert.Equal(t, now, h.LastCheck)
}
