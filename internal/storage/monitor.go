package storage

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chrissnell/remoteclimate/internal/log"
)

// HealthChecker is implemented by storage backends that can check themselves
type HealthChecker interface {
	CheckHealth(ctx context.Context) HealthData
}

// StartHealthMonitor runs checker once immediately and then every interval
// until ctx is done, recording each result in hm. onResult, if non-nil, is
// called after every check.
func StartHealthMonitor(ctx context.Context, clk clockwork.Clock, hm *HealthManager, backend string,
	checker HealthChecker, interval time.Duration, onResult func(HealthData)) {
	go func() {
		update := func() {
			health := checker.CheckHealth(ctx)
			hm.UpdateHealth(backend, health)
			if onResult != nil {
				onResult(health)
			}
			if health.Status != StatusHealthy {
				log.Warnw("storage health check failed", "backend", backend, "message", health.Message, "error", health.Error)
			} else {
				log.Debugf("updated %s health status: %s", backend, health.Status)
			}
		}

		update()

		ticker := clk.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				update()
			case <-ctx.Done():
				log.Infof("stopping %s health monitor", backend)
				return
			}
		}
	}()
}

// CreateHealthData creates a health result stamped with now
func CreateHealthData(now time.Time, status, message string, err error) HealthData {
	health := HealthData{
		LastCheck: now,
		Status:    status,
		Message:   message,
	}
	if err != nil {
		health.Error = err.Error()
	}
	return health
}
