package climatedb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chrissnell/remoteclimate/internal/clock"
	"github.com/chrissnell/remoteclimate/internal/storage"
)

// HealthBackend names this backend in the storage.HealthManager.
const HealthBackend = "climatedb"

// Check pings both pools and runs a trivial query.
func (s *Storage) Check(ctx context.Context) error {
	if s.DB == nil || s.Pool == nil {
		return errors.New("no database connection")
	}
	if err := s.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := s.DB.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return fmt.Errorf("query test failed: %w", err)
	}
	return nil
}

// CheckHealth implements storage.HealthChecker.
func (s *Storage) CheckHealth(ctx context.Context) storage.HealthData {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.Check(ctx); err != nil {
		return storage.CreateHealthData(clock.Now(), storage.StatusUnhealthy, "climate database check failed", err)
	}
	return storage.CreateHealthData(clock.Now(), storage.StatusHealthy, "climate database operational - ping: OK, query test: OK", nil)
}

// StartHealthMonitor checks the database every interval, recording the
// result in hm and the database_up gauge.
func (s *Storage) StartHealthMonitor(ctx context.Context, clk clockwork.Clock, hm *storage.HealthManager, interval time.Duration) {
	storage.StartHealthMonitor(ctx, clk, hm, HealthBackend, s, interval, func(h storage.HealthData) {
		if h.Status == storage.StatusHealthy {
			s.metrics.DatabaseUp.Set(1)
		} else {
			s.metrics.DatabaseUp.Set(0)
		}
	})
}
