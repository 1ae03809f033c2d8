// Package storage keeps the last known health of each storage backend so
// readiness checks do not have to hit the database themselves.
package storage

import (
	"sync"
	"time"
)

// Health status values
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthData is the result of one backend health check
type HealthData struct {
	LastCheck time.Time `json:"last_check"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// HealthManager manages storage health status in memory
type HealthManager struct {
	mu     sync.RWMutex
	health map[string]HealthData
}

// NewHealthManager creates a new health manager
func NewHealthManager() *HealthManager {
	return &HealthManager{
		health: make(map[string]HealthData),
	}
}

// UpdateHealth records the latest status for a backend
func (hm *HealthManager) UpdateHealth(backend string, health HealthData) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.health[backend] = health
}

// GetHealth retrieves the health status for a specific backend
func (hm *HealthManager) GetHealth(backend string) (HealthData, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	h, ok := hm.health[backend]
	return h, ok
}

// GetAllHealth returns a copy of every backend's status
func (hm *HealthManager) GetAllHealth() map[string]HealthData {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	result := make(map[string]HealthData, len(hm.health))
	for k, v := range hm.health {
		result[k] = v
	}
	return result
}

// IsHealthy reports whether backend passed a check no older than maxAge
// as of now.
func (hm *HealthManager) IsHealthy(backend string, maxAge time.Duration, now time.Time) bool {
	health, ok := hm.GetHealth(backend)
	if !ok {
		return false
	}
	if now.Sub(health.LastCheck) > maxAge {
		return false
	}
	return health.Status == StatusHealthy
}
