package pipeline

import (
	"sync"
	"time"
)

// HealthStatus represents the health state of the event pipeline.
type HealthStatus string

const (
	HealthStatusUnknown   HealthStatus = "UNKNOWN"
	HealthStatusHealthy   HealthStatus = "HEALTHY"
	HealthStatusUnhealthy HealthStatus = "UNHEALTHY"
)

// Health tracks processing progress of the pipeline for the admin
// health endpoint.
type Health struct {
	mu              sync.RWMutex
	network         string
	status          HealthStatus
	eventsProcessed int64
	lastEventAt     *time.Time
	lastError       string
	lastErrorAt     *time.Time
}

// NewHealth creates a health tracker for the given network.
func NewHealth(network string) *Health {
	return &Health{
		network: network,
		status:  HealthStatusUnknown,
	}
}

// RecordEvent notes a successfully handled event.
func (h *Health) RecordEvent() {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	h.eventsProcessed++
	h.lastEventAt = &now
	h.status = HealthStatusHealthy
}

// RecordError notes a failed event.
func (h *Health) RecordError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	h.lastError = err.Error()
	h.lastErrorAt = &now
	h.status = HealthStatusUnhealthy
}

// Snapshot returns the current health state (JSON-safe).
func (h *Health) Snapshot() HealthSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HealthSnapshot{
		Network:         h.network,
		Status:          string(h.status),
		EventsProcessed: h.eventsProcessed,
		LastEventAt:     h.lastEventAt,
		LastError:       h.lastError,
		LastErrorAt:     h.lastErrorAt,
	}
}

// HealthSnapshot is a point-in-time view of pipeline health.
type HealthSnapshot struct {
	Network         string     `json:"network"`
	Status          string     `json:"status"`
	EventsProcessed int64      `json:"events_processed"`
	LastEventAt     *time.Time `json:"last_event_at,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
	LastErrorAt     *time.Time `json:"last_error_at,omitempty"`
}
