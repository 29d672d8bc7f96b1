// Package health publishes the serving status of the application over the
// standard gRPC health protocol.
package health

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// ServiceName is the health service name of the notes application.
const ServiceName = "vibenotes.Notes"

const pingTimeout = 3 * time.Second

// Monitor pings the database and reports the result to the health server.
type Monitor struct {
	pinger   model.Pinger
	health   *health.Server
	interval time.Duration
	logger   *logger.Logger

	mu   sync.Mutex
	last healthpb.HealthCheckResponse_ServingStatus
}

// NewMonitor creates a Monitor. Until the first check every service reports NOT_SERVING.
func NewMonitor(pinger model.Pinger, health *health.Server, interval time.Duration, logger *logger.Logger) *Monitor {
	m := &Monitor{
		pinger:   pinger,
		health:   health,
		interval: interval,
		logger:   logger,
		last:     healthpb.HealthCheckResponse_NOT_SERVING,
	}
	m.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return m
}

// Check pings the database once and publishes the status.
func (m *Monitor) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := m.pinger.Ping(ctx); err != nil {
		m.logger.Warn("Health monitor: database ping failed", "error", err.Error())
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	m.mu.Lock()
	changed := status != m.last
	m.last = status
	m.mu.Unlock()

	if changed {
		m.logger.Info("Health monitor: status changed", "status", status.String())
	}
	m.set(status)

	return status
}

// Run checks at once and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

func (m *Monitor) set(status healthpb.HealthCheckResponse_ServingStatus) {
	m.health.SetServingStatus("", status)
	m.health.SetServingStatus(ServiceName, status)
}
