package handler

import (
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	PersistenceService = "storefront.persistence"
	LeadsService       = "storefront.leads"
)

// HealthReporter publishes storefront health over the standard gRPC health
// service.
type HealthReporter struct {
	server *health.Server

	mu       sync.Mutex
	degraded map[string]struct{}
}

func NewHealthReporter() *HealthReporter {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(PersistenceService, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(LeadsService, healthpb.HealthCheckResponse_SERVING)
	return &HealthReporter{server: hs, degraded: make(map[string]struct{})}
}

// Register attaches the health and reflection services to s.
func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
	reflection.Register(s)
}

// PersistenceDegraded records a session whose persistence is failing. The
// persistence service reports NOT_SERVING while any such session remains.
func (h *HealthReporter) PersistenceDegraded(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.degraded[sessionID] = struct{}{}
	h.server.SetServingStatus(PersistenceService, healthpb.HealthCheckResponse_NOT_SERVING)
}

// PersistenceRecovered clears a session recorded by PersistenceDegraded.
func (h *HealthReporter) PersistenceRecovered(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.degraded, sessionID)
	if len(h.degraded) == 0 {
		h.server.SetServingStatus(PersistenceService, healthpb.HealthCheckResponse_SERVING)
	}
}

// DegradedSessions returns how many sessions are running in memory only.
func (h *HealthReporter) DegradedSessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.degraded)
}

// SetLeadStorage reports whether leads reach durable storage.
func (h *HealthReporter) SetLeadStorage(durable bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !durable {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus(LeadsService, status)
}

func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}
