// Package grpc exposes the catalog's gRPC surface: the standard health service.
package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the catalog.
const ServiceName = "catalog"

// Health reports NOT_SERVING until MarkServing is called.
type Health struct {
	srv *health.Server
}

func NewHealth() *Health {
	srv := health.NewServer()
	srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Health{srv: srv}
}

// Register adds the health service to s. It matches server.RegistrationFunc.
func (h *Health) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// MarkServing is called once the record store has been loaded.
func (h *Health) MarkServing() {
	h.srv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
}

// Shutdown reports NOT_SERVING for every service and ignores later updates.
func (h *Health) Shutdown() {
	h.srv.Shutdown()
}
