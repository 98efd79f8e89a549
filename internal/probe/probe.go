// Package probe checks the catalog's gRPC health service.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/catalogdesk/pkg/client/grpc/interceptors"
	"github.com/abgdnv/catalogdesk/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var ErrNotServing = errors.New("service is not serving")

// Dial opens a client connection with the timeout, retry and (optional)
// circuit breaker interceptors. Extra options are appended.
func Dial(cfg config.GrpcClientConfig, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	chain := []grpc.UnaryClientInterceptor{
		interceptors.UnaryClientTimeoutInterceptor(cfg.Timeout),
		interceptors.NewRetryInterceptor(cfg.Retry),
	}
	if cfg.CircuitBreaker.Enabled {
		chain = append(chain, interceptors.NewCircuitBreaker("catalog-probe", cfg.CircuitBreaker))
	}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(chain...),
	}, opts...)

	conn, err := grpc.NewClient(cfg.Addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", cfg.Addr, err)
	}
	return conn, nil
}

type Prober struct {
	client  healthpb.HealthClient
	service string
	logger  *slog.Logger
}

func New(conn grpc.ClientConnInterface, service string, logger *slog.Logger) *Prober {
	return &Prober{
		client:  healthpb.NewHealthClient(conn),
		service: service,
		logger:  logger.With("component", "probe"),
	}
}

// Check returns nil when the service reports SERVING.
func (p *Prober) Check(ctx context.Context) error {
	res, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: p.service})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", ErrNotServing, res.GetStatus())
	}
	return nil
}

// Watch checks every interval and logs each change of health until ctx is done.
func (p *Prober) Watch(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last error
	first := true
	for {
		err := p.Check(ctx)
		if first || (err == nil) != (last == nil) {
			if err != nil {
				p.logger.WarnContext(ctx, "Catalog is unhealthy", "error", err)
			} else {
				p.logger.InfoContext(ctx, "Catalog is healthy", "service", p.service)
			}
		}
		first, last = false, err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
