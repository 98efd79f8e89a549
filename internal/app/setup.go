// Package app wires the catalog service together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/catalogdesk/internal/auth"
	"github.com/abgdnv/catalogdesk/internal/config"
	"github.com/abgdnv/catalogdesk/internal/metrics"
	"github.com/abgdnv/catalogdesk/internal/notify"
	"github.com/abgdnv/catalogdesk/internal/service"
	"github.com/abgdnv/catalogdesk/internal/store"
	grpcImpl "github.com/abgdnv/catalogdesk/internal/transport/grpc"
	"github.com/abgdnv/catalogdesk/internal/transport/rest"
	"github.com/abgdnv/catalogdesk/internal/view"
	pkgauth "github.com/abgdnv/catalogdesk/pkg/auth"
	"github.com/abgdnv/catalogdesk/pkg/messaging"
	pkgnats "github.com/abgdnv/catalogdesk/pkg/nats"
	"github.com/abgdnv/catalogdesk/pkg/server"
	"github.com/abgdnv/catalogdesk/pkg/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
)

type Dependencies struct {
	Store    *store.RecordStore
	View     *view.View
	Gateway  *service.Gateway
	Auth     *auth.Authenticator
	Sessions *pkgauth.Sessions
	Health   *grpcImpl.Health
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Logger   *slog.Logger

	// AllowedOrigins are the browser origins permitted to call the HTTP API.
	AllowedOrigins []string
}

// SetupDependencies opens the slot, loads the products and builds every
// component. The returned cleanup closes the slot and broker connections.
func SetupDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	slot, closeSlot, err := NewSlot(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to open storage: %w", err)
	}
	cleanups = append(cleanups, closeSlot)

	recordStore := store.NewRecordStore(slot, cfg.Storage.Key, logger)
	products := recordStore.LoadInitial(ctx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	shutdownMetrics, err := telemetry.SetupMetrics(registry)
	if err != nil {
		return nil, cleanup, err
	}
	cleanups = append(cleanups, func() { _ = shutdownMetrics(context.Background()) })
	m := metrics.New(registry)
	m.SetProducts(len(products))

	productView, err := view.New(cfg.Catalog.PageSize, cfg.Catalog.Locale)
	if err != nil {
		return nil, cleanup, err
	}
	ids, err := service.NewIDGenerator(cfg.Catalog.IDStrategy)
	if err != nil {
		return nil, cleanup, err
	}

	notifier := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.NATS.Enabled {
		publisher, closeNats, err := newPublisher(ctx, cfg, logger)
		if err != nil {
			return nil, cleanup, err
		}
		cleanups = append(cleanups, closeNats)
		notifier = append(notifier, notify.NewPublishingNotifier(publisher, cfg.NATS.Timeout, logger))
	}

	gateway := service.NewGateway(recordStore, ids, notifier, logger,
		service.WithStrictCategories(cfg.Catalog.StrictCategories),
		service.WithMetrics(m),
	)

	sessions, err := pkgauth.NewSessions(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.SessionTTL)
	if err != nil {
		return nil, cleanup, err
	}
	authenticator := auth.NewAuthenticator(cfg.Auth.Email, cfg.Auth.Password, sessions, logger)

	health := grpcImpl.NewHealth()
	health.MarkServing()

	return &Dependencies{
		Store:    recordStore,
		View:     productView,
		Gateway:  gateway,
		Auth:     authenticator,
		Sessions: sessions,
		Health:   health,
		Metrics:  m,
		Registry: registry,
		Logger:   logger,

		AllowedOrigins: cfg.HTTPServer.CORS.AllowedOrigins,
	}, cleanup, nil
}

// newPublisher connects to NATS and makes sure the product stream exists.
func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, func(), error) {
	nc, err := pkgnats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := pkgnats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	streamCtx, cancel := context.WithTimeout(ctx, cfg.NATS.Timeout)
	defer cancel()
	if err := pkgnats.EnsureStream(streamCtx, js, cfg.NATS.Stream, messaging.ProductsSubjects); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Publishing notifications to NATS", "stream", cfg.NATS.Stream)
	return pkgnats.NewNatsPublisher(js), func() { _ = nc.Drain() }, nil
}

// SetupHttpHandler builds the router with all routes and middleware.
// Used by tests to exercise the API without a listener.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger, deps.AllowedOrigins...)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(rest.Deps{
		Catalog:  deps.Store,
		View:     deps.View,
		Gateway:  deps.Gateway,
		Auth:     deps.Auth,
		Verifier: deps.Sessions,
		Metrics:  deps.Metrics,
	}, deps.Logger)
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry}))
}

// SetupHttpServer creates and configures the HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}
	return server.NewHTTPServer(httpCfg, mux, "catalog-http")
}

// SetupGrpcServer creates the gRPC server exposing the health service.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, deps.Health.Register)
}
