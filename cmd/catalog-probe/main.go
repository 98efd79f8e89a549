// Package main checks the health of a running catalog over gRPC. It exits
// non-zero when the catalog is not serving, or keeps watching when
// probeinterval is set.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/catalogdesk/internal/config"
	"github.com/abgdnv/catalogdesk/internal/probe"
	grpcImpl "github.com/abgdnv/catalogdesk/internal/transport/grpc"
	"github.com/abgdnv/catalogdesk/pkg/bootstrap"
	"github.com/abgdnv/catalogdesk/pkg/config/configloader"
)

const serviceName = "catalog_probe"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("probe failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := configloader.Load[*config.ProbeConfig](serviceName)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := bootstrap.NewLogger(cfg.Log)

	conn, err := probe.Dial(cfg.Client)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	p := probe.New(conn, grpcImpl.ServiceName, logger)
	if cfg.Interval == 0 {
		return p.Check(ctx)
	}
	if err := p.Watch(ctx, cfg.Interval); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
