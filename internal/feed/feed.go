// Package feed consumes product change events from JetStream and hands
// them to a notifier.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/abgdnv/catalogdesk/internal/notify"
	"github.com/abgdnv/catalogdesk/pkg/config"
	"github.com/abgdnv/catalogdesk/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// ackableMsg is the part of jetstream.Msg the feed needs.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
	Term() error
}

// Start creates (or updates) the durable consumer and runs cfg.Workers
// fetch loops until ctx is done.
func Start(ctx context.Context, js jetstream.JetStream, cfg config.SubscriberConfig, notifier notify.Notifier, logger *slog.Logger) error {
	consumerCfg := jetstream.ConsumerConfig{
		FilterSubject: cfg.Subject,
		Durable:       cfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, cfg.Stream, consumerCfg)
	if err != nil {
		return err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for range cfg.Workers {
		g.Go(func() error {
			return runWorker(gCtx, consumer, cfg, notifier, logger)
		})
	}
	return g.Wait()
}

func runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig, notifier notify.Notifier, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			logger.Error("Failed to fetch messages", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Interval):
			}
			continue
		}
		for msg := range batch.Messages() {
			handleMessage(ctx, msg, notifier, logger)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			logger.Warn("Fetch batch ended with error", "error", err)
		}
	}
}

// handleMessage decodes one event and notifies about it. A payload that
// cannot be decoded is terminated so it is never redelivered.
func handleMessage(ctx context.Context, msg ackableMsg, notifier notify.Notifier, logger *slog.Logger) {
	if msg == nil {
		logger.Error("Received nil message")
		return
	}
	var event events.ProductChangedEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil || event.ProductID == "" {
		logger.Error("Dropping malformed product event", "error", err, "subject", msg.Subject())
		if err := msg.Term(); err != nil {
			logger.Error("Failed to terminate message", "error", err)
		}
		return
	}

	n := notify.New(notify.Kind(event.Kind), event.ProductID, event.OccurredAt)
	if event.Message != "" {
		n.Message = event.Message
	}
	notifier.Notify(ctx, n)

	if err := msg.Ack(); err != nil {
		logger.Error("Failed to ack message", "error", err)
	}
}
