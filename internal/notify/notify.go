// Package notify delivers fire-and-forget messages about completed mutations.
// Delivery failures are logged and never reach the caller.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/abgdnv/catalogdesk/pkg/messaging"
	"github.com/abgdnv/catalogdesk/pkg/messaging/events"
)

type Kind string

const (
	KindAdded   Kind = "added"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

const (
	MessageAdded   = "Product added successfully!"
	MessageUpdated = "Product updated successfully!"
	MessageDeleted = "Product deleted successfully!"
)

// Notification describes one successful mutation.
type Notification struct {
	Kind      Kind      `json:"kind"`
	ProductID string    `json:"productId"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

// New builds a notification with the standard message for kind.
func New(kind Kind, productID string, at time.Time) Notification {
	n := Notification{Kind: kind, ProductID: productID, At: at}
	switch kind {
	case KindAdded:
		n.Message = MessageAdded
	case KindUpdated:
		n.Message = MessageUpdated
	case KindDeleted:
		n.Message = MessageDeleted
	}
	return n
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	l.logger.InfoContext(ctx, n.Message, "kind", n.Kind, "product_id", n.ProductID)
}

// PublishingNotifier forwards notifications to a message broker.
type PublishingNotifier struct {
	publisher messaging.Publisher
	timeout   time.Duration
	logger    *slog.Logger
}

func NewPublishingNotifier(publisher messaging.Publisher, timeout time.Duration, logger *slog.Logger) *PublishingNotifier {
	return &PublishingNotifier{publisher: publisher, timeout: timeout, logger: logger.With("component", "notifier")}
}

func (p *PublishingNotifier) Notify(ctx context.Context, n Notification) {
	// The request may finish before the broker acknowledges.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	event := events.ProductChangedEvent{
		Kind:       string(n.Kind),
		ProductID:  n.ProductID,
		Message:    n.Message,
		OccurredAt: n.At,
	}
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.WarnContext(ctx, "Failed to publish notification", "subject", event.Subject(), "product_id", n.ProductID, "error", err)
		return
	}
	p.logger.DebugContext(ctx, "Published notification", "subject", event.Subject(), "product_id", n.ProductID)
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(context.Context, Notification) {}
