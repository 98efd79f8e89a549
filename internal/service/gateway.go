// Package service holds the mutation gateway, the only path through which
// products are created, edited or deleted.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	catalogerrors "github.com/abgdnv/catalogdesk/internal/errors"
	"github.com/abgdnv/catalogdesk/internal/metrics"
	"github.com/abgdnv/catalogdesk/internal/notify"
	"github.com/abgdnv/catalogdesk/internal/store"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxMintAttempts = 16

// Store is the part of store.RecordStore the gateway needs.
type Store interface {
	CurrentSnapshot() []store.Product
	ReplaceAll(ctx context.Context, products []store.Product) error
}

type Option func(*Gateway)

// WithStrictCategories restricts categories to Categories.
func WithStrictCategories(strict bool) Option {
	return func(g *Gateway) { g.strictCategories = strict }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// Gateway serializes all mutations of the record store.
type Gateway struct {
	mu               sync.Mutex
	store            Store
	ids              IDGenerator
	notifier         notify.Notifier
	metrics          *metrics.Metrics
	validate         *validator.Validate
	strictCategories bool
	pending          map[string]struct{}
	now              func() time.Time
	tracer           trace.Tracer
	logger           *slog.Logger
}

func NewGateway(st Store, ids IDGenerator, notifier notify.Notifier, logger *slog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		store:    st,
		ids:      ids,
		notifier: notifier,
		validate: newValidator(),
		pending:  make(map[string]struct{}),
		now:      time.Now,
		tracer:   otel.Tracer("github.com/abgdnv/catalogdesk/internal/service"),
		logger:   logger.With("component", "gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Submit creates a product when editing is nil and otherwise replaces the
// product with editing.ID, keeping its position and id.
//
// A *ValidationError or ErrProductNotFound leaves the store untouched. An error
// wrapping ErrStorageWrite comes with the product, which is live in memory.
func (g *Gateway) Submit(ctx context.Context, form FormValues, editing *store.Product) (store.Product, error) {
	start := time.Now()
	op := metrics.OpCreate
	if editing != nil {
		op = metrics.OpUpdate
	}
	ctx, span := g.tracer.Start(ctx, "Gateway.Submit", trace.WithAttributes(attribute.String("catalog.op", op)))
	defer span.End()

	form = form.Normalize()
	if err := validateForm(g.validate, form, g.strictCategories); err != nil {
		g.logger.DebugContext(ctx, "Rejected product form", "op", op, "error", err)
		g.metrics.ObserveMutation(op, metrics.OutcomeInvalid, start)
		span.SetStatus(codes.Error, "validation failed")
		return store.Product{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	products := g.store.CurrentSnapshot()
	product := store.Product{Name: form.Name, Category: form.Category, Description: form.Description}
	kind := notify.KindAdded

	if editing != nil {
		idx := slices.IndexFunc(products, func(p store.Product) bool { return p.ID == editing.ID })
		if idx < 0 {
			g.logger.WarnContext(ctx, "Product not found for update", "ID", editing.ID)
			g.metrics.ObserveMutation(op, metrics.OutcomeNotFound, start)
			span.SetStatus(codes.Error, "not found")
			return store.Product{}, fmt.Errorf("update product %s: %w", editing.ID, catalogerrors.ErrProductNotFound)
		}
		product.ID = editing.ID
		products[idx] = product
		kind = notify.KindUpdated
	} else {
		id, err := g.mintID(products)
		if err != nil {
			g.metrics.ObserveMutation(op, metrics.OutcomeError, start)
			span.RecordError(err)
			return store.Product{}, err
		}
		product.ID = id
		products = append(products, product)
	}
	span.SetAttributes(attribute.String("catalog.product_id", product.ID))

	if err := g.commit(ctx, op, start, products); err != nil {
		if !errors.Is(err, catalogerrors.ErrStorageWrite) {
			return store.Product{}, err
		}
		g.notifier.Notify(ctx, notify.New(kind, product.ID, g.now()))
		return product, err
	}
	g.logger.InfoContext(ctx, "Product saved", "op", op, "ID", product.ID, "Name", product.Name)
	g.notifier.Notify(ctx, notify.New(kind, product.ID, g.now()))
	return product, nil
}

// RequestDelete marks id as awaiting confirmation and returns the product to
// confirm. It returns false when no such product exists.
func (g *Gateway) RequestDelete(ctx context.Context, id string) (store.Product, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	products := g.store.CurrentSnapshot()
	idx := slices.IndexFunc(products, func(p store.Product) bool { return p.ID == id })
	if idx < 0 {
		delete(g.pending, id)
		g.logger.DebugContext(ctx, "Deletion requested for missing product", "ID", id)
		return store.Product{}, false
	}
	g.pending[id] = struct{}{}
	g.logger.DebugContext(ctx, "Deletion requested", "ID", id)
	return products[idx], true
}

// CancelDelete drops a pending deletion. It reports whether one existed.
func (g *Gateway) CancelDelete(ctx context.Context, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.pending[id]
	delete(g.pending, id)
	g.logger.DebugContext(ctx, "Deletion cancelled", "ID", id, "pending", ok)
	return ok
}

// ConfirmDelete removes a product whose deletion was requested.
// An absent id is a no-op returning nil. A present product without a pending
// request yields ErrDeleteNotRequested.
func (g *Gateway) ConfirmDelete(ctx context.Context, id string) error {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "Gateway.ConfirmDelete", trace.WithAttributes(attribute.String("catalog.product_id", id)))
	defer span.End()

	g.mu.Lock()
	defer g.mu.Unlock()

	products := g.store.CurrentSnapshot()
	idx := slices.IndexFunc(products, func(p store.Product) bool { return p.ID == id })
	if idx < 0 {
		delete(g.pending, id)
		g.logger.DebugContext(ctx, "Product already absent, nothing to delete", "ID", id)
		g.metrics.ObserveMutation(metrics.OpDelete, metrics.OutcomeNoop, start)
		return nil
	}
	if _, ok := g.pending[id]; !ok {
		g.metrics.ObserveMutation(metrics.OpDelete, metrics.OutcomeNotRequested, start)
		span.SetStatus(codes.Error, "not requested")
		return fmt.Errorf("delete product %s: %w", id, catalogerrors.ErrDeleteNotRequested)
	}
	delete(g.pending, id)
	products = slices.Delete(products, idx, idx+1)

	if err := g.commit(ctx, metrics.OpDelete, start, products); err != nil {
		if errors.Is(err, catalogerrors.ErrStorageWrite) {
			g.notifier.Notify(ctx, notify.New(notify.KindDeleted, id, g.now()))
		}
		return err
	}
	g.logger.InfoContext(ctx, "Product deleted", "ID", id)
	g.notifier.Notify(ctx, notify.New(notify.KindDeleted, id, g.now()))
	return nil
}

// commit writes products through the store and records the outcome.
func (g *Gateway) commit(ctx context.Context, op string, start time.Time, products []store.Product) error {
	span := trace.SpanFromContext(ctx)
	err := g.store.ReplaceAll(ctx, products)
	switch {
	case err == nil:
		g.metrics.ObserveMutation(op, metrics.OutcomeOK, start)
		g.metrics.SetProducts(len(products))
		return nil
	case errors.Is(err, catalogerrors.ErrStorageWrite):
		g.logger.ErrorContext(ctx, "Change applied but not persisted", "op", op, "error", err)
		g.metrics.ObserveMutation(op, metrics.OutcomeStorageError, start)
		g.metrics.IncrementStorageWriteFailures()
		g.metrics.SetProducts(len(products))
		span.RecordError(err)
		return err
	default:
		g.logger.ErrorContext(ctx, "Failed to replace products", "op", op, "error", err)
		g.metrics.ObserveMutation(op, metrics.OutcomeError, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "replace failed")
		return fmt.Errorf("%s product: %w", op, err)
	}
}

// mintID asks the generator until it returns an id not present in products.
func (g *Gateway) mintID(products []store.Product) (string, error) {
	taken := make(map[string]struct{}, len(products))
	for _, p := range products {
		taken[p.ID] = struct{}{}
	}
	for range maxMintAttempts {
		id := g.ids.NewID()
		if _, ok := taken[id]; !ok {
			return id, nil
		}
	}
	return "", fmt.Errorf("mint product id: %d attempts collided", maxMintAttempts)
}
