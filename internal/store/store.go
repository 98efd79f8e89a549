// Package store owns the authoritative product collection and its durable slot.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	catalogerrors "github.com/abgdnv/catalogdesk/internal/errors"
)

// Product is the catalog record.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Slot is a durable key-value location holding the serialized collection.
// Read returns ErrSlotEmpty when nothing was stored under key yet.
type Slot interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
}

// RecordStore holds the product sequence in insertion order and writes the
// whole sequence through to its slot on every replacement.
type RecordStore struct {
	mu       sync.RWMutex
	writeMu  sync.Mutex
	slot     Slot
	key      string
	products []Product
	logger   *slog.Logger
}

// NewRecordStore creates an empty store bound to slot under key.
// Call LoadInitial before serving reads.
func NewRecordStore(slot Slot, key string, logger *slog.Logger) *RecordStore {
	return &RecordStore{
		slot:     slot,
		key:      key,
		products: []Product{},
		logger:   logger.With("component", "store"),
	}
}

// LoadInitial restores the persisted collection, falling back to the seed set
// when the slot is empty, unreadable or holds malformed content. It never fails.
func (s *RecordStore) LoadInitial(ctx context.Context) []Product {
	products, err := s.read(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Using seed products", "key", s.key, "error", err)
		products = Seed()
	} else {
		s.logger.InfoContext(ctx, "Restored products from slot", "key", s.key, "count", len(products))
	}

	s.mu.Lock()
	s.products = products
	s.mu.Unlock()

	return clone(products)
}

func (s *RecordStore) read(ctx context.Context) ([]Product, error) {
	raw, err := s.slot.Read(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalogerrors.ErrStorageRead, err)
	}
	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("%w: malformed content: %w", catalogerrors.ErrStorageRead, err)
	}
	if products == nil {
		return nil, fmt.Errorf("%w: slot holds null", catalogerrors.ErrStorageRead)
	}
	if err := checkUnique(products); err != nil {
		return nil, fmt.Errorf("%w: %w", catalogerrors.ErrStorageRead, err)
	}
	return products, nil
}

// ReplaceAll swaps the in-memory collection and persists it.
// A sequence with duplicate ids is rejected and nothing changes. If persisting
// fails the in-memory change is kept and an error wrapping ErrStorageWrite is returned.
func (s *RecordStore) ReplaceAll(ctx context.Context, products []Product) error {
	if err := checkUnique(products); err != nil {
		return err
	}
	snapshot := clone(products)
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%w: encode products: %w", catalogerrors.ErrStorageWrite, err)
	}

	// writeMu keeps the slot content in the same order as the in-memory swaps.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.products = snapshot
	s.mu.Unlock()

	if err := s.slot.Write(ctx, s.key, payload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist products", "key", s.key, "count", len(snapshot), "error", err)
		return fmt.Errorf("%w: %w", catalogerrors.ErrStorageWrite, err)
	}
	s.logger.DebugContext(ctx, "Persisted products", "key", s.key, "count", len(snapshot))
	return nil
}

// CurrentSnapshot returns a copy of the collection in insertion order.
func (s *RecordStore) CurrentSnapshot() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.products)
}

// Find returns the product with id from the current collection.
func (s *RecordStore) Find(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func clone(products []Product) []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}

func checkUnique(products []Product) error {
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("%w: %q", catalogerrors.ErrDuplicateID, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
