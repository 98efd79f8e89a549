package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogerrors "github.com/abgdnv/catalogdesk/internal/errors"
	"github.com/abgdnv/catalogdesk/pkg/config"
	"github.com/sony/gobreaker/v2"
)

var _ Slot = (*BreakerSlot)(nil)

// BreakerSlot guards a remote slot with a circuit breaker so an unavailable
// backend fails fast instead of stalling every mutation.
type BreakerSlot struct {
	next Slot
	cb   *gobreaker.CircuitBreaker[[]byte]
}

// NewBreakerSlot wraps next. ErrSlotEmpty is not counted as a failure.
func NewBreakerSlot(next Slot, cfg config.CircuitBreakerConfig) *BreakerSlot {
	st := gobreaker.Settings{
		Name:        "storage-slot",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(counts.Requests > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.Requests)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, catalogerrors.ErrSlotEmpty) || errors.Is(err, context.Canceled)
		},
	}
	if st.Timeout <= 0 {
		st.Timeout = 5 * time.Second
	}
	return &BreakerSlot{next: next, cb: gobreaker.NewCircuitBreaker[[]byte](st)}
}

func (b *BreakerSlot) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := b.cb.Execute(func() ([]byte, error) {
		return b.next.Read(ctx, key)
	})
	if err != nil {
		return nil, breakerErr(err)
	}
	return data, nil
}

func (b *BreakerSlot) Write(ctx context.Context, key string, value []byte) error {
	_, err := b.cb.Execute(func() ([]byte, error) {
		return nil, b.next.Write(ctx, key, value)
	})
	return breakerErr(err)
}

// State reports the breaker state, mostly for diagnostics.
func (b *BreakerSlot) State() gobreaker.State {
	return b.cb.State()
}

func breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("slot unavailable: %w", err)
	}
	return err
}
