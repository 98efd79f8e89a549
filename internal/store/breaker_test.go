package store

import (
	"context"
	"errors"
	"testing"
	"time"

	catalogerrors "github.com/abgdnv/catalogdesk/internal/errors"
	"github.com/abgdnv/catalogdesk/pkg/config"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSlot struct {
	Slot
	calls int
	err   error
}

func (c *countingSlot) Read(ctx context.Context, key string) ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.Slot.Read(ctx, key)
}

func (c *countingSlot) Write(ctx context.Context, key string, value []byte) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	return c.Slot.Write(ctx, key, value)
}

func breakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:             true,
		ConsecutiveFailures: 2,
		ErrorRatePercent:    100,
		OpenTimeout:         time.Minute,
	}
}

func Test_BreakerSlot_OpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	next := &countingSlot{Slot: NewMemorySlot(), err: errors.New("connection refused")}
	slot := NewBreakerSlot(next, breakerConfig())

	require.Error(t, slot.Write(ctx, "products", []byte(`[]`)))
	require.Error(t, slot.Write(ctx, "products", []byte(`[]`)))
	assert.Equal(t, gobreaker.StateOpen, slot.State())

	err := slot.Write(ctx, "products", []byte(`[]`))
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, next.calls, "open breaker must not reach the backend")
}

func Test_BreakerSlot_EmptySlotIsNotAFailure(t *testing.T) {
	ctx := context.Background()
	next := &countingSlot{Slot: NewMemorySlot()}
	slot := NewBreakerSlot(next, breakerConfig())

	for range 5 {
		_, err := slot.Read(ctx, "products")
		require.ErrorIs(t, err, catalogerrors.ErrSlotEmpty)
	}
	assert.Equal(t, gobreaker.StateClosed, slot.State())
	assert.Equal(t, 5, next.calls)
}

func Test_BreakerSlot_PassesThrough(t *testing.T) {
	ctx := context.Background()
	slot := NewBreakerSlot(NewMemorySlot(), breakerConfig())

	require.NoError(t, slot.Write(ctx, "products", []byte(`[{"id":"1"}]`)))
	got, err := slot.Read(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(got))
}
