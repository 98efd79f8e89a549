package service

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/abgdnv/catalogdesk/pkg/config"
	"github.com/google/uuid"
)

// IDGenerator mints product identifiers.
type IDGenerator interface {
	NewID() string
}

// NewIDGenerator returns the generator for a configured strategy.
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strategy {
	case config.IDStrategyTimestamp, "":
		return NewTimestampIDs(time.Now), nil
	case config.IDStrategyUUID:
		return UUIDs{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}

// TimestampIDs renders Unix milliseconds as decimal strings. Each id is
// strictly greater than the previous one, even within the same millisecond.
type TimestampIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewTimestampIDs(now func() time.Time) *TimestampIDs {
	return &TimestampIDs{now: now}
}

func (g *TimestampIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}

// UUIDs mints time-ordered UUIDv7 strings.
type UUIDs struct{}

func (UUIDs) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
