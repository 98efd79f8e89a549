package store

import (
	"context"
	"errors"
	"fmt"

	catalogerrors "github.com/abgdnv/catalogdesk/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	selectSlotSQL = `SELECT value::text FROM slots WHERE key = $1`
	upsertSlotSQL = `INSERT INTO slots (key, value, updated_at) VALUES ($1, $2::jsonb, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
)

// DBTX is the subset of pgxpool.Pool used by PgSlot.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Slot = (*PgSlot)(nil)

// PgSlot stores values in the slots table created by Migrate.
type PgSlot struct {
	db DBTX
}

func NewPgSlot(db DBTX) *PgSlot {
	return &PgSlot{db: db}
}

func (p *PgSlot) Read(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := p.db.QueryRow(ctx, selectSlotSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalogerrors.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("select slot %s: %w", key, err)
	}
	return []byte(value), nil
}

func (p *PgSlot) Write(ctx context.Context, key string, value []byte) error {
	if _, err := p.db.Exec(ctx, upsertSlotSQL, key, string(value)); err != nil {
		return fmt.Errorf("upsert slot %s: %w", key, err)
	}
	return nil
}
