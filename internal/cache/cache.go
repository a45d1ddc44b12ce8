// Package cache holds recently served stock quotes so the hot read
// paths (stock list, leaderboard) do not hit Postgres on every request.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrMiss = errors.New("cache: miss")

// Quote is the cached view of a stock's last known price.
type Quote struct {
	StockID   uuid.UUID       `json:"stock_id"`
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type QuoteCache interface {
	Get(ctx context.Context, symbol string) (Quote, error)
	Set(ctx context.Context, q Quote) error
	Invalidate(ctx context.Context, symbol string) error
}
