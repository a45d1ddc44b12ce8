package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/libs/auth"
	"github.com/hyunwoopark/stockclass/internal/trading"
)

type User struct {
	ID             uuid.UUID
	Email          string
	PasswordHash   string
	Name           string
	Role           auth.Role
	ClassID        *uuid.UUID
	Cash           decimal.Decimal
	InitialCapital decimal.Decimal
	IsActive       bool
	// LastWatchlistChange bounds watchlist edits to one per day; nil
	// means the user has never set one.
	LastWatchlistChange *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Class struct {
	ID        uuid.UUID
	Name      string
	Code      string
	TeacherID uuid.UUID
	StartDate time.Time
	EndDate   *time.Time
	CreatedAt time.Time
}

type Stock struct {
	ID              uuid.UUID
	Symbol          string
	Name            string
	Market          string
	Sector          string
	CurrentPrice    decimal.Decimal
	PreviousClose   decimal.Decimal
	LastPriceUpdate *time.Time
	IsActive        bool
}

type AllowedStock struct {
	ID       uuid.UUID
	ClassID  uuid.UUID
	StockID  uuid.UUID
	Symbol   string
	AddedAt  time.Time
	IsActive bool
}

type Holding struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	StockID     uuid.UUID
	Symbol      string
	Quantity    int64
	AverageCost decimal.Decimal
	UpdatedAt   time.Time
}

// Transaction is the immutable trade record. Rows are only ever inserted.
type Transaction struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	StockID    uuid.UUID
	Symbol     string
	Side       trading.Side
	Quantity   int64
	Price      decimal.Decimal
	Commission decimal.Decimal
	Rationale  string
	CreatedAt  time.Time
}

// WatchlistItem is one slot of a user's ordered watchlist, joined with
// the stock's reference data and current price.
type WatchlistItem struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	StockID      uuid.UUID
	Symbol       string
	Name         string
	Market       string
	Position     int
	CurrentPrice decimal.Decimal
}

type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// TradeResult is what a successful ExecuteTrade hands back: the appended
// record, the post-trade cash balance, and the holding (nil when removed).
type TradeResult struct {
	Transaction Transaction
	Cash        decimal.Decimal
	Holding     *Holding
}
