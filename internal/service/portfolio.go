package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/internal/cache"
	"github.com/hyunwoopark/stockclass/internal/storage"
)

type PortfolioStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*storage.User, error)
	ListHoldingsByUser(ctx context.Context, userID uuid.UUID) ([]storage.Holding, error)
}

type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (cache.Quote, error)
}

type PortfolioPosition struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Quantity      int64           `json:"quantity"`
	AverageCost   decimal.Decimal `json:"average_cost"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}

type Portfolio struct {
	Cash           decimal.Decimal     `json:"cash"`
	Positions      []PortfolioPosition `json:"positions"`
	TotalValue     decimal.Decimal     `json:"total_value"`
	InitialCapital decimal.Decimal     `json:"initial_capital"`
	ReturnRate     decimal.Decimal     `json:"return_rate"`
}

type PortfolioService struct {
	store  PortfolioStore
	quotes QuoteProvider
}

func NewPortfolioService(store PortfolioStore, quotes QuoteProvider) *PortfolioService {
	return &PortfolioService{store: store, quotes: quotes}
}

// Portfolio values every holding at its current price and reports the
// account's total value and return against starting capital.
func (s *PortfolioService) Portfolio(ctx context.Context, userID uuid.UUID) (*Portfolio, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	holdings, err := s.store.ListHoldingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &Portfolio{
		Cash:           user.Cash,
		Positions:      make([]PortfolioPosition, 0, len(holdings)),
		TotalValue:     user.Cash,
		InitialCapital: user.InitialCapital,
		ReturnRate:     decimal.Zero,
	}

	for _, h := range holdings {
		q, err := s.quotes.Quote(ctx, h.Symbol)
		if err != nil {
			return nil, err
		}

		qty := decimal.NewFromInt(h.Quantity)
		marketValue := q.Price.Mul(qty)
		costBasis := h.AverageCost.Mul(qty)

		p.Positions = append(p.Positions, PortfolioPosition{
			Symbol:        h.Symbol,
			Name:          q.Name,
			Quantity:      h.Quantity,
			AverageCost:   h.AverageCost,
			CurrentPrice:  q.Price,
			MarketValue:   marketValue,
			UnrealizedPnL: marketValue.Sub(costBasis),
		})
		p.TotalValue = p.TotalValue.Add(marketValue)
	}

	if user.InitialCapital.IsPositive() {
		p.ReturnRate = p.TotalValue.Sub(user.InitialCapital).Div(user.InitialCapital)
	}
	return p, nil
}
