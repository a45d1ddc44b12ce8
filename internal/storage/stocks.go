package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const stockColumns = `id, symbol, name, market, sector, current_price::text, previous_close::text, last_price_update, is_active`

func scanStock(row pgx.Row) (*Stock, error) {
	var st Stock
	var priceStr, closeStr string
	if err := row.Scan(&st.ID, &st.Symbol, &st.Name, &st.Market, &st.Sector,
		&priceStr, &closeStr, &st.LastPriceUpdate, &st.IsActive); err != nil {
		return nil, err
	}

	var err error
	if st.CurrentPrice, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("parse current price: %w", err)
	}
	if st.PreviousClose, err = decimal.NewFromString(closeStr); err != nil {
		return nil, fmt.Errorf("parse previous close: %w", err)
	}
	return &st, nil
}

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (s *Store) GetStockBySymbol(ctx context.Context, symbol string) (*Stock, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+stockColumns+` FROM stocks WHERE symbol = $1`, NormalizeSymbol(symbol))
	st, err := scanStock(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStockNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *Store) ListActiveStocks(ctx context.Context) ([]Stock, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+stockColumns+` FROM stocks WHERE is_active ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stocks []Stock
	for rows.Next() {
		st, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, *st)
	}
	return stocks, rows.Err()
}

type UpsertStockInput struct {
	Symbol        string
	Name          string
	Market        string
	Sector        string
	CurrentPrice  decimal.Decimal
	PreviousClose decimal.Decimal
}

func (s *Store) UpsertStock(ctx context.Context, in UpsertStockInput) (*Stock, error) {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO stocks (id, symbol, name, market, sector, current_price, previous_close, last_price_update, is_active)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, true)
		ON CONFLICT (symbol) DO UPDATE
		SET name = EXCLUDED.name,
		    market = EXCLUDED.market,
		    sector = EXCLUDED.sector,
		    current_price = EXCLUDED.current_price,
		    previous_close = EXCLUDED.previous_close,
		    last_price_update = EXCLUDED.last_price_update
	`, NormalizeSymbol(in.Symbol), in.Name, in.Market, in.Sector,
		in.CurrentPrice.String(), in.PreviousClose.String(), now)
	if err != nil {
		return nil, err
	}
	return s.GetStockBySymbol(ctx, in.Symbol)
}

// UpdateStockPrice is the price-feed write path. The quote cache is
// invalidated by the caller after a successful update.
func (s *Store) UpdateStockPrice(ctx context.Context, symbol string, price, previousClose decimal.Decimal, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE stocks
		SET current_price = $1, previous_close = $2, last_price_update = $3
		WHERE symbol = $4 AND is_active
	`, price.String(), previousClose.String(), at.UTC(), NormalizeSymbol(symbol))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStockNotFound
	}
	return nil
}
