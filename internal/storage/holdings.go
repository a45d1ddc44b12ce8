package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func scanHolding(row pgx.Row) (*Holding, error) {
	var h Holding
	var avgStr string
	if err := row.Scan(&h.ID, &h.UserID, &h.StockID, &h.Symbol, &h.Quantity, &avgStr, &h.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if h.AverageCost, err = decimal.NewFromString(avgStr); err != nil {
		return nil, fmt.Errorf("parse average cost: %w", err)
	}
	return &h, nil
}

func (s *Store) ListHoldingsByUser(ctx context.Context, userID uuid.UUID) ([]Holding, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT h.id, h.user_id, h.stock_id, st.symbol, h.quantity, h.average_cost::text, h.updated_at
		FROM holdings h
		JOIN stocks st ON st.id = h.stock_id
		WHERE h.user_id = $1
		ORDER BY st.symbol
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, *h)
	}
	return holdings, rows.Err()
}

func (s *Store) ListTransactionsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.user_id, t.stock_id, st.symbol, t.side, t.quantity, t.price::text, t.commission::text, t.rationale, t.created_at
		FROM transactions t
		JOIN stocks st ON st.id = t.stock_id
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var t Transaction
		var side, priceStr, commStr string
		if err := rows.Scan(&t.ID, &t.UserID, &t.StockID, &t.Symbol, &side, &t.Quantity, &priceStr, &commStr, &t.Rationale, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Side = sideFromString(side)
		if t.Price, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		if t.Commission, err = decimal.NewFromString(commStr); err != nil {
			return nil, fmt.Errorf("parse commission: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (s *Store) CountTransactionsByClass(ctx context.Context, classID uuid.UUID) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		WHERE u.class_id = $1
	`, classID).Scan(&count)
	return count, err
}
