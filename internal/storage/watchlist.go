package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func (s *Store) ListWatchlistByUser(ctx context.Context, userID uuid.UUID) ([]WatchlistItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT w.id, w.user_id, w.stock_id, st.symbol, st.name, st.market, w.position, st.current_price::text
		FROM watchlists w
		JOIN stocks st ON st.id = w.stock_id
		WHERE w.user_id = $1
		ORDER BY w.position
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []WatchlistItem
	for rows.Next() {
		var item WatchlistItem
		var priceStr string
		if err := rows.Scan(&item.ID, &item.UserID, &item.StockID, &item.Symbol,
			&item.Name, &item.Market, &item.Position, &priceStr); err != nil {
			return nil, err
		}
		if item.CurrentPrice, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("parse current price: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ReplaceWatchlist swaps the user's entire list in one transaction and
// stamps last_watchlist_change, which backs the once-per-day edit rule.
// Positions are assigned from the slice order, starting at 1. An empty
// slice clears the list; the stamp is written either way.
func (s *Store) ReplaceWatchlist(ctx context.Context, userID uuid.UUID, stockIDs []uuid.UUID, changedAt time.Time) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM watchlists WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for i, stockID := range stockIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO watchlists (id, user_id, stock_id, position, created_at)
			VALUES (gen_random_uuid(), $1, $2, $3, $4)
		`, userID, stockID, i+1, changedAt.UTC()); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE users SET last_watchlist_change = $1, updated_at = $1 WHERE id = $2 AND is_active
	`, changedAt.UTC(), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}
