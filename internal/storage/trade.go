package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/libs/auth"
	"github.com/hyunwoopark/stockclass/internal/trading"
)

type TradeRequest struct {
	UserID    uuid.UUID
	Symbol    string
	Side      trading.Side
	Quantity  int64
	Rationale string
	Params    trading.Params
}

// ExecuteTrade validates and applies one order inside a single transaction.
// The user row is locked first, which serializes all orders for one account:
// two concurrent buys cannot both pass the funds check against a stale cash
// balance. Orders for different accounts proceed in parallel. Serialization
// and deadlock failures surface as ErrTxConflict for the caller to retry.
func (s *Store) ExecuteTrade(ctx context.Context, req TradeRequest) (*TradeResult, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	result, err := s.executeTradeTx(ctx, tx, req)
	if err != nil {
		if isTxConflict(err) {
			return nil, ErrTxConflict
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		if isTxConflict(err) {
			return nil, ErrTxConflict
		}
		return nil, err
	}
	committed = true
	return result, nil
}

func (s *Store) executeTradeTx(ctx context.Context, tx pgx.Tx, req TradeRequest) (*TradeResult, error) {
	now := time.Now().UTC()

	acct, err := lockAccount(ctx, tx, req.UserID)
	if err != nil {
		return nil, err
	}

	symbol := NormalizeSymbol(req.Symbol)
	var stockID uuid.UUID
	var priceStr string
	var stockActive bool
	row := tx.QueryRow(ctx, `
		SELECT id, current_price::text, is_active FROM stocks WHERE symbol = $1
	`, symbol)
	if err := row.Scan(&stockID, &priceStr, &stockActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStockNotFound
		}
		return nil, err
	}
	if !stockActive {
		return nil, ErrStockNotFound
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, err
	}
	quote := trading.Quote{StockID: stockID, Symbol: symbol, Price: price}

	var allow *trading.Allowance
	if req.Side == trading.SideBuy && acct.Role == auth.RoleStudent && acct.ClassID != nil {
		allow, err = getAllowance(ctx, tx, *acct.ClassID, stockID)
		if err != nil {
			return nil, err
		}
	}

	pos, holdingID, err := lockHolding(ctx, tx, req.UserID, stockID)
	if err != nil {
		return nil, err
	}

	plan, err := trading.Evaluate(*acct, quote, allow, pos, trading.Order{
		Side:      req.Side,
		Quantity:  req.Quantity,
		Rationale: req.Rationale,
	}, now, req.Params)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users SET cash = $1, updated_at = $2 WHERE id = $3
	`, plan.NewCash.String(), now, req.UserID); err != nil {
		return nil, err
	}

	var holding *Holding
	switch {
	case plan.RemovePosition:
		if _, err := tx.Exec(ctx, `DELETE FROM holdings WHERE id = $1`, holdingID); err != nil {
			return nil, err
		}
	case plan.Position != nil && holdingID == uuid.Nil:
		holdingID = uuid.New()
		if _, err := tx.Exec(ctx, `
			INSERT INTO holdings (id, user_id, stock_id, quantity, average_cost, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, holdingID, req.UserID, stockID, plan.Position.Quantity, plan.Position.AverageCost.String(), now); err != nil {
			return nil, err
		}
		holding = &Holding{ID: holdingID, UserID: req.UserID, StockID: stockID, Symbol: symbol,
			Quantity: plan.Position.Quantity, AverageCost: plan.Position.AverageCost, UpdatedAt: now}
	case plan.Position != nil:
		if _, err := tx.Exec(ctx, `
			UPDATE holdings SET quantity = $1, average_cost = $2, updated_at = $3 WHERE id = $4
		`, plan.Position.Quantity, plan.Position.AverageCost.String(), now, holdingID); err != nil {
			return nil, err
		}
		holding = &Holding{ID: holdingID, UserID: req.UserID, StockID: stockID, Symbol: symbol,
			Quantity: plan.Position.Quantity, AverageCost: plan.Position.AverageCost, UpdatedAt: now}
	}

	txnID := uuid.New()
	if _, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, stock_id, side, quantity, price, commission, rationale, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, txnID, req.UserID, stockID, string(req.Side), req.Quantity, price.String(), plan.Commission.String(), req.Rationale, now); err != nil {
		return nil, err
	}

	return &TradeResult{
		Transaction: Transaction{
			ID:         txnID,
			UserID:     req.UserID,
			StockID:    stockID,
			Symbol:     symbol,
			Side:       req.Side,
			Quantity:   req.Quantity,
			Price:      price,
			Commission: plan.Commission,
			Rationale:  req.Rationale,
			CreatedAt:  now,
		},
		Cash:    plan.NewCash,
		Holding: holding,
	}, nil
}

func lockAccount(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*trading.Account, error) {
	var role string
	var classID *uuid.UUID
	var cashStr string
	var active bool
	row := tx.QueryRow(ctx, `
		SELECT role, class_id, cash::text, is_active FROM users WHERE id = $1 FOR UPDATE
	`, userID)
	if err := row.Scan(&role, &classID, &cashStr, &active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if !active {
		return nil, ErrAccountNotFound
	}
	cash, err := decimal.NewFromString(cashStr)
	if err != nil {
		return nil, err
	}
	return &trading.Account{ID: userID, Role: auth.Role(role), ClassID: classID, Cash: cash}, nil
}

func getAllowance(ctx context.Context, tx pgx.Tx, classID, stockID uuid.UUID) (*trading.Allowance, error) {
	var addedAt time.Time
	var active bool
	row := tx.QueryRow(ctx, `
		SELECT added_at, is_active FROM allowed_stocks WHERE class_id = $1 AND stock_id = $2
	`, classID, stockID)
	if err := row.Scan(&addedAt, &active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &trading.Allowance{AddedAt: addedAt, Active: active}, nil
}

func lockHolding(ctx context.Context, tx pgx.Tx, userID, stockID uuid.UUID) (*trading.Position, uuid.UUID, error) {
	var id uuid.UUID
	var quantity int64
	var avgStr string
	row := tx.QueryRow(ctx, `
		SELECT id, quantity, average_cost::text FROM holdings
		WHERE user_id = $1 AND stock_id = $2
		FOR UPDATE
	`, userID, stockID)
	if err := row.Scan(&id, &quantity, &avgStr); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, uuid.Nil, nil
		}
		return nil, uuid.Nil, err
	}
	avg, err := decimal.NewFromString(avgStr)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return &trading.Position{Quantity: quantity, AverageCost: avg}, id, nil
}

func sideFromString(s string) trading.Side {
	if s == string(trading.SideSell) {
		return trading.SideSell
	}
	return trading.SideBuy
}
