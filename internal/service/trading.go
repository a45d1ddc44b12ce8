package service

import (
	"context"
	"errors"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/hyunwoopark/stockclass/internal/storage"
	"github.com/hyunwoopark/stockclass/internal/trading"
)

const (
	statusExecuted = "executed"
	statusRejected = "rejected"
	statusError    = "error"
)

// ErrTradeConflict means the order lost a serialization race more times
// than the retry budget allows. The client should resubmit.
var ErrTradeConflict = errors.New("trade conflict, please retry")

type TradeStore interface {
	ExecuteTrade(ctx context.Context, req storage.TradeRequest) (*storage.TradeResult, error)
	ListTransactionsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]storage.Transaction, error)
}

type OrderInput struct {
	Symbol    string
	Side      trading.Side
	Quantity  int64
	Rationale string
}

type TradingService struct {
	store        TradeStore
	logger       *slog.Logger
	metrics      *Metrics
	params       trading.Params
	maxRetries   int
	retryBackoff time.Duration
}

func NewTradingService(store TradeStore, logger *slog.Logger, metrics *Metrics, params trading.Params, maxRetries int, retryBackoff time.Duration) *TradingService {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &TradingService{
		store:        store,
		logger:       logger,
		metrics:      metrics,
		params:       params,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
	}
}

// ExecuteOrder validates the raw input, then runs the order through the
// store. A serialization conflict is retried with backoff; the losing
// transaction saw no partial state, so a retry is always safe.
func (s *TradingService) ExecuteOrder(ctx context.Context, userID uuid.UUID, in OrderInput) (*storage.TradeResult, error) {
	start := time.Now()

	if err := trading.ValidateOrderInput(trading.Order{
		Side:      in.Side,
		Quantity:  in.Quantity,
		Rationale: in.Rationale,
	}); err != nil {
		s.observe(in.Side, statusRejected, start)
		return nil, err
	}

	req := storage.TradeRequest{
		UserID:    userID,
		Symbol:    in.Symbol,
		Side:      in.Side,
		Quantity:  in.Quantity,
		Rationale: in.Rationale,
		Params:    s.params,
	}

	var result *storage.TradeResult
	var err error
	for attempt := 0; ; attempt++ {
		result, err = s.store.ExecuteTrade(ctx, req)
		if !errors.Is(err, storage.ErrTxConflict) {
			break
		}
		if attempt >= s.maxRetries {
			s.logger.Warn("trade conflict retries exhausted",
				slog.String("user_id", userID.String()),
				slog.String("symbol", in.Symbol),
				slog.Int("attempts", attempt+1),
			)
			s.observe(in.Side, statusError, start)
			return nil, ErrTradeConflict
		}
		if s.metrics != nil {
			s.metrics.TradeRetries.Inc()
		}
		select {
		case <-ctx.Done():
			s.observe(in.Side, statusError, start)
			return nil, ctx.Err()
		case <-time.After(s.retryBackoff * time.Duration(attempt+1)):
		}
	}
	if err != nil {
		if isRejection(err) {
			s.observe(in.Side, statusRejected, start)
		} else {
			s.observe(in.Side, statusError, start)
		}
		return nil, err
	}

	s.logger.Info("trade executed",
		slog.String("user_id", userID.String()),
		slog.String("symbol", result.Transaction.Symbol),
		slog.String("side", string(in.Side)),
		slog.Int64("quantity", in.Quantity),
		slog.String("price", result.Transaction.Price.String()),
		slog.String("commission", result.Transaction.Commission.String()),
	)
	s.observe(in.Side, statusExecuted, start)
	return result, nil
}

func (s *TradingService) History(ctx context.Context, userID uuid.UUID, limit int) ([]storage.Transaction, error) {
	return s.store.ListTransactionsByUser(ctx, userID, limit)
}

func (s *TradingService) observe(side trading.Side, status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.TradeExecutions.WithLabelValues(string(side), status).Inc()
	s.metrics.TradeLatency.WithLabelValues(string(side)).Observe(time.Since(start).Seconds())
}

func isRejection(err error) bool {
	for _, sentinel := range []error{
		trading.ErrInvalidQuantity,
		trading.ErrInvalidRationale,
		trading.ErrInvalidSide,
		trading.ErrPriceUnavailable,
		trading.ErrStockNotAllowed,
		trading.ErrStockInCooldown,
		trading.ErrInsufficientFunds,
		trading.ErrInsufficientHoldings,
		storage.ErrAccountNotFound,
		storage.ErrStockNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
