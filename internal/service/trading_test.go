package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/internal/storage"
	"github.com/hyunwoopark/stockclass/internal/trading"
)

type fakeTradeStore struct {
	results   []*storage.TradeResult
	errs      []error
	calls     int
	lastReq   storage.TradeRequest
	histCalls int
}

func (f *fakeTradeStore) ExecuteTrade(_ context.Context, req storage.TradeRequest) (*storage.TradeResult, error) {
	f.lastReq = req
	i := f.calls
	f.calls++
	if i >= len(f.errs) {
		i = len(f.errs) - 1
	}
	return f.results[i], f.errs[i]
}

func (f *fakeTradeStore) ListTransactionsByUser(context.Context, uuid.UUID, int) ([]storage.Transaction, error) {
	f.histCalls++
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultParams() trading.Params {
	return trading.Params{
		CommissionRate: decimal.RequireFromString("0.00015"),
		Cooldown:       24 * time.Hour,
	}
}

func newTradingService(store TradeStore) *TradingService {
	return NewTradingService(store, testLogger(), nil, defaultParams(), 2, time.Millisecond)
}

func TestExecuteOrderPassesParamsToStore(t *testing.T) {
	result := &storage.TradeResult{Cash: decimal.NewFromInt(249887)}
	store := &fakeTradeStore{results: []*storage.TradeResult{result}, errs: []error{nil}}
	svc := newTradingService(store)

	got, err := svc.ExecuteOrder(context.Background(), uuid.New(), OrderInput{
		Symbol:    "005930",
		Side:      trading.SideBuy,
		Quantity:  10,
		Rationale: "strong earnings",
	})
	if err != nil {
		t.Fatalf("ExecuteOrder: %v", err)
	}
	if got != result {
		t.Fatal("result not passed through")
	}
	if !store.lastReq.Params.CommissionRate.Equal(decimal.RequireFromString("0.00015")) {
		t.Errorf("commission rate = %s", store.lastReq.Params.CommissionRate)
	}
	if store.lastReq.Params.Cooldown != 24*time.Hour {
		t.Errorf("cooldown = %v", store.lastReq.Params.Cooldown)
	}
}

func TestExecuteOrderRejectsBadInputWithoutStoreCall(t *testing.T) {
	store := &fakeTradeStore{results: []*storage.TradeResult{nil}, errs: []error{nil}}
	svc := newTradingService(store)

	_, err := svc.ExecuteOrder(context.Background(), uuid.New(), OrderInput{
		Symbol:    "005930",
		Side:      trading.SideBuy,
		Quantity:  0,
		Rationale: "x",
	})
	if !errors.Is(err, trading.ErrInvalidQuantity) {
		t.Fatalf("err = %v, want ErrInvalidQuantity", err)
	}
	if store.calls != 0 {
		t.Fatal("store must not be called for invalid input")
	}
}

func TestExecuteOrderRetriesOnConflict(t *testing.T) {
	result := &storage.TradeResult{Cash: decimal.NewFromInt(100)}
	store := &fakeTradeStore{
		results: []*storage.TradeResult{nil, result},
		errs:    []error{storage.ErrTxConflict, nil},
	}
	svc := newTradingService(store)

	got, err := svc.ExecuteOrder(context.Background(), uuid.New(), OrderInput{
		Symbol:    "005930",
		Side:      trading.SideSell,
		Quantity:  5,
		Rationale: "taking profit",
	})
	if err != nil {
		t.Fatalf("ExecuteOrder: %v", err)
	}
	if got != result {
		t.Fatal("expected second attempt's result")
	}
	if store.calls != 2 {
		t.Fatalf("calls = %d, want 2", store.calls)
	}
}

func TestExecuteOrderConflictRetriesExhausted(t *testing.T) {
	store := &fakeTradeStore{
		results: []*storage.TradeResult{nil},
		errs:    []error{storage.ErrTxConflict},
	}
	svc := newTradingService(store)

	_, err := svc.ExecuteOrder(context.Background(), uuid.New(), OrderInput{
		Symbol:    "005930",
		Side:      trading.SideBuy,
		Quantity:  1,
		Rationale: "testing limits",
	})
	if !errors.Is(err, ErrTradeConflict) {
		t.Fatalf("err = %v, want ErrTradeConflict", err)
	}
	// initial attempt plus two retries
	if store.calls != 3 {
		t.Fatalf("calls = %d, want 3", store.calls)
	}
}

func TestExecuteOrderDomainErrorsPassThrough(t *testing.T) {
	store := &fakeTradeStore{
		results: []*storage.TradeResult{nil},
		errs:    []error{trading.ErrInsufficientFunds},
	}
	svc := newTradingService(store)

	_, err := svc.ExecuteOrder(context.Background(), uuid.New(), OrderInput{
		Symbol:    "005930",
		Side:      trading.SideBuy,
		Quantity:  1000,
		Rationale: "going big",
	})
	if !errors.Is(err, trading.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if store.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry for domain errors)", store.calls)
	}
}
