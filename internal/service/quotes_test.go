package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/internal/cache"
	"github.com/hyunwoopark/stockclass/internal/storage"
)

type fakeStockStore struct {
	stocks    map[string]*storage.Stock
	getCalls  int
	listCalls int
}

func (f *fakeStockStore) GetStockBySymbol(_ context.Context, symbol string) (*storage.Stock, error) {
	f.getCalls++
	s, ok := f.stocks[symbol]
	if !ok {
		return nil, storage.ErrStockNotFound
	}
	return s, nil
}

func (f *fakeStockStore) ListActiveStocks(context.Context) ([]storage.Stock, error) {
	f.listCalls++
	out := make([]storage.Stock, 0, len(f.stocks))
	for _, s := range f.stocks {
		out = append(out, *s)
	}
	return out, nil
}

func TestQuoteFillsCacheOnMiss(t *testing.T) {
	updated := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store := &fakeStockStore{stocks: map[string]*storage.Stock{
		"005930": {
			ID:              uuid.New(),
			Symbol:          "005930",
			Name:            "Samsung Electronics",
			CurrentPrice:    decimal.NewFromInt(75000),
			LastPriceUpdate: &updated,
		},
	}}
	svc := NewQuoteService(cache.NewMemory(time.Minute), store, testLogger(), nil)
	ctx := context.Background()

	q, err := svc.Quote(ctx, "005930")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !q.Price.Equal(decimal.NewFromInt(75000)) {
		t.Errorf("price = %s", q.Price)
	}
	if store.getCalls != 1 {
		t.Fatalf("getCalls = %d, want 1", store.getCalls)
	}

	// Second read must come from the cache.
	if _, err := svc.Quote(ctx, "005930"); err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if store.getCalls != 1 {
		t.Fatalf("getCalls = %d after cached read, want 1", store.getCalls)
	}
}

func TestQuoteNormalizesSymbol(t *testing.T) {
	store := &fakeStockStore{stocks: map[string]*storage.Stock{
		"005930": {ID: uuid.New(), Symbol: "005930", CurrentPrice: decimal.NewFromInt(75000)},
	}}
	svc := NewQuoteService(cache.NewMemory(time.Minute), store, testLogger(), nil)

	if _, err := svc.Quote(context.Background(), "  005930 "); err != nil {
		t.Fatalf("Quote: %v", err)
	}
}

func TestQuoteUnknownSymbol(t *testing.T) {
	svc := NewQuoteService(cache.NewMemory(time.Minute), &fakeStockStore{}, testLogger(), nil)

	if _, err := svc.Quote(context.Background(), "999999"); err != storage.ErrStockNotFound {
		t.Fatalf("err = %v, want ErrStockNotFound", err)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	store := &fakeStockStore{stocks: map[string]*storage.Stock{
		"005930": {ID: uuid.New(), Symbol: "005930", CurrentPrice: decimal.NewFromInt(75000)},
	}}
	svc := NewQuoteService(cache.NewMemory(time.Minute), store, testLogger(), nil)
	ctx := context.Background()

	if _, err := svc.Quote(ctx, "005930"); err != nil {
		t.Fatalf("Quote: %v", err)
	}
	svc.Invalidate(ctx, "005930")

	store.stocks["005930"].CurrentPrice = decimal.NewFromInt(76000)
	q, err := svc.Quote(ctx, "005930")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !q.Price.Equal(decimal.NewFromInt(76000)) {
		t.Errorf("price after invalidate = %s, want 76000", q.Price)
	}
	if store.getCalls != 2 {
		t.Fatalf("getCalls = %d, want 2", store.getCalls)
	}
}
