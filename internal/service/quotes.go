package service

import (
	"context"
	"errors"

	"log/slog"

	"github.com/hyunwoopark/stockclass/internal/cache"
	"github.com/hyunwoopark/stockclass/internal/storage"
)

type StockStore interface {
	GetStockBySymbol(ctx context.Context, symbol string) (*storage.Stock, error)
	ListActiveStocks(ctx context.Context) ([]storage.Stock, error)
}

// QuoteService serves prices cache-aside: a hit skips Postgres, a miss
// refills the cache from the stocks table. The price feed invalidates
// entries after each write so readers never see a stale TTL window
// longer than one feed interval.
type QuoteService struct {
	cache   cache.QuoteCache
	store   StockStore
	logger  *slog.Logger
	metrics *Metrics
}

func NewQuoteService(c cache.QuoteCache, store StockStore, logger *slog.Logger, metrics *Metrics) *QuoteService {
	return &QuoteService{cache: c, store: store, logger: logger, metrics: metrics}
}

func (s *QuoteService) Quote(ctx context.Context, symbol string) (cache.Quote, error) {
	symbol = storage.NormalizeSymbol(symbol)

	q, err := s.cache.Get(ctx, symbol)
	if err == nil {
		s.observe("hit")
		return q, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		// A broken cache should not take quotes down with it.
		s.logger.Warn("quote cache read failed", slog.String("symbol", symbol), slog.Any("error", err))
	}
	s.observe("miss")

	stock, err := s.store.GetStockBySymbol(ctx, symbol)
	if err != nil {
		return cache.Quote{}, err
	}

	q = quoteFromStock(*stock)
	if err := s.cache.Set(ctx, q); err != nil {
		s.logger.Warn("quote cache write failed", slog.String("symbol", symbol), slog.Any("error", err))
	}
	return q, nil
}

func (s *QuoteService) ListStocks(ctx context.Context) ([]storage.Stock, error) {
	return s.store.ListActiveStocks(ctx)
}

func (s *QuoteService) Invalidate(ctx context.Context, symbol string) {
	if err := s.cache.Invalidate(ctx, storage.NormalizeSymbol(symbol)); err != nil {
		s.logger.Warn("quote cache invalidate failed", slog.String("symbol", symbol), slog.Any("error", err))
	}
}

func (s *QuoteService) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.QuoteCacheHits.WithLabelValues(outcome).Inc()
	}
}

func quoteFromStock(st storage.Stock) cache.Quote {
	q := cache.Quote{
		StockID: st.ID,
		Symbol:  st.Symbol,
		Name:    st.Name,
		Price:   st.CurrentPrice,
	}
	if st.LastPriceUpdate != nil {
		q.UpdatedAt = *st.LastPriceUpdate
	}
	return q
}
