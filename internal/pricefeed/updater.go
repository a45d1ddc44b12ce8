package pricefeed

import (
	"context"
	"time"

	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/internal/storage"
)

type PriceStore interface {
	ListActiveStocks(ctx context.Context) ([]storage.Stock, error)
	UpdateStockPrice(ctx context.Context, symbol string, price, previousClose decimal.Decimal, at time.Time) error
}

type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*FeedQuote, error)
}

type Invalidator interface {
	Invalidate(ctx context.Context, symbol string)
}

type Updater struct {
	store    PriceStore
	fetcher  QuoteFetcher
	cache    Invalidator
	logger   *slog.Logger
	interval time.Duration
}

func NewUpdater(store PriceStore, fetcher QuoteFetcher, cache Invalidator, logger *slog.Logger, interval time.Duration) *Updater {
	return &Updater{
		store:    store,
		fetcher:  fetcher,
		cache:    cache,
		logger:   logger,
		interval: interval,
	}
}

// Run refreshes all active stocks once per interval until ctx ends.
// The first pass runs immediately so a fresh deploy has prices before
// the first tick.
func (u *Updater) Run(ctx context.Context) {
	u.RefreshAll(ctx)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.RefreshAll(ctx)
		}
	}
}

// RefreshAll updates every active stock. One failing symbol does not
// stop the rest; it is logged and skipped until the next pass.
func (u *Updater) RefreshAll(ctx context.Context) {
	stocks, err := u.store.ListActiveStocks(ctx)
	if err != nil {
		u.logger.Error("stock listing failed", "error", err)
		return
	}

	updated := 0
	for _, stock := range stocks {
		if ctx.Err() != nil {
			return
		}
		if err := u.refreshOne(ctx, stock.Symbol); err != nil {
			u.logger.Warn("price refresh failed",
				slog.String("symbol", stock.Symbol),
				slog.Any("error", err),
			)
			continue
		}
		updated++
	}

	u.logger.Info("price refresh pass complete",
		slog.Int("stocks", len(stocks)),
		slog.Int("updated", updated),
	)
}

func (u *Updater) refreshOne(ctx context.Context, symbol string) error {
	quote, err := u.fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		return err
	}
	if quote.Price.LessThanOrEqual(decimal.Zero) {
		// Never write a non-positive price; trading treats it as unusable.
		u.logger.Warn("ignoring non-positive price", slog.String("symbol", symbol))
		return nil
	}

	if err := u.store.UpdateStockPrice(ctx, symbol, quote.Price, quote.PreviousClose, quote.At); err != nil {
		return err
	}
	if u.cache != nil {
		u.cache.Invalidate(ctx, symbol)
	}
	return nil
}
