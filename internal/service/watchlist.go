package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/hyunwoopark/stockclass/internal/storage"
)

const maxWatchlistSize = 10

var (
	// ErrWatchlistChangeLimit means the user already edited their list
	// today. The limit exists to make students commit to a pick instead
	// of churning through the whole market.
	ErrWatchlistChangeLimit = errors.New("watchlist already changed today")
	ErrWatchlistSize        = errors.New("watchlist must contain between 1 and 10 stocks")
	ErrWatchlistFull        = errors.New("watchlist is full")
	ErrAlreadyWatched       = errors.New("stock is already on the watchlist")
	ErrNotWatched           = errors.New("stock is not on the watchlist")
)

type WatchlistStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*storage.User, error)
	GetStockBySymbol(ctx context.Context, symbol string) (*storage.Stock, error)
	ListWatchlistByUser(ctx context.Context, userID uuid.UUID) ([]storage.WatchlistItem, error)
	ReplaceWatchlist(ctx context.Context, userID uuid.UUID, stockIDs []uuid.UUID, changedAt time.Time) error
}

type WatchlistService struct {
	store  WatchlistStore
	logger *slog.Logger
	now    func() time.Time
}

func NewWatchlistService(store WatchlistStore, logger *slog.Logger) *WatchlistService {
	return &WatchlistService{store: store, logger: logger, now: time.Now}
}

func (s *WatchlistService) Watchlist(ctx context.Context, userID uuid.UUID) ([]storage.WatchlistItem, error) {
	return s.store.ListWatchlistByUser(ctx, userID)
}

// SetWatchlist replaces the user's list with the given symbols, in
// order. One edit per calendar day is allowed; Add and Remove count
// against the same limit because they rewrite the list too.
func (s *WatchlistService) SetWatchlist(ctx context.Context, userID uuid.UUID, symbols []string) ([]storage.WatchlistItem, error) {
	if len(symbols) == 0 || len(symbols) > maxWatchlistSize {
		return nil, ErrWatchlistSize
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkChangeAllowed(user); err != nil {
		return nil, err
	}

	stockIDs := make([]uuid.UUID, 0, len(symbols))
	seen := map[uuid.UUID]bool{}
	for _, sym := range symbols {
		stock, err := s.resolveStock(ctx, sym)
		if err != nil {
			return nil, err
		}
		if seen[stock.ID] {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyWatched, stock.Symbol)
		}
		seen[stock.ID] = true
		stockIDs = append(stockIDs, stock.ID)
	}

	if err := s.replace(ctx, userID, stockIDs); err != nil {
		return nil, err
	}
	return s.store.ListWatchlistByUser(ctx, userID)
}

// AddStock appends one stock to the end of the list.
func (s *WatchlistService) AddStock(ctx context.Context, userID uuid.UUID, symbol string) ([]storage.WatchlistItem, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkChangeAllowed(user); err != nil {
		return nil, err
	}

	items, err := s.store.ListWatchlistByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) >= maxWatchlistSize {
		return nil, ErrWatchlistFull
	}

	stock, err := s.resolveStock(ctx, symbol)
	if err != nil {
		return nil, err
	}

	stockIDs := make([]uuid.UUID, 0, len(items)+1)
	for _, item := range items {
		if item.StockID == stock.ID {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyWatched, stock.Symbol)
		}
		stockIDs = append(stockIDs, item.StockID)
	}
	stockIDs = append(stockIDs, stock.ID)

	if err := s.replace(ctx, userID, stockIDs); err != nil {
		return nil, err
	}
	return s.store.ListWatchlistByUser(ctx, userID)
}

// RemoveStock drops one stock; the remaining entries close ranks so
// positions stay contiguous. Removing the last entry leaves the list
// empty, which is fine; the 1..10 bound applies only to full replaces.
func (s *WatchlistService) RemoveStock(ctx context.Context, userID uuid.UUID, symbol string) ([]storage.WatchlistItem, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkChangeAllowed(user); err != nil {
		return nil, err
	}

	items, err := s.store.ListWatchlistByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	target := storage.NormalizeSymbol(symbol)
	stockIDs := make([]uuid.UUID, 0, len(items))
	found := false
	for _, item := range items {
		if item.Symbol == target {
			found = true
			continue
		}
		stockIDs = append(stockIDs, item.StockID)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotWatched, target)
	}

	if err := s.replace(ctx, userID, stockIDs); err != nil {
		return nil, err
	}
	return s.store.ListWatchlistByUser(ctx, userID)
}

func (s *WatchlistService) replace(ctx context.Context, userID uuid.UUID, stockIDs []uuid.UUID) error {
	if err := s.store.ReplaceWatchlist(ctx, userID, stockIDs, s.now().UTC()); err != nil {
		return err
	}
	s.logger.Info("watchlist updated",
		slog.String("user_id", userID.String()),
		slog.Int("stocks", len(stockIDs)),
	)
	return nil
}

// checkChangeAllowed compares calendar days in UTC: a list changed at
// 23:59 can be changed again one minute later.
func (s *WatchlistService) checkChangeAllowed(user *storage.User) error {
	if user.LastWatchlistChange == nil {
		return nil
	}
	y1, m1, d1 := user.LastWatchlistChange.UTC().Date()
	y2, m2, d2 := s.now().UTC().Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return ErrWatchlistChangeLimit
	}
	return nil
}

func (s *WatchlistService) resolveStock(ctx context.Context, symbol string) (*storage.Stock, error) {
	stock, err := s.store.GetStockBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrStockNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, storage.NormalizeSymbol(symbol))
		}
		return nil, err
	}
	if !stock.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, stock.Symbol)
	}
	return stock, nil
}
