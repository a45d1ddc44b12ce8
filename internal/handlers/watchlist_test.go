package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/internal/service"
	"github.com/hyunwoopark/stockclass/internal/storage"
	"github.com/hyunwoopark/stockclass/internal/testutil"
	"github.com/hyunwoopark/stockclass/libs/auth"
)

type stubWatchlistStore struct {
	user   *storage.User
	stocks map[string]*storage.Stock
	items  []storage.WatchlistItem
}

func (s *stubWatchlistStore) GetUserByID(context.Context, uuid.UUID) (*storage.User, error) {
	if s.user == nil {
		return nil, storage.ErrNotFound
	}
	return s.user, nil
}

func (s *stubWatchlistStore) GetStockBySymbol(_ context.Context, symbol string) (*storage.Stock, error) {
	st, ok := s.stocks[storage.NormalizeSymbol(symbol)]
	if !ok {
		return nil, storage.ErrStockNotFound
	}
	return st, nil
}

func (s *stubWatchlistStore) ListWatchlistByUser(context.Context, uuid.UUID) ([]storage.WatchlistItem, error) {
	return s.items, nil
}

func (s *stubWatchlistStore) ReplaceWatchlist(_ context.Context, userID uuid.UUID, stockIDs []uuid.UUID, changedAt time.Time) error {
	rebuilt := make([]storage.WatchlistItem, 0, len(stockIDs))
	for i, stockID := range stockIDs {
		for _, st := range s.stocks {
			if st.ID == stockID {
				rebuilt = append(rebuilt, storage.WatchlistItem{
					UserID:       userID,
					StockID:      stockID,
					Symbol:       st.Symbol,
					Name:         st.Name,
					Position:     i + 1,
					CurrentPrice: st.CurrentPrice,
				})
			}
		}
	}
	s.items = rebuilt
	stamp := changedAt
	s.user.LastWatchlistChange = &stamp
	return nil
}

func watchlistRouter(store *stubWatchlistStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWatchlistHandler(service.NewWatchlistService(store, discardLogger()), discardLogger())

	router := gin.New()
	grp := router.Group("/", auth.Middleware([]byte(testutil.TestJWTSecret)))
	h.RegisterRoutes(grp)
	return router
}

func watchlistStubFixture(userID uuid.UUID) *stubWatchlistStore {
	return &stubWatchlistStore{
		user: &storage.User{ID: userID, IsActive: true},
		stocks: map[string]*storage.Stock{
			"005930": {ID: uuid.New(), Symbol: "005930", Name: "Samsung Electronics", CurrentPrice: decimal.NewFromInt(75_000), IsActive: true},
			"000660": {ID: uuid.New(), Symbol: "000660", Name: "SK Hynix", CurrentPrice: decimal.NewFromInt(130_000), IsActive: true},
		},
	}
}

type watchlistBody struct {
	Watchlist []watchlistItemView `json:"watchlist"`
}

func TestReplaceWatchlistRoute(t *testing.T) {
	userID := uuid.New()
	store := watchlistStubFixture(userID)
	router := watchlistRouter(store)

	resp := testutil.MakeAuthRequest(router, http.MethodPut, "/watchlist", replaceWatchlistRequest{
		Symbols: []string{"000660", "005930"},
	}, studentToken(t, userID))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out watchlistBody
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Watchlist) != 2 || out.Watchlist[0].Symbol != "000660" || out.Watchlist[1].Position != 2 {
		t.Errorf("watchlist = %+v", out.Watchlist)
	}
}

func TestReplaceWatchlistDailyLimit(t *testing.T) {
	userID := uuid.New()
	store := watchlistStubFixture(userID)
	now := time.Now().UTC()
	store.user.LastWatchlistChange = &now
	router := watchlistRouter(store)

	resp := testutil.MakeAuthRequest(router, http.MethodPut, "/watchlist", replaceWatchlistRequest{
		Symbols: []string{"005930"},
	}, studentToken(t, userID))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", resp.Code, resp.Body.String())
	}
	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "WATCHLIST_CHANGE_LIMIT" {
		t.Errorf("code = %s, want WATCHLIST_CHANGE_LIMIT", body.Code)
	}
}

func TestReplaceWatchlistValidation(t *testing.T) {
	router := watchlistRouter(watchlistStubFixture(uuid.New()))
	token := studentToken(t, uuid.New())

	// Too many symbols fails struct validation before the service runs.
	over := make([]string, 11)
	for i := range over {
		over[i] = "005930"
	}
	resp := testutil.MakeAuthRequest(router, http.MethodPut, "/watchlist", replaceWatchlistRequest{Symbols: over}, token)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for 11 symbols, got %d", resp.Code)
	}

	resp = testutil.MakeAuthRequest(router, http.MethodPut, "/watchlist", replaceWatchlistRequest{}, token)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty payload, got %d", resp.Code)
	}
}

func TestAddToWatchlistRoute(t *testing.T) {
	userID := uuid.New()
	store := watchlistStubFixture(userID)
	router := watchlistRouter(store)

	resp := testutil.MakeAuthRequest(router, http.MethodPost, "/watchlist", addWatchlistRequest{
		Symbol: "005930",
	}, studentToken(t, userID))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var out watchlistBody
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Watchlist) != 1 || out.Watchlist[0].Symbol != "005930" {
		t.Errorf("watchlist = %+v", out.Watchlist)
	}
}

func TestAddToWatchlistDuplicate(t *testing.T) {
	userID := uuid.New()
	store := watchlistStubFixture(userID)
	store.items = []storage.WatchlistItem{{
		UserID:   userID,
		StockID:  store.stocks["005930"].ID,
		Symbol:   "005930",
		Position: 1,
	}}
	router := watchlistRouter(store)

	resp := testutil.MakeAuthRequest(router, http.MethodPost, "/watchlist", addWatchlistRequest{
		Symbol: "005930",
	}, studentToken(t, userID))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.Code, resp.Body.String())
	}
	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "ALREADY_WATCHED" {
		t.Errorf("code = %s, want ALREADY_WATCHED", body.Code)
	}
}

func TestRemoveFromWatchlistNotWatched(t *testing.T) {
	userID := uuid.New()
	router := watchlistRouter(watchlistStubFixture(userID))

	resp := testutil.MakeAuthRequest(router, http.MethodDelete, "/watchlist/005930", nil, studentToken(t, userID))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.Code, resp.Body.String())
	}
	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "NOT_WATCHED" {
		t.Errorf("code = %s, want NOT_WATCHED", body.Code)
	}
}

func TestWatchlistRequiresAuth(t *testing.T) {
	router := watchlistRouter(watchlistStubFixture(uuid.New()))
	resp := testutil.MakeAPIRequest(router, http.MethodGet, "/watchlist", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
