package handlers

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/internal/service"
	"github.com/hyunwoopark/stockclass/internal/storage"
	"github.com/hyunwoopark/stockclass/internal/validation"
	"github.com/hyunwoopark/stockclass/libs/auth"
)

type WatchlistHandler struct {
	Service *service.WatchlistService
	Logger  *slog.Logger
}

func NewWatchlistHandler(svc *service.WatchlistService, logger *slog.Logger) *WatchlistHandler {
	return &WatchlistHandler{Service: svc, Logger: logger}
}

func (h *WatchlistHandler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/watchlist", auth.RequireCapability(auth.CapViewPortfolio))
	grp.GET("", h.List)
	grp.PUT("", h.Replace)
	grp.POST("", h.Add)
	grp.DELETE("/:symbol", h.Remove)
}

type watchlistItemView struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Market       string          `json:"market"`
	Position     int             `json:"position"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

type replaceWatchlistRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=10,dive,min=1,max=20"`
}

type addWatchlistRequest struct {
	Symbol string `json:"symbol" validate:"required,min=1,max=20"`
}

func (h *WatchlistHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	items, err := h.Service.Watchlist(c.Request.Context(), userID)
	if err != nil {
		h.Logger.Error("watchlist lookup failed", "error", err)
		writeDomainError(c, err)
		return
	}
	writeWatchlist(c, http.StatusOK, items)
}

func (h *WatchlistHandler) Replace(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req replaceWatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid payload")
		return
	}
	if errs := validation.Struct(req); errs != nil {
		writeFieldErrors(c, errs)
		return
	}

	items, err := h.Service.SetWatchlist(c.Request.Context(), userID, req.Symbols)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeWatchlist(c, http.StatusOK, items)
}

func (h *WatchlistHandler) Add(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req addWatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid payload")
		return
	}
	if errs := validation.Struct(req); errs != nil {
		writeFieldErrors(c, errs)
		return
	}

	items, err := h.Service.AddStock(c.Request.Context(), userID, req.Symbol)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeWatchlist(c, http.StatusCreated, items)
}

func (h *WatchlistHandler) Remove(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	items, err := h.Service.RemoveStock(c.Request.Context(), userID, c.Param("symbol"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeWatchlist(c, http.StatusOK, items)
}

func writeWatchlist(c *gin.Context, status int, items []storage.WatchlistItem) {
	views := make([]watchlistItemView, 0, len(items))
	for _, item := range items {
		views = append(views, watchlistItemView{
			Symbol:       item.Symbol,
			Name:         item.Name,
			Market:       item.Market,
			Position:     item.Position,
			CurrentPrice: item.CurrentPrice,
		})
	}
	c.JSON(status, gin.H{"watchlist": views})
}
