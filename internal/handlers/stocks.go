package handlers

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/internal/service"
)

type StocksHandler struct {
	Quotes *service.QuoteService
	Logger *slog.Logger
}

func NewStocksHandler(quotes *service.QuoteService, logger *slog.Logger) *StocksHandler {
	return &StocksHandler{Quotes: quotes, Logger: logger}
}

func (h *StocksHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/stocks", h.List)
	r.GET("/stocks/:symbol", h.Quote)
}

type stockView struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Market        string          `json:"market"`
	Sector        string          `json:"sector"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
}

func (h *StocksHandler) List(c *gin.Context) {
	stocks, err := h.Quotes.ListStocks(c.Request.Context())
	if err != nil {
		h.Logger.Error("stock list failed", "error", err)
		writeDomainError(c, err)
		return
	}

	views := make([]stockView, 0, len(stocks))
	for _, s := range stocks {
		views = append(views, stockView{
			Symbol:        s.Symbol,
			Name:          s.Name,
			Market:        s.Market,
			Sector:        s.Sector,
			CurrentPrice:  s.CurrentPrice,
			PreviousClose: s.PreviousClose,
		})
	}
	c.JSON(http.StatusOK, gin.H{"stocks": views})
}

func (h *StocksHandler) Quote(c *gin.Context) {
	q, err := h.Quotes.Quote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}
