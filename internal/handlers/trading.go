package handlers

import (
	"net/http"
	"strconv"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/internal/service"
	"github.com/hyunwoopark/stockclass/internal/storage"
	"github.com/hyunwoopark/stockclass/internal/trading"
	"github.com/hyunwoopark/stockclass/internal/validation"
	"github.com/hyunwoopark/stockclass/libs/auth"
)

type TradingHandler struct {
	Service *service.TradingService
	Logger  *slog.Logger
}

func NewTradingHandler(svc *service.TradingService, logger *slog.Logger) *TradingHandler {
	return &TradingHandler{Service: svc, Logger: logger}
}

func (h *TradingHandler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/trading")
	grp.POST("/buy", auth.RequireCapability(auth.CapTrade), h.execute(trading.SideBuy))
	grp.POST("/sell", auth.RequireCapability(auth.CapTrade), h.execute(trading.SideSell))
	grp.GET("/history", auth.RequireCapability(auth.CapViewPortfolio), h.History)
}

type tradeRequest struct {
	Symbol   string `json:"symbol" validate:"required,min=1,max=20"`
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
	Reason   string `json:"reason" validate:"required,min=1,max=1000"`
}

type tradeResponse struct {
	Order          transactionView `json:"order"`
	UpdatedCash    decimal.Decimal `json:"updated_cash"`
	UpdatedHolding *holdingView    `json:"updated_holding"`
}

type holdingView struct {
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

func (h *TradingHandler) execute(side trading.Side) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req tradeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid payload")
			return
		}
		if errs := validation.Struct(req); errs != nil {
			writeFieldErrors(c, errs)
			return
		}

		result, err := h.Service.ExecuteOrder(c.Request.Context(), userID, service.OrderInput{
			Symbol:    req.Symbol,
			Side:      side,
			Quantity:  req.Quantity,
			Rationale: req.Reason,
		})
		if err != nil {
			writeDomainError(c, err)
			return
		}

		resp := tradeResponse{
			Order:       transactionViewOf(result.Transaction),
			UpdatedCash: result.Cash,
		}
		if result.Holding != nil {
			resp.UpdatedHolding = &holdingView{
				Symbol:      result.Holding.Symbol,
				Quantity:    result.Holding.Quantity,
				AverageCost: result.Holding.AverageCost,
			}
		}
		c.JSON(http.StatusCreated, resp)
	}
}

type transactionView struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Side       string          `json:"side"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Commission decimal.Decimal `json:"commission"`
	Rationale  string          `json:"rationale"`
	CreatedAt  string          `json:"created_at"`
}

func (h *TradingHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid limit")
			return
		}
		limit = n
	}

	txns, err := h.Service.History(c.Request.Context(), userID, limit)
	if err != nil {
		h.Logger.Error("transaction history failed", "error", err)
		writeDomainError(c, err)
		return
	}

	views := make([]transactionView, 0, len(txns))
	for _, t := range txns {
		views = append(views, transactionViewOf(t))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": views})
}

func transactionViewOf(t storage.Transaction) transactionView {
	return transactionView{
		ID:         t.ID.String(),
		Symbol:     t.Symbol,
		Side:       string(t.Side),
		Quantity:   t.Quantity,
		Price:      t.Price,
		Commission: t.Commission,
		Rationale:  t.Rationale,
		CreatedAt:  t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
