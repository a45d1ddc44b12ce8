package handlers

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/hyunwoopark/stockclass/internal/service"
	"github.com/hyunwoopark/stockclass/libs/auth"
)

type PortfolioHandler struct {
	Service *service.PortfolioService
	Logger  *slog.Logger
}

func NewPortfolioHandler(svc *service.PortfolioService, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{Service: svc, Logger: logger}
}

func (h *PortfolioHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/portfolio", auth.RequireCapability(auth.CapViewPortfolio), h.Portfolio)
	r.GET("/portfolio/holdings", auth.RequireCapability(auth.CapViewPortfolio), h.Holdings)
}

func (h *PortfolioHandler) Portfolio(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	p, err := h.Service.Portfolio(c.Request.Context(), userID)
	if err != nil {
		h.Logger.Error("portfolio lookup failed", "error", err)
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Holdings is the positions-only view, for clients that do not need
// cash or return figures.
func (h *PortfolioHandler) Holdings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	p, err := h.Service.Portfolio(c.Request.Context(), userID)
	if err != nil {
		h.Logger.Error("holdings lookup failed", "error", err)
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holdings": p.Positions})
}
