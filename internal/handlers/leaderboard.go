package handlers

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/hyunwoopark/stockclass/internal/service"
	"github.com/hyunwoopark/stockclass/libs/auth"
)

type LeaderboardHandler struct {
	Service *service.LeaderboardService
	Logger  *slog.Logger
}

func NewLeaderboardHandler(svc *service.LeaderboardService, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{Service: svc, Logger: logger}
}

func (h *LeaderboardHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/classes/:id/leaderboard", h.ClassLeaderboard)
}

func (h *LeaderboardHandler) ClassLeaderboard(c *gin.Context) {
	classID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// Students only see their own class's board.
	if role, _ := auth.RoleFromContext(c); role == auth.RoleStudent {
		own, _ := auth.ClassIDFromContext(c)
		if own != classID.String() {
			writeError(c, http.StatusForbidden, "FORBIDDEN", "not your class")
			return
		}
	}

	entries, err := h.Service.ClassLeaderboard(c.Request.Context(), classID)
	if err != nil {
		h.Logger.Error("leaderboard failed", "error", err)
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
