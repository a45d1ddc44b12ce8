package handlers

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/internal/service"
	"github.com/hyunwoopark/stockclass/internal/validation"
	"github.com/hyunwoopark/stockclass/libs/auth"
)

type TeacherHandler struct {
	Service     *service.TeacherService
	Leaderboard *service.LeaderboardService
	Logger      *slog.Logger
}

func NewTeacherHandler(svc *service.TeacherService, leaderboard *service.LeaderboardService, logger *slog.Logger) *TeacherHandler {
	return &TeacherHandler{Service: svc, Leaderboard: leaderboard, Logger: logger}
}

func (h *TeacherHandler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/teacher", auth.RequireCapability(auth.CapManageClass))
	grp.POST("/classes", h.CreateClass)
	grp.GET("/classes", h.ListClasses)
	grp.GET("/classes/:id", h.ClassDetails)
	grp.GET("/classes/:id/statistics", h.ClassStatistics)
	grp.PUT("/classes/:id/allowed-stocks", h.SetAllowedStocks)
	grp.PUT("/students/:id/cash", h.AdjustStudentCash)
	grp.DELETE("/students/:id", h.RemoveStudent)
}

type createClassRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=100"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date"`
}

func (h *TeacherHandler) CreateClass(c *gin.Context) {
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid payload")
		return
	}
	if errs := validation.Struct(req); errs != nil {
		writeFieldErrors(c, errs)
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "start_date must be YYYY-MM-DD")
		return
	}
	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "end_date must be YYYY-MM-DD")
			return
		}
		if parsed.Before(startDate) {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "end_date must not be before start_date")
			return
		}
		endDate = &parsed
	}

	class, err := h.Service.CreateClass(c.Request.Context(), teacherID, req.Name, startDate, endDate)
	if err != nil {
		h.Logger.Error("class creation failed", "error", err)
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

func (h *TeacherHandler) ListClasses(c *gin.Context) {
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	classes, err := h.Service.Classes(c.Request.Context(), teacherID)
	if err != nil {
		h.Logger.Error("class list failed", "error", err)
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

func (h *TeacherHandler) ClassDetails(c *gin.Context) {
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}
	classID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	details, err := h.Service.ClassDetails(c.Request.Context(), teacherID, classID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *TeacherHandler) ClassStatistics(c *gin.Context) {
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}
	classID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.Service.VerifyClassOwner(c.Request.Context(), teacherID, classID); err != nil {
		writeDomainError(c, err)
		return
	}

	stats, err := h.Leaderboard.ClassStatistics(c.Request.Context(), classID)
	if err != nil {
		h.Logger.Error("class statistics failed", "error", err)
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type allowedStocksRequest struct {
	Symbols []string `json:"symbols" validate:"required,max=50,dive,min=1,max=20"`
}

func (h *TeacherHandler) SetAllowedStocks(c *gin.Context) {
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}
	classID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req allowedStocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid payload")
		return
	}
	if errs := validation.Struct(req); errs != nil {
		writeFieldErrors(c, errs)
		return
	}

	allowed, err := h.Service.SetAllowedStocks(c.Request.Context(), teacherID, classID, req.Symbols)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"allowed_stocks": allowed})
}

type adjustCashRequest struct {
	Cash decimal.Decimal `json:"cash"`
}

func (h *TeacherHandler) AdjustStudentCash(c *gin.Context) {
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req adjustCashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid payload")
		return
	}
	if req.Cash.IsNegative() {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "cash must not be negative")
		return
	}

	student, err := h.Service.AdjustStudentCash(c.Request.Context(), teacherID, studentID, req.Cash)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"student_id": student.ID,
		"cash":       student.Cash,
	})
}

func (h *TeacherHandler) RemoveStudent(c *gin.Context) {
	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.Service.RemoveStudent(c.Request.Context(), teacherID, studentID); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
