package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hyunwoopark/stockclass/internal/rate"
	"github.com/hyunwoopark/stockclass/internal/security"
	"github.com/hyunwoopark/stockclass/internal/storage"
	"github.com/hyunwoopark/stockclass/internal/validation"
	"github.com/hyunwoopark/stockclass/libs/auth"
	"github.com/shopspring/decimal"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type AuthStore interface {
	GetUserByEmail(ctx context.Context, email string) (*storage.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*storage.User, error)
	CreateUser(ctx context.Context, in storage.CreateUserInput) (*storage.User, error)
	GetClassByCode(ctx context.Context, code string) (*storage.Class, error)
	GetRefreshTokenByHash(ctx context.Context, hash string) (*storage.RefreshToken, error)
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (uuid.UUID, error)
	RotateToken(ctx context.Context, oldTokenID, userID uuid.UUID, newHash string, expiresAt time.Time) (uuid.UUID, error)
	RevokeTokenByHash(ctx context.Context, hash string) error
	RevokeAllTokens(ctx context.Context, userID uuid.UUID) error
}

type AuthHandler struct {
	Store       AuthStore
	Logger      *slog.Logger
	JWTSecret   []byte
	Issuer      string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	InitialCash decimal.Decimal
	Argon2      security.Argon2Params
	RateLimiter rate.Limiter
	TokenGen    security.TokenGenerator
	Clock       Clock
}

type AuthHandlerConfig struct {
	JWTSecret   string
	Issuer      string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	InitialCash decimal.Decimal
	Argon2      security.Argon2Params
}

func NewAuthHandler(store AuthStore, logger *slog.Logger, cfg AuthHandlerConfig, limiter rate.Limiter) *AuthHandler {
	return &AuthHandler{
		Store:       store,
		Logger:      logger,
		JWTSecret:   []byte(cfg.JWTSecret),
		Issuer:      cfg.Issuer,
		AccessTTL:   cfg.AccessTTL,
		RefreshTTL:  cfg.RefreshTTL,
		InitialCash: cfg.InitialCash,
		Argon2:      cfg.Argon2,
		RateLimiter: limiter,
		TokenGen:    security.DefaultTokenGenerator{},
		Clock:       systemClock{},
	}
}

func (h *AuthHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.POST("/auth/logout", h.Logout)
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Name      string `json:"name" validate:"required,min=1,max=100"`
	ClassCode string `json:"class_code" validate:"required,len=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type authResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	User         authUser `json:"user"`
}

type authUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	ClassID string `json:"class_id,omitempty"`
}

// Register creates a student account joined to a class by its code.
// Teacher accounts are provisioned out of band, not through this route.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid payload")
		return
	}
	req.ClassCode = strings.ToUpper(strings.TrimSpace(req.ClassCode))
	if errs := validation.Struct(req); errs != nil {
		writeFieldErrors(c, errs)
		return
	}

	if !h.allow(c, "register") {
		return
	}

	class, err := h.Store.GetClassByCode(c.Request.Context(), req.ClassCode)
	if err != nil {
		if errors.Is(err, storage.ErrClassNotFound) || errors.Is(err, storage.ErrNotFound) {
			writeError(c, http.StatusBadRequest, "CLASS_CODE_NOT_FOUND", "no class with that code")
			return
		}
		h.Logger.Error("class lookup failed", "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	hash, err := security.HashPassword(req.Password, h.Argon2)
	if err != nil {
		h.Logger.Error("password hash failed", "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	user, err := h.Store.CreateUser(c.Request.Context(), storage.CreateUserInput{
		Email:          req.Email,
		PasswordHash:   hash,
		Name:           req.Name,
		Role:           auth.RoleStudent,
		ClassID:        &class.ID,
		InitialCapital: h.InitialCash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			writeError(c, http.StatusConflict, "EMAIL_TAKEN", "email is already registered")
			return
		}
		h.Logger.Error("user insert failed", "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	h.Logger.Info("student registered",
		slog.String("user_id", user.ID.String()),
		slog.String("class_id", class.ID.String()),
	)
	h.issueTokens(c, user, http.StatusCreated)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid payload")
		return
	}
	if errs := validation.Struct(req); errs != nil {
		writeFieldErrors(c, errs)
		return
	}

	if !h.allow(c, "login") {
		return
	}

	user, err := h.Store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
			return
		}
		h.Logger.Error("login lookup failed", "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok || !user.IsActive {
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
		return
	}

	h.issueTokens(c, user, http.StatusOK)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid payload")
		return
	}

	providedHash := security.HashToken(req.RefreshToken)

	token, err := h.Store.GetRefreshTokenByHash(c.Request.Context(), providedHash)
	if err != nil {
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
		return
	}

	// A revoked token showing up again means the raw value leaked.
	// Cut every session for the account.
	if token.RevokedAt != nil {
		_ = h.Store.RevokeAllTokens(c.Request.Context(), token.UserID)
		h.Logger.Warn("refresh token reuse detected", slog.String("user_id", token.UserID.String()))
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "token reuse detected")
		return
	}

	now := h.Clock.Now()
	if token.ExpiresAt.Before(now) {
		_ = h.Store.RevokeTokenByHash(c.Request.Context(), providedHash)
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "token expired")
		return
	}

	user, err := h.Store.GetUserByID(c.Request.Context(), token.UserID)
	if err != nil || !user.IsActive {
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
		return
	}

	newToken, newHash, err := h.TokenGen.New()
	if err != nil {
		h.Logger.Error("refresh token generation failed", "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	if _, err := h.Store.RotateToken(c.Request.Context(), token.ID, token.UserID, newHash, now.Add(h.RefreshTTL)); err != nil {
		h.Logger.Error("token rotation failed", "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	access, err := h.accessToken(user, now)
	if err != nil {
		h.Logger.Error("jwt sign failed", "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	c.JSON(http.StatusOK, authResponse{
		AccessToken:  access,
		RefreshToken: newToken,
		ExpiresIn:    int64(h.AccessTTL.Seconds()),
		User:         userView(user),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid payload")
		return
	}

	if err := h.Store.RevokeTokenByHash(c.Request.Context(), security.HashToken(req.RefreshToken)); err != nil {
		h.Logger.Error("revoke token failed", "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AuthHandler) allow(c *gin.Context, operation string) bool {
	if h.RateLimiter == nil {
		return true
	}
	allowed, retryAfter, err := h.RateLimiter.Allow(c.Request.Context(), c.ClientIP(), h.Clock.Now())
	if err != nil {
		// Rate limiting is advisory; an unreachable limiter fails open.
		h.Logger.Warn("rate limiter unavailable", "operation", operation, "error", err)
		return true
	}
	if !allowed {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
		writeError(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
		return false
	}
	return true
}

func (h *AuthHandler) issueTokens(c *gin.Context, user *storage.User, status int) {
	now := h.Clock.Now()

	access, err := h.accessToken(user, now)
	if err != nil {
		h.Logger.Error("jwt sign failed", "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	refreshToken, refreshHash, err := h.TokenGen.New()
	if err != nil {
		h.Logger.Error("refresh token generation failed", "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	if _, err := h.Store.CreateRefreshToken(c.Request.Context(), user.ID, refreshHash, now.Add(h.RefreshTTL)); err != nil {
		h.Logger.Error("refresh token insert failed", "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	c.JSON(status, authResponse{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(h.AccessTTL.Seconds()),
		User:         userView(user),
	})
}

func (h *AuthHandler) accessToken(user *storage.User, now time.Time) (string, error) {
	classID := ""
	if user.ClassID != nil {
		classID = user.ClassID.String()
	}
	return auth.NewAccessToken(user.ID.String(), user.Role, classID, h.JWTSecret, h.AccessTTL, now, h.Issuer)
}

func userView(u *storage.User) authUser {
	v := authUser{
		ID:    u.ID.String(),
		Email: u.Email,
		Name:  u.Name,
		Role:  string(u.Role),
	}
	if u.ClassID != nil {
		v.ClassID = u.ClassID.String()
	}
	return v
}
