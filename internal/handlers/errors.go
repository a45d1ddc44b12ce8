// Package handlers wires the HTTP surface to the services. All error
// payloads share one shape: {"code": "...", "message": "..."} with
// optional field errors for bad input.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hyunwoopark/stockclass/internal/service"
	"github.com/hyunwoopark/stockclass/internal/storage"
	"github.com/hyunwoopark/stockclass/internal/trading"
	"github.com/hyunwoopark/stockclass/internal/validation"
)

type errorResponse struct {
	Code    string                      `json:"code"`
	Message string                      `json:"message"`
	Fields  validation.ValidationErrors `json:"fields,omitempty"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{Code: code, Message: message})
}

func writeFieldErrors(c *gin.Context, errs validation.ValidationErrors) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Code:    "INVALID_REQUEST",
		Message: "invalid request",
		Fields:  errs,
	})
}

// writeDomainError maps service and storage sentinels onto HTTP codes.
// Anything unmapped is a 500 and the caller should have logged it.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trading.ErrInvalidQuantity):
		writeError(c, http.StatusBadRequest, "INVALID_QUANTITY", "quantity must be a positive integer")
	case errors.Is(err, trading.ErrInvalidRationale):
		writeError(c, http.StatusBadRequest, "INVALID_RATIONALE", "a trade rationale is required")
	case errors.Is(err, trading.ErrInvalidSide):
		writeError(c, http.StatusBadRequest, "INVALID_SIDE", "side must be BUY or SELL")
	case errors.Is(err, trading.ErrPriceUnavailable):
		writeError(c, http.StatusUnprocessableEntity, "PRICE_UNAVAILABLE", "stock has no usable price")
	case errors.Is(err, trading.ErrStockNotAllowed):
		writeError(c, http.StatusForbidden, "STOCK_NOT_ALLOWED", "stock is not on the class allowlist")
	case errors.Is(err, trading.ErrStockInCooldown):
		writeError(c, http.StatusForbidden, "STOCK_IN_COOLDOWN", "stock was added recently and is still in cooldown")
	case errors.Is(err, trading.ErrInsufficientFunds):
		writeError(c, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "not enough cash for this order")
	case errors.Is(err, trading.ErrInsufficientHoldings):
		writeError(c, http.StatusUnprocessableEntity, "INSUFFICIENT_HOLDINGS", "not enough shares for this order")
	case errors.Is(err, service.ErrTradeConflict):
		writeError(c, http.StatusConflict, "TRADE_CONFLICT", "order lost a concurrent update, please retry")
	case errors.Is(err, service.ErrClassNotOwned):
		writeError(c, http.StatusForbidden, "FORBIDDEN", "class belongs to another teacher")
	case errors.Is(err, service.ErrStudentNotInClass):
		writeError(c, http.StatusNotFound, "STUDENT_NOT_FOUND", "student is not in this class")
	case errors.Is(err, service.ErrWatchlistChangeLimit):
		writeError(c, http.StatusTooManyRequests, "WATCHLIST_CHANGE_LIMIT", "watchlist can only be changed once per day")
	case errors.Is(err, service.ErrWatchlistSize):
		writeError(c, http.StatusBadRequest, "INVALID_WATCHLIST", "watchlist must contain between 1 and 10 stocks")
	case errors.Is(err, service.ErrWatchlistFull):
		writeError(c, http.StatusUnprocessableEntity, "WATCHLIST_FULL", "watchlist already holds 10 stocks")
	case errors.Is(err, service.ErrAlreadyWatched):
		writeError(c, http.StatusConflict, "ALREADY_WATCHED", err.Error())
	case errors.Is(err, service.ErrNotWatched):
		writeError(c, http.StatusNotFound, "NOT_WATCHED", err.Error())
	case errors.Is(err, service.ErrUnknownSymbol):
		writeError(c, http.StatusBadRequest, "UNKNOWN_SYMBOL", err.Error())
	case errors.Is(err, storage.ErrAccountNotFound):
		writeError(c, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "account not found or inactive")
	case errors.Is(err, storage.ErrStockNotFound):
		writeError(c, http.StatusNotFound, "STOCK_NOT_FOUND", "unknown or inactive stock")
	case errors.Is(err, storage.ErrClassNotFound):
		writeError(c, http.StatusNotFound, "CLASS_NOT_FOUND", "class not found")
	case errors.Is(err, storage.ErrDuplicateEmail):
		writeError(c, http.StatusConflict, "EMAIL_TAKEN", "email is already registered")
	case errors.Is(err, storage.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "resource not found")
	default:
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}
