package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hyunwoopark/stockclass/libs/auth"
)

// currentUserID reads the authenticated user out of the gin context.
// It aborts with 401 itself so callers can just return on false.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(auth.ContextUserIDKey)
	if !ok {
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return uuid.Nil, false
	}
	raw, ok := v.(string)
	if !ok {
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return uuid.Nil, false
	}
	return id, true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
