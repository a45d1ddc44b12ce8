package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey  = "user_id"
	ContextRoleKey    = "role"
	ContextClassIDKey = "class_id"
)

func Middleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "missing token"})
			return
		}

		claims, err := ParseJWT(token, secret)
		if err != nil || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "invalid token"})
			return
		}

		role, ok := ParseRole(claims.Role)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "invalid token"})
			return
		}

		c.Set(ContextUserIDKey, claims.Subject)
		c.Set(ContextRoleKey, role)
		if claims.ClassID != "" {
			c.Set(ContextClassIDKey, claims.ClassID)
		}
		c.Next()
	}
}

// RequireCapability gates a route group on one capability. It assumes
// Middleware already ran and stored the role.
func RequireCapability(cap Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(ContextRoleKey)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "missing role"})
			return
		}
		role, ok := v.(Role)
		if !ok || !role.Can(cap) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "FORBIDDEN", "message": "insufficient role"})
			return
		}
		c.Next()
	}
}

func RoleFromContext(c *gin.Context) (Role, bool) {
	v, ok := c.Get(ContextRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(Role)
	return role, ok
}

func ClassIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextClassIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
