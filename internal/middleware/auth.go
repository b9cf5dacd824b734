package middleware

import (
	"strings"

	"github.com/diy-network/core/internal/pkg/jwt"
	"github.com/diy-network/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	ContextKeySubject = "subject"
	RoleAdmin         = "admin"
)

// Auth returns a middleware that requires a valid admin JWT bearer token.
func Auth(signer *jwt.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := NormalizeToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c)
			return
		}
		claims, err := signer.Parse(token)
		if err != nil {
			response.Unauthorized(c)
			return
		}
		if claims.Role != RoleAdmin {
			response.Forbidden(c)
			return
		}
		c.Set(ContextKeySubject, claims.Subject)
		c.Next()
	}
}

// CurrentSubject extracts the authenticated subject from context.
func CurrentSubject(c *gin.Context) string {
	return c.GetString(ContextKeySubject)
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
