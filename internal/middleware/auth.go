package middleware

import (
	"net/http"
	"strings"

	"github.com/TuhinPramanik4/Civicsolve/internal/auth"
	"github.com/gin-gonic/gin"
)

// ReporterIDKey is the gin context key holding the authenticated reporter
const ReporterIDKey = "reporterID"

// Auth requires a valid bearer token
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateAccessToken(token, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ReporterIDKey, claims.Subject)
		c.Next()
	}
}

// OptionalAuth extracts the reporter if a valid token is present, but doesn't require it
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := auth.ValidateAccessToken(token, jwtSecret); err == nil {
				c.Set(ReporterIDKey, claims.Subject)
			}
		}
		c.Next()
	}
}

// ReporterID returns the authenticated reporter, or "" for anonymous requests
func ReporterID(c *gin.Context) string {
	return c.GetString(ReporterIDKey)
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
