package middleware

import (
	"github.com/TuhinPramanik4/Civicsolve/internal/auth"
	"github.com/gin-gonic/gin"
)

const trustedServiceKey = "trustedService"

// ServiceAuth marks requests that present the shared service key. Other
// requests pass through unmarked.
func ServiceAuth(serviceKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.ValidServiceKey(c.GetHeader(auth.ServiceKeyHeader), serviceKey) {
			c.Set(trustedServiceKey, true)
		}
		c.Next()
	}
}

// IsTrustedService reports whether ServiceAuth accepted the request
func IsTrustedService(c *gin.Context) bool {
	return c.GetBool(trustedServiceKey)
}
