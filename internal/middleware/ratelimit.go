package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/TuhinPramanik4/Civicsolve/internal/auth"
	"github.com/TuhinPramanik4/Civicsolve/internal/logger"
	"github.com/TuhinPramanik4/Civicsolve/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateChecker is satisfied by *ratelimit.Limiter
type RateChecker interface {
	Check(ctx context.Context, clientID, action string) (*ratelimit.CheckResult, error)
}

// RateLimit limits each caller per action. Authenticated reporters are counted
// by id, everyone else by client IP. A trusted service is counted by the user
// it forwards for, or not at all. A nil checker or a storage error lets the
// request through.
func RateLimit(checker RateChecker, action string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker == nil {
			c.Next()
			return
		}

		subject, limited := rateLimitSubject(c)
		if !limited {
			c.Next()
			return
		}

		result, err := checker.Check(c.Request.Context(), subject, action)
		if err != nil {
			log.WithRequestID(GetRequestID(c)).WithError(err).Warn("rate limit check failed, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			rateLimitedTotal.WithLabelValues(action).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}

func rateLimitSubject(c *gin.Context) (string, bool) {
	if IsTrustedService(c) {
		forwarded := strings.TrimSpace(c.GetHeader(auth.OnBehalfOfHeader))
		if forwarded == "" {
			return "", false
		}
		return "fwd:" + forwarded, true
	}
	if id := ReporterID(c); id != "" {
		return "user:" + id, true
	}
	return "ip:" + c.ClientIP(), true
}
