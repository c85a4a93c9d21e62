package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TuhinPramanik4/Civicsolve/internal/auth"
	"github.com/TuhinPramanik4/Civicsolve/internal/logger"
	"github.com/TuhinPramanik4/Civicsolve/internal/ratelimit"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reporter": ReporterID(c), "request_id": GetRequestID(c)})
}

func do(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	limiter := ratelimit.NewLimiter(ratelimit.NewRedisCounter(client), ratelimit.PerMinute("verify", 2))

	r := gin.New()
	r.POST("/verify", RateLimit(limiter, "verify", logger.Discard()), okHandler)

	for i := 0; i < 2; i++ {
		w := do(r, http.MethodPost, "/verify", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := do(r, http.MethodPost, "/verify", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

type failingChecker struct{}

func (failingChecker) Check(ctx context.Context, clientID, action string) (*ratelimit.CheckResult, error) {
	return nil, errors.New("redis down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	r := gin.New()
	r.POST("/a", RateLimit(failingChecker{}, "verify", logger.Discard()), okHandler)
	r.POST("/b", RateLimit(nil, "verify", logger.Discard()), okHandler)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/a", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/b", nil).Code)
}

func newTestLimiter(t *testing.T, limit int64) *ratelimit.Limiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return ratelimit.NewLimiter(ratelimit.NewRedisCounter(client), ratelimit.PerMinute("verify", limit))
}

func TestRateLimit_IgnoresForwardedFor(t *testing.T) {
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.POST("/verify", RateLimit(newTestLimiter(t, 2), "verify", logger.Discard()), okHandler)

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		w := do(r, http.MethodPost, "/verify", map[string]string{
			"X-Forwarded-For": fmt.Sprintf("203.0.113.%d", i+1),
		})
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{200, 200, 429, 429, 429}, codes)
}

func TestRateLimit_TrustedServiceCountsForwardedUser(t *testing.T) {
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.POST("/verify", ServiceAuth("svc-key"), RateLimit(newTestLimiter(t, 1), "verify", logger.Discard()), okHandler)

	service := func(onBehalfOf string) map[string]string {
		return map[string]string{auth.ServiceKeyHeader: "svc-key", auth.OnBehalfOfHeader: onBehalfOf}
	}

	// each citizen gets their own bucket even though all calls share one IP
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/verify", service("user:a")).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/verify", service("user:b")).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/verify", service("user:a")).Code)

	// service calls with no forwarded user are not counted
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/verify", service("")).Code)
	}

	// a wrong key falls back to the caller's IP
	wrongKey := map[string]string{auth.ServiceKeyHeader: "guess", auth.OnBehalfOfHeader: "user:c"}
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/verify", wrongKey).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/verify", wrongKey).Code)
}

func TestRateLimit_AuthenticatedReporterCountedByID(t *testing.T) {
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.POST("/verify", OptionalAuth("secret"), RateLimit(newTestLimiter(t, 1), "verify", logger.Discard()), okHandler)

	bearer := func(subject string) map[string]string {
		token, err := auth.GenerateAccessToken(subject, "", "secret", time.Hour)
		require.NoError(t, err)
		return map[string]string{"Authorization": "Bearer " + token}
	}

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/verify", bearer("user-1")).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/verify", bearer("user-2")).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/verify", bearer("user-1")).Code)
}

func TestAuth(t *testing.T) {
	const secret = "secret"
	token, err := auth.GenerateAccessToken("user-1", "", secret, time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/required", Auth(secret), okHandler)
	r.GET("/optional", OptionalAuth(secret), okHandler)

	tests := []struct {
		name     string
		path     string
		header   string
		status   int
		reporter string
	}{
		{name: "required with token", path: "/required", header: "Bearer " + token, status: 200, reporter: "user-1"},
		{name: "required without header", path: "/required", status: 401},
		{name: "required bad scheme", path: "/required", header: "Basic abc", status: 401},
		{name: "required bad token", path: "/required", header: "Bearer nope", status: 401},
		{name: "optional with token", path: "/optional", header: "Bearer " + token, status: 200, reporter: "user-1"},
		{name: "optional anonymous", path: "/optional", status: 200},
		{name: "optional bad token", path: "/optional", header: "Bearer nope", status: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := do(r, http.MethodGet, tt.path, headers)
			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.reporter, body["reporter"])
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", okHandler)

	w := do(r, http.MethodGet, "/", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = do(r, http.MethodGet, "/", nil)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(logger.Discard()))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := do(r, http.MethodGet, "/panic", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Server error","detail":"kaboom"}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.POST("/api/reports", okHandler)

	w := do(r, http.MethodOptions, "/api/reports", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
