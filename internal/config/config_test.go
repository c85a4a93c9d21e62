package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadGatewayDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("TRUSTED_PROXIES", "")
	t.Setenv("GATEWAY_SERVICE_KEY", "")

	cfg := LoadGateway()

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 1000, cfg.MinImageBytes)
	assert.Equal(t, int64(30), cfg.RateLimitPerMinute)
	assert.Equal(t, time.Duration(0), cfg.VerdictCacheTTL)
	assert.Empty(t, cfg.APIKey())
	assert.Nil(t, cfg.TrustedProxies)
	assert.Empty(t, cfg.ServiceKey)
}

func TestLoadGatewayMinImageBytesFloor(t *testing.T) {
	t.Setenv("MIN_IMAGE_BYTES", "10")
	assert.Equal(t, 1000, LoadGateway().MinImageBytes)

	t.Setenv("MIN_IMAGE_BYTES", "4096")
	assert.Equal(t, 4096, LoadGateway().MinImageBytes)
}

func TestLoadGatewayTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.1, ,10.0.0.0/8 ")
	t.Setenv("GATEWAY_SERVICE_KEY", "svc-key")

	cfg := LoadGateway()

	assert.Equal(t, []string{"10.0.0.1", "10.0.0.0/8"}, cfg.TrustedProxies)
	assert.Equal(t, "svc-key", cfg.ServiceKey)
}

func TestGatewayConfigAPIKey(t *testing.T) {
	cfg := GatewayConfig{GeminiAPIKey: "g", OpenAIAPIKey: "o"}

	cfg.LLMProvider = "gemini"
	assert.Equal(t, "g", cfg.APIKey())
	cfg.LLMProvider = "openai"
	assert.Equal(t, "o", cfg.APIKey())
	cfg.LLMProvider = "ollama"
	assert.Empty(t, cfg.APIKey())
}

func TestLoadGatewayOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MODEL_TIMEOUT", "5s")
	t.Setenv("MIN_IMAGE_BYTES", "not-a-number")

	cfg := LoadGateway()

	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "sk-test", cfg.APIKey())
	assert.Equal(t, 5*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 1000, cfg.MinImageBytes)
}

func TestLoadReports(t *testing.T) {
	t.Setenv("PORT", "5000")
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("GATEWAY_URL", "http://gateway:8081/")
	t.Setenv("REQUIRE_DESCRIPTION_WITH_PHOTO", "yes")
	t.Setenv("INSERT_TIMEOUT", "-3s")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg := LoadReports()

	assert.Equal(t, "http://localhost:5000", cfg.PublicBaseURL)
	assert.Equal(t, "http://gateway:8081", cfg.GatewayURL)
	assert.Equal(t, "http://localhost:5000/uploads", cfg.Blob.PublicURL)
	assert.Equal(t, "issues", cfg.Blob.Prefix)
	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, 8*time.Second, cfg.Timeouts.Insert)
	assert.True(t, cfg.RequireDescriptionWithPhoto)
	assert.Equal(t, int64(10), cfg.RateLimitPerMinute)
	assert.Nil(t, cfg.TrustedProxies)
}
