package verify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/TuhinPramanik4/Civicsolve/internal/cache"
)

// VerdictCache remembers results for identical requests. Implementations
// swallow their own failures: a broken cache only costs a model call.
type VerdictCache interface {
	Get(ctx context.Context, key string) (*Result, bool)
	Set(ctx context.Context, key string, result *Result)
}

// CacheKey hashes the fetched image bytes and the description
func CacheKey(image []byte, text string) string {
	h := sha256.New()
	imageSum := sha256.Sum256(image)
	h.Write(imageSum[:])
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

type cachedResult struct {
	Related   bool   `json:"related"`
	Raw       string `json:"raw"`
	Ambiguous bool   `json:"ambiguous"`
}

// RedisVerdictCache stores verdicts as JSON in Redis
type RedisVerdictCache struct {
	store *cache.RedisCache
}

func NewRedisVerdictCache(store *cache.RedisCache) *RedisVerdictCache {
	return &RedisVerdictCache{store: store}
}

func (c *RedisVerdictCache) Get(ctx context.Context, key string) (*Result, bool) {
	payload, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var cached cachedResult
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, false
	}
	return &Result{Related: cached.Related, Raw: cached.Raw, Ambiguous: cached.Ambiguous}, true
}

func (c *RedisVerdictCache) Set(ctx context.Context, key string, result *Result) {
	payload, err := json.Marshal(cachedResult{Related: result.Related, Raw: result.Raw, Ambiguous: result.Ambiguous})
	if err != nil {
		return
	}
	_ = c.store.Set(ctx, key, payload)
}
