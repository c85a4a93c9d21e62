package verify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/TuhinPramanik4/Civicsolve/internal/llm"
	"github.com/TuhinPramanik4/Civicsolve/internal/logger"
	"github.com/sirupsen/logrus"
)

// Request is the gateway's input
type Request struct {
	ImageURL string `json:"imageUrl"`
	Text     string `json:"text"`
}

// Result is the gateway's verdict. Raw is the model text exactly as received.
type Result struct {
	Related bool   `json:"related"`
	Raw     string `json:"raw"`
	// Ambiguous marks a fail-closed coercion of unparseable output.
	Ambiguous bool `json:"-"`
}

// Payloads below this size are never photos
const minImageBytes = 1000

// Options tune the image guards and the model call
type Options struct {
	Provider      string
	MinImageBytes int
	MaxImageBytes int64
	ModelTimeout  time.Duration
}

// Service implements the photo/description check. It keeps no state between calls.
type Service struct {
	fetcher Fetcher
	client  llm.LLMClient
	cache   VerdictCache
	opts    Options
	logger  *logger.Logger
}

// NewService wires the verifier. client may be nil when no credential is
// configured; Verify then fails with KindConfiguration. cache may be nil.
func NewService(fetcher Fetcher, client llm.LLMClient, cache VerdictCache, opts Options, log *logger.Logger) *Service {
	if opts.MinImageBytes < minImageBytes {
		opts.MinImageBytes = minImageBytes
	}
	if opts.Provider == "" {
		opts.Provider = "gemini"
	}
	return &Service{
		fetcher: fetcher,
		client:  client,
		cache:   cache,
		opts:    opts,
		logger:  log,
	}
}

// Verify checks whether the image at req.ImageURL matches req.Text
func (s *Service) Verify(ctx context.Context, req Request) (*Result, error) {
	imageURL := strings.TrimSpace(req.ImageURL)
	text := strings.TrimSpace(req.Text)
	if imageURL == "" || text == "" {
		return nil, &Error{Kind: KindInvalidRequest, Message: msgMissingFields}
	}

	if s.client == nil {
		return nil, &Error{Kind: KindConfiguration, Message: providerName(s.opts.Provider) + " API key not configured"}
	}

	entry := s.logger.WithFields(logrus.Fields{"image_url": imageURL})

	data, err := s.fetcher.Fetch(ctx, imageURL, s.opts.MaxImageBytes)
	if err != nil {
		if errors.Is(err, ErrImageTooLarge) {
			return nil, &Error{Kind: KindInvalidImage, Message: msgImageTooLarge, Err: err}
		}
		verr := &Error{Kind: KindUpstreamFetch, Message: msgFetchFailed, Err: err}
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			verr.UpstreamStatus = fetchErr.StatusCode
		}
		entry.WithError(err).Info("image fetch failed")
		return nil, verr
	}

	if len(data) < s.opts.MinImageBytes {
		return nil, &Error{Kind: KindInvalidImage, Message: msgImageTooSmall}
	}

	// The cache only stands in for the model call; the image guards always run.
	cacheKey := CacheKey(data, text)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, cacheKey); ok {
			entry.Debug("verdict served from cache")
			recordOutcome(cached)
			return cached, nil
		}
	}

	modelCtx := ctx
	if s.opts.ModelTimeout > 0 {
		var cancel context.CancelFunc
		modelCtx, cancel = context.WithTimeout(ctx, s.opts.ModelTimeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.client.Generate(modelCtx, llm.BuildVerifyPrompt(text), llm.NewImage(data))
	observeModelCall(s.opts.Provider, err, time.Since(start))
	if err != nil {
		verificationOutcomes.WithLabelValues("error").Inc()
		return nil, &Error{Kind: KindInternal, Message: msgServerError, Err: err}
	}

	related, ambiguous := ParseVerdict(raw)
	if ambiguous {
		entry.WithField("raw", raw).Warn("unexpected model output, treating as not related")
	}

	result := &Result{Related: related, Raw: raw, Ambiguous: ambiguous}
	recordOutcome(result)

	// Ambiguous answers are not remembered so a retry reaches the model again.
	if s.cache != nil && !ambiguous {
		s.cache.Set(ctx, cacheKey, result)
	}

	return result, nil
}

func providerName(provider string) string {
	switch provider {
	case "openai":
		return "OpenAI"
	default:
		return "Gemini"
	}
}
