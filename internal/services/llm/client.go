package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the local Ollama chat completions endpoint.
	DefaultBaseURL = "http://localhost:11434/v1/chat/completions"

	defaultHTTPTimeout    = 300 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 5
	defaultTemperature    = 0.2
)

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	TimeoutSeconds    int
	RequestsPerMinute float64
}

// Client issues chat completion requests with retry and optional rate limiting.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithLimiter replaces the limiter derived from RequestsPerMinute.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:            strings.TrimSpace(cfg.APIKey),
			BaseURL:           strings.TrimSpace(cfg.BaseURL),
			Model:             strings.TrimSpace(cfg.Model),
			TimeoutSeconds:    cfg.TimeoutSeconds,
			RequestsPerMinute: cfg.RequestsPerMinute,
		},
		httpClient:       &http.Client{Timeout: timeout},
		limiter:          newLimiter(cfg.RequestsPerMinute),
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = DefaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// newLimiter returns nil (unlimited) for a non-positive rate.
func newLimiter(requestsPerMinute float64) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(requestsPerMinute/60), 1)
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// WithModel returns a client for model that shares this client's transport
// and limiter. An empty model returns c unchanged.
func (c *Client) WithModel(model string) *Client {
	model = strings.TrimSpace(model)
	if model == "" || model == c.cfg.Model {
		return c
	}
	clone := *c
	clone.cfg.Model = model
	return &clone
}

// Complete sends prompt as a single user message and returns the model's
// text reply. The reply is returned verbatim; callers parse it.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("llm complete: prompt required")
	}
	if c.cfg.Model == "" {
		return "", errors.New("llm complete: model required")
	}
	payload := chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: defaultTemperature,
	}
	return c.completionContentWithRetry(ctx, payload, "llm complete")
}

// HealthCheck issues a fast ping to verify the endpoint and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You must respond with JSON only."},
			{Role: "user", Content: "Respond with {\"ok\":true}"},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	content, err := c.completionContentWithRetry(ctx, payload, "llm health")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return errors.Wrap(err, "llm health: parse payload")
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}
