package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"subtrans/internal/services"
)

const (
	// DefaultBaseURL is where a local Ollama server listens.
	DefaultBaseURL = "http://localhost:11434"
	// DedicatedModel is the translation-tuned model driven through the chat endpoint.
	DedicatedModel = "7shi/llama-translate:8b-q4_K_M"

	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 5
)

// Config captures the runtime settings required to talk to Ollama.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

// DefaultHTTPTimeout returns the default timeout used for generation requests.
func DefaultHTTPTimeout() time.Duration {
	return defaultHTTPTimeout
}

// Client wraps the Ollama REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client

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

// NewClient constructs an Ollama client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
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

// BaseURL reports the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Model describes one locally available model.
type Model struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("ollama request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type emptyContentError struct {
	Op         string
	DoneReason string
	Snippet    string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("%s: empty content (done_reason=%q, response_snippet=%s)", e.Op, e.DoneReason, e.Snippet)
}

type tagsResponse struct {
	Models []Model `json:"models"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response   string `json:"response"`
	DoneReason string `json:"done_reason"`
	Error      string `json:"error"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message    Message `json:"message"`
	DoneReason string  `json:"done_reason"`
	Error      string  `json:"error"`
}

type versionResponse struct {
	Version string `json:"version"`
}

// ListModels returns the models installed on the server.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var resp tagsResponse
	if err := c.doWithRetry(ctx, http.MethodGet, "/api/tags", nil, "list models", func(body []byte) error {
		return decodeBody(body, &resp)
	}); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// HasModel reports whether the named model is installed. A bare name matches
// its ":latest" tag.
func (c *Client) HasModel(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, services.Wrap(services.ErrValidation, "ollama", "has model", "model name required", nil)
	}
	models, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	return containsModel(models, name), nil
}

func containsModel(models []Model, name string) bool {
	for _, m := range models {
		if m.Name == name || m.Name == name+":latest" {
			return true
		}
	}
	return false
}

// Generate runs a non-streaming completion against the generate endpoint and
// returns the trimmed response text.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", services.Wrap(services.ErrValidation, "ollama", "generate", "model required", nil)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", services.Wrap(services.ErrValidation, "ollama", "generate", "prompt required", nil)
	}
	payload := generateRequest{Model: model, Prompt: prompt}
	var content string
	err := c.doWithRetry(ctx, http.MethodPost, "/api/generate", payload, "generate", func(body []byte) error {
		var resp generateResponse
		if err := decodeBody(body, &resp); err != nil {
			return err
		}
		if resp.Error != "" {
			return fmt.Errorf("ollama generate: api error: %s", strings.TrimSpace(resp.Error))
		}
		content = strings.TrimSpace(resp.Response)
		if content == "" {
			return &emptyContentError{Op: "ollama generate", DoneReason: resp.DoneReason, Snippet: summarizePayloadSnippet(string(body))}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// Chat runs a non-streaming chat completion and returns the trimmed assistant reply.
func (c *Client) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", services.Wrap(services.ErrValidation, "ollama", "chat", "model required", nil)
	}
	if len(messages) == 0 {
		return "", services.Wrap(services.ErrValidation, "ollama", "chat", "at least one message required", nil)
	}
	payload := chatRequest{Model: model, Messages: messages}
	var content string
	err := c.doWithRetry(ctx, http.MethodPost, "/api/chat", payload, "chat", func(body []byte) error {
		var resp chatResponse
		if err := decodeBody(body, &resp); err != nil {
			return err
		}
		if resp.Error != "" {
			return fmt.Errorf("ollama chat: api error: %s", strings.TrimSpace(resp.Error))
		}
		content = strings.TrimSpace(resp.Message.Content)
		if content == "" {
			return &emptyContentError{Op: "ollama chat", DoneReason: resp.DoneReason, Snippet: summarizePayloadSnippet(string(body))}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// Version returns the server version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var resp versionResponse
	if err := c.doWithRetry(ctx, http.MethodGet, "/api/version", nil, "version", func(body []byte) error {
		return decodeBody(body, &resp)
	}); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Version), nil
}

// HealthCheck verifies the server answers and, when model is non-empty, that
// the model is installed.
func (c *Client) HealthCheck(ctx context.Context, model string) error {
	if _, err := c.Version(ctx); err != nil {
		return err
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil
	}
	ok, err := c.HasModel(ctx, model)
	if err != nil {
		return err
	}
	if !ok {
		return services.Wrap(services.ErrNotFound, "ollama", "health", fmt.Sprintf("model %q not installed", model), nil)
	}
	return nil
}

func decodeBody(body []byte, target any) error {
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("ollama request: decode response: %w (payload snippet: %s)", err, summarizePayloadSnippet(string(body)))
	}
	return nil
}

func (c *Client) doWithRetry(ctx context.Context, method, path string, payload any, op string, handle func([]byte) error) error {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := c.sendOnce(ctx, method, path, payload)
		if err == nil {
			err = handle(body)
			if err == nil {
				return nil
			}
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return c.classify(op, err)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return c.classify(op, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr))
}

func (c *Client) sendOnce(ctx context.Context, method, path string, payload any) ([]byte, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, path)
	if err != nil {
		return nil, fmt.Errorf("ollama request: build url: %w", err)
	}
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("ollama request: encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("ollama request: new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: http error (timeout=%s): %w", c.timeoutDuration(), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama request: read body (timeout=%s): %w", c.timeoutDuration(), err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return body, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       apiErrorMessage(body),
			RetryAfter: retryAfter,
		}
	}
	return body, nil
}

// apiErrorMessage extracts {"error": "..."} bodies, falling back to the raw text.
func apiErrorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return strings.TrimSpace(payload.Error)
	}
	return strings.TrimSpace(string(body))
}

// classify tags a final error with the service marker that best describes it.
func (c *Client) classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	marker := services.ErrExternalTool
	var statusErr *httpStatusError
	var empty *emptyContentError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		marker = services.ErrTimeout
	case errors.As(err, &statusErr):
		switch {
		case statusErr.StatusCode == http.StatusNotFound:
			marker = services.ErrNotFound
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			marker = services.ErrTransient
		case statusErr.StatusCode >= http.StatusBadRequest:
			marker = services.ErrValidation
		}
	case errors.As(err, &empty):
		marker = services.ErrTransient
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			marker = services.ErrTimeout
		} else {
			marker = services.ErrTransient
		}
	}
	return services.Wrap(marker, "ollama", op, "", err)
}

func (c *Client) timeoutDuration() time.Duration {
	if c == nil || c.httpClient == nil {
		return defaultHTTPTimeout
	}
	if c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

func (c *Client) retryAttempts() int {
	if c == nil {
		return 1
	}
	if c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts {
		return 0, false
	}
	if err == nil {
		return 0, false
	}
	if ctx == nil {
		return 0, false
	}
	if ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var empty *emptyContentError
	if errors.As(err, &empty) {
		return c.backoffDelay(attempt), true
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return c.backoffDelay(attempt), true
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return c.backoffDelay(attempt), true
		}
	}

	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := defaultRetryBaseDelay
	maxDelay := defaultRetryMaxDelay
	if c != nil {
		if c.retryBaseDelay >= 0 {
			base = c.retryBaseDelay
		}
		if c.retryMaxDelay > 0 {
			maxDelay = c.retryMaxDelay
		}
	}
	if base <= 0 {
		return 0
	}
	if attempt <= 0 {
		attempt = 1
	}

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := defaultRetryMaxDelay
	if c != nil && c.retryMaxDelay > 0 {
		maxDelay = c.retryMaxDelay
	}
	if maxDelay > 0 && delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c != nil && c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
