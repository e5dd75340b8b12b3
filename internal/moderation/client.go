package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Checker returns content with sensitive words replaced by asterisks.
type Checker interface {
	Check(ctx context.Context, content string) (string, error)
}

const (
	// DefaultURL is the upstream chat-completion endpoint.
	DefaultURL = "https://open.bigmodel.cn/api/paas/v4/chat/completions"
	// DefaultModel is the model asked to redact content.
	DefaultModel = "glm-4-air"

	systemPrompt = "You are a professional sensitive-word detection system. Strictly check the user's input " +
		"and replace every sensitive word with * characters. Return only the processed text without any explanation."
	userPrefix  = "Content to check:\n"
	temperature = 0.1
)

// Config configures a Client.
type Config struct {
	URL             string
	APIKey          string
	Model           string
	MaxRetries      uint64
	InitialInterval time.Duration
	HTTPClient      *http.Client
}

// Client calls the upstream model with exponential backoff on transient
// failures.
type Client struct {
	url             string
	apiKey          string
	model           string
	maxRetries      uint64
	initialInterval time.Duration
	httpClient      *http.Client
}

// NewClient constructs a new client. Zero Config fields take defaults:
// DefaultURL, DefaultModel, 3 retries, 500ms initial backoff, 30s timeout.
func NewClient(cfg Config) *Client {
	c := &Client{
		url:             cfg.URL,
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		maxRetries:      cfg.MaxRetries,
		initialInterval: cfg.InitialInterval,
		httpClient:      cfg.HTTPClient,
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.maxRetries == 0 {
		c.maxRetries = 3
	}
	if c.initialInterval <= 0 {
		c.initialInterval = 500 * time.Millisecond
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Check sends content to the model and returns the trimmed redacted text.
func (c *Client) Check(ctx context.Context, content string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrefix + content},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("moderation: encode request: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialInterval
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx)

	return backoff.RetryWithData(func() (string, error) {
		return c.attempt(ctx, payload)
	}, retry)
}

func (c *Client) attempt(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("moderation: build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return "", fmt.Errorf("moderation: send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := readAPIError(resp)
		if isTransient(resp.StatusCode) {
			return "", apiErr
		}
		return "", backoff.Permanent(apiErr)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", backoff.Permanent(fmt.Errorf("moderation: decode response: %w", err))
	}
	if len(decoded.Choices) == 0 {
		return "", backoff.Permanent(&APIError{Status: http.StatusInternalServerError, Message: "No response from AI model"})
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

func isTransient(status int) bool {
	return status >= http.StatusInternalServerError ||
		status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout
}

func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Message: "Unknown error"}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var parsed struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		apiErr.Message = parsed.Message
	}
	return apiErr
}

// APIError is a non-success upstream response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("moderation: status %d: %s", e.Status, e.Message)
}

// IsClient reports whether upstream rejected the request (4xx).
func (e *APIError) IsClient() bool {
	return e.Status >= 400 && e.Status < 500
}

// HTTPStatus passes the upstream status through; anything outside 4xx/5xx
// becomes 500.
func (e *APIError) HTTPStatus() int {
	if e.Status >= 400 && e.Status < 600 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Title describes the error kind for problem responses.
func (e *APIError) Title() string {
	if e.IsClient() {
		return "Moderation request rejected"
	}
	return "Moderation service unavailable"
}

// Passthrough returns content unchanged. Used when no API key is configured.
type Passthrough struct{}

// Check implements Checker.
func (Passthrough) Check(_ context.Context, content string) (string, error) {
	return content, nil
}
