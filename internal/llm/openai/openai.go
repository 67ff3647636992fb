package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"coachrag/internal/llm"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second
)

// ErrMissingAPIKey is returned by NewClient when no key could be resolved.
var ErrMissingAPIKey = errors.New("missing API key")

// Config configures the OpenAI-compatible chat completions client.
type Config struct {
	BaseURL string
	// APIKey takes precedence over APIKeyEnv.
	APIKey      string
	APIKeyEnv   string
	Model       string
	Temperature *float64
	Timeout     time.Duration
}

// StatusError is a non-2xx answer from the completions endpoint.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("openai chat completions failed: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("openai chat completions failed: %d %s", e.Status, e.Message)
}

// Client is an OpenAI-compatible chat completions client implementing llm.Gateway.
// The API key is resolved once at construction.
type Client struct {
	url         string
	apiKey      string
	model       string
	temperature *float64
	schema      *jsonSchema
	client      *http.Client
}

// NewClient creates a chat completions client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := cfg.APIKey
	if key == "" && cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("openai: %w (env %s)", ErrMissingAPIKey, cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	t := cfg.Timeout
	if t == 0 {
		t = DefaultTimeout
	}
	return &Client{
		url:         strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:      key,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: t},
	}, nil
}

// Structured returns a copy of the client that asks the model for a JSON
// object with "report" and "advice" string fields.
func (c *Client) Structured() *Client {
	cp := *c
	cp.schema = &jsonSchema{
		Name:   "synthesis_result",
		Strict: true,
		Schema: json.RawMessage(synthesisSchema),
	}
	return &cp
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

const synthesisSchema = `{"type":"object","properties":{"report":{"type":"string"},"advice":{"type":"string"}},"required":["report","advice"],"additionalProperties":false}`

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict,omitempty"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request. Failures are returned inside
// the Completion, never as a Go error.
func (c *Client) Complete(ctx context.Context, systemRole, userPrompt string) llm.Completion {
	text, err := c.do(ctx, systemRole, userPrompt)
	if err != nil {
		slog.Warn("chat completion failed", "comp", "llm", "model", c.model, "err", err)
		return llm.Failed(err)
	}
	return llm.Succeeded(text)
}

func (c *Client) do(ctx context.Context, systemRole, userPrompt string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemRole},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
	}
	if c.schema != nil {
		body.ResponseFormat = &responseFormat{Type: "json_schema", JSONSchema: c.schema}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", &StatusError{Status: resp.StatusCode, Message: upstreamMessage(slurp)}
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", llm.ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}

// upstreamMessage extracts error.message from an OpenAI error body, falling
// back to the raw body text.
func upstreamMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return strings.TrimSpace(string(body))
}
