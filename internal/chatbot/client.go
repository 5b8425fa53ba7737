// Package chatbot forwards storefront questions to a chat completion API.
package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/greengrocer/storefront/internal/platform/httpx"
)

const systemPrompt = "You are a friendly and helpful assistant for a grocery store called GreenGrocer that specializes in fresh produce. " +
	"Answer questions about products, wholesale programs, delivery options, pricing, returns, and other store policies. " +
	"Keep responses concise and friendly. If you don't know the answer, suggest contacting customer service."

// ErrNotConfigured is returned when no API key has been set.
var ErrNotConfigured = httpx.Wrap(httpx.ErrUnavailable, "Chatbot is not configured")

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds completion API settings.
type Config struct {
	Endpoint  string
	APIKey    string
	Model     string
	MaxTokens int
}

// Client wraps interactions with the completion API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

type completionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Ask sends the system prompt, the prior history and the question, and
// returns the first completion.
func (c *Client) Ask(ctx context.Context, question string, history []Message) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: question})

	payload, err := json.Marshal(completionRequest{
		Model:     c.cfg.Model,
		Messages:  messages,
		MaxTokens: c.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("completion failed with status %d", resp.StatusCode)
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
