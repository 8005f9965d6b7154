// Package openai implements the Provider interface for any
// OpenAI-compatible chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"castpilot/internal/provider"
	"castpilot/pkg/logger"
)

// Compile-time interface check.
var _ provider.Provider = (*OpenAIProvider)(nil)

// Error definitions.
var (
	ErrConnectionFailed = errors.New("failed to connect to OpenAI API")
	ErrInvalidResponse  = errors.New("invalid response from OpenAI API")
	ErrAuthFailed       = errors.New("OpenAI authentication failed")
	ErrRateLimited      = errors.New("OpenAI rate limit exceeded")
)

// Defaults.
const (
	DefaultEndpoint  = "https://api.openai.com/v1"
	DefaultMaxTokens = 1024
	DefaultTimeout   = 2 * time.Minute
)

// Config configures the OpenAI provider.
type Config struct {
	APIKey    string
	Endpoint  string
	MaxTokens int
	Timeout   time.Duration
}

// OpenAIProvider implements the Provider interface for OpenAI-compatible APIs.
type OpenAIProvider struct {
	apiKey     string
	endpoint   string
	maxTokens  int
	httpClient *http.Client
}

// New creates a new OpenAI provider.
func New(cfg Config) *OpenAIProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &OpenAIProvider{
		apiKey:    cfg.APIKey,
		endpoint:  cfg.Endpoint,
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// chatRequest is the wire format of a chat completions request.
type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []provider.Message `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
}

// chatResponse is the wire format of a chat completions response.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *provider.Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Chat sends a chat completion request and returns the response.
func (p *OpenAIProvider) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}

	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	logger.Debug().Str("model", req.Model).Msg("OpenAI chat request")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error().Int("status", resp.StatusCode).Str("body", string(data)).Msg("OpenAI error response")
		return nil, p.handleErrorResponse(resp.StatusCode, data)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrInvalidResponse)
	}

	choice := chatResp.Choices[0]
	return &provider.ChatResponse{
		Content:      choice.Message.Content,
		Usage:        chatResp.Usage,
		FinishReason: choice.FinishReason,
	}, nil
}

func (p *OpenAIProvider) handleErrorResponse(status int, body []byte) error {
	var errResp chatResponse
	msg := ""
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		msg = errResp.Error.Message
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthFailed, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	default:
		return fmt.Errorf("OpenAI API status %d: %s", status, msg)
	}
}
