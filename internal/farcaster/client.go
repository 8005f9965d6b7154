// Package farcaster implements an HTTP client for the Farcaster hub
// API: mention/timeline feeds, cast lookup, profile lookup, and cast
// publishing.
package farcaster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"castpilot/pkg/logger"
)

// Error definitions.
var (
	ErrConnectionFailed = errors.New("failed to connect to hub API")
	ErrCastNotFound     = errors.New("cast not found")
	ErrAuthFailed       = errors.New("hub authentication failed")
	ErrRateLimited      = errors.New("hub rate limit exceeded")
	ErrInvalidResponse  = errors.New("invalid response from hub")
)

// Config configures the hub client.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client is an HTTP client for the Farcaster hub API.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a hub client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// GetMentions returns the most recent casts mentioning or replying to
// the given fid, newest first.
func (c *Client) GetMentions(ctx context.Context, fid uint64, pageSize int) ([]Cast, error) {
	q := url.Values{}
	q.Set("fid", strconv.FormatUint(fid, 10))
	q.Set("type", "mentions")
	q.Set("limit", strconv.Itoa(pageSize))

	var resp struct {
		Notifications []struct {
			Cast Cast `json:"cast"`
		} `json:"notifications"`
	}
	if err := c.get(ctx, "/farcaster/notifications", q, &resp); err != nil {
		return nil, err
	}

	casts := make([]Cast, 0, len(resp.Notifications))
	for _, n := range resp.Notifications {
		casts = append(casts, n.Cast)
	}
	return casts, nil
}

// GetCast fetches a single cast by hash. Returns ErrCastNotFound for
// missing or deleted casts.
func (c *Client) GetCast(ctx context.Context, hash string) (*Cast, error) {
	q := url.Values{}
	q.Set("identifier", hash)
	q.Set("type", "hash")

	var resp struct {
		Cast Cast `json:"cast"`
	}
	if err := c.get(ctx, "/farcaster/cast", q, &resp); err != nil {
		return nil, err
	}
	if resp.Cast.Hash == "" {
		return nil, ErrCastNotFound
	}
	return &resp.Cast, nil
}

// GetTimeline returns the agent's own recent casts, newest first.
func (c *Client) GetTimeline(ctx context.Context, fid uint64, pageSize int) ([]Cast, error) {
	q := url.Values{}
	q.Set("fid", strconv.FormatUint(fid, 10))
	q.Set("limit", strconv.Itoa(pageSize))

	var resp struct {
		Casts []Cast `json:"casts"`
	}
	if err := c.get(ctx, "/farcaster/feed/user/casts", q, &resp); err != nil {
		return nil, err
	}
	return resp.Casts, nil
}

// GetProfile resolves a fid to its profile.
func (c *Client) GetProfile(ctx context.Context, fid uint64) (*Profile, error) {
	q := url.Values{}
	q.Set("fids", strconv.FormatUint(fid, 10))

	var resp struct {
		Users []Profile `json:"users"`
	}
	if err := c.get(ctx, "/farcaster/user/bulk", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, fmt.Errorf("%w: no profile for fid %d", ErrInvalidResponse, fid)
	}
	return &resp.Users[0], nil
}

// SendCast publishes a cast. parent may be nil for a top-level cast.
func (c *Client) SendCast(ctx context.Context, signerUUID, text string, parent *ParentRef) (*CastRef, error) {
	body := map[string]any{
		"signer_uuid": signerUUID,
		"text":        text,
	}
	if parent != nil {
		body["parent"] = parent.Hash
		body["parent_author_fid"] = parent.FID
	}

	var resp struct {
		Cast CastRef `json:"cast"`
	}
	if err := c.post(ctx, "/farcaster/cast", body, &resp); err != nil {
		return nil, err
	}
	if resp.Cast.Hash == "" {
		return nil, fmt.Errorf("%w: publish returned no hash", ErrInvalidResponse)
	}
	if resp.Cast.Timestamp.IsZero() {
		resp.Cast.Timestamp = time.Now().UTC()
	}
	return &resp.Cast, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Debug().Int("status", resp.StatusCode).Str("path", req.URL.Path).Str("body", string(data)).Msg("hub error response")
		return c.handleErrorResponse(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func (c *Client) handleErrorResponse(status int, body []byte) error {
	var apiErr struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &apiErr)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthFailed, apiErr.Message)
	case http.StatusNotFound:
		return ErrCastNotFound
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
	default:
		return fmt.Errorf("hub API status %d: %s", status, apiErr.Message)
	}
}
