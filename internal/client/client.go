// Package client is a typed HTTP client for the nowplaying REST API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/voyagen/nowplaying/internal/models"
	"github.com/voyagen/nowplaying/internal/schedule"
)

const defaultTimeout = 10 * time.Second

// Error is a non-2xx response decoded from the API's error envelope.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("api %d %s", e.Status, e.Message)
}

// Client talks to one nowplaying server.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

// New returns a Client for baseURL (e.g. "http://localhost:8080"). httpClient may be nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		userAgent: "nowplaying-watch/1.0",
	}
}

// NowPlaying fetches the resolved current and next items of a channel.
func (c *Client) NowPlaying(ctx context.Context, channelID int64) (*schedule.NowPlaying, error) {
	q := url.Values{"channel_id": {strconv.FormatInt(channelID, 10)}}
	var out schedule.NowPlaying
	if err := c.get(ctx, "/api/schedule/now-playing", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Week fetches the seven-day grid of a channel.
func (c *Client) Week(ctx context.Context, channelID int64) (*schedule.Week, error) {
	q := url.Values{"channel_id": {strconv.FormatInt(channelID, 10)}}
	var out schedule.Week
	if err := c.get(ctx, "/api/schedule/week", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tickers fetches ticker items in display order.
func (c *Client) Tickers(ctx context.Context, activeOnly bool) ([]models.TickerItem, error) {
	q := url.Values{"active_only": {strconv.FormatBool(activeOnly)}}
	var out []models.TickerItem
	if err := c.get(ctx, "/api/ticker", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Channels lists all channels.
func (c *Client) Channels(ctx context.Context) ([]models.Channel, error) {
	var out []models.Channel
	if err := c.get(ctx, "/api/channels", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("NewRequest: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
