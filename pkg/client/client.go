package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxAttempts bounds the retry loop for transient failures.
const maxAttempts = 3

// Client is the spawnwatch SDK client.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	backoff  BackoffStrategy
}

// NewClient creates a new spawnwatch client.
// endpoint defaults to "http://127.0.0.1:8190" if empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8190"
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		backoff: DefaultBackoff(),
	}
}

// SetToken attaches an admin session token to subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Ping checks the health of the daemon.
func (c *Client) Ping(ctx context.Context) (Status, error) {
	var status Status
	err := c.getJSON(ctx, "/v1/health", &status)
	return status, err
}

// Board fetches the ranked event board.
func (c *Client) Board(ctx context.Context) (Board, error) {
	var board Board
	err := c.getJSON(ctx, "/v1/board", &board)
	return board, err
}

// ActiveBoard fetches only the events inside the active window.
func (c *Client) ActiveBoard(ctx context.Context) (Board, error) {
	var board Board
	err := c.getJSON(ctx, "/v1/board/active", &board)
	return board, err
}

// Version fetches the catalog version bookkeeping.
func (c *Client) Version(ctx context.Context) (VersionInfo, error) {
	var info VersionInfo
	err := c.getJSON(ctx, "/v1/version", &info)
	return info, err
}

// Events lists the catalog, optionally filtered by a search query and field
// selector ("all", "name", "location", "rewards").
func (c *Client) Events(ctx context.Context, query, field string) ([]Event, error) {
	path := "/v1/events"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
		if field != "" {
			path += "&field=" + url.QueryEscape(field)
		}
	}
	var resp struct {
		Events []Event `json:"events"`
	}
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// Event fetches a single catalog entry.
func (c *Client) Event(ctx context.Context, id string) (Event, error) {
	var ev Event
	err := c.getJSON(ctx, "/v1/events/"+url.PathEscape(id), &ev)
	return ev, err
}

// Prefs fetches the preference state.
func (c *Client) Prefs(ctx context.Context) (Prefs, error) {
	var p Prefs
	err := c.getJSON(ctx, "/v1/prefs", &p)
	return p, err
}

// Alerts fetches the recent alert feed.
func (c *Client) Alerts(ctx context.Context) ([]Alert, error) {
	var alerts []Alert
	err := c.getJSON(ctx, "/v1/alerts", &alerts)
	return alerts, err
}

// Follow subscribes to lead-time alerts for an event.
func (c *Client) Follow(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodPost, "/v1/follow/"+url.PathEscape(id), nil, nil)
}

// Unfollow removes the subscription for an event.
func (c *Client) Unfollow(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/v1/follow/"+url.PathEscape(id), nil, nil)
}

// Pin adds an event to the pinned shortlist.
func (c *Client) Pin(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodPost, "/v1/pin/"+url.PathEscape(id), nil, nil)
}

// Unpin removes an event from the pinned shortlist.
func (c *Client) Unpin(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/v1/pin/"+url.PathEscape(id), nil, nil)
}

// SetNotifications toggles the global notifications flag.
func (c *Client) SetNotifications(ctx context.Context, enabled bool) error {
	return c.send(ctx, http.MethodPost, "/v1/notifications", map[string]bool{"enabled": enabled}, nil)
}

// Login exchanges the admin secret for a session token and attaches it to
// the client.
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.send(ctx, http.MethodPost, "/v1/admin/login", map[string]string{"password": password}, &resp)
	if err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

// AddEvent creates a catalog entry. Requires a prior Login.
func (c *Client) AddEvent(ctx context.Context, ev Event) (Event, error) {
	var stored Event
	err := c.send(ctx, http.MethodPost, "/v1/events", ev, &stored)
	return stored, err
}

// UpdateEvent replaces a catalog entry. Requires a prior Login.
func (c *Client) UpdateEvent(ctx context.Context, id string, ev Event) (Event, error) {
	var stored Event
	err := c.send(ctx, http.MethodPut, "/v1/events/"+url.PathEscape(id), ev, &stored)
	return stored, err
}

// DeleteEvent removes a catalog entry. Requires a prior Login.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/v1/events/"+url.PathEscape(id), nil, nil)
}

// Reset restores the seed catalog. Requires a prior Login.
func (c *Client) Reset(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/v1/admin/reset", nil, nil)
}

// Export downloads the catalog snapshot.
func (c *Client) Export(ctx context.Context) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/export", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	return io.ReadAll(resp.Body)
}

// Import replaces the catalog from a snapshot payload. Requires a prior
// Login.
func (c *Client) Import(ctx context.Context, snapshot []byte) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/import", bytes.NewReader(snapshot))
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// getJSON performs a GET with retries on transient failures.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff.Next(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := c.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("daemon unreachable: %w", err)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("upstream error: status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close()
			return statusError(resp)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
	return lastErr
}

// send performs a mutating request without retries. Mutations are not
// assumed idempotent, so transient failures surface to the caller.
func (c *Client) send(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if len(raw) > 0 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
