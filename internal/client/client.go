// Package client provides an HTTP/WebSocket client for the Wayword server
// and the remote fallback predictors used when local recall falls short.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/wayword-go/internal/models"
)

// Client talks to a Wayword server over its JSON API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a server client.
// If endpoint is empty, uses WAYWORD_SERVER_URL env var or defaults to localhost:8787.
// Timeout can be configured via WAYWORD_CLIENT_TIMEOUT env var (default 2m; embedding
// warm-up can pull models on first use).
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("WAYWORD_SERVER_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:8787"
	}
	endpoint = strings.TrimSuffix(endpoint, "/")

	timeout := 2 * time.Minute
	if t := os.Getenv("WAYWORD_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// apiError is the error payload the server returns for non-2xx responses.
type apiError struct {
	Error string `json:"error"`
}

// do sends a JSON request and decodes the JSON response into result.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server error: %s - %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// RecommendRequest is the payload for POST /v1/recommend.
type RecommendRequest struct {
	Intent   models.IntentProfile `json:"intent"`
	Location *models.LatLng       `json:"location,omitempty"`
}

// Recommend asks the server to rank the stored timeline against an intent profile.
func (c *Client) Recommend(ctx context.Context, req RecommendRequest) (*models.RecommendationResult, error) {
	var result models.RecommendationResult
	if err := c.do(ctx, http.MethodPost, "/v1/recommend", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WarmRequest is the payload for POST /v1/warm.
type WarmRequest struct {
	Languages []string `json:"languages"`
}

// WarmResult reports the embedding mode reached for each requested language.
type WarmResult struct {
	Modes map[string]string `json:"modes"`
}

// Warm asks the server to prepare embedding models for the given languages.
func (c *Client) Warm(ctx context.Context, languages []string) (*WarmResult, error) {
	var result WarmResult
	if err := c.do(ctx, http.MethodPost, "/v1/warm", WarmRequest{Languages: languages}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// OperationStats holds timing metrics for a single operation type.
type OperationStats struct {
	Count       int     `json:"count"`
	TotalTimeMs int     `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int     `json:"min_time_ms"`
	MaxTimeMs   int     `json:"max_time_ms"`
}

// ServerStats holds in-memory runtime statistics (resets on server restart).
type ServerStats struct {
	UptimeSeconds float64         `json:"uptime_seconds"`
	PlaceCount    int             `json:"place_count"`
	Embedding     *OperationStats `json:"embedding,omitempty"`
	Score         *OperationStats `json:"score,omitempty"`
	Recommend     *OperationStats `json:"recommend,omitempty"`
	Fallback      *OperationStats `json:"fallback,omitempty"`
	HistoryQuery  *OperationStats `json:"history_query,omitempty"`
}

// Stats returns the server's runtime statistics.
func (c *Client) Stats(ctx context.Context) (*ServerStats, error) {
	var result ServerStats
	if err := c.do(ctx, http.MethodGet, "/v1/stats", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health checks the server health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// LiveFix is a location/intent update sent over the live stream.
type LiveFix struct {
	Intent   models.IntentProfile `json:"intent"`
	Location *models.LatLng       `json:"location,omitempty"`
}

// Live opens a WebSocket to /v1/live, streams fixes from the fixes channel and
// invokes onResult for each refreshed recommendation set the server pushes back.
// Returns when the fixes channel is closed, the context is cancelled, or the
// connection fails.
func (c *Client) Live(
	ctx context.Context,
	fixes <-chan LiveFix,
	onResult func(models.RecommendationResult) error,
) error {
	wsEndpoint := c.endpoint
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint + "/v1/live")
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	// Writer goroutine: forward fixes until the channel closes or ctx is done.
	writeErr := make(chan error, 1)
	go func() {
		defer close(writeErr)
		for {
			select {
			case <-ctx.Done():
				closeConn()
				return
			case fix, ok := <-fixes:
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
				mu.Lock()
				if closed {
					mu.Unlock()
					return
				}
				err := conn.WriteJSON(fix)
				mu.Unlock()
				if err != nil {
					writeErr <- fmt.Errorf("send fix: %w", err)
					closeConn()
					return
				}
			}
		}
	}()

	for {
		var result models.RecommendationResult
		if err := conn.ReadJSON(&result); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case werr, ok := <-writeErr:
				if ok && werr != nil {
					return werr
				}
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read result: %w", err)
		}
		if err := onResult(result); err != nil {
			return err
		}
	}
}
