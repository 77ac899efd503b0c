package daemonctl

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
	"syscall"
	"time"

	"ytbili/internal/api"
	"ytbili/internal/config"
)

// ErrDaemonNotRunning indicates the daemon API is unreachable or disabled.
var ErrDaemonNotRunning = errors.New("daemon not running")

// APIError is a non-2xx reply from the daemon.
type APIError struct {
	StatusCode int
	Response   api.ErrorResponse
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Response.Error)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Response.Hint != "" {
		return fmt.Sprintf("daemon returned %d: %s (%s)", e.StatusCode, msg, e.Response.Hint)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, msg)
}

// Client calls the daemon HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient targets paths.api_bind. Wildcard listen addresses are dialled on
// the loopback interface.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: BaseURL(cfg.Paths.APIBind),
		token:   strings.TrimSpace(cfg.Paths.APIToken),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// BaseURL converts a listen address into the URL clients dial.
func BaseURL(bind string) string {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return ""
	}
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "http://" + bind
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// Ping reports whether the daemon API answers /api/health.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// Status fetches /api/status for the latest job, or job id when positive.
func (c *Client) Status(ctx context.Context, id int64) (*api.StatusResponse, error) {
	path := "/api/status"
	if id > 0 {
		path += "?job=" + strconv.FormatInt(id, 10)
	}
	var resp api.StatusResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit posts a job to /api/process.
func (c *Client) Submit(ctx context.Context, req api.ProcessRequest) (*api.ProcessResponse, error) {
	var resp api.ProcessResponse
	if err := c.do(ctx, http.MethodPost, "/api/process", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Queue lists jobs filtered by status.
func (c *Client) Queue(ctx context.Context, statuses ...string) ([]api.QueueItem, error) {
	path := "/api/queue"
	if len(statuses) > 0 {
		path += "?status=" + url.QueryEscape(strings.Join(statuses, ","))
	}
	var resp api.QueueListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Retry asks the daemon to retry a failed job.
func (c *Client) Retry(ctx context.Context, id int64) (api.RetryItemsResult, error) {
	var resp api.RetryItemsResult
	err := c.do(ctx, http.MethodPost, "/api/queue/"+strconv.FormatInt(id, 10)+"/retry", nil, &resp)
	return resp, err
}

// Item fetches a single job.
func (c *Client) Item(ctx context.Context, id int64) (*api.QueueItem, error) {
	var resp api.QueueItemResponse
	if err := c.do(ctx, http.MethodGet, "/api/queue/"+strconv.FormatInt(id, 10), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

// QueueStats fetches job counts per status.
func (c *Client) QueueStats(ctx context.Context) (map[string]int, error) {
	var resp api.QueueStatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/queue/stats", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Counts, nil
}

// Remove deletes a job that is not being processed.
func (c *Client) Remove(ctx context.Context, id int64) (api.RemoveItemsResult, error) {
	var resp api.RemoveItemsResult
	err := c.do(ctx, http.MethodDelete, "/api/queue/"+strconv.FormatInt(id, 10), nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c == nil || c.baseURL == "" {
		return ErrDaemonNotRunning
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isUnavailable(err) {
			return fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(data, &apiErr.Response)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isUnavailable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ENOENT) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
