// Package predictor talks to the Python risk model service.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/maternal-health/internal/config"
)

// Options tune a single Predict call.  The zero value asks the service to
// echo input ids and uses the client timeout.
type Options struct {
	ExcludeID bool
	Timeout   time.Duration
}

type predictRequest struct {
	Data      any  `json:"data"`
	IncludeID bool `json:"include_id"`
}

// Client calls the prediction service over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
	retries int
	http    *http.Client

	// sleep waits between attempts; tests swap it out.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a client from cfg.  The HTTP client carries no timeout of its
// own; every call is bounded by a context deadline instead.
func New(cfg config.PredictorConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		retries: cfg.RetryOnNetwork,
		http:    &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		sleep:   sleepCtx,
	}
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// CloseIdleConnections releases pooled keep-alive connections.  The server
// calls it on shutdown.
func (c *Client) CloseIdleConnections() { c.http.CloseIdleConnections() }

// Predict sends record (one row or a slice of rows) to /predict.  Only
// connection failures are retried, with a 200ms*attempt pause; an HTTP
// error status ends the call at once.
func (c *Client) Predict(ctx context.Context, record any, opts Options) (*Result, error) {
	body, err := json.Marshal(predictRequest{Data: record, IncludeID: !opts.ExcludeID})
	if err != nil {
		return nil, fmt.Errorf("encode prediction request: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	endpoint := c.baseURL + "/predict"
	maxAttempts := 1 + c.retries
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var res Result
		lastErr = c.do(ctx, http.MethodPost, endpoint, body, timeout, &res)
		if lastErr == nil {
			return &res, nil
		}
		if !isNetworkError(lastErr) || attempt == maxAttempts {
			break
		}
		if err := c.sleep(ctx, time.Duration(attempt)*200*time.Millisecond); err != nil {
			lastErr = err
			break
		}
	}
	return nil, c.normalize(endpoint, lastErr)
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	endpoint := c.baseURL + "/health"
	var h Health
	if err := c.do(ctx, http.MethodGet, endpoint, nil, c.timeout, &h); err != nil {
		return nil, c.normalize(endpoint, err)
	}
	return &h, nil
}

// statusError carries a non-2xx answer out of do.
type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string { return fmt.Sprintf("status %d", e.status) }

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, timeout time.Duration, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &statusError{status: resp.StatusCode, body: data}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// normalize turns the last attempt's failure into an *Error.
func (c *Client) normalize(endpoint string, err error) error {
	e := &Error{URL: endpoint, Err: err}
	switch se := err.(type) {
	case *statusError:
		e.Status = se.status
		e.Detail = errorDetail(se.status, se.body)
		e.Err = nil
	default:
		if isNetworkError(err) || isTransportError(err) {
			e.Detail = "No response from prediction service: " + err.Error()
		} else {
			e.Detail = err.Error()
		}
	}
	return e
}

// errorDetail prefers the "detail" field FastAPI puts in error bodies and
// falls back to the raw body, then the status text.
func errorDetail(status int, body []byte) string {
	var fastapi struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(body, &fastapi) == nil && fastapi.Detail != nil {
		if s, ok := fastapi.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(fastapi.Detail); err == nil {
			return string(b)
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return http.StatusText(status)
}

// isTransportError reports errors raised by http.Client.Do itself, which
// all mean no response was read.
func isTransportError(err error) bool {
	var ue *url.Error
	return errors.As(err, &ue)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
