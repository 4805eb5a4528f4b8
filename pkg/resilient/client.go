// Package resilient wraps net/http with the request discipline both web
// clients of the reporting platform share: bearer-token and trace-id
// decoration on every call, exponential-backoff retries for transient
// failures, and terminal session-expiry handling on 401.
package resilient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/laporkota/laporkit/internal/envelope"
	"github.com/laporkota/laporkit/internal/logging"
	"github.com/laporkota/laporkit/internal/retry"
	"github.com/laporkota/laporkit/internal/session"
	"github.com/laporkota/laporkit/internal/traceid"
	"github.com/laporkota/laporkit/internal/traces"
)

// Config describes one client instance. One instance serves one backend
// base URL.
type Config struct {
	BaseURL string

	// ClientType is sent as X-Client-Type ("web-citizen" or "web-admin").
	// The admin client also sends X-Department from the stored profile.
	ClientType string

	// TracePrefix distinguishes which client issued a call in shared logs.
	TracePrefix string

	// Policy defaults to retry.DefaultPolicy() when zero.
	Policy retry.Policy

	// Timeout bounds each individual attempt. Defaults to 30s.
	Timeout time.Duration

	// CamelizeKeys rewrites the response envelope's data keys from
	// snake_case to camelCase before handing the body to the caller.
	CamelizeKeys bool
}

// Client is a retrying HTTP client bound to one backend base URL.
//
// Attempt counters are keyed by (method, path), not by call instance, so
// concurrent identical requests share a counter. That mirrors the web
// clients and is acceptable for a UI-driven workload.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sessions   session.Store
	logger     *slog.Logger

	mu       sync.Mutex
	attempts map[string]int

	onAuthExpired func()

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a client. sessions may not be nil; the client reads it on
// every call to attach credentials and clears it on auth expiry.
func New(cfg Config, sessions session.Store, logger *slog.Logger) *Client {
	if cfg.Policy == (retry.Policy{}) {
		cfg.Policy = retry.DefaultPolicy()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TracePrefix == "" {
		cfg.TracePrefix = "web"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		sessions:   sessions,
		logger:     logger,
		attempts:   make(map[string]int),
		sleep:      sleepCtx,
	}
}

// OnAuthExpired registers the hook invoked exactly once per call that fails
// with a 401. The application shell uses it to route back to login.
func (c *Client) OnAuthExpired(fn func()) {
	c.onAuthExpired = fn
}

// Get issues a GET and returns the response body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, path, nil, body)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do issues one logical call, absorbing transient failures up to the retry
// budget. The returned body has already passed the key-casing adapter when
// the client was configured with CamelizeKeys.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}
	return c.do(ctx, method, path, query, payload, "application/json")
}

// PostMultipart issues a POST whose body is a prebuilt multipart form. The
// body is replayed from memory on every retry.
func (c *Client) PostMultipart(ctx context.Context, path, contentType string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, body, contentType)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte, contentType string) ([]byte, error) {
	target := c.cfg.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	key := method + " " + path

	ctx, span := traces.StartSpan(ctx, "laporkit.request",
		traces.Method(method), traces.Path(path))
	defer span.End()

	ctx = logging.WithLogger(ctx, c.logger)

	for {
		respBody, status, retryable, err := c.attempt(ctx, method, target, payload, contentType)

		if err == nil && status == http.StatusUnauthorized {
			// Terminal: never retried. Clear both session keys together
			// and hand control back to the login flow.
			c.forget(key)
			c.expireSession(method, path)
			span.SetAttributes(traces.StatusCode(status))
			requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrAuthExpired)
		}

		if err == nil && status < 400 {
			c.forget(key)
			span.SetAttributes(traces.StatusCode(status))
			requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
			if c.cfg.CamelizeKeys && len(respBody) > 0 {
				adapted, aerr := envelope.CamelizeData(respBody)
				if aerr != nil {
					return nil, fmt.Errorf("%s %s: %w: %v", method, path, ErrMalformedResponse, aerr)
				}
				return adapted, nil
			}
			return respBody, nil
		}

		attempt := c.bump(key)
		if retryable && attempt <= c.cfg.Policy.MaxRetries {
			delay := c.cfg.Policy.Delay(attempt)
			c.logger.Warn("retrying request",
				"method", method,
				"path", path,
				"attempt", attempt,
				"max_retries", c.cfg.Policy.MaxRetries,
				"status", status,
				"error", err,
				"delay", delay,
			)
			retriesTotal.WithLabelValues(method).Inc()
			if serr := c.sleep(ctx, delay); serr != nil {
				c.forget(key)
				return nil, serr
			}
			continue
		}

		// Budget exhausted or not retryable: drop the counter and surface
		// the failure. Callers are not told how many attempts were made.
		c.forget(key)
		span.SetAttributes(traces.StatusCode(status), traces.Attempts(attempt))
		c.logger.Error("request failed",
			"method", method,
			"path", path,
			"status", status,
			"error", err,
		)

		if err != nil {
			if retryable {
				exhaustedTotal.WithLabelValues(method).Inc()
				return nil, &TransientError{Err: err}
			}
			return nil, err
		}
		requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
		if retryable {
			exhaustedTotal.WithLabelValues(method).Inc()
			return nil, &TransientError{Status: status}
		}
		return nil, &PermanentError{Status: status, Message: envelopeMessage(respBody)}
	}
}

// attempt performs a single transmission. It returns the body and status on
// any HTTP response, or a non-nil err on transport failure, plus whether the
// outcome is retryable.
func (c *Client) attempt(ctx context.Context, method, target string, payload []byte, contentType string) ([]byte, int, bool, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, false, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	c.decorate(req)
	traceID := req.Header.Get("X-Trace-Id")
	trace.SpanFromContext(ctx).SetAttributes(traces.TraceHeader(traceID))
	logging.L(logging.WithTraceID(ctx, traceID)).Debug("issuing request", "method", method, "url", target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, retry.RetryableError(err), err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, retry.RetryableError(err), fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, retry.RetryableStatus(resp.StatusCode), nil
}

// decorate attaches the auth, tracing, and client-identity headers. Headers
// are regenerated on every transmission so each retry carries a fresh trace
// id and the current token.
func (c *Client) decorate(req *http.Request) {
	sess, ok, err := c.sessions.Load()
	if err != nil {
		c.logger.Warn("session load failed", "error", err)
	}
	if ok && sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}
	req.Header.Set("X-Trace-Id", traceid.New(c.cfg.TracePrefix))
	req.Header.Set("X-Client-Type", c.cfg.ClientType)
	if c.cfg.ClientType == "web-admin" && ok && sess.User.Department != "" {
		req.Header.Set("X-Department", sess.User.Department)
	}
}

func (c *Client) expireSession(method, path string) {
	authExpiredTotal.Inc()
	if err := c.sessions.Clear(); err != nil {
		c.logger.Error("session clear failed", "error", err)
	}
	c.logger.Warn("session expired", "method", method, "path", path)
	if c.onAuthExpired != nil {
		c.onAuthExpired()
	}
}

func (c *Client) bump(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts[key]++
	return c.attempts[key]
}

func (c *Client) forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attempts, key)
}

func envelopeMessage(body []byte) string {
	env, err := envelope.Decode(body)
	if err != nil {
		return ""
	}
	if env.Message != "" {
		return env.Message
	}
	return env.Error
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
