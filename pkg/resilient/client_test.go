package resilient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laporkota/laporkit/internal/retry"
	"github.com/laporkota/laporkit/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClient returns a client whose sleeps complete instantly but are
// recorded for inspection.
func testClient(t *testing.T, baseURL string, cfg Config) (*Client, *session.MemoryStore, *[]time.Duration) {
	t.Helper()
	cfg.BaseURL = baseURL
	if cfg.ClientType == "" {
		cfg.ClientType = "web-citizen"
	}
	store := session.NewMemoryStore()
	c := New(cfg, store, discardLogger())

	var sleeps []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return c, store, &sleeps
}

func TestDo_SuccessPassesBodyThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"id":"r1"}}`))
	}))
	defer srv.Close()

	c, _, sleeps := testClient(t, srv.URL, Config{})
	body, err := c.Get(context.Background(), "/reports/r1", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","data":{"id":"r1"}}`, string(body))
	assert.Empty(t, *sleeps)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"success","data":[]}`))
	}))
	defer srv.Close()

	c, _, sleeps := testClient(t, srv.URL, Config{})
	body, err := c.Get(context.Background(), "/reports", nil)
	require.NoError(t, err)
	assert.Contains(t, string(body), "success")

	// [503, 503, 200]: exactly two delayed retries.
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, *sleeps, 2)

	// Delay bounds: base*2^(n-1) plus at most +10% jitter.
	p := retry.DefaultPolicy()
	assert.GreaterOrEqual(t, (*sleeps)[0], p.BaseDelay)
	assert.LessOrEqual(t, (*sleeps)[0], p.BaseDelay+p.BaseDelay/10)
	assert.GreaterOrEqual(t, (*sleeps)[1], 2*p.BaseDelay)
	assert.LessOrEqual(t, (*sleeps)[1], 2*p.BaseDelay+p.BaseDelay/5)

	// Total scheduled wait covers baseDelay + baseDelay*2 before jitter.
	assert.GreaterOrEqual(t, (*sleeps)[0]+(*sleeps)[1], 3*p.BaseDelay)

	// Counter was cleared on success.
	c.mu.Lock()
	assert.Empty(t, c.attempts)
	c.mu.Unlock()
}

func TestDo_EveryRetryableStatusIsRetried(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(code)
				return
			}
			w.Write([]byte(`{"status":"success"}`))
		}))

		c, _, _ := testClient(t, srv.URL, Config{})
		_, err := c.Get(context.Background(), "/reports", nil)
		srv.Close()

		require.NoError(t, err, "status %d", code)
		assert.Equal(t, int32(2), calls.Load(), "status %d", code)
	}
}

func TestDo_ExhaustedBudgetSurfacesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, _, sleeps := testClient(t, srv.URL, Config{})
	_, err := c.Get(context.Background(), "/reports", nil)

	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.Status)

	// Initial attempt plus maxRetries re-issues.
	assert.Equal(t, int32(4), calls.Load())
	assert.Len(t, *sleeps, 3)

	// Counter removed after exhaustion: a fresh call starts over and
	// schedules the first-attempt delay again.
	before := calls.Load()
	_, err = c.Get(context.Background(), "/reports", nil)
	require.Error(t, err)
	assert.Equal(t, before+4, calls.Load())

	p := retry.DefaultPolicy()
	assert.GreaterOrEqual(t, (*sleeps)[3], p.BaseDelay)
	assert.LessOrEqual(t, (*sleeps)[3], p.BaseDelay+p.BaseDelay/10)
}

func TestDo_401IsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, store, sleeps := testClient(t, srv.URL, Config{})
	require.NoError(t, store.Save(session.Session{
		Token: "tok",
		User:  session.User{ID: "u1", Name: "Budi"},
	}))

	var redirects atomic.Int32
	c.OnAuthExpired(func() { redirects.Add(1) })

	_, err := c.Get(context.Background(), "/reports/mine", nil)
	require.ErrorIs(t, err, ErrAuthExpired)

	// No retry, no sleep, exactly one redirect.
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, *sleeps)
	assert.Equal(t, int32(1), redirects.Load())

	// Both session keys gone together.
	_, ok, serr := store.Load()
	require.NoError(t, serr)
	assert.False(t, ok)
}

func TestDo_PermanentFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"error","message":"report not found"}`))
	}))
	defer srv.Close()

	c, _, sleeps := testClient(t, srv.URL, Config{})
	_, err := c.Get(context.Background(), "/reports/nope", nil)

	var pe *PermanentError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusNotFound, pe.Status)
	assert.Equal(t, "report not found", pe.Message)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, *sleeps)
}

func TestDo_TransportErrorRetried(t *testing.T) {
	// A server that is already closed yields connection-refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c, _, sleeps := testClient(t, addr, Config{})
	_, err := c.Get(context.Background(), "/reports", nil)

	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Len(t, *sleeps, retry.DefaultPolicy().MaxRetries)
}

func TestDo_RequestDecoration(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	c, store, _ := testClient(t, srv.URL, Config{
		ClientType:  "web-admin",
		TracePrefix: "admin",
	})
	require.NoError(t, store.Save(session.Session{
		Token: "tok-123",
		User:  session.User{ID: "a1", Department: "kebersihan"},
	}))

	_, err := c.Get(context.Background(), "/admin/reports", nil)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	assert.Equal(t, "web-admin", got.Get("X-Client-Type"))
	assert.Equal(t, "kebersihan", got.Get("X-Department"))
	assert.Regexp(t, `^admin-\d{13}-[0-9a-z]{9}$`, got.Get("X-Trace-Id"))
}

func TestDo_CitizenOmitsDepartment(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, store, _ := testClient(t, srv.URL, Config{})
	require.NoError(t, store.Save(session.Session{
		Token: "tok",
		User:  session.User{ID: "u1", Department: "kebersihan"},
	}))

	_, err := c.Get(context.Background(), "/reports", nil)
	require.NoError(t, err)

	assert.Empty(t, got.Get("X-Department"))
	assert.Equal(t, "web-citizen", got.Get("X-Client-Type"))
}

func TestDo_NoTokenNoAuthorizationHeader(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _, _ := testClient(t, srv.URL, Config{})
	_, err := c.Get(context.Background(), "/reports", nil)
	require.NoError(t, err)
	assert.Empty(t, got.Get("Authorization"))
}

func TestDo_FreshTraceIDPerAttempt(t *testing.T) {
	var ids []string
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Trace-Id"))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _, _ := testClient(t, srv.URL, Config{})
	_, err := c.Get(context.Background(), "/reports", nil)
	require.NoError(t, err)

	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestDo_CamelizeKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"report_id":"r1","image_url":"u"}}`))
	}))
	defer srv.Close()

	c, _, _ := testClient(t, srv.URL, Config{CamelizeKeys: true})
	body, err := c.Get(context.Background(), "/reports/r1", nil)
	require.NoError(t, err)

	assert.Contains(t, string(body), `"reportId"`)
	assert.NotContains(t, string(body), `"report_id"`)
}

func TestDo_CamelizeMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	c, _, _ := testClient(t, srv.URL, Config{CamelizeKeys: true})
	_, err := c.Get(context.Background(), "/reports", nil)
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())

	c, _, _ := testClient(t, srv.URL, Config{})
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := c.Do(ctx, http.MethodGet, "/reports", url.Values{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	// Counter does not linger after a cancelled call.
	c.mu.Lock()
	assert.Empty(t, c.attempts)
	c.mu.Unlock()
}

func TestPostMultipart_BodyReplayedOnRetry(t *testing.T) {
	var calls atomic.Int32
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(raw))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"success","data":{"url":"/storage/b/o"}}`))
	}))
	defer srv.Close()

	c, _, _ := testClient(t, srv.URL, Config{})
	body, err := c.PostMultipart(context.Background(), "/api/reports/upload",
		"multipart/form-data; boundary=xyz", []byte("--xyz\r\npart\r\n--xyz--\r\n"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "/storage/b/o")

	// The retried attempt carries the identical body.
	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
	assert.NotEmpty(t, bodies[0])
}

func TestPostMultipart_ContentTypePreserved(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	c, _, _ := testClient(t, srv.URL, Config{})
	_, err := c.PostMultipart(context.Background(), "/api/reports/upload",
		"multipart/form-data; boundary=abc", []byte("--abc--\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data; boundary=abc", gotType)
}

func TestDo_AttemptLogCarriesTraceID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := session.NewMemoryStore()
	c := New(Config{BaseURL: srv.URL, ClientType: "web-citizen"}, store, logger)

	_, err := c.Get(context.Background(), "/api/reports", nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "issuing request")
	assert.Regexp(t, `trace_id=web-\d{13}-[0-9a-z]{9}`, out)
}

func TestDo_QueryParametersSent(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"status":"success","data":[]}`))
	}))
	defer srv.Close()

	c, _, _ := testClient(t, srv.URL, Config{})
	q := url.Values{}
	q.Set("page", "2")
	q.Set("limit", "20")
	_, err := c.Get(context.Background(), "/reports", q)
	require.NoError(t, err)

	assert.Equal(t, "2", gotQuery.Get("page"))
	assert.Equal(t, "20", gotQuery.Get("limit"))
}
