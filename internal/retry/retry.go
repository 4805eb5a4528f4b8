// Package retry defines the backoff policy shared by outbound API calls.
package retry

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"net"
	"syscall"
	"time"
)

// cryptoInt64n returns a random int64 in [0, n) using crypto/rand.
func cryptoInt64n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var b [8]byte
	_, _ = rand.Read(b[:])
	v := binary.LittleEndian.Uint64(b[:]) >> 1 // ensure fits in int64
	return int64(v % uint64(n))                //nolint:gosec // n>0, v%n < n, safe
}

// Policy holds the retry budget and backoff bounds for a client instance.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultPolicy matches the budget both web clients ship with.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
	}
}

var retryableStatuses = map[int]struct{}{
	408: {},
	429: {},
	500: {},
	502: {},
	503: {},
	504: {},
}

// RetryableStatus reports whether an HTTP status code is worth retrying.
func RetryableStatus(code int) bool {
	_, ok := retryableStatuses[code]
	return ok
}

// RetryableError reports whether a transport-level failure is transient:
// timeouts, refused/reset/aborted connections, and DNS resolution failures.
// A caller-cancelled context is never retryable.
func RetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var de *net.DNSError
	if errors.As(err, &de) {
		return true
	}
	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ECONNABORTED,
		syscall.EPIPE,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// Delay returns the backoff before re-issuing attempt n (1-indexed):
// min(BaseDelay * 2^(n-1), MaxDelay) plus up to +10% uniform jitter.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.MaxDelay
	if attempt-1 < 63 {
		if raw := p.BaseDelay << uint(attempt-1); raw > 0 && raw < p.MaxDelay {
			d = raw
		}
	}
	jitter := time.Duration(cryptoInt64n(int64(d)/10 + 1))
	return d + jitter
}
