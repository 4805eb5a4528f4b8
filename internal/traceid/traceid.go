// Package traceid generates per-call trace identifiers for cross-service
// log correlation. The backend never parses them; they only need to be
// unique and greppable.
package traceid

import (
	"crypto/rand"
	"fmt"
	"time"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const suffixLen = 9

// New returns an identifier of the form <prefix>-<unix millis>-<suffix>,
// e.g. "web-1712345678901-k3q9f0a2z". The prefix identifies which client
// issued the call.
func New(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), suffix(suffixLen))
}

func suffix(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}
