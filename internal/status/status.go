// Package status maps the inconsistent report-status vocabulary the backend
// emits (mixed casing, English and Indonesian variants) onto a canonical set.
package status

import "strings"

// Status is a canonical report status.
type Status string

const (
	Pending    Status = "PENDING"
	InProgress Status = "IN_PROGRESS"
	Resolved   Status = "RESOLVED"
	Rejected   Status = "REJECTED"
)

// Normalize uppercases raw, collapses every run of non-alphanumeric
// characters into a single underscore, and maps the result onto the
// canonical set. Unrecognized values fall back to Pending.
//
// Normalize is idempotent: canonical values map to themselves.
func Normalize(raw string) Status {
	key := fold(raw)

	switch key {
	case "IN_PROGRESS", "INPROGRESS", "PROCESSING", "PROCESSED", "DIPROSES":
		return InProgress
	case "RESOLVED", "COMPLETED", "SELESAI":
		return Resolved
	case "REJECTED", "DITOLAK":
		return Rejected
	case "PENDING", "MENUNGGU":
		return Pending
	}
	return Pending
}

// Known reports whether raw maps to a canonical status without hitting the
// Pending fallback. Callers use it to log genuinely new backend vocabulary
// instead of silently misfiling it.
func Known(raw string) bool {
	switch fold(raw) {
	case "IN_PROGRESS", "INPROGRESS", "PROCESSING", "PROCESSED", "DIPROSES",
		"RESOLVED", "COMPLETED", "SELESAI",
		"REJECTED", "DITOLAK",
		"PENDING", "MENUNGGU":
		return true
	}
	return false
}

func fold(raw string) string {
	up := strings.ToUpper(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(up))
	pendingSep := false
	for _, r := range up {
		alnum := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !alnum {
			if b.Len() > 0 {
				pendingSep = true
			}
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
