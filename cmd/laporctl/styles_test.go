package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusBadgeLabels(t *testing.T) {
	assert.Contains(t, statusBadge("PENDING"), "MENUNGGU")
	assert.Contains(t, statusBadge("IN_PROGRESS"), "DIPROSES")
	assert.Contains(t, statusBadge("RESOLVED"), "SELESAI")
	assert.Contains(t, statusBadge("REJECTED"), "DITOLAK")

	// Anything the normalizer did not recognize renders as pending.
	assert.Contains(t, statusBadge("whatever"), "MENUNGGU")
}

func TestToastLine(t *testing.T) {
	line := toastLine("info", "Report update", "Status changed")
	assert.Contains(t, line, "Report update")
	assert.Contains(t, line, "Status changed")

	bare := toastLine("success", "New report", "")
	assert.Contains(t, bare, "New report")
}
