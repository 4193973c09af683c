package enum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceStatusString(t *testing.T) {
	assert.Equal(t, "draft", InvoiceStatusDraft.String())
	assert.Equal(t, "cancelled", InvoiceStatusCancelled.String())

	// A corrupted value must not masquerade as a real status
	assert.Equal(t, "unknown", InvoiceStatus(-1).String())
	assert.Equal(t, "unknown", InvoiceStatus(99).String())
}

func TestParseInvoiceStatus(t *testing.T) {
	parsed, ok := ParseInvoiceStatus("overdue")
	assert.True(t, ok)
	assert.Equal(t, InvoiceStatusOverdue, parsed)

	_, ok = ParseInvoiceStatus("unknown")
	assert.False(t, ok)
}
