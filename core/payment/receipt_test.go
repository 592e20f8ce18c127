package payment

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReceiptGenerator_Next(t *testing.T) {
	frozen := time.Date(2025, time.September, 14, 9, 30, 15, 123456789, time.UTC)
	g := NewReceiptGenerator()
	g.now = func() time.Time { return frozen }

	first, second := g.Next(), g.Next()

	assert.True(t, strings.HasPrefix(first, "REC-20250914093015123-00"), first)
	assert.True(t, strings.HasPrefix(second, "REC-20250914093015123-01"), second)
	assert.NotEqual(t, first, second)

	// the sequence restarts on the next millisecond
	g.now = func() time.Time { return frozen.Add(time.Millisecond) }
	assert.True(t, strings.HasPrefix(g.Next(), "REC-20250914093015124-00"))
}

func TestReceiptGenerator_concurrent(t *testing.T) {
	g := NewReceiptGenerator()
	const n = 50

	receipts := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() { receipts <- g.Next() }()
	}

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		r := <-receipts
		assert.Regexp(t, `^REC-\d{17}-\d{2}[0-9A-F]{4}$`, r)
		assert.False(t, seen[r], "duplicate receipt %s", r)
		seen[r] = true
	}
}
