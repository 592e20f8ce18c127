package payment

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	receiptPrefix     = "REC"
	receiptTimeLayout = "20060102150405.000"
)

// ReceiptGenerator hands out receipt numbers: a millisecond timestamp, a sequence number
// disambiguating receipts issued within the same millisecond and a short random suffix.
// Numbers are meant for humans; uniqueness is not guaranteed across processes.
type ReceiptGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last string
	seq  int
}

func NewReceiptGenerator() *ReceiptGenerator {
	return &ReceiptGenerator{now: time.Now}
}

// Next returns a new receipt number, eg: REC-20250914093015123-00A1F3.
func (g *ReceiptGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	stamp := strings.Replace(g.now().UTC().Format(receiptTimeLayout), ".", "", 1)
	if stamp == g.last {
		g.seq++
	} else {
		g.last, g.seq = stamp, 0
	}
	suffix := strings.ToUpper(strings.Replace(uuid.New().String(), "-", "", -1)[:4])
	return fmt.Sprintf("%s-%s-%02d%s", receiptPrefix, stamp, g.seq%100, suffix)
}
