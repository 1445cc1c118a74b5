package payment

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewOrderID returns ORDER_<unix millis>_<8 hex chars>. The random suffix keeps
// ids distinct for requests landing in the same millisecond.
func NewOrderID(now time.Time) (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate order id: %w", err)
	}
	return fmt.Sprintf("ORDER_%d_%s", now.UnixMilli(), hex.EncodeToString(b)), nil
}
