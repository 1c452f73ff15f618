package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewTicketNumber renders TKT-<yyyymmddhhmmss>-<4 hex>. The random suffix keeps
// numbers unique for tickets submitted within the same second.
func NewTicketNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return "TKT-" + at.UTC().Format("20060102150405") + "-" + suffix
}
