package service

import (
	"strings"
	"time"

	"butcher-shop/internal/domain"

	"github.com/google/uuid"
)

// GenerateOrderNumber builds a number such as "MAR-250314-4F9A1C": three
// letters from the purchaser's name, the order date and six hex digits of a
// random id. The orders table keeps it unique.
func GenerateOrderNumber(purchaserName string, at time.Time, random uuid.UUID) string {
	var prefix strings.Builder
	for _, r := range strings.ToUpper(domain.FoldAccents(purchaserName)) {
		if r >= 'A' && r <= 'Z' {
			prefix.WriteRune(r)
			if prefix.Len() == 3 {
				break
			}
		}
	}
	for prefix.Len() < 3 {
		prefix.WriteByte('X')
	}

	suffix := strings.ToUpper(strings.ReplaceAll(random.String(), "-", "")[:6])

	return prefix.String() + "-" + at.Format("060102") + "-" + suffix
}
