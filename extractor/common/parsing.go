package common

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the DD-Mon-YYYY layout used on ledger lines.
const DateLayout = "02-Jan-2006"

// StripDirection removes a trailing Dr or Cr marker.
func StripDirection(s string) string {
	if strings.HasSuffix(s, "Dr") {
		return strings.TrimSuffix(s, "Dr")
	}
	return strings.TrimSuffix(s, "Cr")
}

// StripThousands removes comma grouping separators.
func StripThousands(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeAmount turns a matched amount token such as "12,345.00Dr" into
// "12345.00". An empty token stays empty.
func NormalizeAmount(s string) string {
	return StripThousands(StripDirection(Trim(s)))
}

// ParseAmount converts a normalized amount string into a decimal. An empty
// string is zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := NormalizeAmount(s)
	if clean == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(clean)
}

// ParseDate parses a DD-Mon-YYYY ledger date.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, Trim(value), time.Local)
}
