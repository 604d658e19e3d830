package utils

import (
	"fmt"
	"math/big"
	"time"
)

// FormatDuration renders a duration as "1D 2h 3m", matching the granularity
// operators see in prompts (seconds are dropped).
func FormatDuration(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs < 0 {
		secs = 0
	}
	days := secs / 86400
	secs %= 86400
	hours := secs / 3600
	secs %= 3600
	minutes := secs / 60
	return fmt.Sprintf("%dD %dh %dm", days, hours, minutes)
}

// FormatToken formats a wei amount as a token quantity with two decimals,
// e.g. 1500000000000000000 -> "1.50 OLAS".
func FormatToken(wei *big.Int, symbol string) string {
	if wei == nil || wei.Sign() == 0 {
		return "0.00 " + symbol
	}

	// 1 token = 10^18 wei; keep two decimals via cents
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(16), nil)
	cents := new(big.Int).Div(wei, divisor)
	whole := new(big.Int).Div(cents, big.NewInt(100))
	frac := new(big.Int).Mod(cents, big.NewInt(100))

	return fmt.Sprintf("%s.%02d %s", whole.String(), frac.Int64(), symbol)
}

// FormatTimestampUTC renders a unix timestamp as "2006-01-02 15:04:05 UTC".
func FormatTimestampUTC(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05") + " UTC"
}
