package contract

import (
	"fmt"
	"strconv"
	"time"
)

// ParseOffset converts a "±HHMM" offset into signed minutes.
// Anything that is not a well-formed offset yields 0, the same value a
// misconfigured client would have recorded.
func ParseOffset(s string) int {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return 0
	}
	for i := 1; i < 5; i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0
		}
	}
	hours, _ := strconv.Atoi(s[1:3])
	minutes, _ := strconv.Atoi(s[3:5])
	if hours > 23 || minutes > 59 {
		return 0
	}
	total := hours*60 + minutes
	if s[0] == '-' {
		return -total
	}
	return total
}

// FormatOffset renders signed minutes as "±HHMM".
func FormatOffset(minutes int) string {
	sign := '+'
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return fmt.Sprintf("%c%02d%02d", sign, minutes/60, minutes%60)
}

// ParseRawDate parses git's raw date ("<unix seconds> <±HHMM>").
// The instant is returned in UTC; a bad or missing offset parses as 0.
func ParseRawDate(s string) (time.Time, int, error) {
	var secsStr, offStr string
	n, _ := fmt.Sscan(s, &secsStr, &offStr)
	if n == 0 {
		return time.Time{}, 0, fmt.Errorf("empty date")
	}
	secs, err := strconv.ParseInt(secsStr, 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid unix timestamp %q: %w", secsStr, err)
	}
	return time.Unix(secs, 0).UTC(), ParseOffset(offStr), nil
}
