// Package codec converts runtime values to and from their wire forms.
package codec

import (
	"fmt"
	"time"
)

// ParseRFC3339 accepts RFC3339 with or without fractional seconds.
func ParseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, fmt.Errorf("invalid RFC3339 time %q: %w", s, err)
	}
	return t, nil
}

// FormatRFC3339 normalizes t to UTC. Trailing fractional zeros are trimmed.
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// FormatUnixMilli formats a millisecond timestamp like FormatRFC3339.
func FormatUnixMilli(ms int64) string {
	return FormatRFC3339(time.UnixMilli(ms))
}
