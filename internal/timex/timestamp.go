package timex

import (
	"fmt"
	"time"
)

// TimestampLayout is fixed width and always UTC, so lexical comparison of two
// formatted values matches chronological order. Both stores rely on this for
// "updated_at > ?" queries over TEXT columns.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Epoch is the watermark before any sync has run.
var Epoch = time.Unix(0, 0).UTC()

// FormatTimestamp renders t in the canonical layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts any RFC 3339 timestamp (with or without fractional
// seconds, any offset) and returns it in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// NormalizeTimestamp parses s and re-renders it in the canonical layout.
func NormalizeTimestamp(s string) (string, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return "", err
	}
	return FormatTimestamp(t), nil
}
