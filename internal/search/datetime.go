package search

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the timestamp layout of AuroraX queries and results. The API
// assumes UTC and sends no zone suffix.
const TimeLayout = "2006-01-02T15:04:05"

// Time formats accepted from the API and from command-line input.
var timeFormats = []string{
	TimeLayout,
	"2006-01-02T15:04:05.000000",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses an AuroraX timestamp string. The result is in UTC.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time string")
	}

	s = strings.TrimSpace(s)

	var lastErr error
	for _, format := range timeFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse AuroraX time %q: %w", s, lastErr)
}

// FormatTime formats t for a query body: UTC, second precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
