package ledger

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order. Exchange exports carry no zone marker and
// are documented as UTC.
var dateLayouts = []string{
	"2006-01-02 15:04:05", // most common export format
	"2006-01-02T15:04:05",
	"06-01-02 15:04:05", // two-digit year
	"02-01-2006 15:04:05",
	"02-01-06 15:04:05",
	"01/02/2006 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ParseDate parses a statement timestamp, treating zoneless values as UTC.
func ParseDate(raw string) (time.Time, error) {
	s := strings.Trim(strings.TrimSpace(raw), `"`)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %q", raw)
}
