package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the date format used in charts, reports and the CLI.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order by ParseFlexibleDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
	"01/02/2006",
	"1/2/2006",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// ParseFlexibleDate parses the date shapes found in practice records.
// Layouts without a zone are read as UTC.
func ParseFlexibleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ToTime converts a loosely typed date value (time.Time, string, unix
// seconds) into a time. ok is false when nothing usable was found.
func ToTime(v any) (t time.Time, ok bool) {
	switch d := v.(type) {
	case time.Time:
		return d, !d.IsZero()
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, !d.IsZero()
	case string:
		t, err := ParseFlexibleDate(d)
		return t, err == nil
	case []byte:
		t, err := ParseFlexibleDate(string(d))
		return t, err == nil
	case json.Number:
		if secs, err := d.Int64(); err == nil {
			return time.Unix(secs, 0).UTC(), true
		}
		if f, err := d.Float64(); err == nil {
			return time.Unix(int64(f), 0).UTC(), true
		}
		return time.Time{}, false
	case int64:
		return time.Unix(d, 0).UTC(), true
	case int:
		return time.Unix(int64(d), 0).UTC(), true
	case float64:
		return time.Unix(int64(d), 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

// FormatDate formats t's UTC calendar date as "2006-01-02", or "" for the
// zero time. Stored updates come back in UTC, so labels use UTC everywhere.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// FormatDateTime formats t as "02 Jan 2006, 03:04 PM" in t's own location.
func FormatDateTime(t time.Time) string {
	return t.Format("02 Jan 2006, 03:04 PM")
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
