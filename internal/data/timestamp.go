package data

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Day-first layouts come before ISO ones; "2" and "1" accept one or two digits.
var timestampLayouts = []string{
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2.1.2006",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2-1-2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// spreadsheetEpoch is day zero of spreadsheet serial dates.
var spreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseTimestamp parses a wall-clock timestamp as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FromSerialDays converts a spreadsheet serial day number, rounded to the second.
func FromSerialDays(days float64) time.Time {
	secs := math.Round(days * 86400)
	return spreadsheetEpoch.Add(time.Duration(secs) * time.Second)
}

// parseTimestampColumn returns one timestamp per row and whether it parsed.
// A column whose non-empty cells are all plain numbers is read as serial days.
func parseTimestampColumn(cells []string) ([]time.Time, []bool) {
	out := make([]time.Time, len(cells))
	ok := make([]bool, len(cells))

	serial := false
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, err := strconv.ParseFloat(strings.Replace(c, ",", ".", 1), 64); err != nil {
			serial = false
			break
		}
		serial = true
	}

	for i, c := range cells {
		if serial {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			days, err := strconv.ParseFloat(strings.Replace(c, ",", ".", 1), 64)
			if err != nil {
				continue
			}
			out[i], ok[i] = FromSerialDays(days), true
			continue
		}
		out[i], ok[i] = ParseTimestamp(c)
	}
	return out, ok
}
