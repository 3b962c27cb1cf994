package util

import (
	"strings"
	"time"
)

const (
	//DateFormat is the layout of date cells exchanged between stages.
	DateFormat = "2006-01-02"
	//DateTimeFormat is the layout of intraday timestamps.
	DateTimeFormat = "2006-01-02 15:04:05"
)

var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05Z07:00",
	DateTimeFormat,
	"2006-01-02T15:04:05",
	DateFormat,
	"2006/01/02",
	"01/02/2006",
}

//Today returns the current local date formatted as DateFormat.
func Today() string {
	return time.Now().Format(DateFormat)
}

//ParseTime parses common feed and csv timestamp layouts. Results are in UTC;
//layouts without a zone are taken as UTC.
func ParseTime(s string) (t time.Time, ok bool) {
	if t, ok = parseTime(s); ok {
		t = t.UTC()
	}
	return
}

func parseTime(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	for _, l := range dateLayouts {
		if v, e := time.Parse(l, s); e == nil {
			return v, true
		}
	}
	return
}

//DatePart reduces a timestamp string to its UTC date, or "" when unparseable.
func DatePart(s string) string {
	t, ok := ParseTime(s)
	if !ok {
		return ""
	}
	return t.Format(DateFormat)
}

//LocalDate reduces a timestamp string to the date in its own offset, or ""
//when unparseable. "2024-05-02 00:00:00+08:00" stays 2024-05-02.
func LocalDate(s string) string {
	t, ok := parseTime(s)
	if !ok {
		return ""
	}
	return t.Format(DateFormat)
}

//TimeStr returns the current local date and time strings.
func TimeStr() (d, t string) {
	now := time.Now()
	d = now.Format(DateFormat)
	t = now.Format("15:04:05")
	return
}
