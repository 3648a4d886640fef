// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfdate renders PDF date strings for display.
//
// PDF dates use the layout "D:YYYYMMDDHHmmSSOHH'mm'" where everything after
// the day is optional. Format parses the first fourteen digits positionally;
// a trailing offset is ignored so the wall clock is shown as written. Strings
// without the "D:" prefix fall back to a list of common date-time layouts.
// Anything unparsable is returned unchanged.
package pdfdate

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DefaultPlaceholder is shown for absent dates when no placeholder is set.
const DefaultPlaceholder = "Not specified"

// ErrMalformed is returned by Parse for strings that do not follow the
// "D:" layout.
var ErrMalformed = errors.New("malformed PDF date")

// genericLayouts are tried in order for strings without the "D:" prefix.
var genericLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	time.RubyDate,
}

// Formatter renders raw date strings with a fixed layout. The zero value
// renders with time.DateTime in the local zone.
type Formatter struct {
	// Layout is a Go reference-time layout, usually supplied by the locale.
	Layout string
	// Location is used for dates that carry their own offset.
	Location *time.Location
	// Placeholder is returned for empty input.
	Placeholder string
}

// Format renders raw for display. It never fails: empty input yields the
// placeholder and unparsable input is returned as is.
func (f Formatter) Format(raw string) string {
	if raw == "" {
		return f.placeholder()
	}
	if len(raw) >= 2 && raw[:2] == "D:" {
		t, err := f.parseIn(raw)
		if err != nil {
			return raw
		}
		return t.Format(f.layout())
	}
	for _, layout := range genericLayouts {
		t, err := time.ParseInLocation(layout, raw, f.location())
		if err != nil {
			continue
		}
		return t.In(f.location()).Format(f.layout())
	}
	return raw
}

// Parse reads a "D:" date in the local zone.
func Parse(raw string) (time.Time, error) {
	return Formatter{}.parseIn(raw)
}

func (f Formatter) parseIn(raw string) (time.Time, error) {
	if len(raw) < 2 || raw[:2] != "D:" {
		return time.Time{}, fmt.Errorf("%w: missing D: prefix in %q", ErrMalformed, raw)
	}
	d := raw[2:]

	year, err := field(d, 0, 4, -1)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: year in %q", ErrMalformed, raw)
	}
	month, err := field(d, 4, 2, -1)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month in %q", ErrMalformed, raw)
	}
	day, err := field(d, 6, 2, -1)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day in %q", ErrMalformed, raw)
	}
	hour, err := field(d, 8, 2, 0)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: hour in %q", ErrMalformed, raw)
	}
	minute, err := field(d, 10, 2, 0)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: minute in %q", ErrMalformed, raw)
	}
	second, err := field(d, 12, 2, 0)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: second in %q", ErrMalformed, raw)
	}

	if month < 1 || month > 12 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("%w: out of range value in %q", ErrMalformed, raw)
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, f.location())
	// time.Date normalises Feb 30 into March; reject instead.
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("%w: no such day in %q", ErrMalformed, raw)
	}
	return t, nil
}

// field reads a fixed-width run of digits starting at off. When the string
// ends before off the field is absent and def is returned; a negative def
// marks the field as required. A field cut short mid-way is malformed.
func field(s string, off, width, def int) (int, error) {
	if len(s) <= off {
		if def < 0 {
			return 0, ErrMalformed
		}
		return def, nil
	}
	if len(s) < off+width {
		return 0, ErrMalformed
	}
	part := s[off : off+width]
	for i := 0; i < len(part); i++ {
		if part[i] < '0' || part[i] > '9' {
			return 0, ErrMalformed
		}
	}
	return strconv.Atoi(part)
}

func (f Formatter) layout() string {
	if f.Layout == "" {
		return time.DateTime
	}
	return f.Layout
}

func (f Formatter) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

func (f Formatter) placeholder() string {
	if f.Placeholder == "" {
		return DefaultPlaceholder
	}
	return f.Placeholder
}
