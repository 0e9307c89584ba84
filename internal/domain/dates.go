package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrUnparseableDate is returned when a display date matches none of the accepted layouts.
var ErrUnparseableDate = errors.New("unparseable date")

// displayLayouts are tried in order. Day-first layouts come first because that is what the
// app renders; ISO forms show up in imported emails and provider payloads.
var displayLayouts = []struct {
	layout  string
	hasTime bool
}{
	{"02/01/2006 15:04", true},
	{"2/1/2006 15:04", true},
	{"02/01/2006", false},
	{"2/1/2006", false},
	{time.RFC3339, true},
	{"2006-01-02T15:04", true},
	{"2006-01-02 15:04", true},
	{"2006-01-02", false},
}

// ParseDisplayDate parses "dd/mm/yyyy[ hh:mm]" (and the ISO fallbacks) in loc.
// The boolean reports whether the input carried a time of day.
func ParseDisplayDate(s string, loc *time.Location) (time.Time, bool, error) {
	if loc == nil {
		loc = time.UTC
	}
	v := strings.Join(strings.Fields(s), " ")
	// "10/11/2026 às 14:30" is common in emails.
	v = strings.Replace(v, " às ", " ", 1)
	if v == "" {
		return time.Time{}, false, ErrUnparseableDate
	}
	for _, l := range displayLayouts {
		var (
			t   time.Time
			err error
		)
		if l.layout == time.RFC3339 {
			t, err = time.Parse(l.layout, v)
			if err == nil {
				t = t.In(loc)
			}
		} else {
			t, err = time.ParseInLocation(l.layout, v, loc)
		}
		if err == nil {
			return t, l.hasTime, nil
		}
	}
	return time.Time{}, false, ErrUnparseableDate
}

// CalendarDay truncates t to midnight of its day in loc.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// SameCalendarDay reports whether a and b fall on the same day in loc.
func SameCalendarDay(a, b time.Time, loc *time.Location) bool {
	return CalendarDay(a, loc).Equal(CalendarDay(b, loc))
}
