package domain

import (
	"fmt"
	"strings"
	"time"
)

var unitSeconds = map[string]float64{
	"day": 86400, "days": 86400, "d": 86400,
	"hour": 3600, "hours": 3600, "hr": 3600, "hrs": 3600, "h": 3600,
	"minute": 60, "minutes": 60, "min": 60, "mins": 60,
	"second": 1, "seconds": 1, "sec": 1, "secs": 1, "s": 1,
}

var referenceLayouts = []string{
	"2006-1-2 15:4:5.999999999",
	"2006-1-2 15:4",
	"2006-1-2",
}

// gregorianCutover is the first day of the Gregorian calendar. The
// "standard" calendar is mixed Julian/Gregorian before it, which is not
// supported.
var gregorianCutover = time.Date(1582, time.October, 15, 0, 0, 0, 0, time.UTC)

var (
	daysBeforeMonth     = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}
	daysBeforeMonthLeap = [12]int{0, 31, 60, 91, 121, 152, 182, 213, 244, 274, 305, 335}
)

// EncodeTime converts t into a CF numeric time value for the given units
// attribute (e.g. "days since 1970-01-01 00:00:00") and calendar attribute.
// An empty calendar means "standard".
func EncodeTime(t time.Time, units, calendar string) (float64, error) {
	scale, ref, err := parseTimeUnits(units)
	if err != nil {
		return 0, err
	}
	t = t.UTC()

	var seconds float64
	switch cal := strings.ToLower(strings.TrimSpace(calendar)); cal {
	case "", "standard", "gregorian":
		if t.Before(gregorianCutover) || ref.Before(gregorianCutover) {
			return 0, fmt.Errorf("calendar %q: dates before %s are not supported",
				cal, gregorianCutover.Format(time.DateOnly))
		}
		seconds = elapsedSeconds(ref, t)
	case "proleptic_gregorian":
		seconds = elapsedSeconds(ref, t)
	case "noleap", "365_day":
		seconds, err = fixedYearSeconds(ref, t, 365, daysBeforeMonth)
	case "all_leap", "366_day":
		seconds, err = fixedYearSeconds(ref, t, 366, daysBeforeMonthLeap)
	default:
		return 0, fmt.Errorf("unsupported calendar %q", calendar)
	}
	if err != nil {
		return 0, err
	}
	return seconds / scale, nil
}

func parseTimeUnits(units string) (float64, time.Time, error) {
	unit, since, ok := strings.Cut(strings.TrimSpace(units), " since ")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("invalid time units %q: want \"<unit> since <reference>\"", units)
	}
	scale, ok := unitSeconds[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("invalid time units %q: unknown unit %q", units, unit)
	}
	ref, err := parseReference(since)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("invalid time units %q: %w", units, err)
	}
	return scale, ref, nil
}

func parseReference(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, suffix := range []string{" UTC", " utc", "+00:00", "+0000", "Z"} {
		s = strings.TrimSuffix(s, suffix)
	}
	s = strings.Replace(strings.TrimSpace(s), "T", " ", 1)

	for _, layout := range referenceLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable reference time %q", s)
}

func elapsedSeconds(from, to time.Time) float64 {
	return float64(to.Unix()-from.Unix()) + float64(to.Nanosecond()-from.Nanosecond())/1e9
}

// fixedYearSeconds counts seconds between two instants in a calendar where
// every year has the same length.
func fixedYearSeconds(from, to time.Time, yearDays int, monthStart [12]int) (float64, error) {
	a, err := fixedYearOrdinal(from, yearDays, monthStart)
	if err != nil {
		return 0, err
	}
	b, err := fixedYearOrdinal(to, yearDays, monthStart)
	if err != nil {
		return 0, err
	}
	return b - a, nil
}

func fixedYearOrdinal(t time.Time, yearDays int, monthStart [12]int) (float64, error) {
	if yearDays == 365 && t.Month() == time.February && t.Day() == 29 {
		return 0, fmt.Errorf("%s does not exist in a %d-day calendar", t.Format(time.DateOnly), yearDays)
	}
	days := t.Year()*yearDays + monthStart[t.Month()-1] + t.Day() - 1
	clock := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return float64(days)*86400 + float64(clock) + float64(t.Nanosecond())/1e9, nil
}
