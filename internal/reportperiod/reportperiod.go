// Package reportperiod resolves named report periods into concrete date ranges.
package reportperiod

import (
	"fmt"
	"time"
)

// DateLayout is the date-only format used in query parameters
const DateLayout = "2006-01-02"

// Period is a named report window
type Period string

const (
	ThisWeek      Period = "thisWeek"
	ThisMonth     Period = "thisMonth"
	ThisYear      Period = "thisYear"
	Last7Days     Period = "last7Days"
	Last30Days    Period = "last30Days"
	LastQuarter   Period = "lastQuarter"
	Last6Months   Period = "last6Months"
	PreviousMonth Period = "previousMonth"
	PreviousYear  Period = "previousYear"
	CustomRange   Period = "customRange"
)

var labels = map[Period]string{
	ThisWeek:      "This Week",
	ThisMonth:     "This Month",
	ThisYear:      "This Year",
	Last7Days:     "Last 7 Days",
	Last30Days:    "Last 30 Days",
	LastQuarter:   "Last Quarter",
	Last6Months:   "Last 6 Months",
	PreviousMonth: "Previous Month",
	PreviousYear:  "Previous Year",
	CustomRange:   "Custom Range",
}

// Valid reports whether p is a known period token
func (p Period) Valid() bool {
	_, ok := labels[p]
	return ok
}

// Parse converts a query value to a Period, defaulting to ThisMonth
func Parse(value string) Period {
	p := Period(value)
	if !p.Valid() {
		return ThisMonth
	}
	return p
}

// DateRange is an inclusive pair of YYYY-MM-DD dates
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether the YYYY-MM-DD date falls inside the range
func (r DateRange) Contains(date string) bool {
	if len(date) > len(DateLayout) {
		date = date[:len(DateLayout)]
	}
	return date >= r.Start && date <= r.End
}

// Days returns the number of calendar days covered, inclusive
func (r DateRange) Days() int {
	start, err1 := time.Parse(DateLayout, r.Start)
	end, err2 := time.Parse(DateLayout, r.End)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Resolve computes the date range for a period relative to now.
// customStart and customEnd are only read for CustomRange; when either is missing or
// malformed the ThisMonth window is returned.
func Resolve(period Period, customStart, customEnd string, now time.Time) DateRange {
	start, end := resolve(period, customStart, customEnd, now)
	return DateRange{Start: start.Format(DateLayout), End: end.Format(DateLayout)}
}

// Label returns a human-readable description of the resolved period
func Label(period Period, customStart, customEnd string, now time.Time) string {
	if period == CustomRange {
		start, end, ok := parseCustom(customStart, customEnd, now.Location())
		if !ok {
			return labels[ThisMonth]
		}
		return fmt.Sprintf("%s - %s", start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
	}
	if label, ok := labels[period]; ok {
		return label
	}
	return labels[ThisMonth]
}

func resolve(period Period, customStart, customEnd string, now time.Time) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case ThisWeek:
		offset := (int(today.Weekday()) + 6) % 7
		monday := today.AddDate(0, 0, -offset)
		return monday, monday.AddDate(0, 0, 6)
	case ThisYear:
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()),
			time.Date(today.Year(), time.December, 31, 0, 0, 0, 0, today.Location())
	case Last7Days:
		return trailing(today, 7)
	case Last30Days:
		return trailing(today, 30)
	case LastQuarter:
		return trailing(today, 90)
	case Last6Months:
		return trailing(today, 180)
	case PreviousMonth:
		first := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, today.Location())
		return first, first.AddDate(0, 1, -1)
	case PreviousYear:
		return time.Date(today.Year()-1, time.January, 1, 0, 0, 0, 0, today.Location()),
			time.Date(today.Year()-1, time.December, 31, 0, 0, 0, 0, today.Location())
	case CustomRange:
		if start, end, ok := parseCustom(customStart, customEnd, today.Location()); ok {
			return start, end
		}
	}

	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	return first, first.AddDate(0, 1, -1)
}

// trailing returns the n-day window ending today, both ends inclusive
func trailing(today time.Time, days int) (time.Time, time.Time) {
	return today.AddDate(0, 0, -(days - 1)), today
}

func parseCustom(customStart, customEnd string, loc *time.Location) (time.Time, time.Time, bool) {
	if customStart == "" || customEnd == "" {
		return time.Time{}, time.Time{}, false
	}
	start, err := time.ParseInLocation(DateLayout, customStart, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := time.ParseInLocation(DateLayout, customEnd, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		start, end = end, start
	}
	return start, end, true
}
