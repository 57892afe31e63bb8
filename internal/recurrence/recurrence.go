// Package recurrence builds and expands weekly event recurrence patterns.
package recurrence

import (
	"slices"
	"time"
)

const (
	// DateLayout is the date-only format used for Through and ExcludedDates
	DateLayout = "2006-01-02"

	// FrequencyWeekly is the only supported frequency
	FrequencyWeekly = "weekly"

	// maxSpanDays bounds how far past the start date a series may run
	maxSpanDays = 366
)

// WeeklyPattern describes a weekly series. Weekdays use a Monday-first index (0=Mon ... 6=Sun).
type WeeklyPattern struct {
	Frequency     string   `json:"frequency"`
	Weekdays      []int    `json:"weekdays"`
	Through       string   `json:"through"`
	ExcludedDates []string `json:"excluded_dates"`
}

// MondayFirstWeekday converts t's weekday to a Monday-first index
func MondayFirstWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 6
	}
	return wd - 1
}

// BuildWeeklyPattern derives the normalized weekly pattern for an event starting at start.
// An existing pattern's Through is pulled back into the allowed window instead of being rejected,
// and its ExcludedDates are carried over unchanged. A zero start means now.
func BuildWeeklyPattern(start time.Time, existing *WeeklyPattern) WeeklyPattern {
	if start.IsZero() {
		start = time.Now()
	}

	startDate := dateOf(start)
	lower, upper := ThroughBounds(startDate)

	through := upper
	excluded := []string{}
	if existing != nil {
		if parsed, err := time.ParseInLocation(DateLayout, existing.Through, startDate.Location()); err == nil {
			through = parsed
		}
		if existing.ExcludedDates != nil {
			excluded = slices.Clone(existing.ExcludedDates)
		}
	}

	if through.Before(lower) {
		through = lower
	}
	if through.After(upper) {
		through = upper
	}

	return WeeklyPattern{
		Frequency:     FrequencyWeekly,
		Weekdays:      []int{MondayFirstWeekday(startDate)},
		Through:       through.Format(DateLayout),
		ExcludedDates: excluded,
	}
}

// ThroughBounds returns the inclusive window a series ending date must fall into:
// from the start date to the earlier of December 31 of that year and 366 days later.
func ThroughBounds(startDate time.Time) (time.Time, time.Time) {
	startDate = dateOf(startDate)
	yearEnd := time.Date(startDate.Year(), time.December, 31, 0, 0, 0, 0, startDate.Location())
	limit := startDate.AddDate(0, 0, maxSpanDays)
	if limit.Before(yearEnd) {
		return startDate, limit
	}
	return startDate, yearEnd
}

// Occurrences expands the pattern into concrete start times, keeping start's time of day
// and skipping excluded dates.
func Occurrences(p WeeklyPattern, start time.Time) []time.Time {
	through, err := time.ParseInLocation(DateLayout, p.Through, start.Location())
	if err != nil {
		return nil
	}

	excluded := make(map[string]bool, len(p.ExcludedDates))
	for _, d := range p.ExcludedDates {
		excluded[d] = true
	}

	var occurrences []time.Time
	for day := dateOf(start); !day.After(through); day = day.AddDate(0, 0, 1) {
		if !slices.Contains(p.Weekdays, MondayFirstWeekday(day)) {
			continue
		}
		if excluded[day.Format(DateLayout)] {
			continue
		}
		occurrences = append(occurrences, time.Date(day.Year(), day.Month(), day.Day(),
			start.Hour(), start.Minute(), start.Second(), 0, start.Location()))
	}
	return occurrences
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
