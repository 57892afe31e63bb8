package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, layout, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation(layout, value, time.UTC)
	require.NoError(t, err)
	return parsed
}

func TestMondayFirstWeekday(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2024-06-10", 0}, // Monday
		{"2024-06-12", 2}, // Wednesday
		{"2024-06-15", 5}, // Saturday
		{"2024-06-16", 6}, // Sunday
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, MondayFirstWeekday(mustParse(t, DateLayout, tt.date)))
		})
	}
}

func TestBuildWeeklyPatternWithoutExisting(t *testing.T) {
	start := mustParse(t, "2006-01-02T15:04", "2024-06-10T09:00")

	p := BuildWeeklyPattern(start, nil)

	assert.Equal(t, FrequencyWeekly, p.Frequency)
	assert.Equal(t, []int{0}, p.Weekdays)
	assert.Equal(t, "2024-12-31", p.Through)
	assert.Empty(t, p.ExcludedDates)
	assert.NotNil(t, p.ExcludedDates)
}

func TestBuildWeeklyPatternClampsExistingThrough(t *testing.T) {
	start := mustParse(t, "2006-01-02T15:04", "2024-06-12T18:30")

	tests := []struct {
		name    string
		through string
		want    string
	}{
		{name: "inside window kept", through: "2024-09-01", want: "2024-09-01"},
		{name: "before start pulled forward", through: "2024-01-15", want: "2024-06-12"},
		{name: "past year end pulled back", through: "2025-03-01", want: "2024-12-31"},
		{name: "malformed falls back to upper bound", through: "soon", want: "2024-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := &WeeklyPattern{
				Frequency:     FrequencyWeekly,
				Weekdays:      []int{4},
				Through:       tt.through,
				ExcludedDates: []string{"2024-07-03"},
			}
			p := BuildWeeklyPattern(start, existing)
			assert.Equal(t, tt.want, p.Through)
			assert.Equal(t, []int{2}, p.Weekdays)
			assert.Equal(t, []string{"2024-07-03"}, p.ExcludedDates)
		})
	}
}

func TestBuildWeeklyPatternThroughNeverOutsideBounds(t *testing.T) {
	start := mustParse(t, DateLayout, "2023-01-01")
	for i := 0; i < 730; i += 7 {
		day := start.AddDate(0, 0, i)
		for _, through := range []string{"2000-01-01", "2099-12-31", day.AddDate(0, 0, 400).Format(DateLayout)} {
			p := BuildWeeklyPattern(day, &WeeklyPattern{Through: through})
			got := mustParse(t, DateLayout, p.Through)

			assert.False(t, got.Before(day), "through %s before start %s", p.Through, day.Format(DateLayout))
			assert.LessOrEqual(t, got.Sub(day), 366*24*time.Hour)
			assert.Equal(t, day.Year(), got.Year())
			assert.Equal(t, MondayFirstWeekday(day), p.Weekdays[0])
		}
	}
}

func TestBuildWeeklyPatternZeroStartUsesNow(t *testing.T) {
	p := BuildWeeklyPattern(time.Time{}, nil)
	assert.Equal(t, MondayFirstWeekday(time.Now()), p.Weekdays[0])
}

func TestOccurrencesSkipsExcludedDates(t *testing.T) {
	start := mustParse(t, "2006-01-02T15:04", "2024-12-02T10:00")
	p := WeeklyPattern{
		Frequency:     FrequencyWeekly,
		Weekdays:      []int{0},
		Through:       "2024-12-31",
		ExcludedDates: []string{"2024-12-16"},
	}

	got := Occurrences(p, start)

	require.Len(t, got, 4)
	assert.Equal(t, "2024-12-02", got[0].Format(DateLayout))
	assert.Equal(t, "2024-12-09", got[1].Format(DateLayout))
	assert.Equal(t, "2024-12-23", got[2].Format(DateLayout))
	assert.Equal(t, "2024-12-30", got[3].Format(DateLayout))
	assert.Equal(t, 10, got[3].Hour())
}
