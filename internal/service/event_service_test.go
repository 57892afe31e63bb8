package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchadmin/internal/recurrence"
)

func TestEventServiceOccurrences(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEventService(env.events)

	monday := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	service, err := svc.CreateEvent(EventInput{
		Title:       "Morning Prayer",
		StartAt:     &monday,
		IsRecurring: true,
		Recurrence:  &recurrence.WeeklyPattern{Through: "2024-03-25"},
	})
	require.NoError(t, err)
	require.NotNil(t, service.Recurrence)
	assert.Equal(t, []int{0}, service.Recurrence.Weekdays)
	assert.Equal(t, recurrence.FrequencyWeekly, service.Recurrence.Frequency)

	friday := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	_, err = svc.CreateEvent(EventInput{Title: "Youth Night", StartAt: &friday})
	require.NoError(t, err)

	excluded, err := svc.ExcludeDate(service.ID, "2024-03-11")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-11"}, excluded.Recurrence.ExcludedDates)

	again, err := svc.ExcludeDate(service.ID, "2024-03-11")
	require.NoError(t, err)
	assert.Len(t, again.Recurrence.ExcludedDates, 1)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	occurrences, err := svc.Occurrences(from, to)
	require.NoError(t, err)

	var got []string
	for _, o := range occurrences {
		got = append(got, o.StartAt.UTC().Format("2006-01-02 15:04"))
	}
	assert.Equal(t, []string{
		"2024-03-04 10:00",
		"2024-03-15 18:30",
		"2024-03-18 10:00",
		"2024-03-25 10:00",
	}, got)

	_, err = svc.Occurrences(to, from)
	assert.Contains(t, fieldErrors(t, err), "to")
}

func TestEventServiceValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEventService(env.events)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	e, err := svc.CreateEvent(EventInput{Title: "Board Meeting"})
	require.NoError(t, err)
	assert.True(t, e.StartAt.Equal(now), "missing start defaults to now")

	before := now.Add(-time.Hour)
	_, err = svc.CreateEvent(EventInput{Title: "Backwards", EndAt: &before})
	assert.Contains(t, fieldErrors(t, err), "end_at")

	_, err = svc.ExcludeDate(e.ID, "2024-05-08")
	assert.Contains(t, fieldErrors(t, err), "date", "one-off events have nothing to skip")

	recurring, err := svc.CreateEvent(EventInput{
		Title:       "Bible Study",
		IsRecurring: true,
		Recurrence:  &recurrence.WeeklyPattern{ExcludedDates: []string{"2024-05-15"}},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateEvent(recurring.ID, EventInput{Title: "Bible Study (Hall B)", IsRecurring: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-15"}, updated.Recurrence.ExcludedDates, "recurrence is kept when none is sent")

	require.NoError(t, svc.DeleteEvent(recurring.ID))
	_, err = svc.GetEvent(recurring.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
