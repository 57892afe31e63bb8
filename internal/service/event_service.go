package service

import (
	"slices"
	"sort"
	"strings"
	"time"

	"churchadmin/internal/models"
	"churchadmin/internal/recurrence"
	"churchadmin/internal/repository"
	"churchadmin/internal/validation"
)

// EventInput is the writable part of an event. A missing start means now.
// Recurrence may carry a requested end date and excluded dates; the weekday
// always follows the start.
type EventInput struct {
	Title       string                    `json:"title" validate:"required,max=200"`
	Description string                    `json:"description"`
	StartAt     *time.Time                `json:"start_at"`
	EndAt       *time.Time                `json:"end_at"`
	Location    string                    `json:"location" validate:"max=255"`
	IsRecurring bool                      `json:"is_recurring"`
	Recurrence  *recurrence.WeeklyPattern `json:"recurrence"`
}

// EventService handles the church calendar
type EventService struct {
	repo *repository.EventRepository
	now  func() time.Time
}

// NewEventService creates a new event service
func NewEventService(repo *repository.EventRepository) *EventService {
	return &EventService{repo: repo, now: time.Now}
}

// CreateEvent stores an event, normalizing its recurrence
func (s *EventService) CreateEvent(in EventInput) (*models.Event, error) {
	e, err := s.eventFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetEvent retrieves an event by ID
func (s *EventService) GetEvent(id int64) (*models.Event, error) {
	e, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEventNotFound
	}
	return e, nil
}

// ListEvents returns every event
func (s *EventService) ListEvents() ([]models.Event, error) {
	return s.repo.List(nil)
}

// UpdateEvent replaces every editable field of an event. The recurrence is
// rebuilt from the new start, keeping the previous excluded dates when the
// request does not send any.
func (s *EventService) UpdateEvent(id int64, in EventInput) (*models.Event, error) {
	existing, err := s.GetEvent(id)
	if err != nil {
		return nil, err
	}
	if in.IsRecurring && in.Recurrence == nil {
		in.Recurrence = existing.Recurrence
	}

	e, err := s.eventFromInput(in)
	if err != nil {
		return nil, err
	}
	e.ID = existing.ID
	e.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEvent removes an event
func (s *EventService) DeleteEvent(id int64) error {
	if _, err := s.GetEvent(id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

// ExcludeDate skips one date of a recurring event
func (s *EventService) ExcludeDate(id int64, date string) (*models.Event, error) {
	if !validation.IsDate(date) {
		return nil, validation.Single("date", "Enter a valid date (YYYY-MM-DD).")
	}
	e, err := s.GetEvent(id)
	if err != nil {
		return nil, err
	}
	if !e.IsRecurring || e.Recurrence == nil {
		return nil, validation.Single("date", "Only recurring events have dates to skip.")
	}

	if !slices.Contains(e.Recurrence.ExcludedDates, date) {
		pattern := *e.Recurrence
		pattern.ExcludedDates = append(slices.Clone(pattern.ExcludedDates), date)
		sort.Strings(pattern.ExcludedDates)
		e.Recurrence = &pattern
		if err := s.repo.Update(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Occurrences expands events into concrete dates within [from, to), ordered by start
func (s *EventService) Occurrences(from, to time.Time) ([]models.EventOccurrence, error) {
	if !to.After(from) {
		return nil, validation.Single("to", "The end of the window must be after its start.")
	}
	events, err := s.repo.List(&to)
	if err != nil {
		return nil, err
	}

	occurrences := []models.EventOccurrence{}
	for _, e := range events {
		starts := []time.Time{e.StartAt}
		if e.IsRecurring && e.Recurrence != nil {
			starts = recurrence.Occurrences(*e.Recurrence, e.StartAt)
		}
		for _, start := range starts {
			if start.Before(from) || !start.Before(to) {
				continue
			}
			occurrences = append(occurrences, models.EventOccurrence{EventID: e.ID, Title: e.Title, StartAt: start})
		}
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].StartAt.Before(occurrences[j].StartAt)
	})
	return occurrences, nil
}

func (s *EventService) eventFromInput(in EventInput) (*models.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	start := s.now()
	if in.StartAt != nil && !in.StartAt.IsZero() {
		start = *in.StartAt
	}
	if in.EndAt != nil && in.EndAt.Before(start) {
		return nil, validation.Single("end_at", "End time cannot be before the start time.")
	}
	if in.Recurrence != nil {
		for _, d := range in.Recurrence.ExcludedDates {
			if !validation.IsDate(d) {
				return nil, validation.Single("recurrence", "Excluded dates must be valid dates (YYYY-MM-DD).")
			}
		}
	}

	e := &models.Event{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		StartAt:     start,
		EndAt:       in.EndAt,
		Location:    strings.TrimSpace(in.Location),
		IsRecurring: in.IsRecurring,
	}
	if in.IsRecurring {
		pattern := recurrence.BuildWeeklyPattern(start, in.Recurrence)
		e.Recurrence = &pattern
	}
	return e, nil
}
