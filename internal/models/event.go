package models

import (
	"time"

	"churchadmin/internal/recurrence"
)

// Event is a church calendar entry, optionally repeating weekly
type Event struct {
	ID          int64                     `json:"id"`
	Title       string                    `json:"title"`
	Description string                    `json:"description,omitempty"`
	StartAt     time.Time                 `json:"start_at"`
	EndAt       *time.Time                `json:"end_at,omitempty"`
	Location    string                    `json:"location,omitempty"`
	IsRecurring bool                      `json:"is_recurring"`
	Recurrence  *recurrence.WeeklyPattern `json:"recurrence,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

// EventOccurrence is one expanded date of an event
type EventOccurrence struct {
	EventID int64     `json:"event_id"`
	Title   string    `json:"title"`
	StartAt time.Time `json:"start_at"`
}
