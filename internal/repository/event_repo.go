package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
	"churchadmin/internal/recurrence"
)

const eventColumns = `id, title, description, start_at, end_at, location, is_recurring, recurrence, created_at, updated_at`

// EventRepository handles calendar events
type EventRepository struct {
	db *database.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func encodeRecurrence(p *recurrence.WeeklyPattern) (interface{}, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recurrence: %w", err)
	}
	return string(data), nil
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var e models.Event
	var endAt sql.NullTime
	var pattern sql.NullString
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.StartAt, &endAt, &e.Location, &e.IsRecurring, &pattern, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.EndAt = timePtr(endAt)
	if pattern.Valid && pattern.String != "" {
		var p recurrence.WeeklyPattern
		if err := json.Unmarshal([]byte(pattern.String), &p); err != nil {
			return nil, fmt.Errorf("failed to decode recurrence for event %d: %w", e.ID, err)
		}
		e.Recurrence = &p
	}
	return &e, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// Create inserts an event
func (r *EventRepository) Create(e *models.Event) error {
	pattern, err := encodeRecurrence(e.Recurrence)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO events (title, description, start_at, end_at, location, is_recurring, recurrence)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, e.Title, e.Description, e.StartAt, nullableTime(e.EndAt), e.Location, e.IsRecurring, pattern)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	now := time.Now()
	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(id int64) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRow("SELECT "+eventColumns+" FROM events WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

// List returns events that start before until; recurring events are
// always included since their occurrences may fall in any window.
func (r *EventRepository) List(until *time.Time) ([]models.Event, error) {
	query := "SELECT " + eventColumns + " FROM events"
	var args []interface{}
	if until != nil {
		query += " WHERE start_at < ? OR is_recurring = ?"
		args = append(args, *until, true)
	}
	query += " ORDER BY start_at, id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// Update writes every editable field of an event
func (r *EventRepository) Update(e *models.Event) error {
	pattern, err := encodeRecurrence(e.Recurrence)
	if err != nil {
		return err
	}
	query := `
		UPDATE events
		SET title = ?, description = ?, start_at = ?, end_at = ?, location = ?, is_recurring = ?, recurrence = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err = r.db.Exec(query, e.Title, e.Description, e.StartAt, nullableTime(e.EndAt), e.Location, e.IsRecurring, pattern, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	e.UpdatedAt = time.Now()
	return nil
}

// Delete removes an event
func (r *EventRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM events WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}
