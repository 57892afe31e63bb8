package models

import "time"

// ProgressStatus is the state of one person's work on one lesson
type ProgressStatus string

const (
	StatusAssigned   ProgressStatus = "ASSIGNED"
	StatusInProgress ProgressStatus = "IN_PROGRESS"
	StatusCompleted  ProgressStatus = "COMPLETED"
	StatusSkipped    ProgressStatus = "SKIPPED"
)

// Valid reports whether s is a known status
func (s ProgressStatus) Valid() bool {
	switch s {
	case StatusAssigned, StatusInProgress, StatusCompleted, StatusSkipped:
		return true
	}
	return false
}

// Lesson is one entry of the New Converts curriculum catalog.
// Superseding a lesson inserts a new record and clears IsLatest on the old one.
type Lesson struct {
	ID           int64     `json:"id"`
	Order        int       `json:"order"`
	Title        string    `json:"title"`
	VersionLabel string    `json:"version_label"`
	Content      string    `json:"content,omitempty"`
	ContentHTML  string    `json:"content_html,omitempty"`
	IsLatest     bool      `json:"is_latest"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsCurrent reports whether the lesson belongs to the current curriculum
func (l Lesson) IsCurrent() bool {
	return l.IsLatest && l.IsActive
}

// Ref returns the lightweight reference embedded in progress records
func (l Lesson) Ref() LessonRef {
	return LessonRef{ID: l.ID, Order: l.Order, Title: l.Title, VersionLabel: l.VersionLabel}
}

// LessonRef identifies a lesson inside another record
type LessonRef struct {
	ID           int64  `json:"id"`
	Order        int    `json:"order"`
	Title        string `json:"title"`
	VersionLabel string `json:"version_label,omitempty"`
}

// LessonProgress tracks one person's status through one lesson
type LessonProgress struct {
	ID               int64          `json:"id"`
	Person           PersonRef      `json:"person"`
	Lesson           LessonRef      `json:"lesson"`
	Status           ProgressStatus `json:"status"`
	CommitmentSigned bool           `json:"commitment_signed"`
	Notes            string         `json:"notes,omitempty"`
	AssignedBy       *int64         `json:"assigned_by,omitempty"`
	AssignedAt       time.Time      `json:"assigned_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// PersonSummary is derived from progress records and the lesson catalog; never persisted
type PersonSummary struct {
	Person             PersonRef        `json:"person"`
	TotalLessons       int              `json:"total_lessons"`
	CompletedCount     int              `json:"completed_count"`
	ProgressPercentage int              `json:"progress_percentage"`
	CurrentLesson      *Lesson          `json:"current_lesson,omitempty"`
	NextLesson         *Lesson          `json:"next_lesson,omitempty"`
	AllProgress        []LessonProgress `json:"all_progress"`
}

// SessionReport records one teaching session between a teacher and a student
type SessionReport struct {
	ID              int64     `json:"id"`
	Lesson          LessonRef `json:"lesson"`
	Student         PersonRef `json:"student"`
	Teacher         PersonRef `json:"teacher"`
	SessionDate     string    `json:"session_date"`            // YYYY-MM-DD
	SessionStart    string    `json:"session_start,omitempty"` // HH:MM
	Score           *int      `json:"score,omitempty"`
	NextSessionDate string    `json:"next_session_date,omitempty"`
	Remarks         string    `json:"remarks,omitempty"`
	ProgressID      *int64    `json:"progress_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
