package repository

import (
	"database/sql"
	"fmt"
	"time"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
)

const progressSelect = `
	SELECT lp.id, lp.person_id, p.first_name, p.last_name,
		lp.lesson_id, l.lesson_order, l.title, l.version_label,
		lp.status, lp.commitment_signed, lp.notes, lp.assigned_by, lp.assigned_at, lp.completed_at, lp.updated_at
	FROM lesson_progress lp
	INNER JOIN persons p ON p.id = lp.person_id
	INNER JOIN lessons l ON l.id = lp.lesson_id
`

// ProgressRepository handles lesson progress records
type ProgressRepository struct {
	db *database.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *database.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func scanProgress(row rowScanner) (*models.LessonProgress, error) {
	var lp models.LessonProgress
	var first, last, status string
	var assignedBy sql.NullInt64
	var completedAt sql.NullTime
	err := row.Scan(
		&lp.ID, &lp.Person.ID, &first, &last,
		&lp.Lesson.ID, &lp.Lesson.Order, &lp.Lesson.Title, &lp.Lesson.VersionLabel,
		&status, &lp.CommitmentSigned, &lp.Notes, &assignedBy, &lp.AssignedAt, &completedAt, &lp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lp.Person.Name = models.Person{FirstName: first, LastName: last}.FullName()
	lp.Status = models.ProgressStatus(status)
	lp.AssignedBy = idPtr(assignedBy)
	lp.CompletedAt = timePtr(completedAt)
	return &lp, nil
}

func (r *ProgressRepository) list(where string, args ...interface{}) ([]models.LessonProgress, error) {
	rows, err := r.db.Query(progressSelect+where+" ORDER BY lp.id", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	records := []models.LessonProgress{}
	for rows.Next() {
		lp, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		records = append(records, *lp)
	}
	return records, rows.Err()
}

// Create assigns a lesson to a person. A second assignment of the same
// lesson to the same person returns ErrDuplicate.
func (r *ProgressRepository) Create(personID, lessonID int64, assignedBy *int64) (*models.LessonProgress, error) {
	query := `
		INSERT INTO lesson_progress (person_id, lesson_id, status, assigned_by)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, personID, lessonID, string(models.StatusAssigned), nullableID(assignedBy))
	if r.db.IsUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}
	return r.GetByID(id)
}

// GetByID retrieves a progress record by ID
func (r *ProgressRepository) GetByID(id int64) (*models.LessonProgress, error) {
	lp, err := scanProgress(r.db.QueryRow(progressSelect+" WHERE lp.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return lp, nil
}

// ListAll returns every progress record in assignment order
func (r *ProgressRepository) ListAll() ([]models.LessonProgress, error) {
	return r.list("")
}

// ListByPerson returns one person's progress records
func (r *ProgressRepository) ListByPerson(personID int64) ([]models.LessonProgress, error) {
	return r.list(" WHERE lp.person_id = ?", personID)
}

// ListByLesson returns every person's progress on one lesson
func (r *ProgressRepository) ListByLesson(lessonID int64) ([]models.LessonProgress, error) {
	return r.list(" WHERE lp.lesson_id = ?", lessonID)
}

func (r *ProgressRepository) update(id int64, set string, args ...interface{}) (*models.LessonProgress, error) {
	query := "UPDATE lesson_progress SET " + set + ", updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	result, err := r.db.Exec(query, append(args, id)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return r.GetByID(id)
}

// UpdateStatus sets the status. Leaving COMPLETED clears completed_at.
func (r *ProgressRepository) UpdateStatus(id int64, status models.ProgressStatus) (*models.LessonProgress, error) {
	if status == models.StatusCompleted {
		return r.update(id, "status = ?, completed_at = COALESCE(completed_at, ?)", string(status), time.Now())
	}
	return r.update(id, "status = ?, completed_at = NULL", string(status))
}

// Complete marks the record COMPLETED, stamping completed_at and recording an optional note
func (r *ProgressRepository) Complete(id int64, note string, at time.Time) (*models.LessonProgress, error) {
	if note == "" {
		return r.update(id, "status = ?, completed_at = ?", string(models.StatusCompleted), at)
	}
	return r.update(id, "status = ?, completed_at = ?, notes = ?", string(models.StatusCompleted), at, note)
}

// SetCommitment records whether the commitment form was signed
func (r *ProgressRepository) SetCommitment(id int64, signed bool) (*models.LessonProgress, error) {
	return r.update(id, "commitment_signed = ?", signed)
}

// UpdateNotes replaces the record's notes
func (r *ProgressRepository) UpdateNotes(id int64, notes string) (*models.LessonProgress, error) {
	return r.update(id, "notes = ?", notes)
}
