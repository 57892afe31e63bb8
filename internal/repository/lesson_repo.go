package repository

import (
	"database/sql"
	"fmt"
	"time"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
)

const lessonColumns = `id, lesson_order, title, version_label, content, is_latest, is_active, created_at, updated_at`

// LessonRepository handles the lesson catalog
type LessonRepository struct {
	db *database.DB
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *database.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

func scanLesson(row rowScanner) (*models.Lesson, error) {
	var l models.Lesson
	if err := row.Scan(&l.ID, &l.Order, &l.Title, &l.VersionLabel, &l.Content, &l.IsLatest, &l.IsActive, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func insertLesson(q database.DBTX, l *models.Lesson) error {
	query := `
		INSERT INTO lessons (lesson_order, title, version_label, content, is_latest, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(query, l.Order, l.Title, l.VersionLabel, l.Content, l.IsLatest, l.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	now := time.Now()
	l.ID = id
	l.CreatedAt = now
	l.UpdatedAt = now
	return nil
}

// Create inserts a lesson
func (r *LessonRepository) Create(l *models.Lesson) error {
	return insertLesson(r.db, l)
}

// GetByID retrieves a lesson by ID
func (r *LessonRepository) GetByID(id int64) (*models.Lesson, error) {
	l, err := scanLesson(r.db.QueryRow("SELECT "+lessonColumns+" FROM lessons WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return l, nil
}

// List returns lessons ordered by curriculum order then newest version.
// With currentOnly set it returns only latest, active lessons.
func (r *LessonRepository) List(currentOnly bool) ([]models.Lesson, error) {
	query := "SELECT " + lessonColumns + " FROM lessons"
	var args []interface{}
	if currentOnly {
		query += " WHERE is_latest = ? AND is_active = ?"
		args = append(args, true, true)
	}
	query += " ORDER BY lesson_order, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	lessons := []models.Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

// Update writes a lesson's editable fields; order and version are fixed
func (r *LessonRepository) Update(l *models.Lesson) error {
	query := `
		UPDATE lessons
		SET title = ?, content = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, l.Title, l.Content, l.IsActive, l.ID); err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}
	l.UpdatedAt = time.Now()
	return nil
}

// Supersede inserts next as the new latest version of the lesson with oldID
// and clears is_latest on the old record, in one transaction. It returns
// sql.ErrNoRows when oldID is missing or no longer the latest version.
func (r *LessonRepository) Supersede(oldID int64, next *models.Lesson) error {
	return r.db.InTx(func(tx *database.Tx) error {
		result, err := tx.Exec(
			"UPDATE lessons SET is_latest = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND is_latest = ?",
			false, oldID, true,
		)
		if err != nil {
			return fmt.Errorf("failed to retire lesson: %w", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to read retire result: %w", err)
		} else if n == 0 {
			return sql.ErrNoRows
		}

		next.IsLatest = true
		return insertLesson(tx, next)
	})
}
