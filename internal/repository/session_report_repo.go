package repository

import (
	"database/sql"
	"fmt"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
)

const sessionReportSelect = `
	SELECT sr.id, sr.lesson_id, l.lesson_order, l.title, l.version_label,
		sr.student_id, s.first_name, s.last_name,
		sr.teacher_id, t.first_name, t.last_name,
		sr.session_date, sr.session_start, sr.score, sr.next_session_date, sr.remarks, sr.progress_id,
		sr.created_at, sr.updated_at
	FROM session_reports sr
	INNER JOIN lessons l ON l.id = sr.lesson_id
	INNER JOIN persons s ON s.id = sr.student_id
	INNER JOIN persons t ON t.id = sr.teacher_id
`

// SessionReportFilter narrows a report listing. Dates are inclusive YYYY-MM-DD bounds.
type SessionReportFilter struct {
	TeacherID *int64
	StudentID *int64
	LessonID  *int64
	Start     string
	End       string
}

// SessionReportRepository handles teaching session reports
type SessionReportRepository struct {
	db *database.DB
}

// NewSessionReportRepository creates a new session report repository
func NewSessionReportRepository(db *database.DB) *SessionReportRepository {
	return &SessionReportRepository{db: db}
}

func scanSessionReport(row rowScanner) (*models.SessionReport, error) {
	var sr models.SessionReport
	var studentFirst, studentLast, teacherFirst, teacherLast string
	var score, progressID sql.NullInt64
	err := row.Scan(
		&sr.ID, &sr.Lesson.ID, &sr.Lesson.Order, &sr.Lesson.Title, &sr.Lesson.VersionLabel,
		&sr.Student.ID, &studentFirst, &studentLast,
		&sr.Teacher.ID, &teacherFirst, &teacherLast,
		&sr.SessionDate, &sr.SessionStart, &score, &sr.NextSessionDate, &sr.Remarks, &progressID,
		&sr.CreatedAt, &sr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sr.Student.Name = models.Person{FirstName: studentFirst, LastName: studentLast}.FullName()
	sr.Teacher.Name = models.Person{FirstName: teacherFirst, LastName: teacherLast}.FullName()
	sr.Score = intPtr(score)
	sr.ProgressID = idPtr(progressID)
	return &sr, nil
}

// Create inserts a report and returns it with names resolved
func (r *SessionReportRepository) Create(sr *models.SessionReport) (*models.SessionReport, error) {
	query := `
		INSERT INTO session_reports (lesson_id, student_id, teacher_id, session_date, session_start, score, next_session_date, remarks, progress_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		sr.Lesson.ID, sr.Student.ID, sr.Teacher.ID, sr.SessionDate, sr.SessionStart,
		nullableInt(sr.Score), sr.NextSessionDate, sr.Remarks, nullableID(sr.ProgressID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session report: %w", err)
	}
	return r.GetByID(id)
}

// GetByID retrieves a report by ID
func (r *SessionReportRepository) GetByID(id int64) (*models.SessionReport, error) {
	sr, err := scanSessionReport(r.db.QueryRow(sessionReportSelect+" WHERE sr.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session report: %w", err)
	}
	return sr, nil
}

// List returns reports matching the filter, newest session first
func (r *SessionReportRepository) List(f SessionReportFilter) ([]models.SessionReport, error) {
	var conds []string
	var args []interface{}

	if f.TeacherID != nil {
		conds = append(conds, "sr.teacher_id = ?")
		args = append(args, *f.TeacherID)
	}
	if f.StudentID != nil {
		conds = append(conds, "sr.student_id = ?")
		args = append(args, *f.StudentID)
	}
	if f.LessonID != nil {
		conds = append(conds, "sr.lesson_id = ?")
		args = append(args, *f.LessonID)
	}
	if f.Start != "" {
		conds = append(conds, "sr.session_date >= ?")
		args = append(args, f.Start)
	}
	if f.End != "" {
		conds = append(conds, "sr.session_date <= ?")
		args = append(args, f.End)
	}

	query := sessionReportSelect + whereClause(conds) + " ORDER BY sr.session_date DESC, sr.session_start DESC, sr.id DESC"
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query session reports: %w", err)
	}
	defer rows.Close()

	reports := []models.SessionReport{}
	for rows.Next() {
		sr, err := scanSessionReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session report: %w", err)
		}
		reports = append(reports, *sr)
	}
	return reports, rows.Err()
}

// Update writes every editable field of a report
func (r *SessionReportRepository) Update(sr *models.SessionReport) (*models.SessionReport, error) {
	query := `
		UPDATE session_reports
		SET lesson_id = ?, student_id = ?, teacher_id = ?, session_date = ?, session_start = ?, score = ?,
			next_session_date = ?, remarks = ?, progress_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		sr.Lesson.ID, sr.Student.ID, sr.Teacher.ID, sr.SessionDate, sr.SessionStart, nullableInt(sr.Score),
		sr.NextSessionDate, sr.Remarks, nullableID(sr.ProgressID), sr.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update session report: %w", err)
	}
	return r.GetByID(sr.ID)
}

// Delete removes a report
func (r *SessionReportRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM session_reports WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session report: %w", err)
	}
	return nil
}
