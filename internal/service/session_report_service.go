package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"churchadmin/internal/csvexport"
	"churchadmin/internal/models"
	"churchadmin/internal/reportperiod"
	"churchadmin/internal/repository"
	"churchadmin/internal/validation"
)

// SessionReportInput is the writable part of a session report
type SessionReportInput struct {
	LessonID        int64  `json:"lesson_id" validate:"required"`
	StudentID       int64  `json:"student_id" validate:"required"`
	TeacherID       int64  `json:"teacher_id" validate:"required"`
	SessionDate     string `json:"session_date" validate:"required,date"`
	SessionStart    string `json:"session_start" validate:"omitempty,hhmm"`
	Score           *int   `json:"score" validate:"omitempty,gte=0,lte=100"`
	NextSessionDate string `json:"next_session_date" validate:"omitempty,date"`
	Remarks         string `json:"remarks"`
	ProgressID      *int64 `json:"progress_id"`
}

// ReportQuery selects session reports. A Period token takes precedence over
// explicit Start and End dates.
type ReportQuery struct {
	TeacherID *int64
	StudentID *int64
	LessonID  *int64
	Period    string
	Start     string
	End       string
}

// SessionReportService handles teaching session reports
type SessionReportService struct {
	reportRepo   *repository.SessionReportRepository
	lessonRepo   *repository.LessonRepository
	personRepo   *repository.PersonRepository
	progressRepo *repository.ProgressRepository
	now          func() time.Time
}

// NewSessionReportService creates a new session report service
func NewSessionReportService(
	reportRepo *repository.SessionReportRepository,
	lessonRepo *repository.LessonRepository,
	personRepo *repository.PersonRepository,
	progressRepo *repository.ProgressRepository,
) *SessionReportService {
	return &SessionReportService{
		reportRepo:   reportRepo,
		lessonRepo:   lessonRepo,
		personRepo:   personRepo,
		progressRepo: progressRepo,
		now:          time.Now,
	}
}

// CreateReport stores a session report. When no progress record is given the
// student's record for the lesson is linked, if one exists.
func (s *SessionReportService) CreateReport(in SessionReportInput) (*models.SessionReport, error) {
	sr, err := s.reportFromInput(in)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.Create(sr)
}

// GetReport retrieves a report by ID
func (s *SessionReportService) GetReport(id int64) (*models.SessionReport, error) {
	sr, err := s.reportRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if sr == nil {
		return nil, ErrSessionReportNotFound
	}
	return sr, nil
}

// UpdateReport replaces every editable field of a report
func (s *SessionReportService) UpdateReport(id int64, in SessionReportInput) (*models.SessionReport, error) {
	if _, err := s.GetReport(id); err != nil {
		return nil, err
	}
	sr, err := s.reportFromInput(in)
	if err != nil {
		return nil, err
	}
	sr.ID = id
	return s.reportRepo.Update(sr)
}

// DeleteReport removes a report
func (s *SessionReportService) DeleteReport(id int64) error {
	if _, err := s.GetReport(id); err != nil {
		return err
	}
	return s.reportRepo.Delete(id)
}

// ListReports returns the reports matching q and the date range that was applied
func (s *SessionReportService) ListReports(q ReportQuery) ([]models.SessionReport, reportperiod.DateRange, error) {
	f, err := s.filter(q)
	if err != nil {
		return nil, reportperiod.DateRange{}, err
	}
	reports, err := s.reportRepo.List(f)
	if err != nil {
		return nil, reportperiod.DateRange{}, err
	}
	return reports, reportperiod.DateRange{Start: f.Start, End: f.End}, nil
}

// ExportCSV writes the reports matching q as CSV and returns the download filename
func (s *SessionReportService) ExportCSV(w io.Writer, q ReportQuery) (string, error) {
	reports, r, err := s.ListReports(q)
	if err != nil {
		return "", err
	}
	if err := csvexport.WriteSessionReports(w, reports); err != nil {
		return "", fmt.Errorf("failed to write session report csv: %w", err)
	}
	return csvexport.SessionReportsFilename(r.Start, r.End), nil
}

func (s *SessionReportService) filter(q ReportQuery) (repository.SessionReportFilter, error) {
	f := repository.SessionReportFilter{
		TeacherID: q.TeacherID,
		StudentID: q.StudentID,
		LessonID:  q.LessonID,
	}

	if q.Period != "" {
		r := reportperiod.Resolve(reportperiod.Parse(q.Period), q.Start, q.End, s.now())
		f.Start, f.End = r.Start, r.End
		return f, nil
	}

	fe := validation.FieldErrors{}
	if q.Start != "" && !validation.IsDate(q.Start) {
		fe.Add("start", "Enter a valid date (YYYY-MM-DD).")
	}
	if q.End != "" && !validation.IsDate(q.End) {
		fe.Add("end", "Enter a valid date (YYYY-MM-DD).")
	}
	if err := fe.OrNil(); err != nil {
		return f, err
	}
	f.Start, f.End = q.Start, q.End
	if f.Start != "" && f.End != "" && f.End < f.Start {
		f.Start, f.End = f.End, f.Start
	}
	return f, nil
}

func (s *SessionReportService) reportFromInput(in SessionReportInput) (*models.SessionReport, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	fe := validation.FieldErrors{}
	if in.NextSessionDate != "" && in.NextSessionDate < in.SessionDate {
		fe.Add("next_session_date", "Next session cannot be before the session date.")
	}

	lesson, err := s.lessonRepo.GetByID(in.LessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		fe.Add("lesson_id", "Select a valid lesson.")
	}
	for field, id := range map[string]int64{"student_id": in.StudentID, "teacher_id": in.TeacherID} {
		ok, err := s.personRepo.Exists(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			fe.Add(field, "Select a valid person.")
		}
	}

	progressID := in.ProgressID
	if progressID != nil {
		lp, err := s.progressRepo.GetByID(*progressID)
		if err != nil {
			return nil, err
		}
		if lp == nil || lp.Person.ID != in.StudentID || lp.Lesson.ID != in.LessonID {
			fe.Add("progress_id", "Select the student's progress record for this lesson.")
		}
	}
	if err := fe.OrNil(); err != nil {
		return nil, err
	}

	if progressID == nil {
		records, err := s.progressRepo.ListByPerson(in.StudentID)
		if err != nil {
			return nil, err
		}
		for _, lp := range records {
			if lp.Lesson.ID == in.LessonID {
				id := lp.ID
				progressID = &id
				break
			}
		}
	}

	return &models.SessionReport{
		Lesson:          models.LessonRef{ID: in.LessonID},
		Student:         models.PersonRef{ID: in.StudentID},
		Teacher:         models.PersonRef{ID: in.TeacherID},
		SessionDate:     in.SessionDate,
		SessionStart:    in.SessionStart,
		Score:           in.Score,
		NextSessionDate: in.NextSessionDate,
		Remarks:         strings.TrimSpace(in.Remarks),
		ProgressID:      progressID,
	}, nil
}
