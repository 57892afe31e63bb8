package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"churchadmin/internal/models"
	"churchadmin/internal/progress"
	"churchadmin/internal/repository"
	"churchadmin/internal/validation"
)

// markdown renders lesson content. Raw HTML in the source is escaped.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// LessonInput is the writable part of a lesson
type LessonInput struct {
	Order        int    `json:"order" validate:"gte=1"`
	Title        string `json:"title" validate:"required,max=200"`
	VersionLabel string `json:"version_label" validate:"required,max=50"`
	Content      string `json:"content"`
	IsActive     *bool  `json:"is_active"`
}

// LessonUpdateInput changes a lesson in place; order and version stay fixed
type LessonUpdateInput struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content"`
	IsActive *bool  `json:"is_active"`
}

// SupersedeInput describes the new version that replaces a lesson.
// Empty title or content are copied from the old version.
type SupersedeInput struct {
	VersionLabel string `json:"version_label" validate:"required,max=50"`
	Title        string `json:"title" validate:"max=200"`
	Content      string `json:"content"`
}

// AssignResult reports the outcome of one item of a bulk assignment
type AssignResult struct {
	ItemID   int64                  `json:"item_id"`
	Progress *models.LessonProgress `json:"progress,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Err      error                  `json:"-"`
}

// AllAssigned reports whether every item of a bulk assignment succeeded
func AllAssigned(results []AssignResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return false
		}
	}
	return true
}

// LessonService handles the lesson catalog and per-person progress
type LessonService struct {
	lessonRepo   *repository.LessonRepository
	progressRepo *repository.ProgressRepository
	personRepo   *repository.PersonRepository
	userRepo     *repository.UserRepository
	email        *EmailService
	now          func() time.Time
}

// NewLessonService creates a new lesson service
func NewLessonService(
	lessonRepo *repository.LessonRepository,
	progressRepo *repository.ProgressRepository,
	personRepo *repository.PersonRepository,
	userRepo *repository.UserRepository,
	email *EmailService,
) *LessonService {
	return &LessonService{
		lessonRepo:   lessonRepo,
		progressRepo: progressRepo,
		personRepo:   personRepo,
		userRepo:     userRepo,
		email:        email,
		now:          time.Now,
	}
}

// RenderContent converts lesson markdown to HTML
func RenderContent(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("failed to render lesson content: %w", err)
	}
	return buf.String(), nil
}

// CreateLesson adds a lesson to the catalog as the latest version of its order
func (s *LessonService) CreateLesson(in LessonInput) (*models.Lesson, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.VersionLabel = strings.TrimSpace(in.VersionLabel)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	l := &models.Lesson{
		Order:        in.Order,
		Title:        in.Title,
		VersionLabel: in.VersionLabel,
		Content:      in.Content,
		IsLatest:     true,
		IsActive:     active,
	}
	if err := s.lessonRepo.Create(l); err != nil {
		return nil, err
	}
	return l, nil
}

// GetLesson retrieves a lesson with its content rendered to HTML
func (s *LessonService) GetLesson(id int64) (*models.Lesson, error) {
	l, err := s.lessonRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrLessonNotFound
	}

	l.ContentHTML, err = RenderContent(l.Content)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListLessons returns the catalog; currentOnly keeps latest, active lessons
func (s *LessonService) ListLessons(currentOnly bool) ([]models.Lesson, error) {
	return s.lessonRepo.List(currentOnly)
}

// UpdateLesson edits a lesson in place
func (s *LessonService) UpdateLesson(id int64, in LessonUpdateInput) (*models.Lesson, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	l, err := s.GetLesson(id)
	if err != nil {
		return nil, err
	}
	l.Title = in.Title
	l.Content = in.Content
	if in.IsActive != nil {
		l.IsActive = *in.IsActive
	}
	if err := s.lessonRepo.Update(l); err != nil {
		return nil, err
	}

	l.ContentHTML, err = RenderContent(l.Content)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// SupersedeLesson replaces the latest version of a lesson with a new one at the same order.
// Existing progress records stay attached to the old version.
func (s *LessonService) SupersedeLesson(id int64, in SupersedeInput) (*models.Lesson, error) {
	in.VersionLabel = strings.TrimSpace(in.VersionLabel)
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	old, err := s.lessonRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, ErrLessonNotFound
	}

	next := &models.Lesson{
		Order:        old.Order,
		Title:        in.Title,
		VersionLabel: in.VersionLabel,
		Content:      in.Content,
		IsActive:     old.IsActive,
	}
	if next.Title == "" {
		next.Title = old.Title
	}
	if next.Content == "" {
		next.Content = old.Content
	}

	if err := s.lessonRepo.Supersede(old.ID, next); err != nil {
		// The retire step only matches the latest version
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLessonNotCurrent
		}
		return nil, fmt.Errorf("failed to supersede lesson: %w", err)
	}
	return next, nil
}

// AssignLessonToPeople assigns one lesson to many people. Every person is attempted;
// failures are reported per item.
func (s *LessonService) AssignLessonToPeople(lessonID int64, personIDs []int64, assignedBy *int64) ([]AssignResult, error) {
	if len(personIDs) == 0 {
		return nil, validation.Single("person_ids", "Select at least one person.")
	}
	lesson, err := s.lessonRepo.GetByID(lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	results := make([]AssignResult, 0, len(personIDs))
	for _, personID := range personIDs {
		results = append(results, s.assignOne(personID, personID, lessonID, assignedBy))
	}
	return results, nil
}

// AssignLessonsToPerson assigns many lessons to one person. Every lesson is attempted;
// failures are reported per item.
func (s *LessonService) AssignLessonsToPerson(personID int64, lessonIDs []int64, assignedBy *int64) ([]AssignResult, error) {
	if len(lessonIDs) == 0 {
		return nil, validation.Single("lesson_ids", "Select at least one lesson.")
	}
	ok, err := s.personRepo.Exists(personID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPersonNotFound
	}

	results := make([]AssignResult, 0, len(lessonIDs))
	for _, lessonID := range lessonIDs {
		results = append(results, s.assignOne(lessonID, personID, lessonID, assignedBy))
	}
	return results, nil
}

func (s *LessonService) assignOne(itemID, personID, lessonID int64, assignedBy *int64) AssignResult {
	result := AssignResult{ItemID: itemID}
	result.Progress, result.Err = s.assign(personID, lessonID, assignedBy)
	if result.Err != nil {
		result.Error = result.Err.Error()
		if !errors.Is(result.Err, ErrNotFound) && !errors.Is(result.Err, ErrDuplicateAssignment) {
			log.Printf("Error assigning lesson %d to person %d: %v", lessonID, personID, result.Err)
		}
	}
	return result
}

func (s *LessonService) assign(personID, lessonID int64, assignedBy *int64) (*models.LessonProgress, error) {
	ok, err := s.personRepo.Exists(personID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPersonNotFound
	}
	lesson, err := s.lessonRepo.GetByID(lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	lp, err := s.progressRepo.Create(personID, lessonID, assignedBy)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrDuplicateAssignment
	}
	if err != nil {
		return nil, err
	}
	return lp, nil
}

// GetProgress retrieves a progress record by ID
func (s *LessonService) GetProgress(id int64) (*models.LessonProgress, error) {
	lp, err := s.progressRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if lp == nil {
		return nil, ErrProgressNotFound
	}
	return lp, nil
}

// ListProgress returns progress records for a person, a lesson, or everyone
func (s *LessonService) ListProgress(personID, lessonID *int64) ([]models.LessonProgress, error) {
	var records []models.LessonProgress
	var err error
	switch {
	case personID != nil:
		records, err = s.progressRepo.ListByPerson(*personID)
	case lessonID != nil:
		records, err = s.progressRepo.ListByLesson(*lessonID)
	default:
		return s.progressRepo.ListAll()
	}
	if err != nil {
		return nil, err
	}

	if personID != nil && lessonID != nil {
		filtered := records[:0]
		for _, r := range records {
			if r.Lesson.ID == *lessonID {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	return records, nil
}

// UpdateProgressStatus moves a record to a new status
func (s *LessonService) UpdateProgressStatus(ctx context.Context, id int64, status models.ProgressStatus) (*models.LessonProgress, error) {
	if !status.Valid() {
		return nil, validation.Single("status", "Select one of: ASSIGNED IN_PROGRESS COMPLETED SKIPPED.")
	}
	before, err := s.GetProgress(id)
	if err != nil {
		return nil, err
	}

	lp, err := s.progressRepo.UpdateStatus(id, status)
	if err != nil {
		return nil, err
	}
	if lp == nil {
		return nil, ErrProgressNotFound
	}
	if before.Status != models.StatusCompleted && lp.Status == models.StatusCompleted {
		s.notifyIfCourseComplete(ctx, lp)
	}
	return lp, nil
}

// CompleteProgress marks a record COMPLETED with an optional note
func (s *LessonService) CompleteProgress(ctx context.Context, id int64, note string) (*models.LessonProgress, error) {
	before, err := s.GetProgress(id)
	if err != nil {
		return nil, err
	}

	lp, err := s.progressRepo.Complete(id, strings.TrimSpace(note), s.now())
	if err != nil {
		return nil, err
	}
	if lp == nil {
		return nil, ErrProgressNotFound
	}
	if before.Status != models.StatusCompleted {
		s.notifyIfCourseComplete(ctx, lp)
	}
	return lp, nil
}

// SetCommitment records whether the commitment form was signed
func (s *LessonService) SetCommitment(id int64, signed bool) (*models.LessonProgress, error) {
	lp, err := s.progressRepo.SetCommitment(id, signed)
	if err != nil {
		return nil, err
	}
	if lp == nil {
		return nil, ErrProgressNotFound
	}
	return lp, nil
}

// UpdateProgressNotes replaces the notes on a record
func (s *LessonService) UpdateProgressNotes(id int64, notes string) (*models.LessonProgress, error) {
	lp, err := s.progressRepo.UpdateNotes(id, notes)
	if err != nil {
		return nil, err
	}
	if lp == nil {
		return nil, ErrProgressNotFound
	}
	return lp, nil
}

// Summaries derives one curriculum summary per person with progress,
// filtered by name query and ordered by sortKey.
func (s *LessonService) Summaries(query string, sortKey progress.SortKey) ([]models.PersonSummary, error) {
	records, err := s.progressRepo.ListAll()
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessonRepo.List(false)
	if err != nil {
		return nil, err
	}

	summaries := progress.Filter(progress.GroupByPerson(records, lessons), query)
	if sortKey != "" {
		progress.Sort(summaries, sortKey)
	}
	return summaries, nil
}

// PersonSummary derives one person's curriculum summary.
// A person with no records gets an empty summary pointing at the first lesson.
func (s *LessonService) PersonSummary(personID int64) (*models.PersonSummary, error) {
	person, err := s.personRepo.GetByID(personID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, ErrPersonNotFound
	}

	records, err := s.progressRepo.ListByPerson(personID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessonRepo.List(false)
	if err != nil {
		return nil, err
	}

	if summary := progress.ForPerson(personID, records, lessons); summary != nil {
		return summary, nil
	}
	empty := progress.Empty(person.Ref(), lessons)
	return &empty, nil
}

// notifyIfCourseComplete emails the assigning staff member once a person has
// completed every lesson of the current curriculum. Failures are logged only.
func (s *LessonService) notifyIfCourseComplete(ctx context.Context, lp *models.LessonProgress) {
	if !s.email.IsEnabled() || lp.AssignedBy == nil {
		return
	}

	summary, err := s.PersonSummary(lp.Person.ID)
	if err != nil {
		log.Printf("Warning: failed to build summary for completion email: %v", err)
		return
	}
	if summary.TotalLessons == 0 || summary.CompletedCount < summary.TotalLessons {
		return
	}

	user, err := s.userRepo.GetUserByID(*lp.AssignedBy)
	if err != nil || user == nil {
		log.Printf("Warning: no staff user %d to notify of course completion: %v", *lp.AssignedBy, err)
		return
	}
	if err := s.email.SendCourseCompletionEmail(ctx, user.Email, user.Name, lp.Person.Name, summary.TotalLessons); err != nil {
		log.Printf("Warning: failed to send course completion email: %v", err)
	}
}
