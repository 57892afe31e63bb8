package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/require"

	"churchadmin/internal/database"
	"churchadmin/internal/repository"
	"churchadmin/internal/validation"
)

// fakeSES records every message instead of sending it
type fakeSES struct {
	mu   sync.Mutex
	sent []*sesv2.SendEmailInput
	err  error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func (f *fakeSES) messages() []*sesv2.SendEmailInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*sesv2.SendEmailInput(nil), f.sent...)
}

type testEnv struct {
	db           *database.DB
	ses          *fakeSES
	email        *EmailService
	users        *repository.UserRepository
	persons      *repository.PersonRepository
	families     *repository.FamilyRepository
	clusters     *repository.ClusterRepository
	evangelism   *repository.EvangelismRepository
	lessons      *repository.LessonRepository
	progress     *repository.ProgressRepository
	reports      *repository.SessionReportRepository
	finance      *repository.FinanceRepository
	coordinators *repository.CoordinatorRepository
	events       *repository.EventRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations("../../migrations"))

	ses := &fakeSES{}
	return &testEnv{
		db:           db,
		ses:          ses,
		email:        newEmailServiceWithClient(ses, "noreply@church.org", "Church Admin", "http://localhost:8080", false),
		users:        repository.NewUserRepository(db),
		persons:      repository.NewPersonRepository(db),
		families:     repository.NewFamilyRepository(db),
		clusters:     repository.NewClusterRepository(db),
		evangelism:   repository.NewEvangelismRepository(db),
		lessons:      repository.NewLessonRepository(db),
		progress:     repository.NewProgressRepository(db),
		reports:      repository.NewSessionReportRepository(db),
		finance:      repository.NewFinanceRepository(db),
		coordinators: repository.NewCoordinatorRepository(db),
		events:       repository.NewEventRepository(db),
	}
}

func (e *testEnv) authService() *AuthService {
	return NewAuthService(e.users, e.email, time.Hour)
}

func (e *testEnv) peopleService() *PeopleService {
	return NewPeopleService(e.persons, e.families, e.clusters)
}

func (e *testEnv) lessonService() *LessonService {
	return NewLessonService(e.lessons, e.progress, e.persons, e.users, e.email)
}

func (e *testEnv) reportService() *SessionReportService {
	return NewSessionReportService(e.reports, e.lessons, e.persons, e.progress)
}

func (e *testEnv) financeService(t *testing.T) *FinanceService {
	t.Helper()
	s := NewFinanceService(e.finance, e.persons, 10*time.Millisecond)
	t.Cleanup(s.Close)
	return s
}

func (e *testEnv) person(t *testing.T, first, last string) int64 {
	t.Helper()
	p, err := e.peopleService().CreatePerson(PersonInput{FirstName: first, LastName: last})
	require.NoError(t, err)
	return p.ID
}

func (e *testEnv) lesson(t *testing.T, order int, title string) int64 {
	t.Helper()
	l, err := e.lessonService().CreateLesson(LessonInput{Order: order, Title: title, VersionLabel: "v1"})
	require.NoError(t, err)
	return l.ID
}

func ptr[T any](v T) *T {
	return &v
}

// fieldErrors unwraps a validation failure so tests can assert on individual fields
func fieldErrors(t *testing.T, err error) validation.FieldErrors {
	t.Helper()
	var fe validation.FieldErrors
	require.ErrorAs(t, err, &fe)
	return fe
}
