package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"churchadmin/internal/database"
	"churchadmin/internal/repository"
	"churchadmin/internal/security"
	"churchadmin/internal/service"
)

// testServer wires the real services over a throwaway SQLite database
type testServer struct {
	mux     *http.ServeMux
	auth    *service.AuthService
	people  *service.PeopleService
	lessons *service.LessonService
	reports *service.SessionReportService
	limiter *security.RateLimiter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations("../../migrations"))

	email, err := service.NewEmailService(context.Background(), "", "", "", "http://localhost:8080", false)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	personRepo := repository.NewPersonRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	clusterRepo := repository.NewClusterRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	reportRepo := repository.NewSessionReportRepository(db)
	eventRepo := repository.NewEventRepository(db)

	ts := &testServer{
		mux:     http.NewServeMux(),
		auth:    service.NewAuthService(userRepo, email, time.Hour),
		people:  service.NewPeopleService(personRepo, familyRepo, clusterRepo),
		lessons: service.NewLessonService(lessonRepo, progressRepo, personRepo, userRepo, email),
		reports: service.NewSessionReportService(reportRepo, lessonRepo, personRepo, progressRepo),
		limiter: security.NewRateLimiter(3, time.Minute),
	}
	t.Cleanup(ts.limiter.Stop)

	csrf := security.NewCSRFGenerator("test-secret")
	m := NewMiddleware(ts.auth, csrf, ts.limiter)
	authHandler := NewAuthHandler(ts.auth, csrf, nil, "http://localhost:8080", "http://localhost:8080")
	adminHandler := NewAdminHandler(ts.auth, service.NewBackupService(db))
	peopleHandler := NewPeopleHandler(ts.people, ts.lessons)
	lessonHandler := NewLessonHandler(ts.lessons)
	reportHandler := NewSessionReportHandler(ts.reports)
	eventHandler := NewEventHandler(service.NewEventService(eventRepo))
	coordinatorHandler := NewCoordinatorHandler(service.NewCoordinatorService(
		repository.NewCoordinatorRepository(db), personRepo, clusterRepo,
		repository.NewEvangelismRepository(db), lessonRepo))

	ts.mux.HandleFunc("POST /api/auth/login", m.RateLimit(authHandler.Login))
	ts.mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	ts.mux.HandleFunc("GET /api/auth/me", m.RequireAuth(authHandler.Me))
	ts.mux.HandleFunc("POST /api/admin/users", m.Admin(adminHandler.CreateUser))
	ts.mux.HandleFunc("GET /api/people", m.Staff(peopleHandler.ListPeople))
	ts.mux.HandleFunc("POST /api/people", m.Staff(peopleHandler.CreatePerson))
	ts.mux.HandleFunc("GET /api/people/{id}", m.Staff(peopleHandler.GetPerson))
	ts.mux.HandleFunc("DELETE /api/people/{id}", m.Staff(peopleHandler.DeletePerson))
	ts.mux.HandleFunc("POST /api/lessons", m.Staff(lessonHandler.CreateLesson))
	ts.mux.HandleFunc("POST /api/lessons/{id}/assign", m.Staff(lessonHandler.AssignToPeople))
	ts.mux.HandleFunc("POST /api/session-reports", m.Staff(reportHandler.CreateReport))
	ts.mux.HandleFunc("GET /api/session-reports/export.csv", m.Staff(reportHandler.ExportCSV))
	ts.mux.HandleFunc("GET /api/events/occurrences", m.Staff(eventHandler.Occurrences))
	ts.mux.HandleFunc("GET /api/coordinators/scope", m.Staff(coordinatorHandler.CheckScope))
	return ts
}

// session is a signed-in staff member
type session struct {
	cookie *http.Cookie
	csrf   string
}

// bootstrap registers the first administrator and returns their session
func (ts *testServer) bootstrap(t *testing.T) session {
	t.Helper()
	rec := ts.do(t, session{}, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "admin@church.org",
		"password": "correct-horse-9",
		"name":     "Pastor Admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return session{cookie: cookies[0], csrf: body.CSRFToken}
}

// do sends body as JSON with the session cookie and CSRF header when present
func (ts *testServer) do(t *testing.T, s session, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	if s.csrf != "" {
		req.Header.Set(security.CSRFHeaderName, s.csrf)
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
