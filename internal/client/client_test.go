package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchadmin/internal/models"
)

func TestParseErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"detail wins", http.StatusNotFound, `{"detail":"Lesson not found"}`, "Lesson not found"},
		{"first field message", http.StatusBadRequest, `{"title":["Title is required."],"amount":["Enter a positive contribution amount","too big"]}`, "Enter a positive contribution amount"},
		{"empty detail falls through to fields", http.StatusBadRequest, `{"detail":"","date":["Enter a valid date (YYYY-MM-DD)."]}`, "Enter a valid date (YYYY-MM-DD)."},
		{"plain text body", http.StatusBadGateway, "upstream down", "Request failed with status 502."},
		{"empty body", http.StatusInternalServerError, "", "Request failed with status 500."},
		{"field without messages", http.StatusBadRequest, `{"title":[]}`, "Request failed with status 400."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, nil).Lessons.Get(context.Background(), 1)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Error())
		})
	}
}

func TestLoginKeepsSessionAndCSRFToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session_id", Value: "abc", Path: "/"})
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"user":       map[string]interface{}{"id": 1, "email": "admin@church.org"},
			"csrf_token": "token-1",
		})
	})
	mux.HandleFunc("POST /api/finance/pledges/{id}/contributions", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session_id")
		if err != nil || cookie.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("X-CSRF-Token") != "token-1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"contribution": map[string]interface{}{"id": 9, "pledge_id": 4, "amount": body["amount"]},
			"pledge":       map[string]interface{}{"id": 4, "amount_received": 150.5},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, nil)
	user, err := c.Login(context.Background(), "admin@church.org", "secret-123")
	require.NoError(t, err)
	assert.Equal(t, "admin@church.org", user.Email)

	contribution, pledge, err := c.Finance.AddContribution(context.Background(), 4, 150.5, "2024-06-01", "")
	require.NoError(t, err)
	assert.Equal(t, int64(9), contribution.ID)
	assert.Equal(t, int64(4), pledge.ID)
}

func TestAddContributionRefusesNonPositiveAmountLocally(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	for _, amount := range []float64{0, -25} {
		_, _, err := New(srv.URL, nil).Finance.AddContribution(context.Background(), 1, amount, "2024-06-01", "")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Enter a positive contribution amount", apiErr.Message)
		assert.Zero(t, apiErr.StatusCode)
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestAssignToPeopleReturnsPartialResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/lessons/3/assign", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = w.Write([]byte(`{"results":[{"item_id":1,"progress":{"id":10}},{"item_id":2,"error":"person not found"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Lessons.AssignToPeople(context.Background(), 3, nil)
	assert.ErrorIs(t, err, ErrNothingSelected)

	results, err := c.Lessons.AssignToPeople(context.Background(), 3, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "person not found", results[1].Error)
}

func TestSessionReportsQueryAndExport(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/session-reports", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "7", q.Get("teacher_id"))
		assert.Equal(t, "lastMonth", q.Get("period"))
		assert.Empty(t, q.Get("student_id"))
		_, _ = w.Write([]byte(`{"range":{"start":"2024-02-01","end":"2024-02-29"},"reports":[{"id":1,"session_date":"2024-02-10"}]}`))
	})
	mux.HandleFunc("GET /api/session-reports/export.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte("Lesson,Student\nPrayer,Timothy Lystra\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, nil)
	teacher := int64(7)
	reports, dateRange, err := c.SessionReports.List(context.Background(), ReportFilter{TeacherID: &teacher, Period: "lastMonth"})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "2024-02-01", dateRange.Start)
	assert.Equal(t, "2024-02-29", dateRange.End)

	var buf bytes.Buffer
	require.NoError(t, c.SessionReports.ExportCSV(context.Background(), ReportFilter{}, &buf))
	assert.Equal(t, "Lesson,Student\nPrayer,Timothy Lystra\n", buf.String())
}

func TestPledgesStatusFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ACTIVE", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`[{"id":1,"status":"ACTIVE"}]`))
	}))
	defer srv.Close()

	pledges, err := New(srv.URL, nil).Finance.Pledges(context.Background(), models.PledgeActive)
	require.NoError(t, err)
	require.Len(t, pledges, 1)
	assert.Equal(t, models.PledgeActive, pledges[0].Status)
}
