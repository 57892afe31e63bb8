package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"churchadmin/internal/models"
	"churchadmin/internal/reportperiod"
)

// ReportFilter selects session reports. Period wins over Start and End.
type ReportFilter struct {
	TeacherID *int64
	StudentID *int64
	LessonID  *int64
	Period    string
	Start     string
	End       string
}

func (f ReportFilter) values() url.Values {
	query := url.Values{}
	for name, id := range map[string]*int64{"teacher_id": f.TeacherID, "student_id": f.StudentID, "lesson_id": f.LessonID} {
		if id != nil {
			query.Set(name, formatID(*id))
		}
	}
	for name, v := range map[string]string{"period": f.Period, "start": f.Start, "end": f.End} {
		if v != "" {
			query.Set(name, v)
		}
	}
	return query
}

// SessionReportsAPI covers teaching session reports
type SessionReportsAPI struct {
	c *Client
}

// List returns the matching reports and the date range the server applied
func (a *SessionReportsAPI) List(ctx context.Context, f ReportFilter) ([]models.SessionReport, reportperiod.DateRange, error) {
	var resp struct {
		Range   reportperiod.DateRange `json:"range"`
		Reports []models.SessionReport `json:"reports"`
	}
	if err := a.c.do(ctx, http.MethodGet, "/api/session-reports", f.values(), nil, &resp); err != nil {
		return nil, reportperiod.DateRange{}, err
	}
	return resp.Reports, resp.Range, nil
}

// ExportCSV streams the matching reports as CSV into w
func (a *SessionReportsAPI) ExportCSV(ctx context.Context, f ReportFilter, w io.Writer) error {
	resp, err := a.c.send(ctx, http.MethodGet, "/api/session-reports/export.csv", f.values(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to copy session report csv: %w", err)
	}
	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
