package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"churchadmin/internal/service"
)

// SessionReportHandler handles teaching session reports
type SessionReportHandler struct {
	reportService *service.SessionReportService
}

// NewSessionReportHandler creates a new session report handler
func NewSessionReportHandler(reportService *service.SessionReportService) *SessionReportHandler {
	return &SessionReportHandler{reportService: reportService}
}

// reportQuery reads the list filters shared by the list and export endpoints
func reportQuery(w http.ResponseWriter, r *http.Request) (service.ReportQuery, bool) {
	var q service.ReportQuery
	var ok bool
	if q.TeacherID, ok = queryID(w, r, "teacher_id"); !ok {
		return q, false
	}
	if q.StudentID, ok = queryID(w, r, "student_id"); !ok {
		return q, false
	}
	if q.LessonID, ok = queryID(w, r, "lesson_id"); !ok {
		return q, false
	}
	values := r.URL.Query()
	q.Period = values.Get("period")
	q.Start = values.Get("start")
	q.End = values.Get("end")
	return q, true
}

// ListReports returns the matching reports together with the applied date range
func (h *SessionReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	q, ok := reportQuery(w, r)
	if !ok {
		return
	}
	reports, dateRange, err := h.reportService.ListReports(q)
	if err != nil {
		respondServiceError(w, err, "Error listing session reports")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"range":   dateRange,
		"reports": reports,
	})
}

// ExportCSV downloads the matching reports as a CSV file
func (h *SessionReportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	q, ok := reportQuery(w, r)
	if !ok {
		return
	}

	// Buffered so a failure can still be reported as JSON
	var buf bytes.Buffer
	filename, err := h.reportService.ExportCSV(&buf, q)
	if err != nil {
		respondServiceError(w, err, "Error exporting session reports")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("Error writing CSV export: %v", err)
	}
}

func (h *SessionReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var in service.SessionReportInput
	if !decodeJSON(w, r, &in) {
		return
	}
	sr, err := h.reportService.CreateReport(in)
	if err != nil {
		respondServiceError(w, err, "Error creating session report")
		return
	}
	respondJSON(w, http.StatusCreated, sr)
}

func (h *SessionReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sr, err := h.reportService.GetReport(id)
	if err != nil {
		respondServiceError(w, err, "Error getting session report")
		return
	}
	respondJSON(w, http.StatusOK, sr)
}

func (h *SessionReportHandler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.SessionReportInput
	if !decodeJSON(w, r, &in) {
		return
	}
	sr, err := h.reportService.UpdateReport(id, in)
	if err != nil {
		respondServiceError(w, err, "Error updating session report")
		return
	}
	respondJSON(w, http.StatusOK, sr)
}

func (h *SessionReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfirm(w, r) {
		return
	}
	if err := h.reportService.DeleteReport(id); err != nil {
		respondServiceError(w, err, "Error deleting session report")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
