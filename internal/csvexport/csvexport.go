// Package csvexport writes session reports as a downloadable CSV file.
package csvexport

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"churchadmin/internal/models"
)

// SessionReportHeader is the fixed header row of the session report export
var SessionReportHeader = []string{
	"Lesson",
	"Student",
	"Teacher",
	"Session Date",
	"Session Start",
	"Score",
	"Next Session",
	"Remarks",
	"Progress ID",
}

// EscapeValue quotes v when it contains a comma, a double quote or a line break,
// doubling any embedded quotes. Other values are returned unchanged.
func EscapeValue(v string) string {
	if !strings.ContainsAny(v, ",\"\n\r") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// WriteRow writes one escaped, comma-separated line
func WriteRow(w io.Writer, values []string) error {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = EscapeValue(v)
	}
	_, err := io.WriteString(w, strings.Join(escaped, ",")+"\n")
	return err
}

// WriteSessionReports writes the header followed by one row per report
func WriteSessionReports(w io.Writer, reports []models.SessionReport) error {
	bw := bufio.NewWriter(w)
	if err := WriteRow(bw, SessionReportHeader); err != nil {
		return err
	}
	for _, r := range reports {
		if err := WriteRow(bw, sessionReportRow(r)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func sessionReportRow(r models.SessionReport) []string {
	score := ""
	if r.Score != nil {
		score = strconv.Itoa(*r.Score)
	}
	progressID := ""
	if r.ProgressID != nil {
		progressID = strconv.FormatInt(*r.ProgressID, 10)
	}
	return []string{
		r.Lesson.Title,
		r.Student.Name,
		r.Teacher.Name,
		r.SessionDate,
		r.SessionStart,
		score,
		r.NextSessionDate,
		r.Remarks,
		progressID,
	}
}

// SessionReportsFilename returns the download name for an export covering the given dates
func SessionReportsFilename(start, end string) string {
	switch {
	case start != "" && end != "":
		return "session-reports_" + start + "_" + end + ".csv"
	case start != "":
		return "session-reports_from_" + start + ".csv"
	default:
		return "session-reports.csv"
	}
}
