package csvexport

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchadmin/internal/models"
)

func TestEscapeValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "plain", value: "Salvation", want: "Salvation"},
		{name: "empty", value: "", want: ""},
		{name: "comma and quotes", value: `Smith, John "Jay"`, want: `"Smith, John ""Jay"""`},
		{name: "quote only", value: `say "amen"`, want: `"say ""amen"""`},
		{name: "newline", value: "line one\nline two", want: "\"line one\nline two\""},
		{name: "leading space untouched", value: " indented", want: " indented"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeValue(tt.value))
		})
	}
}

func TestEscapeValueRoundTripsThroughCSVReader(t *testing.T) {
	values := []string{`a,b`, `"quoted"`, "multi\nline", "plain", `mix, "of" all`}
	for _, v := range values {
		r := csv.NewReader(strings.NewReader(EscapeValue(v) + "\n"))
		record, err := r.Read()
		require.NoError(t, err)
		assert.Equal(t, []string{v}, record)
	}
}

func TestWriteSessionReports(t *testing.T) {
	score := 9
	progressID := int64(42)
	reports := []models.SessionReport{
		{
			Lesson:          models.LessonRef{Title: "Salvation"},
			Student:         models.PersonRef{Name: `Smith, John "Jay"`},
			Teacher:         models.PersonRef{Name: "Lydia"},
			SessionDate:     "2024-06-10",
			SessionStart:    "09:00",
			Score:           &score,
			NextSessionDate: "2024-06-17",
			Remarks:         "Good",
			ProgressID:      &progressID,
		},
		{
			Lesson:      models.LessonRef{Title: "Baptism"},
			Student:     models.PersonRef{Name: "Silas"},
			Teacher:     models.PersonRef{Name: "Lydia"},
			SessionDate: "2024-06-11",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSessionReports(&buf, reports))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Lesson,Student,Teacher,Session Date,Session Start,Score,Next Session,Remarks,Progress ID", lines[0])
	assert.Equal(t, `Salvation,"Smith, John ""Jay""",Lydia,2024-06-10,09:00,9,2024-06-17,Good,42`, lines[1])
	assert.Equal(t, "Baptism,Silas,Lydia,2024-06-11,,,,,", lines[2])
}

func TestSessionReportsFilename(t *testing.T) {
	assert.Equal(t, "session-reports_2024-06-01_2024-06-30.csv", SessionReportsFilename("2024-06-01", "2024-06-30"))
	assert.Equal(t, "session-reports_from_2024-06-01.csv", SessionReportsFilename("2024-06-01", ""))
	assert.Equal(t, "session-reports.csv", SessionReportsFilename("", ""))
}
