package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchadmin/internal/models"
	"churchadmin/internal/progress"
)

func TestLessonServiceRendersMarkdown(t *testing.T) {
	env := newTestEnv(t)
	svc := env.lessonService()

	l, err := svc.CreateLesson(LessonInput{
		Order:        1,
		Title:        "Assurance of Salvation",
		VersionLabel: "2024",
		Content:      "# Assurance\nRead **John 10:28**.\n\n<script>alert(1)</script>",
	})
	require.NoError(t, err)
	assert.True(t, l.IsLatest)
	assert.True(t, l.IsActive)

	got, err := svc.GetLesson(l.ID)
	require.NoError(t, err)
	assert.Contains(t, got.ContentHTML, "<h1>Assurance</h1>")
	assert.Contains(t, got.ContentHTML, "<strong>John 10:28</strong>")
	assert.NotContains(t, got.ContentHTML, "<script>")

	_, err = svc.CreateLesson(LessonInput{Order: 0, Title: "", VersionLabel: "v1"})
	fe := fieldErrors(t, err)
	assert.Contains(t, fe, "order")
	assert.Contains(t, fe, "title")
}

func TestLessonServiceSupersede(t *testing.T) {
	env := newTestEnv(t)
	svc := env.lessonService()

	oldID := env.lesson(t, 1, "Prayer")
	personID := env.person(t, "Timothy", "Lystra")
	results, err := svc.AssignLessonToPeople(oldID, []int64{personID}, nil)
	require.NoError(t, err)
	require.True(t, AllAssigned(results))

	next, err := svc.SupersedeLesson(oldID, SupersedeInput{VersionLabel: "v2", Content: "New material"})
	require.NoError(t, err)
	assert.Equal(t, 1, next.Order)
	assert.Equal(t, "Prayer", next.Title, "title is copied when omitted")
	assert.True(t, next.IsLatest)

	old, err := svc.GetLesson(oldID)
	require.NoError(t, err)
	assert.False(t, old.IsLatest)

	_, err = svc.SupersedeLesson(oldID, SupersedeInput{VersionLabel: "v3"})
	assert.ErrorIs(t, err, ErrLessonNotCurrent, "a retired version is rejected by the retire step")

	current, err := svc.ListLessons(true)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, next.ID, current[0].ID)

	records, err := svc.ListProgress(&personID, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, oldID, records[0].Lesson.ID, "progress stays on the superseded version")
}

func TestLessonServiceBulkAssign(t *testing.T) {
	env := newTestEnv(t)
	svc := env.lessonService()

	lessonID := env.lesson(t, 1, "Baptism")
	alice := env.person(t, "Alice", "Able")
	bob := env.person(t, "Bob", "Baker")

	results, err := svc.AssignLessonToPeople(lessonID, []int64{alice, 9999, bob}, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, ErrPersonNotFound)
	assert.Equal(t, int64(9999), results[1].ItemID)
	assert.NotEmpty(t, results[1].Error)
	assert.NoError(t, results[2].Err)
	assert.False(t, AllAssigned(results))

	results, err = svc.AssignLessonToPeople(lessonID, []int64{alice}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, ErrDuplicateAssignment)

	_, err = svc.AssignLessonToPeople(lessonID, nil, nil)
	assert.Contains(t, fieldErrors(t, err), "person_ids")

	_, err = svc.AssignLessonToPeople(9999, []int64{alice}, nil)
	assert.ErrorIs(t, err, ErrLessonNotFound)

	second := env.lesson(t, 2, "Communion")
	results, err = svc.AssignLessonsToPerson(bob, []int64{lessonID, second}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, ErrDuplicateAssignment)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, second, results[1].Progress.Lesson.ID)
}

func TestLessonServiceCompletionEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := env.lessonService()
	ctx := context.Background()

	staff, err := env.authService().Register("teacher@church.org", "password123", "Teacher Tim")
	require.NoError(t, err)

	first := env.lesson(t, 1, "Salvation")
	second := env.lesson(t, 2, "Prayer")
	personID := env.person(t, "Priscilla", "Corinth")

	results, err := svc.AssignLessonsToPerson(personID, []int64{first, second}, &staff.ID)
	require.NoError(t, err)
	require.True(t, AllAssigned(results))

	lp, err := svc.CompleteProgress(ctx, results[0].Progress.ID, "Great discussion")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, lp.Status)
	assert.NotNil(t, lp.CompletedAt)
	assert.Empty(t, env.ses.messages(), "no email until every lesson is complete")

	_, err = svc.UpdateProgressStatus(ctx, results[1].Progress.ID, models.StatusCompleted)
	require.NoError(t, err)

	sent := env.ses.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"teacher@church.org"}, sent[0].Destination.ToAddresses)
	assert.Contains(t, *sent[0].Content.Simple.Subject.Data, "Priscilla Corinth")

	// completing again does not resend
	_, err = svc.UpdateProgressStatus(ctx, results[1].Progress.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, env.ses.messages(), 1)

	_, err = svc.UpdateProgressStatus(ctx, results[1].Progress.ID, "DONE")
	assert.Contains(t, fieldErrors(t, err), "status")
}

func TestLessonServiceSummaries(t *testing.T) {
	env := newTestEnv(t)
	svc := env.lessonService()
	ctx := context.Background()

	first := env.lesson(t, 1, "Salvation")
	second := env.lesson(t, 2, "Prayer")
	env.lesson(t, 3, "Scripture")
	ann := env.person(t, "Ann", "Zed")
	ben := env.person(t, "Ben", "Young")
	carl := env.person(t, "Carl", "Xavier")

	results, err := svc.AssignLessonsToPerson(ann, []int64{first, second}, nil)
	require.NoError(t, err)
	for _, r := range results {
		_, err := svc.CompleteProgress(ctx, r.Progress.ID, "")
		require.NoError(t, err)
	}
	_, err = svc.AssignLessonsToPerson(ben, []int64{first}, nil)
	require.NoError(t, err)

	summaries, err := svc.Summaries("", progress.SortByProgress)
	require.NoError(t, err)
	require.Len(t, summaries, 2, "people without progress are not listed")
	assert.Equal(t, ann, summaries[0].Person.ID)
	assert.Equal(t, 2, summaries[0].CompletedCount)
	assert.Equal(t, 3, summaries[0].TotalLessons)
	assert.Equal(t, 67, summaries[0].ProgressPercentage)

	filtered, err := svc.Summaries("young", "")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, ben, filtered[0].Person.ID)

	empty, err := svc.PersonSummary(carl)
	require.NoError(t, err)
	assert.Equal(t, 3, empty.TotalLessons)
	assert.Equal(t, 0, empty.CompletedCount)
	assert.NotNil(t, empty.AllProgress)
	require.NotNil(t, empty.CurrentLesson)
	assert.Equal(t, first, empty.CurrentLesson.ID)
	require.NotNil(t, empty.NextLesson)
	assert.Equal(t, second, empty.NextLesson.ID)

	_, err = svc.PersonSummary(9999)
	assert.ErrorIs(t, err, ErrPersonNotFound)
}
