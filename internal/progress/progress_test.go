package progress

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchadmin/internal/models"
)

func catalog() []models.Lesson {
	return []models.Lesson{
		{ID: 30, Order: 3, Title: "Prayer", IsLatest: true, IsActive: true},
		{ID: 10, Order: 1, Title: "Salvation", IsLatest: true, IsActive: true},
		{ID: 20, Order: 2, Title: "Baptism", IsLatest: true, IsActive: true},
		{ID: 11, Order: 1, Title: "Salvation (old)", IsLatest: false, IsActive: true},
		{ID: 40, Order: 4, Title: "Draft", IsLatest: true, IsActive: false},
	}
}

func rec(id, personID, lessonID int64, status models.ProgressStatus) models.LessonProgress {
	return models.LessonProgress{
		ID:     id,
		Person: models.PersonRef{ID: personID, Name: map[int64]string{1: "Priscilla", 2: "Aquila", 3: "Apollos"}[personID]},
		Lesson: models.LessonRef{ID: lessonID},
		Status: status,
	}
}

func TestCurrentCurriculum(t *testing.T) {
	got := CurrentCurriculum(catalog())

	require.Len(t, got, 3)
	assert.Equal(t, int64(10), got[0].ID)
	assert.Equal(t, int64(20), got[1].ID)
	assert.Equal(t, int64(30), got[2].ID)
}

func TestGroupByPersonOneOfThreeCompleted(t *testing.T) {
	all := []models.LessonProgress{
		rec(1, 1, 10, models.StatusCompleted),
		rec(2, 1, 20, models.StatusAssigned),
	}

	got := GroupByPerson(all, catalog())

	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, 1, s.CompletedCount)
	assert.Equal(t, 3, s.TotalLessons)
	assert.Equal(t, 33, s.ProgressPercentage)
	require.NotNil(t, s.CurrentLesson)
	require.NotNil(t, s.NextLesson)
	assert.Equal(t, int64(20), s.CurrentLesson.ID)
	assert.Equal(t, int64(30), s.NextLesson.ID)
	assert.Len(t, s.AllProgress, 2)
}

func TestGroupByPersonAllCompleted(t *testing.T) {
	all := []models.LessonProgress{
		rec(1, 2, 10, models.StatusCompleted),
		rec(2, 2, 20, models.StatusCompleted),
		rec(3, 2, 30, models.StatusCompleted),
	}

	got := GroupByPerson(all, catalog())

	require.Len(t, got, 1)
	assert.Equal(t, 100, got[0].ProgressPercentage)
	assert.Nil(t, got[0].CurrentLesson)
	assert.Nil(t, got[0].NextLesson)
}

func TestGroupByPersonCurrentIsLastLesson(t *testing.T) {
	all := []models.LessonProgress{
		rec(1, 3, 10, models.StatusCompleted),
		rec(2, 3, 20, models.StatusCompleted),
		rec(3, 3, 30, models.StatusInProgress),
	}

	got := GroupByPerson(all, catalog())

	require.NotNil(t, got[0].CurrentLesson)
	assert.Equal(t, int64(30), got[0].CurrentLesson.ID)
	assert.Nil(t, got[0].NextLesson)
	assert.Equal(t, 67, got[0].ProgressPercentage)
}

func TestGroupByPersonIgnoresSupersededCompletions(t *testing.T) {
	all := []models.LessonProgress{
		rec(1, 1, 11, models.StatusCompleted),
		rec(2, 1, 10, models.StatusSkipped),
	}

	got := GroupByPerson(all, catalog())

	assert.Equal(t, 0, got[0].CompletedCount)
	assert.Equal(t, int64(10), got[0].CurrentLesson.ID)
}

func TestGroupByPersonEmptyInputs(t *testing.T) {
	got := GroupByPerson(nil, catalog())
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = GroupByPerson([]models.LessonProgress{rec(1, 1, 10, models.StatusCompleted)}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].TotalLessons)
	assert.Equal(t, 0, got[0].ProgressPercentage)
	assert.Nil(t, got[0].CurrentLesson)
}

func TestGroupByPersonFirstSeenOrder(t *testing.T) {
	all := []models.LessonProgress{
		rec(1, 2, 10, models.StatusAssigned),
		rec(2, 1, 10, models.StatusAssigned),
		rec(3, 2, 20, models.StatusAssigned),
		rec(4, 3, 10, models.StatusAssigned),
	}

	got := GroupByPerson(all, catalog())

	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].Person.ID)
	assert.Equal(t, int64(1), got[1].Person.ID)
	assert.Equal(t, int64(3), got[2].Person.ID)
}

func TestGroupByPersonProperties(t *testing.T) {
	statuses := []models.ProgressStatus{models.StatusAssigned, models.StatusInProgress, models.StatusCompleted, models.StatusSkipped}
	lessonIDs := []int64{10, 11, 20, 30, 40}
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		var all []models.LessonProgress
		for i := 0; i < rng.Intn(20); i++ {
			all = append(all, rec(int64(i), int64(rng.Intn(4)+1), lessonIDs[rng.Intn(len(lessonIDs))], statuses[rng.Intn(len(statuses))]))
		}

		got := GroupByPerson(all, catalog())
		byPerson := make(map[int64]models.PersonSummary)
		for _, s := range got {
			byPerson[s.Person.ID] = s
			assert.GreaterOrEqual(t, s.ProgressPercentage, 0)
			assert.LessOrEqual(t, s.ProgressPercentage, 100)
			assert.LessOrEqual(t, s.CompletedCount, s.TotalLessons)
			if s.CompletedCount == s.TotalLessons {
				assert.Nil(t, s.CurrentLesson)
			}
			if s.CurrentLesson != nil {
				for _, l := range CurrentCurriculum(catalog()) {
					if !hasCompleted(s, l.ID) {
						assert.LessOrEqual(t, s.CurrentLesson.Order, l.Order)
					}
				}
			}
		}

		shuffled := append([]models.LessonProgress(nil), all...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		for _, s := range GroupByPerson(shuffled, catalog()) {
			want := byPerson[s.Person.ID]
			assert.Equal(t, want.CompletedCount, s.CompletedCount)
			assert.Equal(t, want.ProgressPercentage, s.ProgressPercentage)
			assert.Equal(t, want.CurrentLesson, s.CurrentLesson)
			assert.Equal(t, want.NextLesson, s.NextLesson)
		}
	}
}

func hasCompleted(s models.PersonSummary, lessonID int64) bool {
	for _, p := range s.AllProgress {
		if p.Lesson.ID == lessonID && p.Status == models.StatusCompleted {
			return true
		}
	}
	return false
}

func TestForPerson(t *testing.T) {
	all := []models.LessonProgress{
		rec(1, 1, 10, models.StatusCompleted),
		rec(2, 2, 10, models.StatusAssigned),
	}

	s := ForPerson(2, all, catalog())
	require.NotNil(t, s)
	assert.Equal(t, int64(2), s.Person.ID)
	assert.Len(t, s.AllProgress, 1)

	assert.Nil(t, ForPerson(9, all, catalog()))
}

func TestEmpty(t *testing.T) {
	s := Empty(models.PersonRef{ID: 7, Name: "Lydia"}, catalog())

	assert.Equal(t, 3, s.TotalLessons)
	assert.Equal(t, 0, s.CompletedCount)
	assert.Equal(t, 0, s.ProgressPercentage)
	require.NotNil(t, s.CurrentLesson)
	assert.Equal(t, int64(10), s.CurrentLesson.ID)
	require.NotNil(t, s.NextLesson)
	assert.Equal(t, int64(20), s.NextLesson.ID)
	assert.NotNil(t, s.AllProgress)
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{5, 5, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percentage(tt.completed, tt.total), "%d/%d", tt.completed, tt.total)
	}
}

func TestSortAndFilter(t *testing.T) {
	all := []models.LessonProgress{
		rec(1, 1, 10, models.StatusCompleted),
		rec(2, 2, 10, models.StatusCompleted),
		rec(3, 2, 20, models.StatusCompleted),
		rec(4, 3, 10, models.StatusAssigned),
	}
	summaries := GroupByPerson(all, catalog())

	Sort(summaries, SortByProgress)
	assert.Equal(t, "Aquila", summaries[0].Person.Name)
	assert.Equal(t, "Apollos", summaries[2].Person.Name)

	Sort(summaries, SortByName)
	assert.Equal(t, []string{"Apollos", "Aquila", "Priscilla"},
		[]string{summaries[0].Person.Name, summaries[1].Person.Name, summaries[2].Person.Name})

	Sort(summaries, SortByLesson)
	assert.Equal(t, "Apollos", summaries[0].Person.Name)

	filtered := Filter(summaries, "  PRIS ")
	require.Len(t, filtered, 1)
	assert.Equal(t, "Priscilla", filtered[0].Person.Name)
	assert.Len(t, Filter(summaries, ""), 3)
}
