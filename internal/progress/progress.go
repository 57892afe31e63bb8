// Package progress derives per-person curriculum summaries from lesson progress records.
package progress

import (
	"math"
	"sort"
	"strings"

	"churchadmin/internal/models"
)

// CurrentCurriculum returns the latest, active lessons sorted by order
func CurrentCurriculum(lessons []models.Lesson) []models.Lesson {
	catalog := make([]models.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if l.IsCurrent() {
			catalog = append(catalog, l)
		}
	}
	sort.SliceStable(catalog, func(i, j int) bool {
		return catalog[i].Order < catalog[j].Order
	})
	return catalog
}

// GroupByPerson groups progress records by person and derives one summary per person,
// in order of first appearance. Percentages are computed against the current curriculum,
// not against the number of records a person has been assigned.
func GroupByPerson(all []models.LessonProgress, lessons []models.Lesson) []models.PersonSummary {
	catalog := CurrentCurriculum(lessons)

	summaries := make([]models.PersonSummary, 0)
	index := make(map[int64]int)
	for _, rec := range all {
		i, ok := index[rec.Person.ID]
		if !ok {
			i = len(summaries)
			index[rec.Person.ID] = i
			summaries = append(summaries, models.PersonSummary{
				Person:       rec.Person,
				TotalLessons: len(catalog),
			})
		}
		summaries[i].AllProgress = append(summaries[i].AllProgress, rec)
	}

	for i := range summaries {
		summarize(&summaries[i], catalog)
	}
	return summaries
}

// ForPerson returns the summary for a single person, or nil when the person has no records
func ForPerson(personID int64, all []models.LessonProgress, lessons []models.Lesson) *models.PersonSummary {
	var own []models.LessonProgress
	for _, rec := range all {
		if rec.Person.ID == personID {
			own = append(own, rec)
		}
	}
	summaries := GroupByPerson(own, lessons)
	if len(summaries) == 0 {
		return nil
	}
	return &summaries[0]
}

// Empty returns the summary of a person with no progress records
func Empty(person models.PersonRef, lessons []models.Lesson) models.PersonSummary {
	catalog := CurrentCurriculum(lessons)
	s := models.PersonSummary{Person: person, TotalLessons: len(catalog), AllProgress: []models.LessonProgress{}}
	summarize(&s, catalog)
	return s
}

func summarize(s *models.PersonSummary, catalog []models.Lesson) {
	completed := make(map[int64]bool)
	for _, rec := range s.AllProgress {
		if rec.Status == models.StatusCompleted {
			completed[rec.Lesson.ID] = true
		}
	}

	s.CompletedCount = 0
	s.CurrentLesson = nil
	s.NextLesson = nil
	for i := range catalog {
		if completed[catalog[i].ID] {
			s.CompletedCount++
			continue
		}
		if s.CurrentLesson == nil {
			current := catalog[i]
			s.CurrentLesson = &current
			if i+1 < len(catalog) {
				next := catalog[i+1]
				s.NextLesson = &next
			}
		}
	}

	s.ProgressPercentage = Percentage(s.CompletedCount, s.TotalLessons)
}

// Percentage rounds completed/total to the nearest whole percent; zero total yields zero
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(100*float64(completed)/float64(total) + 0.5))
}

// SortKey selects the ordering applied by Sort
type SortKey string

const (
	SortByName     SortKey = "name"
	SortByProgress SortKey = "progress"
	SortByLesson   SortKey = "lesson"
)

// Sort orders summaries in place. Ties fall back to the person name.
func Sort(summaries []models.PersonSummary, key SortKey) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		switch key {
		case SortByProgress:
			if a.ProgressPercentage != b.ProgressPercentage {
				return a.ProgressPercentage > b.ProgressPercentage
			}
		case SortByLesson:
			ao, bo := currentOrder(a), currentOrder(b)
			if ao != bo {
				return ao < bo
			}
		}
		return strings.ToLower(a.Person.Name) < strings.ToLower(b.Person.Name)
	})
}

// Filter keeps summaries whose person name contains query, case-insensitively
func Filter(summaries []models.PersonSummary, query string) []models.PersonSummary {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return summaries
	}
	filtered := make([]models.PersonSummary, 0, len(summaries))
	for _, s := range summaries {
		if strings.Contains(strings.ToLower(s.Person.Name), query) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// people who finished everything sort after those still working
func currentOrder(s models.PersonSummary) int {
	if s.CurrentLesson == nil {
		return math.MaxInt
	}
	return s.CurrentLesson.Order
}
